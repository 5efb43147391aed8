package mq

import (
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducer_SendMessage(t *testing.T) {
	sp := mocks.NewSyncProducer(t, NewProducerConfig())
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"event":"wallet.topup.credited"}` {
			return errors.New("unexpected payload")
		}
		return nil
	})
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducer(sp)
	require.NoError(t, p.SendMessage("wallet.ledger", "42", `{"event":"wallet.topup.credited"}`))
	assert.ErrorIs(t, p.SendMessage("wallet.ledger", "42", `{}`), sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}
