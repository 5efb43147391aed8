package service

import (
	"encoding/json"
	"strconv"
	"time"

	"tgwallet/internal/model"
	"tgwallet/internal/repository"
	"tgwallet/pkg/idgen"
)

// EventFactory builds the outbox messages written with each ledger change.
// A nil factory, or one without a topic, writes no messages.
type EventFactory struct {
	topic string
}

func NewEventFactory(topic string) *EventFactory {
	return &EventFactory{topic: topic}
}

func (f *EventFactory) builder(event string) repository.EventBuilder {
	if f == nil || f.topic == "" {
		return nil
	}
	return func(user *model.User, txn *model.Transaction) (*model.OutboxMessage, error) {
		payload := model.LedgerEvent{
			EventNo:       idgen.GenerateEventNo(),
			Event:         event,
			UserID:        user.ID,
			TransactionID: txn.ID,
			Type:          txn.Type,
			Amount:        txn.Amount.String(),
			BalanceAfter:  user.Balance.String(),
			ServiceID:     txn.ServiceID,
			OccurredAt:    txn.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
		if txn.Reference != nil {
			payload.Reference = *txn.Reference
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		return &model.OutboxMessage{
			MessageKey: strconv.FormatInt(user.ID, 10),
			Topic:      f.topic,
			Payload:    string(body),
			Status:     model.OutboxStatusPending,
		}, nil
	}
}

func (f *EventFactory) TopUp() repository.EventBuilder {
	return f.builder(model.EventTopUpCredited)
}

func (f *EventFactory) Purchase() repository.EventBuilder {
	return f.builder(model.EventPurchaseMade)
}
