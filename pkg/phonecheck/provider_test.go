package phonecheck_test

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"testing"

	"tgwallet/pkg/mocks"
	"tgwallet/pkg/phonecheck"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSimulated_Check(t *testing.T) {
	p := phonecheck.NewSimulated("Russia", "MTS", rand.New(rand.NewSource(1)))

	virtual := 0
	for i := 0; i < 500; i++ {
		res, err := p.Check(context.Background(), "+79991234567")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.FraudScore, 20)
		assert.LessOrEqual(t, res.FraudScore, 99)
		assert.Equal(t, res.FraudScore > 75, res.Spam)
		assert.Equal(t, "Russia", res.Country)
		assert.Equal(t, "MTS", res.Operator)
		assert.True(t, res.Active)
		assert.Contains(t, string(res.Raw), `"phone":"+79991234567"`)
		if res.Virtual {
			virtual++
		}
	}
	assert.InDelta(t, 150, virtual, 50)
}

func TestSimulated_CancelledContext(t *testing.T) {
	p := phonecheck.NewSimulated("Russia", "MTS", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Check(ctx, "+79991234567")
	assert.ErrorIs(t, err, phonecheck.ErrTimeout)
}

func TestIPQS_Check(t *testing.T) {
	cfg := phonecheck.Config{BaseURL: "https://ipqs.test/api/json/phone", APIKey: "key"}
	url := "https://ipqs.test/api/json/phone/key/+15550109999"

	t.Run("maps the response", func(t *testing.T) {
		mockClient := &mocks.HTTPClient{}
		p := phonecheck.NewIPQS(cfg, mockClient)
		body := `{"success":true,"valid":true,"active":true,"fraud_score":88,"recent_abuse":true,"VOIP":true,"carrier":"Verizon","country":"US"}`
		mockClient.On("Get", mock.Anything, url, mock.Anything).
			Return(&http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(body))}, nil)

		res, err := p.Check(context.Background(), "+15550109999")
		require.NoError(t, err)
		assert.Equal(t, 88, res.FraudScore)
		assert.True(t, res.Spam)
		assert.True(t, res.Virtual)
		assert.Equal(t, "Verizon", res.Operator)
		assert.Equal(t, "US", res.Country)
		assert.JSONEq(t, body, string(res.Raw))
	})

	t.Run("unsuccessful lookup", func(t *testing.T) {
		mockClient := &mocks.HTTPClient{}
		p := phonecheck.NewIPQS(cfg, mockClient)
		mockClient.On("Get", mock.Anything, url, mock.Anything).
			Return(&http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(`{"success":false,"message":"Invalid key"}`))}, nil)

		_, err := p.Check(context.Background(), "+15550109999")
		assert.ErrorIs(t, err, phonecheck.ErrCheckFailed)
	})
}
