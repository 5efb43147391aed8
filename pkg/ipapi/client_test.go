package ipapi_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"tgwallet/pkg/ipapi"
	"tgwallet/pkg/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestClient_Lookup(t *testing.T) {
	cfg := ipapi.Config{BaseURL: "https://ipapi.test"}
	url := "https://ipapi.test/8.8.8.8/json/"

	t.Run("success", func(t *testing.T) {
		mockClient := &mocks.HTTPClient{}
		c := ipapi.NewClient(cfg, mockClient)
		body := `{"ip":"8.8.8.8","country_name":"United States","city":"Mountain View","org":"GOOGLE","asn":"AS15169"}`
		mockClient.On("Get", mock.Anything, url, mock.Anything).Return(response(200, body), nil)

		res, err := c.Lookup(context.Background(), "8.8.8.8")
		require.NoError(t, err)
		assert.Equal(t, "United States", res.Location.CountryName)
		assert.Equal(t, "Mountain View", res.Location.City)
		assert.Equal(t, "GOOGLE", res.Location.Org)
		assert.JSONEq(t, body, string(res.Raw))
		mockClient.AssertExpectations(t)
	})

	t.Run("provider error payload", func(t *testing.T) {
		mockClient := &mocks.HTTPClient{}
		c := ipapi.NewClient(cfg, mockClient)
		mockClient.On("Get", mock.Anything, url, mock.Anything).
			Return(response(200, `{"ip":"8.8.8.8","error":true,"reason":"Reserved IP Address"}`), nil)

		_, err := c.Lookup(context.Background(), "8.8.8.8")
		assert.ErrorIs(t, err, ipapi.ErrLookupFailed)
		assert.ErrorContains(t, err, "Reserved IP Address")
	})

	t.Run("rate limited", func(t *testing.T) {
		mockClient := &mocks.HTTPClient{}
		c := ipapi.NewClient(cfg, mockClient)
		mockClient.On("Get", mock.Anything, url, mock.Anything).Return(response(429, ``), nil)

		_, err := c.Lookup(context.Background(), "8.8.8.8")
		assert.ErrorIs(t, err, ipapi.ErrRateLimited)
	})

	t.Run("timeout", func(t *testing.T) {
		mockClient := &mocks.HTTPClient{}
		c := ipapi.NewClient(cfg, mockClient)
		mockClient.On("Get", mock.Anything, url, mock.Anything).Return(nil, context.DeadlineExceeded)

		_, err := c.Lookup(context.Background(), "8.8.8.8")
		assert.ErrorIs(t, err, ipapi.ErrTimeout)
	})
}
