package telegram

import (
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const botToken = "123456:TEST-token"

func launchValues(authDate time.Time) url.Values {
	return url.Values{
		"query_id":  {"AAHdF6IQAAAAAN0XohDhrOrc"},
		"user":      {`{"id":279058397,"first_name":"Vladislav","last_name":"Kibenko","username":"vdkfrost","photo_url":"https://t.me/i/userpic/320/a.jpg"}`},
		"auth_date": {strconv.FormatInt(authDate.Unix(), 10)},
	}
}

func TestVerifier_Identity(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("valid payload", func(t *testing.T) {
		v := NewVerifier(botToken, false, 0)
		identity, err := v.Identity(SignedInitData(botToken, launchValues(now)))
		require.NoError(t, err)
		assert.Equal(t, int64(279058397), identity.ID)
		assert.Equal(t, "Vladislav", identity.FirstName)
		assert.Equal(t, "vdkfrost", identity.Username)
	})

	t.Run("tampered field", func(t *testing.T) {
		v := NewVerifier(botToken, false, 0)
		values, err := url.ParseQuery(SignedInitData(botToken, launchValues(now)))
		require.NoError(t, err)
		values.Set("user", `{"id":1,"first_name":"Mallory"}`)
		_, err = v.Identity(values.Encode())
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("signed with another bot", func(t *testing.T) {
		v := NewVerifier(botToken, false, 0)
		_, err := v.Identity(SignedInitData("other:token", launchValues(now)))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("missing hash", func(t *testing.T) {
		v := NewVerifier(botToken, false, 0)
		_, err := v.Identity(launchValues(now).Encode())
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("signed payload without user", func(t *testing.T) {
		v := NewVerifier(botToken, false, 0)
		values := url.Values{"auth_date": {"1714564800"}}
		_, err := v.Identity(SignedInitData(botToken, values))
		assert.ErrorIs(t, err, ErrInvalidIdentity)
	})

	t.Run("expired payload", func(t *testing.T) {
		v := NewVerifier(botToken, false, time.Hour)
		v.now = func() time.Time { return now }
		_, err := v.Identity(SignedInitData(botToken, launchValues(now.Add(-2*time.Hour))))
		assert.ErrorIs(t, err, ErrExpired)

		_, err = v.Identity(SignedInitData(botToken, launchValues(now.Add(-time.Minute))))
		assert.NoError(t, err)
	})
}

func TestVerifier_Demo(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		v := NewVerifier(botToken, true, 0)
		for _, payload := range []string{"", DemoPayload} {
			identity, err := v.Identity(payload)
			require.NoError(t, err)
			assert.Equal(t, DemoIdentity, identity)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		v := NewVerifier(botToken, false, 0)
		_, err := v.Identity(DemoPayload)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("does not bypass forged payloads", func(t *testing.T) {
		v := NewVerifier(botToken, true, 0)
		_, err := v.Identity("user=%7B%22id%22%3A1%7D&hash=deadbeef")
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
}
