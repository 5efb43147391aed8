// Package telegram verifies the launch payload ("initData") a Telegram Mini App receives
// from the client and extracts the user identity from it.
package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidSignature = errors.New("telegram: init data signature mismatch")
	ErrInvalidIdentity  = errors.New("telegram: init data carries no usable user")
	ErrExpired          = errors.New("telegram: init data is too old")
)

// DemoPayload is what the client sends when it runs outside Telegram.
const DemoPayload = "demo"

// Identity is the "user" object embedded in the launch payload.
type Identity struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
}

// DemoIdentity is served for empty or demo payloads when demo mode is on.
var DemoIdentity = Identity{
	ID:        12345678,
	FirstName: "Demo",
	LastName:  "User",
	Username:  "demo_user",
	PhotoURL:  "https://t.me/i/userpic/320/demo_userpic.jpg",
}

type Verifier struct {
	secret    []byte
	allowDemo bool
	maxAge    time.Duration
	now       func() time.Time
}

// NewVerifier derives the signing key from the bot token. maxAge <= 0 disables the auth_date check.
func NewVerifier(botToken string, allowDemo bool, maxAge time.Duration) *Verifier {
	return &Verifier{
		secret:    secretKey(botToken),
		allowDemo: allowDemo,
		maxAge:    maxAge,
		now:       time.Now,
	}
}

func secretKey(botToken string) []byte {
	mac := hmac.New(sha256.New, []byte("WebAppData"))
	mac.Write([]byte(botToken))
	return mac.Sum(nil)
}

// dataCheckString joins every key except hash as key=value, sorted by key, separated by newlines.
func dataCheckString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}
	return strings.Join(pairs, "\n")
}

func sign(secret []byte, values url.Values) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(dataCheckString(values)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Sign returns the hash a bot with botToken would attach to values.
func Sign(botToken string, values url.Values) string {
	return sign(secretKey(botToken), values)
}

// SignedInitData encodes values with their hash appended, the way the client receives it.
func SignedInitData(botToken string, values url.Values) string {
	signed := url.Values{}
	for k, v := range values {
		signed[k] = v
	}
	signed.Set("hash", Sign(botToken, values))
	return signed.Encode()
}

func (v *Verifier) isDemo(initData string) bool {
	return v.allowDemo && (initData == "" || initData == DemoPayload)
}

// Verify checks the payload signature and returns its decoded fields.
func (v *Verifier) Verify(initData string) (url.Values, error) {
	if v.isDemo(initData) {
		user, _ := json.Marshal(DemoIdentity)
		return url.Values{"user": {string(user)}}, nil
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, ErrInvalidSignature
	}
	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrInvalidSignature
	}

	expected := sign(v.secret, values)
	if !hmac.Equal([]byte(strings.ToLower(hash)), []byte(expected)) {
		return nil, ErrInvalidSignature
	}

	if v.maxAge > 0 {
		authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
		if err != nil {
			return nil, ErrExpired
		}
		if v.now().Sub(time.Unix(authDate, 0)) > v.maxAge {
			return nil, ErrExpired
		}
	}
	return values, nil
}

// Identity verifies the payload and decodes its user object.
func (v *Verifier) Identity(initData string) (Identity, error) {
	if v.isDemo(initData) {
		return DemoIdentity, nil
	}

	values, err := v.Verify(initData)
	if err != nil {
		return Identity{}, err
	}

	raw := values.Get("user")
	if raw == "" {
		return Identity{}, ErrInvalidIdentity
	}
	var identity Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return Identity{}, ErrInvalidIdentity
	}
	if identity.ID <= 0 || identity.FirstName == "" {
		return Identity{}, ErrInvalidIdentity
	}
	return identity, nil
}
