package phonecheck

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
)

const spamThreshold = 75

type simulated struct {
	mu       sync.Mutex
	rnd      *rand.Rand
	country  string
	operator string
}

// NewSimulated returns a provider that invents plausible scores: fraud score uniform in
// [20, 99], spam above 75 and a virtual number three times in ten.
func NewSimulated(country, operator string, rnd *rand.Rand) Provider {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	return &simulated{rnd: rnd, country: country, operator: operator}
}

func (s *simulated) Check(ctx context.Context, phone string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, ErrTimeout
	}

	s.mu.Lock()
	score := 20 + s.rnd.Intn(80)
	virtual := s.rnd.Float64() < 0.3
	s.mu.Unlock()

	res := Result{
		Country:    s.country,
		Operator:   s.operator,
		Active:     true,
		Spam:       score > spamThreshold,
		Virtual:    virtual,
		FraudScore: score,
	}
	raw, err := json.Marshal(struct {
		Phone string `json:"phone"`
		Result
	}{Phone: phone, Result: res})
	if err != nil {
		return Result{}, err
	}
	res.Raw = raw
	return res, nil
}
