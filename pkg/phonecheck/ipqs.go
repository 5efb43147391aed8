package phonecheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"

	"tgwallet/pkg/httpclient"
)

type ipqsResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Valid       bool   `json:"valid"`
	Active      bool   `json:"active"`
	FraudScore  int    `json:"fraud_score"`
	RecentAbuse bool   `json:"recent_abuse"`
	Spammer     bool   `json:"spammer"`
	VOIP        bool   `json:"VOIP"`
	Carrier     string `json:"carrier"`
	Country     string `json:"country"`
}

type ipqs struct {
	http   httpclient.HTTPClient
	config Config
}

// NewIPQS returns a provider backed by the IPQualityScore phone validation API.
func NewIPQS(cfg Config, http httpclient.HTTPClient) Provider {
	return &ipqs{config: cfg, http: http}
}

func (p *ipqs) Check(ctx context.Context, phone string) (Result, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", p.config.BaseURL, url.PathEscape(p.config.APIKey), url.PathEscape(phone))

	resp, err := p.http.Get(ctx, endpoint, map[string]string{"Accept": "application/json"})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, ErrTimeout
		}
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return Result{}, fmt.Errorf("%w: status %d", ErrCheckFailed, resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("decoding error: %w", err)
	}

	var body ipqsResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return Result{}, fmt.Errorf("decoding error: %w", err)
	}
	if !body.Success {
		return Result{}, fmt.Errorf("%w: %s", ErrCheckFailed, body.Message)
	}

	return Result{
		Country:    body.Country,
		Operator:   body.Carrier,
		Active:     body.Active,
		Spam:       body.Spammer || body.RecentAbuse,
		Virtual:    body.VOIP,
		FraudScore: body.FraudScore,
		Raw:        raw,
	}, nil
}
