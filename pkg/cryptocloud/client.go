// Package cryptocloud talks to the CryptoCloud payment processor.
package cryptocloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"

	"tgwallet/pkg/httpclient"
)

const (
	CreateInvoiceEndpoint = "/invoice/create"
	InvoiceStatusEndpoint = "/invoice/status"
)

type Gateway interface {
	CreateInvoice(ctx context.Context, request CreateInvoiceRequest) (CreateInvoiceResult, error)
	InvoiceStatus(ctx context.Context, orderID string) (InvoiceStatusResult, error)
}

type gateway struct {
	client httpclient.HTTPClient
	config Config
}

func NewGateway(cfg Config, client httpclient.HTTPClient) Gateway {
	return &gateway{config: cfg, client: client}
}

func (g *gateway) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + g.config.APIKey,
		"Content-Type":  "application/json",
	}
}

func (g *gateway) CreateInvoice(ctx context.Context, request CreateInvoiceRequest) (CreateInvoiceResult, error) {
	if request.ShopID == "" {
		request.ShopID = g.config.ShopID
	}
	if request.Currency == "" {
		request.Currency = g.config.Currency
	}
	if request.CallbackURL == "" {
		request.CallbackURL = g.config.CallbackURL
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(request); err != nil {
		return CreateInvoiceResult{}, fmt.Errorf("encoding error: %w", err)
	}

	resp, err := g.client.Post(ctx, g.config.BaseURL+CreateInvoiceEndpoint, &buf, g.headers())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return CreateInvoiceResult{}, ErrTimeout
		}
		return CreateInvoiceResult{}, err
	}
	defer resp.Body.Close()

	raw, err := readOK(resp.StatusCode, resp.Body)
	if err != nil {
		return CreateInvoiceResult{}, err
	}

	var invoice Invoice
	if err := json.Unmarshal(raw, &invoice); err != nil {
		return CreateInvoiceResult{}, fmt.Errorf("decoding error: %w", err)
	}
	return CreateInvoiceResult{Raw: raw, Invoice: invoice}, nil
}

func (g *gateway) InvoiceStatus(ctx context.Context, orderID string) (InvoiceStatusResult, error) {
	query := url.Values{}
	query.Set("shop_id", g.config.ShopID)
	query.Set("order_id", orderID)

	resp, err := g.client.Get(ctx, g.config.BaseURL+InvoiceStatusEndpoint+"?"+query.Encode(), g.headers())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return InvoiceStatusResult{}, ErrTimeout
		}
		return InvoiceStatusResult{}, err
	}
	defer resp.Body.Close()

	raw, err := readOK(resp.StatusCode, resp.Body)
	if err != nil {
		return InvoiceStatusResult{}, err
	}

	var status InvoiceStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return InvoiceStatusResult{}, fmt.Errorf("decoding error: %w", err)
	}
	return InvoiceStatusResult{Raw: raw, Status: status}, nil
}

func readOK(statusCode int, body io.Reader) (json.RawMessage, error) {
	if statusCode != 200 {
		return nil, MapStatusToError(statusCode)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("decoding error: %w", err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("decoding error: invalid json payload")
	}
	return raw, nil
}
