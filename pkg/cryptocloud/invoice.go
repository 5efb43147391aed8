package cryptocloud

import (
	"encoding/json"
	"strings"
)

// CreateInvoiceRequest is the body of POST /invoice/create.
type CreateInvoiceRequest struct {
	ShopID      string  `json:"shop_id"`
	Amount      float64 `json:"amount"`
	OrderID     string  `json:"order_id"`
	Currency    string  `json:"currency"`
	CallbackURL string  `json:"url_callback,omitempty"`
}

type Invoice struct {
	Success   bool   `json:"success"`
	Status    string `json:"status"`
	InvoiceID string `json:"invoice_id"`
	PayURL    string `json:"pay_url"`
	ExpireAt  string `json:"expire_at"`
}

// CreateInvoiceResult keeps the payload exactly as received next to the fields the wallet reads.
type CreateInvoiceResult struct {
	Raw     json.RawMessage
	Invoice Invoice
}

const (
	InvoiceStateCreated  = "created"
	InvoiceStatePaid     = "paid"
	InvoiceStatePartial  = "partial"
	InvoiceStateExpired  = "expired"
	InvoiceStateCanceled = "cancel"
)

type InvoiceStatus struct {
	Status        string `json:"status"`
	StatusInvoice string `json:"status_invoice"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	OrderID       string `json:"order_id"`
}

// State returns the invoice state regardless of which field the API revision used for it.
func (s InvoiceStatus) State() string {
	if s.StatusInvoice != "" {
		return strings.ToLower(s.StatusInvoice)
	}
	return strings.ToLower(s.Status)
}

type InvoiceStatusResult struct {
	Raw    json.RawMessage
	Status InvoiceStatus
}
