// Package payment holds the client for the payment-link collaborator. The
// core never waits for payment completion; link creation is fire-and-forget
// from the booking's point of view.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/careslot/doctor-booking/internal/booking"
)

type linkPayload struct {
	BookingID     string  `json:"booking_id"`
	BookingNumber string  `json:"booking_number"`
	PatientID     *string `json:"patient_id,omitempty"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Description   string  `json:"description"`
}

// Client posts payment-link requests to the collaborator service.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) CreateLink(ctx context.Context, req booking.PaymentLinkRequest) error {
	payload := linkPayload{
		BookingID:     req.BookingID.String(),
		BookingNumber: req.BookingNumber,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Description:   req.Description,
	}
	if req.PatientID != nil {
		s := req.PatientID.String()
		payload.PatientID = &s
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payment link request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment-links", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build payment link request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send payment link request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("payment service returned status %d", resp.StatusCode)
	}
	return nil
}

// Noop satisfies the collaborator boundary when no payment service is
// configured.
type Noop struct{}

func (Noop) CreateLink(context.Context, booking.PaymentLinkRequest) error {
	return nil
}
