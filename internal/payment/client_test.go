package payment_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/careslot/doctor-booking/internal/booking"
	"github.com/careslot/doctor-booking/internal/payment"
)

func TestCreateLinkPostsPayload(t *testing.T) {
	var got map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/payment-links", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	patientID := uuid.New()
	client := payment.NewClient(srv.URL)
	err := client.CreateLink(context.Background(), booking.PaymentLinkRequest{
		BookingID:     uuid.New(),
		BookingNumber: "BK-20260105093000-ABCD1234",
		PatientID:     &patientID,
		Amount:        500.00,
		Currency:      "INR",
		Description:   "Consultation fee",
	})
	require.NoError(t, err)

	require.Equal(t, "BK-20260105093000-ABCD1234", got["booking_number"])
	require.Equal(t, patientID.String(), got["patient_id"])
	require.Equal(t, 500.00, got["amount"])
	require.Equal(t, "INR", got["currency"])
}

func TestCreateLinkErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := payment.NewClient(srv.URL)
	err := client.CreateLink(context.Background(), booking.PaymentLinkRequest{
		BookingID:     uuid.New(),
		BookingNumber: "BK-1",
	})
	require.Error(t, err)
}
