package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/careslot/doctor-booking/internal/api"
	"github.com/careslot/doctor-booking/internal/booking"
	"github.com/careslot/doctor-booking/internal/hold"
	"github.com/careslot/doctor-booking/internal/schedule"
)

var testDate = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

type stubSlots struct {
	available []schedule.Slot
	slot      *schedule.Slot
	slotErr   error
	listErr   error
	genCalls  int
}

func (s *stubSlots) ListAvailable(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]schedule.Slot, error) {
	return s.available, s.listErr
}

func (s *stubSlots) GenerateRange(ctx context.Context, doctorID uuid.UUID, startDate, endDate time.Time) error {
	s.genCalls++
	return nil
}

func (s *stubSlots) GetSlot(ctx context.Context, id uuid.UUID) (*schedule.Slot, error) {
	if s.slotErr != nil {
		return nil, s.slotErr
	}
	if s.slot != nil {
		return s.slot, nil
	}
	return &schedule.Slot{ID: id, Status: schedule.SlotAvailable}, nil
}

type stubHolds struct {
	token     string
	createErr error
	released  []string
}

func (s *stubHolds) CreateHold(ctx context.Context, slotID, patientID uuid.UUID) (string, error) {
	return s.token, s.createErr
}

func (s *stubHolds) Release(ctx context.Context, slotID uuid.UUID, token string) error {
	s.released = append(s.released, token)
	return nil
}

func (s *stubHolds) TTL() time.Duration { return 5 * time.Minute }

type stubBookings struct {
	booking   *booking.Booking
	request   *booking.PendingAppointmentRequest
	requests  []booking.PendingAppointmentRequest
	bookings  []booking.Booking
	err       error
	rejectErr error
}

func (s *stubBookings) CreateBookingWithHold(ctx context.Context, doctorID, patientID, slotID uuid.UUID, token string) (*booking.Booking, error) {
	return s.booking, s.err
}

func (s *stubBookings) ConfirmBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return s.booking, s.err
}

func (s *stubBookings) RejectBooking(ctx context.Context, id uuid.UUID, reason string) (*booking.Booking, error) {
	return s.booking, s.err
}

func (s *stubBookings) CancelBooking(ctx context.Context, id uuid.UUID, reason string) (*booking.Booking, error) {
	return s.booking, s.err
}

func (s *stubBookings) CompleteBooking(ctx context.Context, id uuid.UUID, notes string) (*booking.Booking, error) {
	return s.booking, s.err
}

func (s *stubBookings) GetBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return s.booking, s.err
}

func (s *stubBookings) GetBookingByNumber(ctx context.Context, number string) (*booking.Booking, error) {
	return s.booking, s.err
}

func (s *stubBookings) ListDoctorBookings(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]booking.Booking, error) {
	return s.bookings, s.err
}

func (s *stubBookings) ListPatientBookings(ctx context.Context, patientID uuid.UUID) ([]booking.Booking, error) {
	return s.bookings, s.err
}

func (s *stubBookings) CreatePendingRequest(ctx context.Context, doctorPhone, patientPhone, patientName string, date time.Time, start schedule.TimeOfDay, description string) (*booking.PendingAppointmentRequest, error) {
	return s.request, s.err
}

func (s *stubBookings) ListDoctorRequests(ctx context.Context, doctorID uuid.UUID) ([]booking.PendingAppointmentRequest, error) {
	return s.requests, s.err
}

func (s *stubBookings) AcceptRequest(ctx context.Context, requestID, doctorID uuid.UUID, durationMinutes int, remarks string) (*booking.Booking, error) {
	return s.booking, s.err
}

func (s *stubBookings) RejectRequest(ctx context.Context, requestID uuid.UUID) error {
	return s.rejectErr
}

func newTestServer(slots *stubSlots, holds *stubHolds, bookings *stubBookings) *httptest.Server {
	router := api.NewRouter(api.RouterConfig{
		Slots:    slots,
		Holds:    holds,
		Bookings: bookings,
		Env:      "test",
		Version:  "test",
	})
	return httptest.NewServer(router)
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func sampleBooking() *booking.Booking {
	patientID := uuid.New()
	slotID := uuid.New()
	return &booking.Booking{
		ID:            uuid.New(),
		BookingNumber: "BK-20260105093000-ABCD1234",
		DoctorID:      uuid.New(),
		PatientID:     &patientID,
		SlotID:        &slotID,
		Date:          testDate,
		StartTime:     schedule.NewTimeOfDay(9, 0),
		EndTime:       schedule.NewTimeOfDay(9, 30),
		Status:        booking.StatusPending,
	}
}

func TestListAvailableSlots(t *testing.T) {
	doctorID := uuid.New()
	slots := &stubSlots{available: []schedule.Slot{
		{
			ID:        uuid.New(),
			DoctorID:  doctorID,
			Date:      testDate,
			StartTime: schedule.NewTimeOfDay(9, 0),
			EndTime:   schedule.NewTimeOfDay(9, 30),
			Status:    schedule.SlotAvailable,
		},
	}}
	srv := newTestServer(slots, &stubHolds{}, &stubBookings{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/slots/available?doctor_id=" + doctorID.String() + "&date=2026-01-05")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []api.SlotResponse
	decodeInto(t, resp, &got)
	require.Len(t, got, 1)
	require.Equal(t, "09:00", got[0].StartTime)
	require.Equal(t, "09:30", got[0].EndTime)
	require.Equal(t, "2026-01-05", got[0].Date)
}

func TestListAvailableSlotsBadDoctorID(t *testing.T) {
	srv := newTestServer(&stubSlots{}, &stubHolds{}, &stubBookings{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/slots/available?doctor_id=not-a-uuid&date=2026-01-05")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateSlotsRejectsInvertedRange(t *testing.T) {
	slots := &stubSlots{}
	srv := newTestServer(slots, &stubHolds{}, &stubBookings{})
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/slots/generate", api.GenerateSlotsRequest{
		DoctorID:  uuid.NewString(),
		StartDate: "2026-01-10",
		EndDate:   "2026-01-05",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Zero(t, slots.genCalls)
}

func TestGenerateSlots(t *testing.T) {
	slots := &stubSlots{}
	srv := newTestServer(slots, &stubHolds{}, &stubBookings{})
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/slots/generate", api.GenerateSlotsRequest{
		DoctorID:  uuid.NewString(),
		StartDate: "2026-01-05",
		EndDate:   "2026-01-10",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, slots.genCalls)
}

func TestCreateHold(t *testing.T) {
	holds := &stubHolds{token: "tok-1"}
	srv := newTestServer(&stubSlots{}, holds, &stubBookings{})
	defer srv.Close()

	slotID := uuid.New()
	resp := doJSON(t, http.MethodPost, srv.URL+"/slots/"+slotID.String()+"/hold",
		api.CreateHoldRequest{PatientID: uuid.NewString()})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var got api.HoldResponse
	decodeInto(t, resp, &got)
	require.Equal(t, slotID, got.SlotID)
	require.Equal(t, "tok-1", got.HoldToken)
	require.Equal(t, 300, got.ExpiresIn)
}

func TestCreateHoldMissingSlot(t *testing.T) {
	srv := newTestServer(&stubSlots{slotErr: schedule.ErrSlotNotFound}, &stubHolds{token: "tok-1"}, &stubBookings{})
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/slots/"+uuid.NewString()+"/hold",
		api.CreateHoldRequest{PatientID: uuid.NewString()})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var got api.ErrorResponse
	decodeInto(t, resp, &got)
	require.Equal(t, "slot_not_found", got.Error)
}

func TestCreateHoldBookedSlotRefused(t *testing.T) {
	slotID := uuid.New()
	slots := &stubSlots{slot: &schedule.Slot{ID: slotID, Status: schedule.SlotBooked}}
	srv := newTestServer(slots, &stubHolds{token: "tok-1"}, &stubBookings{})
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/slots/"+slotID.String()+"/hold",
		api.CreateHoldRequest{PatientID: uuid.NewString()})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var got api.ErrorResponse
	decodeInto(t, resp, &got)
	require.Equal(t, "slot_already_booked", got.Error)
}

func TestReleaseHold(t *testing.T) {
	holds := &stubHolds{}
	srv := newTestServer(&stubSlots{}, holds, &stubBookings{})
	defer srv.Close()

	resp := doJSON(t, http.MethodDelete, srv.URL+"/slots/"+uuid.NewString()+"/hold/tok-9", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"tok-9"}, holds.released)
}

func TestCreateBooking(t *testing.T) {
	b := sampleBooking()
	srv := newTestServer(&stubSlots{}, &stubHolds{}, &stubBookings{booking: b})
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/bookings", api.CreateBookingRequest{
		DoctorID:  b.DoctorID.String(),
		PatientID: b.PatientID.String(),
		SlotID:    b.SlotID.String(),
		HoldToken: "tok-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var got api.BookingResponse
	decodeInto(t, resp, &got)
	require.Equal(t, b.BookingNumber, got.BookingNumber)
	require.Equal(t, "pending", got.Status)
}

func TestCreateBookingMissingToken(t *testing.T) {
	srv := newTestServer(&stubSlots{}, &stubHolds{}, &stubBookings{})
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/bookings", api.CreateBookingRequest{
		DoctorID:  uuid.NewString(),
		PatientID: uuid.NewString(),
		SlotID:    uuid.NewString(),
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateBookingInvalidHoldMapsToConflict(t *testing.T) {
	srv := newTestServer(&stubSlots{}, &stubHolds{}, &stubBookings{err: hold.ErrInvalidHold})
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/bookings", api.CreateBookingRequest{
		DoctorID:  uuid.NewString(),
		PatientID: uuid.NewString(),
		SlotID:    uuid.NewString(),
		HoldToken: "tok-1",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var got api.ErrorResponse
	decodeInto(t, resp, &got)
	require.Equal(t, "invalid_or_expired_hold", got.Error)
}

func TestCreateBookingSlotTakenMapsToConflict(t *testing.T) {
	srv := newTestServer(&stubSlots{}, &stubHolds{}, &stubBookings{err: booking.ErrSlotUnavailable})
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/bookings", api.CreateBookingRequest{
		DoctorID:  uuid.NewString(),
		PatientID: uuid.NewString(),
		SlotID:    uuid.NewString(),
		HoldToken: "tok-1",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var got api.ErrorResponse
	decodeInto(t, resp, &got)
	require.Equal(t, "slot_already_booked", got.Error)
}

func TestGetBookingNotFound(t *testing.T) {
	srv := newTestServer(&stubSlots{}, &stubHolds{}, &stubBookings{err: booking.ErrBookingNotFound})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/bookings/" + uuid.NewString())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetBookingByNumber(t *testing.T) {
	b := sampleBooking()
	srv := newTestServer(&stubSlots{}, &stubHolds{}, &stubBookings{booking: b})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/bookings/number/" + b.BookingNumber)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got api.BookingResponse
	decodeInto(t, resp, &got)
	require.Equal(t, b.ID, got.ID)
}

func TestConfirmBooking(t *testing.T) {
	b := sampleBooking()
	b.Status = booking.StatusConfirmed
	srv := newTestServer(&stubSlots{}, &stubHolds{}, &stubBookings{booking: b})
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/bookings/"+b.ID.String()+"/confirm", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got api.BookingResponse
	decodeInto(t, resp, &got)
	require.Equal(t, "confirmed", got.Status)
}

func TestCancelBookingWithReason(t *testing.T) {
	b := sampleBooking()
	b.Status = booking.StatusCancelled
	srv := newTestServer(&stubSlots{}, &stubHolds{}, &stubBookings{booking: b})
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/bookings/"+b.ID.String()+"/cancel",
		api.ReasonRequest{Reason: "patient unavailable"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got api.BookingResponse
	decodeInto(t, resp, &got)
	require.Equal(t, "cancelled", got.Status)
}

func TestListDoctorBookings(t *testing.T) {
	b := sampleBooking()
	srv := newTestServer(&stubSlots{}, &stubHolds{}, &stubBookings{bookings: []booking.Booking{*b}})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/bookings/doctor/" + b.DoctorID.String() + "?date=2026-01-05")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []api.BookingResponse
	decodeInto(t, resp, &got)
	require.Len(t, got, 1)
}

func TestCreateRequest(t *testing.T) {
	req := &booking.PendingAppointmentRequest{
		ID:             uuid.New(),
		DoctorPhone:    "+911234500001",
		PatientPhone:   "+911234500002",
		PatientName:    "Asha Rao",
		RequestedDate:  testDate,
		RequestedStart: schedule.NewTimeOfDay(11, 0),
		ExpiresAt:      time.Now().Add(30 * time.Minute),
	}
	srv := newTestServer(&stubSlots{}, &stubHolds{}, &stubBookings{request: req})
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/requests", api.CreateRequestRequest{
		DoctorPhone:  req.DoctorPhone,
		PatientPhone: req.PatientPhone,
		PatientName:  req.PatientName,
		Date:         "2026-01-05",
		StartTime:    "11:00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var got api.RequestResponse
	decodeInto(t, resp, &got)
	require.Equal(t, req.ID, got.ID)
	require.Equal(t, "11:00", got.StartTime)
}

func TestCreateRequestMissingPhones(t *testing.T) {
	srv := newTestServer(&stubSlots{}, &stubHolds{}, &stubBookings{})
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/requests", api.CreateRequestRequest{
		Date:      "2026-01-05",
		StartTime: "11:00",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAcceptRequestConflictMapsTo409(t *testing.T) {
	srv := newTestServer(&stubSlots{}, &stubHolds{}, &stubBookings{err: booking.ErrBookingConflict})
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/requests/"+uuid.NewString()+"/accept",
		api.AcceptRequestRequest{DoctorID: uuid.NewString()})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var got api.ErrorResponse
	decodeInto(t, resp, &got)
	require.Equal(t, "booking_conflict", got.Error)
}

func TestRejectRequest(t *testing.T) {
	srv := newTestServer(&stubSlots{}, &stubHolds{}, &stubBookings{})
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/requests/"+uuid.NewString()+"/reject", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
