package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/careslot/doctor-booking/internal/booking"
	"github.com/careslot/doctor-booking/internal/schedule"
)

// SlotService is the slice of the materializer the API needs.
type SlotService interface {
	ListAvailable(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]schedule.Slot, error)
	GenerateRange(ctx context.Context, doctorID uuid.UUID, startDate, endDate time.Time) error
	GetSlot(ctx context.Context, id uuid.UUID) (*schedule.Slot, error)
}

// HoldService is the slice of the hold manager the API needs.
type HoldService interface {
	CreateHold(ctx context.Context, slotID, patientID uuid.UUID) (string, error)
	Release(ctx context.Context, slotID uuid.UUID, token string) error
	TTL() time.Duration
}

// BookingService is the slice of the booking orchestrator the API needs.
type BookingService interface {
	CreateBookingWithHold(ctx context.Context, doctorID, patientID, slotID uuid.UUID, token string) (*booking.Booking, error)
	ConfirmBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	RejectBooking(ctx context.Context, id uuid.UUID, reason string) (*booking.Booking, error)
	CancelBooking(ctx context.Context, id uuid.UUID, reason string) (*booking.Booking, error)
	CompleteBooking(ctx context.Context, id uuid.UUID, notes string) (*booking.Booking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	GetBookingByNumber(ctx context.Context, number string) (*booking.Booking, error)
	ListDoctorBookings(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]booking.Booking, error)
	ListPatientBookings(ctx context.Context, patientID uuid.UUID) ([]booking.Booking, error)
	CreatePendingRequest(ctx context.Context, doctorPhone, patientPhone, patientName string, date time.Time, start schedule.TimeOfDay, description string) (*booking.PendingAppointmentRequest, error)
	ListDoctorRequests(ctx context.Context, doctorID uuid.UUID) ([]booking.PendingAppointmentRequest, error)
	AcceptRequest(ctx context.Context, requestID, doctorID uuid.UUID, durationMinutes int, remarks string) (*booking.Booking, error)
	RejectRequest(ctx context.Context, requestID uuid.UUID) error
}

type Handler struct {
	slots    SlotService
	holds    HoldService
	bookings BookingService
}

func NewHandler(slots SlotService, holds HoldService, bookings BookingService) *Handler {
	return &Handler{
		slots:    slots,
		holds:    holds,
		bookings: bookings,
	}
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

// GET /slots/available?doctor_id=...&date=YYYY-MM-DD
func (h *Handler) ListAvailableSlots(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(r.URL.Query().Get("doctor_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a UUID")
		return
	}
	date, err := schedule.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	slots, err := h.slots.ListAvailable(r.Context(), doctorID, date)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, toSlotResponse(s))
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /slots/generate
func (h *Handler) GenerateSlots(w http.ResponseWriter, r *http.Request) {
	var req GenerateSlotsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a UUID")
		return
	}
	startDate, err := schedule.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "start_date must be YYYY-MM-DD")
		return
	}
	endDate, err := schedule.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "end_date must be YYYY-MM-DD")
		return
	}
	if endDate.Before(startDate) {
		writeError(w, http.StatusBadRequest, "invalid_range", "end_date is before start_date")
		return
	}

	if err := h.slots.GenerateRange(r.Context(), doctorID, startDate, endDate); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "generated"})
}

// POST /slots/{slotID}/hold
func (h *Handler) CreateHold(w http.ResponseWriter, r *http.Request) {
	slotID, ok := pathUUID(r, "slotID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_slot_id", "slot id must be a UUID")
		return
	}
	var req CreateHoldRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a UUID")
		return
	}

	// Holds on missing or already-booked slots would only ever fail at
	// booking time; refuse them up front.
	slot, err := h.slots.GetSlot(r.Context(), slotID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if slot.Status != schedule.SlotAvailable {
		writeError(w, http.StatusConflict, "slot_already_booked", "slot is not available")
		return
	}

	token, err := h.holds.CreateHold(r.Context(), slotID, patientID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, HoldResponse{
		SlotID:    slotID,
		HoldToken: token,
		ExpiresIn: int(h.holds.TTL().Seconds()),
	})
}

// DELETE /slots/{slotID}/hold/{token}
func (h *Handler) ReleaseHold(w http.ResponseWriter, r *http.Request) {
	slotID, ok := pathUUID(r, "slotID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_slot_id", "slot id must be a UUID")
		return
	}
	token := chi.URLParam(r, "token")

	if err := h.holds.Release(r.Context(), slotID, token); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "released"})
}

// POST /bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a UUID")
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a UUID")
		return
	}
	slotID, err := uuid.Parse(req.SlotID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_slot_id", "slot_id must be a UUID")
		return
	}
	if req.HoldToken == "" {
		writeError(w, http.StatusBadRequest, "missing_hold_token", "hold_token is required")
		return
	}

	b, err := h.bookings.CreateBookingWithHold(r.Context(), doctorID, patientID, slotID, req.HoldToken)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingResponse(b))
}

// GET /bookings/{bookingID}
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "bookingID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_booking_id", "booking id must be a UUID")
		return
	}

	b, err := h.bookings.GetBooking(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// GET /bookings/number/{number}
func (h *Handler) GetBookingByNumber(w http.ResponseWriter, r *http.Request) {
	b, err := h.bookings.GetBookingByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// POST /bookings/{bookingID}/confirm
func (h *Handler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "bookingID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_booking_id", "booking id must be a UUID")
		return
	}

	b, err := h.bookings.ConfirmBooking(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// POST /bookings/{bookingID}/reject
func (h *Handler) RejectBooking(w http.ResponseWriter, r *http.Request) {
	h.cancelBooking(w, r, h.bookings.RejectBooking)
}

// POST /bookings/{bookingID}/cancel
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	h.cancelBooking(w, r, h.bookings.CancelBooking)
}

func (h *Handler) cancelBooking(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID, string) (*booking.Booking, error)) {
	id, ok := pathUUID(r, "bookingID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_booking_id", "booking id must be a UUID")
		return
	}
	var req ReasonRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
			return
		}
	}

	b, err := op(r.Context(), id, req.Reason)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// POST /bookings/{bookingID}/complete
func (h *Handler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "bookingID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_booking_id", "booking id must be a UUID")
		return
	}
	var req CompleteBookingRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
			return
		}
	}

	b, err := h.bookings.CompleteBooking(r.Context(), id, req.Notes)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// GET /bookings/doctor/{doctorID}?date=YYYY-MM-DD
func (h *Handler) ListDoctorBookings(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := pathUUID(r, "doctorID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor id must be a UUID")
		return
	}
	date, err := schedule.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	list, err := h.bookings.ListDoctorBookings(r.Context(), doctorID, date)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]BookingResponse, 0, len(list))
	for i := range list {
		out = append(out, toBookingResponse(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /bookings/patient/{patientID}
func (h *Handler) ListPatientBookings(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathUUID(r, "patientID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient id must be a UUID")
		return
	}

	list, err := h.bookings.ListPatientBookings(r.Context(), patientID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]BookingResponse, 0, len(list))
	for i := range list {
		out = append(out, toBookingResponse(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /requests
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req CreateRequestRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if req.DoctorPhone == "" || req.PatientPhone == "" {
		writeError(w, http.StatusBadRequest, "missing_phone", "doctor_phone and patient_phone are required")
		return
	}
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}
	start, err := schedule.ParseTimeOfDay(req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_time", "start_time must be HH:MM")
		return
	}

	created, err := h.bookings.CreatePendingRequest(r.Context(), req.DoctorPhone, req.PatientPhone, req.PatientName, date, start, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestResponse(created))
}

// GET /requests/doctor/{doctorID}
func (h *Handler) ListDoctorRequests(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := pathUUID(r, "doctorID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor id must be a UUID")
		return
	}

	list, err := h.bookings.ListDoctorRequests(r.Context(), doctorID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]RequestResponse, 0, len(list))
	for i := range list {
		out = append(out, toRequestResponse(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /requests/{requestID}/accept
func (h *Handler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathUUID(r, "requestID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request_id", "request id must be a UUID")
		return
	}
	var req AcceptRequestRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a UUID")
		return
	}

	b, err := h.bookings.AcceptRequest(r.Context(), requestID, doctorID, req.DurationMinutes, req.Remarks)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingResponse(b))
}

// POST /requests/{requestID}/reject
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathUUID(r, "requestID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request_id", "request id must be a UUID")
		return
	}

	if err := h.bookings.RejectRequest(r.Context(), requestID); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}
