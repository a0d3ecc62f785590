package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/careslot/doctor-booking/internal/booking"
	"github.com/careslot/doctor-booking/internal/schedule"
)

type SlotResponse struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Status    string    `json:"status"`
}

func toSlotResponse(s schedule.Slot) SlotResponse {
	return SlotResponse{
		ID:        s.ID,
		DoctorID:  s.DoctorID,
		Date:      schedule.FormatDate(s.Date),
		StartTime: s.StartTime.String(),
		EndTime:   s.EndTime.String(),
		Status:    string(s.Status),
	}
}

type CreateHoldRequest struct {
	PatientID string `json:"patient_id"`
}

type HoldResponse struct {
	SlotID    uuid.UUID `json:"slot_id"`
	HoldToken string    `json:"hold_token"`
	ExpiresIn int       `json:"expires_in_seconds"`
}

type GenerateSlotsRequest struct {
	DoctorID  string `json:"doctor_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type CreateBookingRequest struct {
	DoctorID  string `json:"doctor_id"`
	PatientID string `json:"patient_id"`
	SlotID    string `json:"slot_id"`
	HoldToken string `json:"hold_token"`
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

type CompleteBookingRequest struct {
	Notes string `json:"notes"`
}

type BookingResponse struct {
	ID            uuid.UUID  `json:"id"`
	BookingNumber string     `json:"booking_number"`
	DoctorID      uuid.UUID  `json:"doctor_id"`
	PatientID     *uuid.UUID `json:"patient_id,omitempty"`
	SlotID        *uuid.UUID `json:"slot_id,omitempty"`
	Date          string     `json:"date"`
	StartTime     string     `json:"start_time"`
	EndTime       string     `json:"end_time"`
	Status        string     `json:"status"`
	Notes         string     `json:"notes,omitempty"`
	PatientName   string     `json:"patient_name,omitempty"`
	PatientPhone  string     `json:"patient_phone,omitempty"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		BookingNumber: b.BookingNumber,
		DoctorID:      b.DoctorID,
		PatientID:     b.PatientID,
		SlotID:        b.SlotID,
		Date:          schedule.FormatDate(b.Date),
		StartTime:     b.StartTime.String(),
		EndTime:       b.EndTime.String(),
		Status:        string(b.Status),
		Notes:         b.Notes,
		PatientName:   b.PatientName,
		PatientPhone:  b.PatientPhone,
		ConfirmedAt:   b.ConfirmedAt,
		CancelledAt:   b.CancelledAt,
		CompletedAt:   b.CompletedAt,
	}
}

type CreateRequestRequest struct {
	DoctorPhone  string `json:"doctor_phone"`
	PatientPhone string `json:"patient_phone"`
	PatientName  string `json:"patient_name"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	Description  string `json:"description"`
}

type AcceptRequestRequest struct {
	DoctorID        string `json:"doctor_id"`
	DurationMinutes int    `json:"duration_minutes"`
	Remarks         string `json:"remarks"`
}

type RequestResponse struct {
	ID           uuid.UUID `json:"id"`
	DoctorPhone  string    `json:"doctor_phone"`
	PatientPhone string    `json:"patient_phone"`
	PatientName  string    `json:"patient_name"`
	Date         string    `json:"date"`
	StartTime    string    `json:"start_time"`
	Description  string    `json:"description,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func toRequestResponse(r *booking.PendingAppointmentRequest) RequestResponse {
	return RequestResponse{
		ID:           r.ID,
		DoctorPhone:  r.DoctorPhone,
		PatientPhone: r.PatientPhone,
		PatientName:  r.PatientName,
		Date:         schedule.FormatDate(r.RequestedDate),
		StartTime:    r.RequestedStart.String(),
		Description:  r.Description,
		ExpiresAt:    r.ExpiresAt,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
