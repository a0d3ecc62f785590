package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/careslot/doctor-booking/internal/schedule"
)

const (
	defaultRequestDuration = 30 // minutes, no-hold accept path
	consultationFee        = 500.00
	consultationCurrency   = "INR"
)

// HoldConsumer is the slice of the hold manager the orchestrator needs.
type HoldConsumer interface {
	ValidateAndConsume(ctx context.Context, slotID uuid.UUID, token string, patientID uuid.UUID) error
}

// PaymentLinkRequest is handed to the payment collaborator when a confirmed
// booking requires payment.
type PaymentLinkRequest struct {
	BookingID     uuid.UUID
	BookingNumber string
	PatientID     *uuid.UUID
	Amount        float64
	Currency      string
	Description   string
}

// PaymentLinkCreator is the payment collaborator boundary. Failures are
// best-effort: they are logged and never roll back a committed booking.
type PaymentLinkCreator interface {
	CreateLink(ctx context.Context, req PaymentLinkRequest) error
}

type Service struct {
	repo       Repository
	holds      HoldConsumer
	payments   PaymentLinkCreator
	requestTTL time.Duration
}

func NewService(repo Repository, holds HoldConsumer, payments PaymentLinkCreator, requestTTL time.Duration) *Service {
	return &Service{
		repo:       repo,
		holds:      holds,
		payments:   payments,
		requestTTL: requestTTL,
	}
}

// CreateBookingWithHold consumes the hold token and books the slot. The hold
// consume happens before the slot/booking transaction; when two callers race
// on the same slot via separate holds, the slot's guarded status transition
// decides the winner and the loser gets ErrSlotUnavailable.
func (s *Service) CreateBookingWithHold(ctx context.Context, doctorID, patientID, slotID uuid.UUID, token string) (*Booking, error) {
	if _, err := s.repo.GetDoctorByID(ctx, doctorID); err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	if _, err := s.repo.GetPatientByID(ctx, patientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	if err := s.holds.ValidateAndConsume(ctx, slotID, token, patientID); err != nil {
		return nil, err
	}

	b, err := s.repo.CreateFromSlot(ctx, doctorID, patientID, slotID, NewBookingNumber(time.Now()))
	if err != nil {
		return nil, err
	}

	log.Printf("booking created booking_number=%s doctor_id=%s patient_id=%s slot_id=%s",
		b.BookingNumber, doctorID, patientID, slotID)
	return b, nil
}

// ConfirmBooking moves the booking to confirmed. Re-confirmation is
// tolerated. When the booking requires payment, a payment-link request goes
// to the collaborator; its failure never unwinds the confirmation.
func (s *Service) ConfirmBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, err := s.repo.MarkConfirmed(ctx, id)
	if err != nil {
		return nil, err
	}

	if b.RequiresPayment {
		req := PaymentLinkRequest{
			BookingID:     b.ID,
			BookingNumber: b.BookingNumber,
			PatientID:     b.PatientID,
			Amount:        consultationFee,
			Currency:      consultationCurrency,
			Description:   "Consultation fee for booking " + b.BookingNumber,
		}
		if err := s.payments.CreateLink(ctx, req); err != nil {
			log.Printf("payment link request failed booking_number=%s err=%v", b.BookingNumber, err)
		}
	}

	return b, nil
}

// RejectBooking cancels the booking and releases its slot.
func (s *Service) RejectBooking(ctx context.Context, id uuid.UUID, reason string) (*Booking, error) {
	return s.cancel(ctx, id, reason)
}

// CancelBooking is the patient-initiated twin of RejectBooking.
func (s *Service) CancelBooking(ctx context.Context, id uuid.UUID, reason string) (*Booking, error) {
	return s.cancel(ctx, id, reason)
}

func (s *Service) cancel(ctx context.Context, id uuid.UUID, reason string) (*Booking, error) {
	b, err := s.repo.CancelAndReleaseSlot(ctx, id, reason)
	if err != nil {
		return nil, err
	}
	log.Printf("booking cancelled booking_number=%s reason=%q", b.BookingNumber, reason)
	return b, nil
}

// CompleteBooking closes out a finished appointment with the doctor's notes.
func (s *Service) CompleteBooking(ctx context.Context, id uuid.UUID, notes string) (*Booking, error) {
	return s.repo.MarkCompleted(ctx, id, notes)
}

func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.GetBookingByID(ctx, id)
}

func (s *Service) GetBookingByNumber(ctx context.Context, number string) (*Booking, error) {
	return s.repo.GetBookingByNumber(ctx, number)
}

func (s *Service) ListDoctorBookings(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Booking, error) {
	return s.repo.ListBookingsByDoctorDate(ctx, doctorID, date)
}

func (s *Service) ListPatientBookings(ctx context.Context, patientID uuid.UUID) ([]Booking, error) {
	return s.repo.ListBookingsByPatient(ctx, patientID)
}

// HasConflict reports whether [start, end) overlaps an active booking for the
// doctor on the date. Overlap is the half-open interval test.
func (s *Service) HasConflict(ctx context.Context, doctorID uuid.UUID, date time.Time, start, end schedule.TimeOfDay) (bool, error) {
	return s.repo.HasBookingConflict(ctx, doctorID, date, start, end)
}

// CreatePendingRequest records a no-hold appointment request keyed by phone
// numbers. The doctor phone must belong to a registered doctor; the request
// expires after the configured window.
func (s *Service) CreatePendingRequest(ctx context.Context, doctorPhone, patientPhone, patientName string, date time.Time, start schedule.TimeOfDay, description string) (*PendingAppointmentRequest, error) {
	if _, err := s.repo.FindDoctorByPhone(ctx, doctorPhone); err != nil {
		return nil, err
	}

	req := &PendingAppointmentRequest{
		ID:             uuid.New(),
		DoctorPhone:    doctorPhone,
		PatientPhone:   patientPhone,
		PatientName:    patientName,
		RequestedDate:  schedule.DateOnly(date),
		RequestedStart: start,
		Description:    description,
		ExpiresAt:      time.Now().Add(s.requestTTL),
	}

	created, err := s.repo.CreateRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create pending request: %w", err)
	}
	return created, nil
}

// ListDoctorRequests returns the open requests addressed to the doctor's
// phone number.
func (s *Service) ListDoctorRequests(ctx context.Context, doctorID uuid.UUID) ([]PendingAppointmentRequest, error) {
	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListRequestsByDoctorPhone(ctx, doctor.Phone)
}

// AcceptRequest converts a pending request into an accepted booking, refusing
// when the requested window overlaps an existing active booking. The request
// is deleted on success. This path never touches the hold manager: it
// originates from an out-of-band request with no prior slot reservation.
func (s *Service) AcceptRequest(ctx context.Context, requestID, doctorID uuid.UUID, durationMinutes int, remarks string) (*Booking, error) {
	req, err := s.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetDoctorByID(ctx, doctorID); err != nil {
		return nil, err
	}

	if durationMinutes <= 0 {
		durationMinutes = defaultRequestDuration
	}

	b := &Booking{
		ID:            uuid.New(),
		BookingNumber: NewBookingNumber(time.Now()),
		DoctorID:      doctorID,
		Date:          req.RequestedDate,
		StartTime:     req.RequestedStart,
		EndTime:       req.RequestedStart.AddMinutes(durationMinutes),
		Status:        StatusAccepted,
		Notes:         remarks,
		PatientName:   req.PatientName,
		PatientPhone:  req.PatientPhone,
	}

	// Link a registered patient when the phone matches one.
	if patient, err := s.repo.FindPatientByPhone(ctx, req.PatientPhone); err == nil {
		b.PatientID = &patient.ID
	} else if !errors.Is(err, ErrPatientNotFound) {
		return nil, fmt.Errorf("look up patient by phone: %w", err)
	}

	created, err := s.repo.AcceptRequest(ctx, requestID, b)
	if err != nil {
		return nil, err
	}

	log.Printf("request accepted request_id=%s booking_number=%s", requestID, created.BookingNumber)
	return created, nil
}

// RejectRequest discards a pending request.
func (s *Service) RejectRequest(ctx context.Context, requestID uuid.UUID) error {
	return s.repo.DeleteRequest(ctx, requestID)
}

// ExpireRequests reaps requests past their expiry. Called periodically by the
// slot worker.
func (s *Service) ExpireRequests(ctx context.Context) error {
	n, err := s.repo.DeleteExpiredRequests(ctx, time.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("expired pending requests removed count=%d", n)
	}
	return nil
}
