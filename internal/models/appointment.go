package models

import (
	"strings"

	"github.com/julianstephens/dockbook/internal/calendar"
	apperrors "github.com/julianstephens/dockbook/internal/errors"
)

type Status string

const (
	StatusScheduled   Status = "scheduled"
	StatusRescheduled Status = "rescheduled"
	StatusCheckedIn   Status = "checked_in"
	StatusCheckedOut  Status = "checked_out"
	StatusCancelled   Status = "cancelled"
)

// Label returns the operator-facing name of a status.
func (s Status) Label() string {
	switch s {
	case StatusScheduled:
		return "Scheduled"
	case StatusRescheduled:
		return "Rescheduled"
	case StatusCheckedIn:
		return "Checked in"
	case StatusCheckedOut:
		return "Checked out"
	case StatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

// Operational reports whether the plant side has taken over the appointment.
func (s Status) Operational() bool {
	return s == StatusCheckedIn || s == StatusCheckedOut
}

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusRescheduled, StatusCheckedIn, StatusCheckedOut, StatusCancelled:
		return true
	}
	return false
}

// Appointment is a booked dock slot as the appointment service reports it.
// IsOwn and CanEdit are relative to the supplier that fetched it.
type Appointment struct {
	ID                int64              `json:"id"`
	AppointmentNumber string             `json:"appointment_number,omitempty"`
	Date              calendar.Date      `json:"date"`
	Time              calendar.TimeOfDay `json:"time"`
	TimeEnd           calendar.TimeOfDay `json:"time_end"`
	PurchaseOrder     string             `json:"purchase_order"`
	TruckPlate        string             `json:"truck_plate"`
	DriverName        string             `json:"driver_name"`
	Status            Status             `json:"status"`
	RescheduleReason  string             `json:"motivo_reagendamento,omitempty"`
	SupplierID        int64              `json:"supplier_id,omitempty"`
	PlantID           int64              `json:"plant_id,omitempty"`
	IsOwn             bool               `json:"is_own"`
	CanEdit           bool               `json:"can_edit"`
}

// Editable reports whether the viewing supplier may open the edit flow.
func (a Appointment) Editable() bool {
	return a.IsOwn && a.CanEdit && !a.Status.Operational()
}

// Payload is the body of a create or update request.
type Payload struct {
	Date             calendar.Date      `json:"date"`
	Time             calendar.TimeOfDay `json:"time"`
	TimeEnd          calendar.TimeOfDay `json:"time_end"`
	PurchaseOrder    string             `json:"purchase_order"`
	TruckPlate       string             `json:"truck_plate"`
	DriverName       string             `json:"driver_name"`
	RescheduleReason string             `json:"motivo_reagendamento,omitempty"`
	PlantID          int64              `json:"plant_id,omitempty"`
}

// Validate checks the required fields after trimming.
func (p Payload) Validate() error {
	switch {
	case p.Date.IsZero():
		return apperrors.Validation("date", "required")
	case strings.TrimSpace(p.PurchaseOrder) == "":
		return apperrors.Validation("purchase_order", "required")
	case strings.TrimSpace(p.TruckPlate) == "":
		return apperrors.Validation("truck_plate", "required")
	case strings.TrimSpace(p.DriverName) == "":
		return apperrors.Validation("driver_name", "required")
	case !p.Time.Before(p.TimeEnd):
		return apperrors.Validation("time_end", "must be after time")
	}
	return nil
}

// AppointmentEnvelope wraps create and update responses.
type AppointmentEnvelope struct {
	Message     string      `json:"message,omitempty"`
	Appointment Appointment `json:"appointment"`
}

// ErrorBody is the JSON error shape of the appointment service.
type ErrorBody struct {
	Error                    string `json:"error"`
	RequiresRescheduleReason bool   `json:"requires_reschedule_reason,omitempty"`
}
