package models

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusRequested AppointmentStatus = "requested"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Appointment represents a scheduled patient-practitioner session.
//
// State transitions:
//
//	requested → confirmed → completed
//	requested → cancelled
//	confirmed → cancelled
type Appointment struct {
	BaseModel
	PatientID      string            `gorm:"size:36;index" json:"patientId"`
	PractitionerID string            `gorm:"size:36;index" json:"practitionerId"`
	StartTime      time.Time         `gorm:"index" json:"slotStartUtc"`
	DurationMins   int               `gorm:"default:60" json:"duration"`
	Status         AppointmentStatus `gorm:"size:20;default:'requested';index" json:"status"`
	Reason         string            `gorm:"size:255" json:"reason"`
	Notes          string            `gorm:"type:text" json:"notes"`
	SessionNotes   string            `gorm:"type:text" json:"sessionNotes,omitempty"`
	CompletedAt    *time.Time        `json:"completedAt,omitempty"`
	CancelledAt    *time.Time        `json:"cancelledAt,omitempty"`

	// Relations
	Patient      User `gorm:"foreignKey:PatientID" json:"-"`
	Practitioner User `gorm:"foreignKey:PractitionerID" json:"-"`
}

// EndsAt returns the estimated session end used for post-session notifications.
func (a *Appointment) EndsAt() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMins) * time.Minute)
}

// CanTransitionTo reports whether the appointment may move to newStatus.
func (a *Appointment) CanTransitionTo(newStatus AppointmentStatus) bool {
	allowed := map[AppointmentStatus][]AppointmentStatus{
		StatusRequested: {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusCompleted, StatusCancelled},
		StatusCompleted: {},
		StatusCancelled: {},
	}

	for _, s := range allowed[a.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// Confirm moves a requested appointment to confirmed.
func (a *Appointment) Confirm() error {
	if !a.CanTransitionTo(StatusConfirmed) {
		return ErrInvalidTransition
	}
	a.Status = StatusConfirmed
	return nil
}

// Complete moves a confirmed appointment to completed and records session notes.
func (a *Appointment) Complete(sessionNotes string) error {
	if !a.CanTransitionTo(StatusCompleted) {
		return ErrInvalidTransition
	}
	now := time.Now().UTC()
	a.Status = StatusCompleted
	a.CompletedAt = &now
	if sessionNotes != "" {
		a.SessionNotes = sessionNotes
	}
	return nil
}

// Cancel moves a requested or confirmed appointment to cancelled.
func (a *Appointment) Cancel() error {
	if !a.CanTransitionTo(StatusCancelled) {
		return ErrInvalidTransition
	}
	now := time.Now().UTC()
	a.Status = StatusCancelled
	a.CancelledAt = &now
	return nil
}
