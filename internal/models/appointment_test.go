package models

import (
	"errors"
	"testing"
	"time"
)

func TestAppointmentTransitionTable(t *testing.T) {
	cases := []struct {
		from AppointmentStatus
		to   AppointmentStatus
		ok   bool
	}{
		{StatusRequested, StatusConfirmed, true},
		{StatusRequested, StatusCancelled, true},
		{StatusRequested, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusRequested, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusConfirmed, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusCompleted, false},
	}

	for _, tc := range cases {
		a := &Appointment{Status: tc.from}
		if got := a.CanTransitionTo(tc.to); got != tc.ok {
			t.Errorf("%s → %s: expected %v, got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestAppointmentLifecycle(t *testing.T) {
	a := &Appointment{Status: StatusRequested}

	if err := a.Confirm(); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if a.Status != StatusConfirmed {
		t.Errorf("expected confirmed, got %s", a.Status)
	}

	if err := a.Complete("responded well to treatment"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if a.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", a.Status)
	}
	if a.CompletedAt == nil {
		t.Error("completedAt not stamped")
	}
	if a.SessionNotes != "responded well to treatment" {
		t.Errorf("session notes not recorded: %q", a.SessionNotes)
	}
}

func TestCompleteFromRequestedFails(t *testing.T) {
	a := &Appointment{Status: StatusRequested}
	if err := a.Complete(""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCancelFromTerminalStatesFails(t *testing.T) {
	for _, status := range []AppointmentStatus{StatusCompleted, StatusCancelled} {
		a := &Appointment{Status: status}
		if err := a.Cancel(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("cancel from %s: expected ErrInvalidTransition, got %v", status, err)
		}
	}
}

func TestCancelStampsTime(t *testing.T) {
	a := &Appointment{Status: StatusConfirmed}
	if err := a.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if a.Status != StatusCancelled {
		t.Errorf("expected cancelled, got %s", a.Status)
	}
	if a.CancelledAt == nil {
		t.Error("cancelledAt not stamped")
	}
}

func TestEndsAt(t *testing.T) {
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	a := &Appointment{StartTime: start, DurationMins: 90}

	want := start.Add(90 * time.Minute)
	if got := a.EndsAt(); !got.Equal(want) {
		t.Errorf("EndsAt: expected %v, got %v", want, got)
	}
}
