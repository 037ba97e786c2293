package models

import (
	"errors"
	"testing"
	"time"
)

func TestScheduledForOffsets(t *testing.T) {
	slot := time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)
	duration := 60 * time.Minute

	cases := []struct {
		template NotificationTemplate
		want     time.Time
	}{
		{TemplateReminder24h, slot.Add(-24 * time.Hour)},
		{TemplateReminder2h, slot.Add(-2 * time.Hour)},
		{TemplateOnTime, slot},
		{TemplateImmediatePost, slot.Add(duration)},
		{TemplatePost48h, slot.Add(48 * time.Hour)},
		{TemplateCustom, slot},
	}

	for _, tc := range cases {
		if got := tc.template.ScheduledFor(slot, duration); !got.Equal(tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.template, tc.want, got)
		}
	}
}

func TestReminderTemplatesExcludeCustom(t *testing.T) {
	if len(ReminderTemplates) != 5 {
		t.Fatalf("expected 5 reminder templates, got %d", len(ReminderTemplates))
	}
	for _, tmpl := range ReminderTemplates {
		if tmpl == TemplateCustom {
			t.Error("custom template must not be part of the standard reminder set")
		}
		if !tmpl.IsValid() {
			t.Errorf("reminder template %s reported invalid", tmpl)
		}
	}
	if NotificationTemplate("weekly-digest").IsValid() {
		t.Error("unknown template reported valid")
	}
}

func TestDeliveryTransitions(t *testing.T) {
	n := &Notification{Status: NotificationPending}
	if err := n.MarkSent(); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if n.Status != NotificationSent || n.SentAt == nil {
		t.Errorf("sent state not recorded: status=%s sentAt=%v", n.Status, n.SentAt)
	}

	// Every delivery transition is pending-only.
	for _, status := range []NotificationStatus{NotificationSent, NotificationFailed, NotificationCancelled} {
		n := &Notification{Status: status}
		if err := n.MarkSent(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("MarkSent from %s: expected ErrInvalidTransition, got %v", status, err)
		}
		if err := n.MarkFailed(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("MarkFailed from %s: expected ErrInvalidTransition, got %v", status, err)
		}
		if err := n.CancelDelivery(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("CancelDelivery from %s: expected ErrInvalidTransition, got %v", status, err)
		}
	}
}

func TestCancelDelivery(t *testing.T) {
	n := &Notification{Status: NotificationPending}
	if err := n.CancelDelivery(); err != nil {
		t.Fatalf("CancelDelivery: %v", err)
	}
	if n.Status != NotificationCancelled {
		t.Errorf("expected cancelled, got %s", n.Status)
	}
}

func TestCancelPendingDeliveries(t *testing.T) {
	notifications := []Notification{
		{BaseModel: BaseModel{ID: "n-pending-1"}, Status: NotificationPending},
		{BaseModel: BaseModel{ID: "n-sent"}, Status: NotificationSent},
		{BaseModel: BaseModel{ID: "n-pending-2"}, Status: NotificationPending},
		{BaseModel: BaseModel{ID: "n-failed"}, Status: NotificationFailed},
		{BaseModel: BaseModel{ID: "n-cancelled"}, Status: NotificationCancelled},
	}

	changed := CancelPendingDeliveries(notifications)
	if len(changed) != 2 {
		t.Fatalf("expected 2 cancelled notifications, got %d", len(changed))
	}
	for _, n := range changed {
		if n.Status != NotificationCancelled {
			t.Errorf("%s: expected cancelled, got %s", n.ID, n.Status)
		}
	}

	// Everything not pending keeps its status.
	wantStatus := map[string]NotificationStatus{
		"n-pending-1": NotificationCancelled,
		"n-sent":      NotificationSent,
		"n-pending-2": NotificationCancelled,
		"n-failed":    NotificationFailed,
		"n-cancelled": NotificationCancelled,
	}
	for _, n := range notifications {
		if n.Status != wantStatus[n.ID] {
			t.Errorf("%s: expected %s, got %s", n.ID, wantStatus[n.ID], n.Status)
		}
	}
}

func TestMarkReadIdempotentAcrossStatuses(t *testing.T) {
	for _, status := range []NotificationStatus{NotificationPending, NotificationSent, NotificationFailed, NotificationCancelled} {
		n := &Notification{Status: status}
		n.MarkRead()
		n.MarkRead()
		if !n.Read {
			t.Errorf("MarkRead on %s notification did not flip read flag", status)
		}
		if n.Status != status {
			t.Errorf("MarkRead changed delivery status from %s to %s", status, n.Status)
		}
	}
}
