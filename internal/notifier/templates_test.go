package notifier

import (
	"strings"
	"testing"
	"time"

	"ayursutra-server/internal/models"
)

func TestRenderSubstitutesVariables(t *testing.T) {
	vars := map[string]string{
		VarTherapyName:      "Vamana therapy",
		VarPractitionerName: "Dr. Sharma",
	}

	for _, tmpl := range models.ReminderTemplates {
		title, body := Render(tmpl, vars)
		if title == "" {
			t.Errorf("%s: empty title", tmpl)
		}
		if !strings.Contains(body, "Vamana therapy") {
			t.Errorf("%s: therapy name missing from body %q", tmpl, body)
		}
		if !strings.Contains(body, "Dr. Sharma") {
			t.Errorf("%s: practitioner name missing from body %q", tmpl, body)
		}
	}
}

func TestRenderFallbacks(t *testing.T) {
	_, body := Render(models.TemplateReminder24h, nil)
	if !strings.Contains(body, "your therapy session") {
		t.Errorf("missing therapy fallback: %q", body)
	}
	if !strings.Contains(body, "your practitioner") {
		t.Errorf("missing practitioner fallback: %q", body)
	}
}

func TestRenderCustomTemplate(t *testing.T) {
	title, body := Render(models.TemplateCustom, map[string]string{
		VarTitle: "Dietary update",
		VarBody:  "Please avoid cold drinks this week.",
	})
	if title != "Dietary update" {
		t.Errorf("expected custom title, got %q", title)
	}
	if body != "Please avoid cold drinks this week." {
		t.Errorf("expected custom body, got %q", body)
	}

	title, body = Render(models.TemplateCustom, nil)
	if title != "Notification" || body != "" {
		t.Errorf("custom fallback: got (%q, %q)", title, body)
	}
}

func TestBuildReminders(t *testing.T) {
	slot := time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)
	appt := &models.Appointment{
		BaseModel:      models.BaseModel{ID: "appointment-1"},
		PatientID:      "patient-1",
		PractitionerID: "practitioner-1",
		StartTime:      slot,
		DurationMins:   90,
	}
	channels := []models.NotificationChannel{models.ChannelInApp, models.ChannelEmail}

	reminders := BuildReminders(appt, nil, channels)
	if len(reminders) != len(models.ReminderTemplates) {
		t.Fatalf("expected %d reminders, got %d", len(models.ReminderTemplates), len(reminders))
	}

	for i, n := range reminders {
		tmpl := models.ReminderTemplates[i]
		if n.Template != tmpl {
			t.Errorf("reminder %d: expected template %s, got %s", i, tmpl, n.Template)
		}
		if n.RecipientID != appt.PatientID {
			t.Errorf("%s: recipient is %q, not the patient", tmpl, n.RecipientID)
		}
		if n.AppointmentID == nil || *n.AppointmentID != appt.ID {
			t.Errorf("%s: appointment binding missing", tmpl)
		}
		if n.Status != models.NotificationPending {
			t.Errorf("%s: expected pending, got %s", tmpl, n.Status)
		}
		want := tmpl.ScheduledFor(slot, 90*time.Minute)
		if !n.ScheduledAt.Equal(want) {
			t.Errorf("%s: expected scheduledAt %v, got %v", tmpl, want, n.ScheduledAt)
		}
		if len(n.Channels) != 2 {
			t.Errorf("%s: channels not carried: %v", tmpl, n.Channels)
		}
	}
}
