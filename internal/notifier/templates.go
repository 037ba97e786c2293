package notifier

import (
	"fmt"
	"time"

	"ayursutra-server/internal/models"
)

// Variable keys recognized by the reminder templates.
const (
	VarTherapyName      = "therapyName"
	VarPractitionerName = "practitionerName"
	VarTitle            = "title"
	VarBody             = "body"
)

// Render produces the title and body for a template with variable
// substitution. Missing therapy and practitioner names fall back to generic
// defaults so a reminder is never blocked on incomplete data.
func Render(t models.NotificationTemplate, vars map[string]string) (title, body string) {
	therapy := lookup(vars, VarTherapyName, "your therapy session")
	practitioner := lookup(vars, VarPractitionerName, "your practitioner")

	switch t {
	case models.TemplateReminder24h:
		return "Upcoming session reminder",
			fmt.Sprintf("%s with %s is scheduled in 24 hours.", therapy, practitioner)
	case models.TemplateReminder2h:
		return "Session starting soon",
			fmt.Sprintf("%s with %s starts in 2 hours. Please follow your pre-procedure instructions.", therapy, practitioner)
	case models.TemplateOnTime:
		return "Session starting now",
			fmt.Sprintf("%s with %s is starting now.", therapy, practitioner)
	case models.TemplateImmediatePost:
		return "Post-session care",
			fmt.Sprintf("%s has ended. Follow the post-procedure instructions shared by %s.", therapy, practitioner)
	case models.TemplatePost48h:
		return "How are you feeling?",
			fmt.Sprintf("It has been two days since %s. Please share your feedback with %s.", therapy, practitioner)
	default:
		return lookup(vars, VarTitle, "Notification"), lookup(vars, VarBody, "")
	}
}

func lookup(vars map[string]string, key, fallback string) string {
	if vars == nil {
		return fallback
	}
	if v, ok := vars[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Build assembles a notification with its rendered content.
func Build(recipientID string, appointmentID *string, t models.NotificationTemplate,
	vars map[string]string, channels []models.NotificationChannel, scheduledAt time.Time) models.Notification {

	title, body := Render(t, vars)
	return models.Notification{
		RecipientID:   recipientID,
		AppointmentID: appointmentID,
		Channels:      channels,
		Template:      t,
		Variables:     vars,
		Title:         title,
		Body:          body,
		ScheduledAt:   scheduledAt,
		Status:        models.NotificationPending,
	}
}

// BuildReminders assembles the standard reminder set for a confirmed
// appointment, one notification per template offset.
func BuildReminders(appt *models.Appointment, vars map[string]string,
	channels []models.NotificationChannel) []models.Notification {

	duration := time.Duration(appt.DurationMins) * time.Minute
	reminders := make([]models.Notification, 0, len(models.ReminderTemplates))
	for _, t := range models.ReminderTemplates {
		reminders = append(reminders, Build(
			appt.PatientID,
			&appt.ID,
			t,
			vars,
			channels,
			t.ScheduledFor(appt.StartTime, duration),
		))
	}
	return reminders
}
