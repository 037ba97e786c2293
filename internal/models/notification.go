package models

import (
	"time"
)

// NotificationTemplate identifies a reminder template keyed to appointment timing.
type NotificationTemplate string

const (
	TemplateReminder24h   NotificationTemplate = "24h-before"
	TemplateReminder2h    NotificationTemplate = "2h-before"
	TemplateOnTime        NotificationTemplate = "on-time"
	TemplateImmediatePost NotificationTemplate = "immediate-post"
	TemplatePost48h       NotificationTemplate = "48h-post"
	TemplateCustom        NotificationTemplate = "custom"
)

// ReminderTemplates is the standard set scheduled when an appointment is confirmed.
var ReminderTemplates = []NotificationTemplate{
	TemplateReminder24h,
	TemplateReminder2h,
	TemplateOnTime,
	TemplateImmediatePost,
	TemplatePost48h,
}

func (t NotificationTemplate) IsValid() bool {
	switch t {
	case TemplateReminder24h, TemplateReminder2h, TemplateOnTime, TemplateImmediatePost, TemplatePost48h, TemplateCustom:
		return true
	}
	return false
}

// ScheduledFor computes the delivery time for this template relative to an
// appointment slot. Custom notifications carry an explicit time and fall
// through to the slot start.
func (t NotificationTemplate) ScheduledFor(slotStart time.Time, duration time.Duration) time.Time {
	switch t {
	case TemplateReminder24h:
		return slotStart.Add(-24 * time.Hour)
	case TemplateReminder2h:
		return slotStart.Add(-2 * time.Hour)
	case TemplateImmediatePost:
		return slotStart.Add(duration)
	case TemplatePost48h:
		return slotStart.Add(48 * time.Hour)
	default:
		return slotStart
	}
}

// NotificationChannel is a delivery channel for a notification.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
	ChannelInApp NotificationChannel = "in-app"
)

func (c NotificationChannel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelInApp:
		return true
	}
	return false
}

// NotificationStatus represents delivery state, independent of read state.
type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationSent      NotificationStatus = "sent"
	NotificationFailed    NotificationStatus = "failed"
	NotificationCancelled NotificationStatus = "cancelled"
)

// Notification is a scheduled message to one recipient over a set of channels.
//
// Delivery transitions: pending → sent | failed | cancelled. Read is flipped
// only by explicit recipient acknowledgement and is independent of status.
type Notification struct {
	BaseModel
	RecipientID   string                `gorm:"size:36;index" json:"recipientId"`
	AppointmentID *string               `gorm:"size:36;index" json:"appointmentId,omitempty"`
	Channels      []NotificationChannel `gorm:"serializer:json" json:"channels"`
	Template      NotificationTemplate  `gorm:"size:30" json:"templateId"`
	Variables     map[string]string     `gorm:"serializer:json" json:"variables,omitempty"`
	Title         string                `gorm:"size:255" json:"title"`
	Body          string                `gorm:"type:text" json:"body"`
	ScheduledAt   time.Time             `gorm:"index" json:"scheduledAt"`
	SentAt        *time.Time            `json:"sentAt,omitempty"`
	Status        NotificationStatus    `gorm:"size:20;default:'pending';index" json:"status"`
	Read          bool                  `gorm:"default:false" json:"read"`

	// Relations
	Recipient User `gorm:"foreignKey:RecipientID" json:"-"`
}

// MarkSent stamps a pending notification as delivered.
func (n *Notification) MarkSent() error {
	if n.Status != NotificationPending {
		return ErrInvalidTransition
	}
	now := time.Now().UTC()
	n.Status = NotificationSent
	n.SentAt = &now
	return nil
}

// MarkFailed records a failed delivery attempt.
func (n *Notification) MarkFailed() error {
	if n.Status != NotificationPending {
		return ErrInvalidTransition
	}
	n.Status = NotificationFailed
	return nil
}

// CancelDelivery withdraws a pending notification. Sent notifications are
// untouched by appointment cancellation cascades.
func (n *Notification) CancelDelivery() error {
	if n.Status != NotificationPending {
		return ErrInvalidTransition
	}
	n.Status = NotificationCancelled
	return nil
}

// MarkRead flips the read flag regardless of delivery status. Idempotent.
func (n *Notification) MarkRead() {
	n.Read = true
}

// CancelPendingDeliveries withdraws every pending notification in the slice
// and returns the ones that changed. Sent, failed, and already cancelled
// notifications are left untouched.
func CancelPendingDeliveries(notifications []Notification) []*Notification {
	var changed []*Notification
	for i := range notifications {
		if err := notifications[i].CancelDelivery(); err != nil {
			continue
		}
		changed = append(changed, &notifications[i])
	}
	return changed
}
