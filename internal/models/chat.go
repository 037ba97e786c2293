package models

// ChatParty identifies which side of the channel a user is on.
type ChatParty string

const (
	PartyPatient      ChatParty = "patient"
	PartyPractitioner ChatParty = "practitioner"
)

// Chat is an append-only message channel bound 1:1 to an appointment,
// created lazily on first access. Unread counters are tracked per party.
type Chat struct {
	BaseModel
	AppointmentID  string `gorm:"size:36;uniqueIndex" json:"appointmentId"`
	PatientID      string `gorm:"size:36;index" json:"patientId"`
	PractitionerID string `gorm:"size:36;index" json:"practitionerId"`

	PatientUnread      int `gorm:"default:0" json:"patientUnread"`
	PractitionerUnread int `gorm:"default:0" json:"practitionerUnread"`

	Messages []ChatMessage `gorm:"foreignKey:ChatID" json:"messages,omitempty"`

	// Relations
	Appointment Appointment `gorm:"foreignKey:AppointmentID" json:"-"`
}

// ChatMessage is a single entry in a chat. Ordering is insertion order;
// messages are never edited or deleted.
type ChatMessage struct {
	BaseModel
	ChatID     string    `gorm:"size:36;index" json:"chatId"`
	SenderID   string    `gorm:"size:36;index" json:"senderId"`
	SenderRole ChatParty `gorm:"size:20" json:"senderRole"`
	Content    string    `gorm:"type:text" json:"content"`
}

// PartyFor maps a user id to its side of the chat.
func (c *Chat) PartyFor(userID string) (ChatParty, bool) {
	switch userID {
	case c.PatientID:
		return PartyPatient, true
	case c.PractitionerID:
		return PartyPractitioner, true
	}
	return "", false
}

// RecordSend increments the unread counter of the party opposite the sender.
func (c *Chat) RecordSend(sender ChatParty) {
	switch sender {
	case PartyPatient:
		c.PractitionerUnread++
	case PartyPractitioner:
		c.PatientUnread++
	}
}

// MarkReadFor zeroes the unread counter of the reading party only.
func (c *Chat) MarkReadFor(party ChatParty) {
	switch party {
	case PartyPatient:
		c.PatientUnread = 0
	case PartyPractitioner:
		c.PractitionerUnread = 0
	}
}
