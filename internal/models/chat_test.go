package models

import "testing"

func newTestChat() *Chat {
	return &Chat{
		AppointmentID:  "appointment-1",
		PatientID:      "patient-1",
		PractitionerID: "practitioner-1",
	}
}

func TestPartyFor(t *testing.T) {
	chat := newTestChat()

	cases := []struct {
		userID string
		party  ChatParty
		ok     bool
	}{
		{"patient-1", PartyPatient, true},
		{"practitioner-1", PartyPractitioner, true},
		{"stranger-1", "", false},
	}

	for _, tc := range cases {
		party, ok := chat.PartyFor(tc.userID)
		if party != tc.party || ok != tc.ok {
			t.Errorf("PartyFor(%s): expected (%q, %v), got (%q, %v)", tc.userID, tc.party, tc.ok, party, ok)
		}
	}
}

func TestRecordSendIncrementsOtherParty(t *testing.T) {
	chat := newTestChat()

	chat.RecordSend(PartyPatient)
	chat.RecordSend(PartyPatient)
	if chat.PractitionerUnread != 2 {
		t.Errorf("expected practitioner unread 2, got %d", chat.PractitionerUnread)
	}
	if chat.PatientUnread != 0 {
		t.Errorf("sender's own unread bumped to %d", chat.PatientUnread)
	}

	chat.RecordSend(PartyPractitioner)
	if chat.PatientUnread != 1 {
		t.Errorf("expected patient unread 1, got %d", chat.PatientUnread)
	}
}

func TestMarkReadForZeroesOwnCounterOnly(t *testing.T) {
	chat := newTestChat()
	chat.PatientUnread = 3
	chat.PractitionerUnread = 2

	chat.MarkReadFor(PartyPatient)
	if chat.PatientUnread != 0 {
		t.Errorf("patient unread not zeroed: %d", chat.PatientUnread)
	}
	if chat.PractitionerUnread != 2 {
		t.Errorf("other party's counter touched: %d", chat.PractitionerUnread)
	}

	// Re-reading with nothing unread stays at zero.
	chat.MarkReadFor(PartyPatient)
	if chat.PatientUnread != 0 {
		t.Errorf("repeat mark-read changed counter: %d", chat.PatientUnread)
	}
}
