package models

import (
	"sort"
	"time"
)

// ProcedureType identifies one Panchakarma treatment step.
type ProcedureType string

const (
	ProcedureVamana        ProcedureType = "vamana"
	ProcedureVirechana     ProcedureType = "virechana"
	ProcedureBasti         ProcedureType = "basti"
	ProcedureNasya         ProcedureType = "nasya"
	ProcedureRaktamokshana ProcedureType = "raktamokshana"
)

// ProcedureSequence is the canonical Panchakarma order. Both the gating check
// and schedule rendering consume this single table.
var ProcedureSequence = []ProcedureType{
	ProcedureVamana,
	ProcedureVirechana,
	ProcedureBasti,
	ProcedureNasya,
	ProcedureRaktamokshana,
}

func (t ProcedureType) IsValid() bool {
	return t.SequenceIndex() >= 0
}

// SequenceIndex returns the zero-based position of t in the canonical order,
// or -1 for an unknown type.
func (t ProcedureType) SequenceIndex() int {
	for i, s := range ProcedureSequence {
		if s == t {
			return i
		}
	}
	return -1
}

// ProcedureStatus represents the status of a single procedure.
type ProcedureStatus string

const (
	ProcedureScheduled        ProcedureStatus = "scheduled"
	ProcedureInProgress       ProcedureStatus = "in-progress"
	ProcedureAwaitingFeedback ProcedureStatus = "awaiting-feedback"
	ProcedureCompleted        ProcedureStatus = "completed"
	ProcedureCancelled        ProcedureStatus = "cancelled"
)

// Procedure is one Panchakarma step within a therapy program.
//
// State transitions:
//
//	scheduled → in-progress → awaiting-feedback → completed
//	scheduled → in-progress → completed (feedback not required)
//	cancelled reachable from any non-completed state
type Procedure struct {
	BaseModel
	ProgramID     string          `gorm:"size:36;index" json:"programId"`
	Type          ProcedureType   `gorm:"size:20;index" json:"type"`
	SequenceOrder int             `json:"sequenceOrder"` // 1-based position in ProcedureSequence
	Status        ProcedureStatus `gorm:"size:20;default:'scheduled'" json:"status"`
	CanStart      bool            `gorm:"default:false" json:"canStart"`

	// Sub-phase schedule, each independently settable
	PurvaKarmaAt    *time.Time `json:"purvaKarmaAt,omitempty"`
	PradhanaKarmaAt *time.Time `json:"pradhanaKarmaAt,omitempty"`
	PaschatKarmaAt  *time.Time `json:"paschatKarmaAt,omitempty"`

	PreInstructions     string `gorm:"type:text" json:"preInstructions,omitempty"`
	PostInstructions    string `gorm:"type:text" json:"postInstructions,omitempty"`
	DietaryRestrictions string `gorm:"type:text" json:"dietaryRestrictions,omitempty"`
	MedicineSchedule    string `gorm:"type:text" json:"medicineSchedule,omitempty"`

	Notes       string     `gorm:"type:text" json:"notes,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	FeedbackRequired bool               `gorm:"default:true" json:"feedbackRequired"`
	FeedbackReceived bool               `gorm:"default:false" json:"feedbackReceived"`
	Feedback         *ProcedureFeedback `gorm:"foreignKey:ProcedureID" json:"patientFeedback,omitempty"`
}

// doneForSequencing reports whether this procedure unblocks its successor.
// A procedure with an outstanding feedback requirement does not.
func (p *Procedure) doneForSequencing() bool {
	return p.Status == ProcedureCompleted && (!p.FeedbackRequired || p.FeedbackReceived)
}

// ProcedureScheduleInput carries optional schedule and instruction updates
// merged into a procedure when it is started.
type ProcedureScheduleInput struct {
	PurvaKarmaAt        *time.Time `json:"purvaKarmaAt"`
	PradhanaKarmaAt     *time.Time `json:"pradhanaKarmaAt"`
	PaschatKarmaAt      *time.Time `json:"paschatKarmaAt"`
	PreInstructions     *string    `json:"preInstructions"`
	PostInstructions    *string    `json:"postInstructions"`
	DietaryRestrictions *string    `json:"dietaryRestrictions"`
	MedicineSchedule    *string    `json:"medicineSchedule"`
}

// ProgramStatus represents the status of a therapy program.
type ProgramStatus string

const (
	ProgramScheduled ProgramStatus = "scheduled"
	ProgramActive    ProgramStatus = "active"
	ProgramPaused    ProgramStatus = "paused"
	ProgramCompleted ProgramStatus = "completed"
	ProgramCancelled ProgramStatus = "cancelled"
)

// TherapyProgram is a patient's enrollment in the ordered Panchakarma sequence
// under one practitioner.
type TherapyProgram struct {
	BaseModel
	ProgramName    string        `gorm:"size:255" json:"programName"`
	Status         ProgramStatus `gorm:"size:20;default:'scheduled';index" json:"status"`
	PatientID      string        `gorm:"size:36;index" json:"patientId"`
	PractitionerID string        `gorm:"size:36;index" json:"primaryPractitionerId"`
	AppointmentID  *string       `gorm:"size:36;index" json:"appointmentId,omitempty"` // source appointment, if enrolled from one
	Notes          string        `gorm:"type:text" json:"notes,omitempty"`

	Procedures []Procedure `gorm:"foreignKey:ProgramID" json:"procedureDetails"`

	// Relations
	Patient      User `gorm:"foreignKey:PatientID" json:"-"`
	Practitioner User `gorm:"foreignKey:PractitionerID" json:"-"`
}

// ProgramProgress is derived from procedure statuses; never stored.
type ProgramProgress struct {
	TotalSessions      int        `json:"totalSessions"`
	CompletedSessions  int        `json:"completedSessions"`
	PercentageComplete int        `json:"percentageComplete"`
	NextSessionAt      *time.Time `json:"nextSessionAt,omitempty"`
}

// CanTransitionTo reports whether the program may move to newStatus.
// Completion is only reached through the sequencer, not through this table.
func (tp *TherapyProgram) CanTransitionTo(newStatus ProgramStatus) bool {
	allowed := map[ProgramStatus][]ProgramStatus{
		ProgramScheduled: {ProgramActive, ProgramCancelled},
		ProgramActive:    {ProgramPaused, ProgramCancelled},
		ProgramPaused:    {ProgramActive, ProgramCancelled},
		ProgramCompleted: {},
		ProgramCancelled: {},
	}

	for _, s := range allowed[tp.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// UpdateStatus applies a practitioner-driven program transition (pause, resume,
// cancel). Returns ErrInvalidTransition otherwise.
func (tp *TherapyProgram) UpdateStatus(newStatus ProgramStatus) error {
	if !tp.CanTransitionTo(newStatus) {
		return ErrInvalidTransition
	}
	tp.Status = newStatus
	return nil
}

// EnsureProcedures materializes the full fixed five-procedure skeleton in
// canonical order when the program has none persisted. Only the first
// procedure is startable. Returns true if the skeleton was created.
func (tp *TherapyProgram) EnsureProcedures() bool {
	if len(tp.Procedures) > 0 {
		tp.sortProcedures()
		return false
	}
	for i, t := range ProcedureSequence {
		tp.Procedures = append(tp.Procedures, Procedure{
			ProgramID:        tp.ID,
			Type:             t,
			SequenceOrder:    i + 1,
			Status:           ProcedureScheduled,
			CanStart:         i == 0,
			FeedbackRequired: true,
		})
	}
	return true
}

func (tp *TherapyProgram) sortProcedures() {
	sort.SliceStable(tp.Procedures, func(i, j int) bool {
		return tp.Procedures[i].Type.SequenceIndex() < tp.Procedures[j].Type.SequenceIndex()
	})
}

// ProcedureByType returns the program's procedure of the given type.
func (tp *TherapyProgram) ProcedureByType(t ProcedureType) (*Procedure, error) {
	for i := range tp.Procedures {
		if tp.Procedures[i].Type == t {
			return &tp.Procedures[i], nil
		}
	}
	return nil, ErrProcedureNotFound
}

// StartProcedure moves a scheduled, unblocked procedure to in-progress and
// merges any provided schedule dates and instructions.
func (tp *TherapyProgram) StartProcedure(t ProcedureType, input *ProcedureScheduleInput) (*Procedure, error) {
	p, err := tp.ProcedureByType(t)
	if err != nil {
		return nil, err
	}
	if p.Status != ProcedureScheduled {
		return nil, ErrInvalidTransition
	}
	if !p.CanStart {
		return nil, ErrSequenceViolation
	}

	p.Status = ProcedureInProgress
	if input != nil {
		p.applySchedule(input)
	}
	if tp.Status == ProgramScheduled {
		tp.Status = ProgramActive
	}
	return p, nil
}

func (p *Procedure) applySchedule(input *ProcedureScheduleInput) {
	if input.PurvaKarmaAt != nil {
		p.PurvaKarmaAt = input.PurvaKarmaAt
	}
	if input.PradhanaKarmaAt != nil {
		p.PradhanaKarmaAt = input.PradhanaKarmaAt
	}
	if input.PaschatKarmaAt != nil {
		p.PaschatKarmaAt = input.PaschatKarmaAt
	}
	if input.PreInstructions != nil {
		p.PreInstructions = *input.PreInstructions
	}
	if input.PostInstructions != nil {
		p.PostInstructions = *input.PostInstructions
	}
	if input.DietaryRestrictions != nil {
		p.DietaryRestrictions = *input.DietaryRestrictions
	}
	if input.MedicineSchedule != nil {
		p.MedicineSchedule = *input.MedicineSchedule
	}
}

// FinishProcedure ends an in-progress procedure. If feedback is required the
// procedure parks at awaiting-feedback and the successor stays blocked;
// otherwise it completes and unblocks the next procedure.
func (tp *TherapyProgram) FinishProcedure(t ProcedureType, notes string) (*Procedure, error) {
	p, err := tp.ProcedureByType(t)
	if err != nil {
		return nil, err
	}
	if p.Status != ProcedureInProgress {
		return nil, ErrInvalidTransition
	}

	now := time.Now().UTC()
	p.CompletedAt = &now
	if notes != "" {
		p.Notes = notes
	}

	if p.FeedbackRequired {
		p.Status = ProcedureAwaitingFeedback
		return p, nil
	}

	p.Status = ProcedureCompleted
	tp.unblockSuccessor(p)
	tp.refreshCompletion()
	return p, nil
}

// SubmitFeedback stores patient feedback for a finished procedure, completes
// it, and unblocks the successor. Completing the last procedure completes the
// program.
func (tp *TherapyProgram) SubmitFeedback(t ProcedureType, fb *ProcedureFeedback) (*Procedure, error) {
	p, err := tp.ProcedureByType(t)
	if err != nil {
		return nil, err
	}
	if p.Status != ProcedureAwaitingFeedback && p.Status != ProcedureCompleted {
		return nil, ErrFeedbackNotOpen
	}
	if p.FeedbackReceived {
		return nil, ErrFeedbackAlreadySubmitted
	}

	fb.ProcedureID = p.ID
	fb.PatientID = tp.PatientID
	p.Feedback = fb
	p.FeedbackReceived = true
	p.Status = ProcedureCompleted
	if p.CompletedAt == nil {
		now := time.Now().UTC()
		p.CompletedAt = &now
	}

	tp.unblockSuccessor(p)
	tp.refreshCompletion()
	return p, nil
}

// CancelProcedure cancels a procedure from any non-completed state. The
// successor is not unblocked; resolving the gap is a program-level decision.
func (tp *TherapyProgram) CancelProcedure(t ProcedureType) (*Procedure, error) {
	p, err := tp.ProcedureByType(t)
	if err != nil {
		return nil, err
	}
	if p.Status == ProcedureCompleted || p.Status == ProcedureCancelled {
		return nil, ErrInvalidTransition
	}
	p.Status = ProcedureCancelled
	return p, nil
}

// unblockSuccessor marks the next procedure in sequence startable, provided
// the finished procedure is done for sequencing purposes.
func (tp *TherapyProgram) unblockSuccessor(p *Procedure) {
	if !p.doneForSequencing() {
		return
	}
	idx := p.Type.SequenceIndex()
	for i := range tp.Procedures {
		next := &tp.Procedures[i]
		if next.Type.SequenceIndex() == idx+1 && next.Status == ProcedureScheduled {
			next.CanStart = true
		}
	}
}

// refreshCompletion marks the program completed once every procedure is done.
func (tp *TherapyProgram) refreshCompletion() {
	for i := range tp.Procedures {
		if !tp.Procedures[i].doneForSequencing() {
			return
		}
	}
	tp.Status = ProgramCompleted
}

// Progress derives session counts and the next upcoming sub-phase date.
func (tp *TherapyProgram) Progress() ProgramProgress {
	progress := ProgramProgress{TotalSessions: len(tp.Procedures)}
	now := time.Now().UTC()

	for i := range tp.Procedures {
		p := &tp.Procedures[i]
		if p.Status == ProcedureCompleted {
			progress.CompletedSessions++
			continue
		}
		if p.Status == ProcedureCancelled {
			continue
		}
		for _, ts := range []*time.Time{p.PurvaKarmaAt, p.PradhanaKarmaAt, p.PaschatKarmaAt} {
			if ts == nil || ts.Before(now) {
				continue
			}
			if progress.NextSessionAt == nil || ts.Before(*progress.NextSessionAt) {
				progress.NextSessionAt = ts
			}
		}
	}

	if progress.TotalSessions > 0 {
		progress.PercentageComplete = progress.CompletedSessions * 100 / progress.TotalSessions
	}
	return progress
}
