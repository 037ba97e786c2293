package models

import (
	"errors"
	"testing"
	"time"
)

func newTestProgram() *TherapyProgram {
	tp := &TherapyProgram{
		BaseModel:      BaseModel{ID: "program-1"},
		ProgramName:    "Panchakarma Program",
		Status:         ProgramScheduled,
		PatientID:      "patient-1",
		PractitionerID: "practitioner-1",
	}
	tp.EnsureProcedures()
	return tp
}

// runThrough drives one procedure from scheduled to completed, submitting
// feedback when the gate requires it.
func runThrough(t *testing.T, tp *TherapyProgram, procType ProcedureType) {
	t.Helper()
	if _, err := tp.StartProcedure(procType, nil); err != nil {
		t.Fatalf("StartProcedure(%s): %v", procType, err)
	}
	p, err := tp.FinishProcedure(procType, "")
	if err != nil {
		t.Fatalf("FinishProcedure(%s): %v", procType, err)
	}
	if p.FeedbackRequired {
		if _, err := tp.SubmitFeedback(procType, &ProcedureFeedback{OverallRating: 4}); err != nil {
			t.Fatalf("SubmitFeedback(%s): %v", procType, err)
		}
	}
}

func TestEnsureProceduresSkeleton(t *testing.T) {
	tp := newTestProgram()

	if len(tp.Procedures) != len(ProcedureSequence) {
		t.Fatalf("expected %d procedures, got %d", len(ProcedureSequence), len(tp.Procedures))
	}
	for i, p := range tp.Procedures {
		if p.Type != ProcedureSequence[i] {
			t.Errorf("position %d: expected %s, got %s", i, ProcedureSequence[i], p.Type)
		}
		if p.SequenceOrder != i+1 {
			t.Errorf("%s: expected sequenceOrder %d, got %d", p.Type, i+1, p.SequenceOrder)
		}
		if p.Status != ProcedureScheduled {
			t.Errorf("%s: expected scheduled, got %s", p.Type, p.Status)
		}
		wantStart := i == 0
		if p.CanStart != wantStart {
			t.Errorf("%s: expected canStart=%v, got %v", p.Type, wantStart, p.CanStart)
		}
	}

	// Second call must not duplicate the skeleton.
	if tp.EnsureProcedures() {
		t.Error("EnsureProcedures reported creation on a populated program")
	}
	if len(tp.Procedures) != len(ProcedureSequence) {
		t.Errorf("skeleton duplicated: %d procedures", len(tp.Procedures))
	}
}

func TestStartProcedureOutOfSequence(t *testing.T) {
	tp := newTestProgram()

	for _, procType := range ProcedureSequence[1:] {
		if _, err := tp.StartProcedure(procType, nil); !errors.Is(err, ErrSequenceViolation) {
			t.Errorf("StartProcedure(%s) on fresh program: expected ErrSequenceViolation, got %v", procType, err)
		}
	}
}

func TestStartProcedureActivatesProgram(t *testing.T) {
	tp := newTestProgram()

	p, err := tp.StartProcedure(ProcedureVamana, nil)
	if err != nil {
		t.Fatalf("StartProcedure: %v", err)
	}
	if p.Status != ProcedureInProgress {
		t.Errorf("expected in-progress, got %s", p.Status)
	}
	if tp.Status != ProgramActive {
		t.Errorf("expected program active, got %s", tp.Status)
	}

	// Starting again is an invalid transition, not a sequence violation.
	if _, err := tp.StartProcedure(ProcedureVamana, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("double start: expected ErrInvalidTransition, got %v", err)
	}
}

func TestStartProcedureMergesSchedule(t *testing.T) {
	tp := newTestProgram()

	at := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	pre := "Light diet from the evening before"
	p, err := tp.StartProcedure(ProcedureVamana, &ProcedureScheduleInput{
		PurvaKarmaAt:    &at,
		PreInstructions: &pre,
	})
	if err != nil {
		t.Fatalf("StartProcedure: %v", err)
	}
	if p.PurvaKarmaAt == nil || !p.PurvaKarmaAt.Equal(at) {
		t.Errorf("purvaKarmaAt not merged: %v", p.PurvaKarmaAt)
	}
	if p.PreInstructions != pre {
		t.Errorf("preInstructions not merged: %q", p.PreInstructions)
	}
}

func TestFeedbackGateBlocksSuccessor(t *testing.T) {
	tp := newTestProgram()

	if _, err := tp.StartProcedure(ProcedureVamana, nil); err != nil {
		t.Fatalf("StartProcedure: %v", err)
	}
	p, err := tp.FinishProcedure(ProcedureVamana, "tolerated well")
	if err != nil {
		t.Fatalf("FinishProcedure: %v", err)
	}
	if p.Status != ProcedureAwaitingFeedback {
		t.Fatalf("expected awaiting-feedback, got %s", p.Status)
	}
	if p.Notes != "tolerated well" {
		t.Errorf("notes not recorded: %q", p.Notes)
	}

	// Successor stays blocked until feedback lands.
	if _, err := tp.StartProcedure(ProcedureVirechana, nil); !errors.Is(err, ErrSequenceViolation) {
		t.Fatalf("virechana before feedback: expected ErrSequenceViolation, got %v", err)
	}

	if _, err := tp.SubmitFeedback(ProcedureVamana, &ProcedureFeedback{OverallRating: 5}); err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}
	if p.Status != ProcedureCompleted {
		t.Errorf("expected completed after feedback, got %s", p.Status)
	}
	if !p.FeedbackReceived {
		t.Error("feedbackReceived not set")
	}

	if _, err := tp.StartProcedure(ProcedureVirechana, nil); err != nil {
		t.Errorf("virechana after feedback: %v", err)
	}
}

func TestFinishWithoutFeedbackRequirement(t *testing.T) {
	tp := newTestProgram()
	tp.Procedures[0].FeedbackRequired = false

	if _, err := tp.StartProcedure(ProcedureVamana, nil); err != nil {
		t.Fatalf("StartProcedure: %v", err)
	}
	p, err := tp.FinishProcedure(ProcedureVamana, "")
	if err != nil {
		t.Fatalf("FinishProcedure: %v", err)
	}
	if p.Status != ProcedureCompleted {
		t.Fatalf("expected completed, got %s", p.Status)
	}
	if p.CompletedAt == nil {
		t.Error("completedAt not stamped")
	}

	next, _ := tp.ProcedureByType(ProcedureVirechana)
	if !next.CanStart {
		t.Error("virechana not unblocked after no-feedback completion")
	}
}

func TestSubmitFeedbackErrors(t *testing.T) {
	tp := newTestProgram()

	// Feedback on a scheduled procedure is not open.
	if _, err := tp.SubmitFeedback(ProcedureVamana, &ProcedureFeedback{OverallRating: 3}); !errors.Is(err, ErrFeedbackNotOpen) {
		t.Errorf("feedback on scheduled: expected ErrFeedbackNotOpen, got %v", err)
	}

	runThrough(t, tp, ProcedureVamana)

	// Second submission is rejected.
	if _, err := tp.SubmitFeedback(ProcedureVamana, &ProcedureFeedback{OverallRating: 1}); !errors.Is(err, ErrFeedbackAlreadySubmitted) {
		t.Errorf("double feedback: expected ErrFeedbackAlreadySubmitted, got %v", err)
	}

	if _, err := tp.SubmitFeedback("shirodhara", &ProcedureFeedback{}); !errors.Is(err, ErrProcedureNotFound) {
		t.Errorf("unknown type: expected ErrProcedureNotFound, got %v", err)
	}
}

func TestSubmitFeedbackBindsPatient(t *testing.T) {
	tp := newTestProgram()
	if _, err := tp.StartProcedure(ProcedureVamana, nil); err != nil {
		t.Fatalf("StartProcedure: %v", err)
	}
	if _, err := tp.FinishProcedure(ProcedureVamana, ""); err != nil {
		t.Fatalf("FinishProcedure: %v", err)
	}

	fb := &ProcedureFeedback{OverallRating: 4}
	p, err := tp.SubmitFeedback(ProcedureVamana, fb)
	if err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}
	if fb.ProcedureID != p.ID {
		t.Errorf("feedback not bound to procedure: %q", fb.ProcedureID)
	}
	if fb.PatientID != tp.PatientID {
		t.Errorf("feedback not bound to patient: %q", fb.PatientID)
	}
}

func TestProgramCompletesAfterLastProcedure(t *testing.T) {
	tp := newTestProgram()

	for i, procType := range ProcedureSequence {
		runThrough(t, tp, procType)
		isLast := i == len(ProcedureSequence)-1
		if !isLast && tp.Status == ProgramCompleted {
			t.Fatalf("program completed early after %s", procType)
		}
	}

	if tp.Status != ProgramCompleted {
		t.Errorf("expected program completed, got %s", tp.Status)
	}
}

func TestCancelProcedure(t *testing.T) {
	tp := newTestProgram()

	p, err := tp.CancelProcedure(ProcedureBasti)
	if err != nil {
		t.Fatalf("CancelProcedure: %v", err)
	}
	if p.Status != ProcedureCancelled {
		t.Errorf("expected cancelled, got %s", p.Status)
	}

	// Cancelled and completed procedures cannot be cancelled again.
	if _, err := tp.CancelProcedure(ProcedureBasti); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("double cancel: expected ErrInvalidTransition, got %v", err)
	}

	runThrough(t, tp, ProcedureVamana)
	if _, err := tp.CancelProcedure(ProcedureVamana); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("cancel completed: expected ErrInvalidTransition, got %v", err)
	}
}

func TestCancelledProcedureBlocksProgramCompletion(t *testing.T) {
	tp := newTestProgram()

	if _, err := tp.CancelProcedure(ProcedureRaktamokshana); err != nil {
		t.Fatalf("CancelProcedure: %v", err)
	}
	for _, procType := range ProcedureSequence[:4] {
		runThrough(t, tp, procType)
	}

	if tp.Status == ProgramCompleted {
		t.Error("program auto-completed despite a cancelled procedure")
	}
}

func TestProgramStatusTransitions(t *testing.T) {
	cases := []struct {
		from ProgramStatus
		to   ProgramStatus
		ok   bool
	}{
		{ProgramScheduled, ProgramActive, true},
		{ProgramScheduled, ProgramCancelled, true},
		{ProgramScheduled, ProgramPaused, false},
		{ProgramActive, ProgramPaused, true},
		{ProgramActive, ProgramCancelled, true},
		{ProgramPaused, ProgramActive, true},
		{ProgramPaused, ProgramCancelled, true},
		{ProgramActive, ProgramCompleted, false},
		{ProgramCompleted, ProgramActive, false},
		{ProgramCancelled, ProgramActive, false},
	}

	for _, tc := range cases {
		tp := &TherapyProgram{Status: tc.from}
		err := tp.UpdateStatus(tc.to)
		if tc.ok && err != nil {
			t.Errorf("%s → %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s → %s: expected ErrInvalidTransition, got %v", tc.from, tc.to, err)
		}
	}
}

func TestProgress(t *testing.T) {
	tp := newTestProgram()

	progress := tp.Progress()
	if progress.TotalSessions != 5 || progress.CompletedSessions != 0 || progress.PercentageComplete != 0 {
		t.Errorf("fresh program progress: %+v", progress)
	}

	runThrough(t, tp, ProcedureVamana)
	runThrough(t, tp, ProcedureVirechana)

	progress = tp.Progress()
	if progress.CompletedSessions != 2 {
		t.Errorf("expected 2 completed sessions, got %d", progress.CompletedSessions)
	}
	if progress.PercentageComplete != 40 {
		t.Errorf("expected 40%%, got %d%%", progress.PercentageComplete)
	}

	// Future sub-phase dates surface as the next session.
	future := time.Now().UTC().Add(72 * time.Hour)
	basti, _ := tp.ProcedureByType(ProcedureBasti)
	basti.PradhanaKarmaAt = &future

	progress = tp.Progress()
	if progress.NextSessionAt == nil || !progress.NextSessionAt.Equal(future) {
		t.Errorf("expected next session %v, got %v", future, progress.NextSessionAt)
	}
}
