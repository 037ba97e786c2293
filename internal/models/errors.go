package models

import "errors"

var (
	// ErrInvalidTransition is returned when a status change is attempted that
	// the entity's state machine does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrSequenceViolation is returned when a procedure is started before its
	// predecessor in the Panchakarma sequence has completed (including the
	// feedback gate).
	ErrSequenceViolation = errors.New("procedure started out of sequence")

	ErrProcedureNotFound        = errors.New("procedure not found in program")
	ErrFeedbackAlreadySubmitted = errors.New("feedback already submitted for this procedure")
	ErrFeedbackNotOpen          = errors.New("procedure is not open for feedback")
)
