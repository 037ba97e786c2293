package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ayursutra-server/internal/metrics"
	"ayursutra-server/internal/middleware"
	"ayursutra-server/internal/models"
	"ayursutra-server/internal/utils"
)

// TherapyHandler handles therapy program and procedure sequencing requests.
type TherapyHandler struct {
	DB      *gorm.DB
	Log     *zap.Logger
	Metrics *metrics.Collector
}

// NewTherapyHandler creates a new TherapyHandler.
func NewTherapyHandler(db *gorm.DB, log *zap.Logger, collector *metrics.Collector) *TherapyHandler {
	return &TherapyHandler{DB: db, Log: log, Metrics: collector}
}

// programView decorates a program with its derived progress for responses.
type programView struct {
	*models.TherapyProgram
	Progress models.ProgramProgress `json:"progress"`
}

func viewOf(p *models.TherapyProgram) programView {
	return programView{TherapyProgram: p, Progress: p.Progress()}
}

// loadProgram fetches a program with its procedures in canonical order and
// authorizes the caller. Writes the error response and returns nil on failure.
func (h *TherapyHandler) loadProgram(c *gin.Context) *models.TherapyProgram {
	programID := c.Param("id")

	var program models.TherapyProgram
	err := h.DB.
		Preload("Procedures", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_order asc")
		}).
		Preload("Procedures.Feedback").
		First(&program, "id = ?", programID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Therapy program not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return nil
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole != models.RoleAdmin && userID != program.PatientID && userID != program.PractitionerID {
		utils.Forbidden(c, "You are not authorized to access this therapy program")
		return nil
	}

	return &program
}

// persistProgram saves the program row and every procedure in one transaction.
func (h *TherapyHandler) persistProgram(program *models.TherapyProgram) error {
	return h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Procedures").Save(program).Error; err != nil {
			return err
		}
		for i := range program.Procedures {
			if err := tx.Omit("Feedback").Save(&program.Procedures[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateProgramRequest represents the request body for creating a therapy program.
type CreateProgramRequest struct {
	PatientID   string `json:"patientId" binding:"required,uuid"`
	ProgramName string `json:"programName" binding:"required"`
	Notes       string `json:"notes"`
}

// CreateProgram enrolls a patient in a new therapy program with the full
// procedure skeleton, first procedure startable.
func (h *TherapyHandler) CreateProgram(c *gin.Context) {
	var req CreateProgramRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)

	var patient models.User
	if err := h.DB.Where("id = ? AND role = ?", req.PatientID, models.RolePatient).First(&patient).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error verifying patient: "+err.Error())
		}
		return
	}

	program := models.TherapyProgram{
		ProgramName:    req.ProgramName,
		Status:         models.ProgramScheduled,
		PatientID:      req.PatientID,
		PractitionerID: userID,
		Notes:          req.Notes,
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&program).Error; err != nil {
			return err
		}
		program.EnsureProcedures()
		for i := range program.Procedures {
			program.Procedures[i].ProgramID = program.ID
			if err := tx.Create(&program.Procedures[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to create therapy program: "+err.Error())
		return
	}

	h.Log.Info("therapy program created",
		zap.String("program", program.ID),
		zap.String("patient", program.PatientID))
	utils.Created(c, "Therapy program created successfully", viewOf(&program))
}

// GetPrograms lists therapy programs visible to the caller.
func (h *TherapyHandler) GetPrograms(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	userRole, _ := middleware.GetUserRoleFromContext(c)

	query := h.DB.Preload("Procedures", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order asc")
	}).Order("created_at desc")

	var programs []models.TherapyProgram
	var err error
	switch userRole {
	case models.RolePatient:
		err = query.Where("patient_id = ?", userID).Find(&programs).Error
	case models.RolePractitioner:
		err = query.Where("practitioner_id = ?", userID).Find(&programs).Error
	case models.RoleAdmin:
		err = query.Find(&programs).Error
	default:
		utils.Forbidden(c, "User role not permitted to view therapy programs.")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch therapy programs: "+err.Error())
		return
	}

	views := make([]programView, len(programs))
	for i := range programs {
		views[i] = viewOf(&programs[i])
	}
	utils.Success(c, "Therapy programs fetched successfully", views)
}

// GetProgram fetches one program. A program persisted without procedures is
// materialized with the fixed skeleton on first read.
func (h *TherapyHandler) GetProgram(c *gin.Context) {
	program := h.loadProgram(c)
	if program == nil {
		return
	}

	if program.EnsureProcedures() {
		err := h.DB.Transaction(func(tx *gorm.DB) error {
			for i := range program.Procedures {
				if err := tx.Create(&program.Procedures[i]).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			utils.InternalServerError(c, "Failed to materialize procedures: "+err.Error())
			return
		}
		h.Log.Info("materialized procedure skeleton", zap.String("program", program.ID))
	}

	utils.Success(c, "Therapy program fetched successfully", viewOf(program))
}

// UpdateProgramRequest represents the request body for updating program details.
type UpdateProgramRequest struct {
	ProgramName string `json:"programName"`
	Notes       string `json:"notes"`
}

// UpdateProgram updates mutable program details (not status, not sequencing).
func (h *TherapyHandler) UpdateProgram(c *gin.Context) {
	program := h.loadProgram(c)
	if program == nil {
		return
	}

	var req UpdateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	if req.ProgramName != "" {
		program.ProgramName = req.ProgramName
	}
	if req.Notes != "" {
		program.Notes = req.Notes
	}

	if err := h.DB.Omit("Procedures").Save(program).Error; err != nil {
		utils.InternalServerError(c, "Failed to update therapy program: "+err.Error())
		return
	}

	utils.Success(c, "Therapy program updated successfully", viewOf(program))
}

// UpdateProgramStatusRequest represents the request body for program status changes.
type UpdateProgramStatusRequest struct {
	Status models.ProgramStatus `json:"status" binding:"required,oneof=active paused cancelled"`
}

// UpdateProgramStatus applies a practitioner-driven pause, resume, or cancel.
// Completion is reached only through the sequencer.
func (h *TherapyHandler) UpdateProgramStatus(c *gin.Context) {
	program := h.loadProgram(c)
	if program == nil {
		return
	}

	var req UpdateProgramStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := program.UpdateStatus(req.Status); err != nil {
		respondDomainError(c, err)
		return
	}

	if err := h.DB.Omit("Procedures").Save(program).Error; err != nil {
		utils.InternalServerError(c, "Failed to update program status: "+err.Error())
		return
	}

	utils.Success(c, "Program status updated successfully", viewOf(program))
}

// StartProcedure moves a procedure to in-progress, merging schedule dates and
// instructions. Rejected with a conflict when started out of sequence.
func (h *TherapyHandler) StartProcedure(c *gin.Context) {
	program := h.loadProgram(c)
	if program == nil {
		return
	}
	procType := models.ProcedureType(c.Param("type"))
	if !procType.IsValid() {
		utils.BadRequest(c, "Unknown procedure type: "+c.Param("type"))
		return
	}

	var input models.ProcedureScheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	procedure, err := program.StartProcedure(procType, &input)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	if err := h.persistProgram(program); err != nil {
		utils.InternalServerError(c, "Failed to start procedure: "+err.Error())
		return
	}

	h.Metrics.ProceduresTotal.WithLabelValues(string(procedure.Status)).Inc()
	h.Log.Info("procedure started",
		zap.String("program", program.ID),
		zap.String("procedure", string(procType)))
	utils.Success(c, "Procedure started successfully", procedure)
}

// FinishProcedureRequest represents the request body for finishing a procedure.
type FinishProcedureRequest struct {
	Notes string `json:"notes"`
}

// FinishProcedure ends an in-progress procedure. With feedback required it
// parks at awaiting-feedback and the next procedure stays blocked.
func (h *TherapyHandler) FinishProcedure(c *gin.Context) {
	program := h.loadProgram(c)
	if program == nil {
		return
	}
	procType := models.ProcedureType(c.Param("type"))
	if !procType.IsValid() {
		utils.BadRequest(c, "Unknown procedure type: "+c.Param("type"))
		return
	}

	var req FinishProcedureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	procedure, err := program.FinishProcedure(procType, req.Notes)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	if err := h.persistProgram(program); err != nil {
		utils.InternalServerError(c, "Failed to finish procedure: "+err.Error())
		return
	}

	h.Metrics.ProceduresTotal.WithLabelValues(string(procedure.Status)).Inc()
	utils.Success(c, "Procedure finished successfully", procedure)
}

// CancelProcedure cancels a procedure from any non-completed state.
func (h *TherapyHandler) CancelProcedure(c *gin.Context) {
	program := h.loadProgram(c)
	if program == nil {
		return
	}
	procType := models.ProcedureType(c.Param("type"))
	if !procType.IsValid() {
		utils.BadRequest(c, "Unknown procedure type: "+c.Param("type"))
		return
	}

	procedure, err := program.CancelProcedure(procType)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	if err := h.persistProgram(program); err != nil {
		utils.InternalServerError(c, "Failed to cancel procedure: "+err.Error())
		return
	}

	h.Metrics.ProceduresTotal.WithLabelValues(string(procedure.Status)).Inc()
	utils.Success(c, "Procedure cancelled successfully", procedure)
}

// SubmitFeedbackRequest represents the structured feedback payload.
type SubmitFeedbackRequest struct {
	OverallRating   int            `json:"overallRating" binding:"required,min=1,max=5"`
	Recommend       bool           `json:"recommend"`
	PositiveAspects map[string]int `json:"positiveAspects"`
	NegativeAspects map[string]int `json:"negativeAspects"`
	PainLevel       int            `json:"painLevel" binding:"omitempty,min=1,max=10"`
	EnergyLevel     int            `json:"energyLevel" binding:"omitempty,min=1,max=10"`
	SleepQuality    int            `json:"sleepQuality" binding:"omitempty,min=1,max=5"`
	AppetiteLevel   int            `json:"appetiteLevel" binding:"omitempty,min=1,max=5"`
	Symptoms        []string       `json:"symptoms"`
	SideEffects     []string       `json:"sideEffects"`
	Comments        string         `json:"comments"`
}

// SubmitFeedback stores patient feedback for a finished procedure, completes
// it, and unblocks the next one. Only the enrolled patient may submit.
func (h *TherapyHandler) SubmitFeedback(c *gin.Context) {
	program := h.loadProgram(c)
	if program == nil {
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole == models.RolePractitioner || (userRole == models.RolePatient && userID != program.PatientID) {
		utils.Forbidden(c, "Only the enrolled patient can submit feedback")
		return
	}

	procType := models.ProcedureType(c.Param("type"))
	if !procType.IsValid() {
		utils.BadRequest(c, "Unknown procedure type: "+c.Param("type"))
		return
	}

	var req SubmitFeedbackRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	feedback := models.ProcedureFeedback{
		OverallRating:   req.OverallRating,
		Recommend:       req.Recommend,
		PositiveAspects: req.PositiveAspects,
		NegativeAspects: req.NegativeAspects,
		PainLevel:       req.PainLevel,
		EnergyLevel:     req.EnergyLevel,
		SleepQuality:    req.SleepQuality,
		AppetiteLevel:   req.AppetiteLevel,
		Symptoms:        req.Symptoms,
		SideEffects:     req.SideEffects,
		Comments:        req.Comments,
	}

	wasCompleted := program.Status == models.ProgramCompleted
	procedure, err := program.SubmitFeedback(procType, &feedback)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&feedback).Error; err != nil {
			return err
		}
		if err := tx.Omit("Procedures").Save(program).Error; err != nil {
			return err
		}
		for i := range program.Procedures {
			if err := tx.Omit("Feedback").Save(&program.Procedures[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		utils.InternalServerError(c, "Failed to store feedback: "+txErr.Error())
		return
	}

	h.Metrics.FeedbackSubmitted.Inc()
	if !wasCompleted && program.Status == models.ProgramCompleted {
		h.Metrics.ProgramsCompleted.Inc()
		h.Log.Info("therapy program completed", zap.String("program", program.ID))
	}

	utils.Success(c, "Feedback submitted successfully", gin.H{
		"procedure": procedure,
		"program":   viewOf(program),
	})
}
