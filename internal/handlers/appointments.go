package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ayursutra-server/internal/metrics"
	"ayursutra-server/internal/middleware"
	"ayursutra-server/internal/models"
	"ayursutra-server/internal/notifier"
	"ayursutra-server/internal/utils"
)

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	DB      *gorm.DB
	Log     *zap.Logger
	Metrics *metrics.Collector
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(db *gorm.DB, log *zap.Logger, collector *metrics.Collector) *AppointmentHandler {
	return &AppointmentHandler{DB: db, Log: log, Metrics: collector}
}

// CreateAppointmentRequest represents the request body for creating an appointment.
type CreateAppointmentRequest struct {
	PractitionerID string    `json:"practitionerId" binding:"required,uuid"`
	PatientID      string    `json:"patientId" binding:"required,uuid"`
	SlotStartUtc   time.Time `json:"slotStartUtc" binding:"required"`
	Duration       int       `json:"duration"`
	Reason         string    `json:"reason" binding:"required"`
	Notes          string    `json:"notes"`
}

// CreateAppointment handles creating a new appointment, either a patient
// request or practitioner scheduling. Both enter the lifecycle as requested.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User ID not found in token")
		return
	}
	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole == models.RolePatient && userID != req.PatientID {
		utils.Forbidden(c, "Patients can only book appointments for themselves.")
		return
	}

	// Verify practitioner exists and holds the practitioner role
	var practitioner models.User
	if err := h.DB.Where("id = ? AND role = ?", req.PractitionerID, models.RolePractitioner).First(&practitioner).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Practitioner not found")
		} else {
			utils.InternalServerError(c, "Database error verifying practitioner: "+err.Error())
		}
		return
	}
	// Verify patient exists
	var patient models.User
	if err := h.DB.Where("id = ? AND role = ?", req.PatientID, models.RolePatient).First(&patient).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error verifying patient: "+err.Error())
		}
		return
	}

	if req.SlotStartUtc.Before(time.Now()) {
		utils.BadRequest(c, "Appointment slot must be in the future.")
		return
	}

	duration := req.Duration
	if duration <= 0 {
		duration = 60
	}

	appointment := models.Appointment{
		PatientID:      req.PatientID,
		PractitionerID: req.PractitionerID,
		StartTime:      req.SlotStartUtc.UTC(),
		DurationMins:   duration,
		Reason:         req.Reason,
		Notes:          req.Notes,
		Status:         models.StatusRequested,
	}

	if err := h.DB.Create(&appointment).Error; err != nil {
		utils.InternalServerError(c, "Failed to create appointment: "+err.Error())
		return
	}

	h.Metrics.AppointmentsTotal.WithLabelValues(string(appointment.Status)).Inc()
	utils.Created(c, "Appointment created successfully", appointment)
}

// GetAppointmentsForUser handles fetching appointments for the logged-in user.
func (h *AppointmentHandler) GetAppointmentsForUser(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	userRole, _ := middleware.GetUserRoleFromContext(c)

	var appointments []models.Appointment
	var err error

	query := h.DB.Preload("Patient").Preload("Practitioner").Order("start_time asc")

	switch userRole {
	case models.RolePatient:
		err = query.Where("patient_id = ?", userID).Find(&appointments).Error
	case models.RolePractitioner:
		err = query.Where("practitioner_id = ?", userID).Find(&appointments).Error
	case models.RoleAdmin:
		err = query.Find(&appointments).Error
	default:
		utils.Forbidden(c, "User role not permitted to view appointments.")
		return
	}

	if err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetAppointmentByID handles fetching a single appointment by its ID.
// Accessible by the involved patient, practitioner, or an admin.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appointmentID := c.Param("id")

	var appointment models.Appointment
	if err := h.DB.Preload("Patient").Preload("Practitioner").First(&appointment, "id = ?", appointmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if !h.authorizeParticipant(c, &appointment) {
		return
	}

	utils.Success(c, "Appointment fetched successfully", appointment)
}

// authorizeParticipant rejects users who are neither a party to the
// appointment nor an admin. Writes the error response itself.
func (h *AppointmentHandler) authorizeParticipant(c *gin.Context, appointment *models.Appointment) bool {
	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)

	if userRole == models.RoleAdmin || userID == appointment.PatientID || userID == appointment.PractitionerID {
		return true
	}
	utils.Forbidden(c, "You are not authorized to access this appointment")
	return false
}

// ConfirmAppointment moves a requested appointment to confirmed and schedules
// the standard reminder notifications for the patient.
func (h *AppointmentHandler) ConfirmAppointment(c *gin.Context) {
	appointmentID := c.Param("id")

	var appointment models.Appointment
	if err := h.DB.Preload("Practitioner").First(&appointment, "id = ?", appointmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole != models.RoleAdmin && !(userRole == models.RolePractitioner && userID == appointment.PractitionerID) {
		utils.Forbidden(c, "Only the practitioner or an admin can confirm an appointment")
		return
	}

	if err := appointment.Confirm(); err != nil {
		respondDomainError(c, err)
		return
	}

	vars := map[string]string{
		notifier.VarTherapyName:      appointment.Reason,
		notifier.VarPractitionerName: appointment.Practitioner.FullName(),
	}
	reminders := notifier.BuildReminders(&appointment, vars,
		[]models.NotificationChannel{models.ChannelInApp, models.ChannelEmail})

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Patient", "Practitioner").Save(&appointment).Error; err != nil {
			return err
		}
		for i := range reminders {
			if err := tx.Create(&reminders[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to confirm appointment: "+err.Error())
		return
	}

	h.Metrics.AppointmentsTotal.WithLabelValues(string(appointment.Status)).Inc()
	h.Log.Info("appointment confirmed",
		zap.String("appointment", appointment.ID),
		zap.Int("reminders", len(reminders)))
	utils.Success(c, "Appointment confirmed successfully", appointment)
}

// CompleteAppointmentRequest represents the request body for completing an appointment.
type CompleteAppointmentRequest struct {
	SessionNotes    string `json:"sessionNotes"`
	EnrollInTherapy bool   `json:"enrollInTherapy"`
	ProgramName     string `json:"programName"`
}

// CompleteAppointment moves a confirmed appointment to completed. The
// practitioner may opt in to enrolling the patient in a therapy program in
// the same action.
func (h *AppointmentHandler) CompleteAppointment(c *gin.Context) {
	appointmentID := c.Param("id")

	var req CompleteAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	var appointment models.Appointment
	if err := h.DB.First(&appointment, "id = ?", appointmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole != models.RoleAdmin && !(userRole == models.RolePractitioner && userID == appointment.PractitionerID) {
		utils.Forbidden(c, "Only the practitioner or an admin can complete an appointment")
		return
	}

	if err := appointment.Complete(req.SessionNotes); err != nil {
		respondDomainError(c, err)
		return
	}

	var program *models.TherapyProgram
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&appointment).Error; err != nil {
			return err
		}
		if !req.EnrollInTherapy {
			return nil
		}

		name := req.ProgramName
		if name == "" {
			name = "Panchakarma Program"
		}
		program = &models.TherapyProgram{
			ProgramName:    name,
			Status:         models.ProgramScheduled,
			PatientID:      appointment.PatientID,
			PractitionerID: appointment.PractitionerID,
			AppointmentID:  &appointment.ID,
		}
		if err := tx.Create(program).Error; err != nil {
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
		utils.InternalServerError(c, "Failed to complete appointment: "+err.Error())
		return
	}

	h.Metrics.AppointmentsTotal.WithLabelValues(string(appointment.Status)).Inc()
	if program != nil {
		h.Log.Info("patient enrolled in therapy program",
			zap.String("appointment", appointment.ID),
			zap.String("program", program.ID))
	}

	utils.Success(c, "Appointment completed successfully", gin.H{
		"appointment":    appointment,
		"therapyProgram": program,
	})
}

// CancelAppointment cancels a requested or confirmed appointment. All pending
// notifications tied to it are cascade-cancelled; sent ones are untouched.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	appointmentID := c.Param("id")

	var appointment models.Appointment
	if err := h.DB.First(&appointment, "id = ?", appointmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if !h.authorizeParticipant(c, &appointment) {
		return
	}

	if err := appointment.Cancel(); err != nil {
		respondDomainError(c, err)
		return
	}

	var cancelled int
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&appointment).Error; err != nil {
			return err
		}
		var notifications []models.Notification
		if err := tx.Where("appointment_id = ?", appointment.ID).Find(&notifications).Error; err != nil {
			return err
		}
		withdrawn := models.CancelPendingDeliveries(notifications)
		for _, n := range withdrawn {
			if err := tx.Save(n).Error; err != nil {
				return err
			}
		}
		cancelled = len(withdrawn)
		return nil
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to cancel appointment: "+err.Error())
		return
	}

	h.Metrics.AppointmentsTotal.WithLabelValues(string(appointment.Status)).Inc()
	h.Log.Info("appointment cancelled",
		zap.String("appointment", appointment.ID),
		zap.Int("notificationsCancelled", cancelled))
	utils.Success(c, "Appointment cancelled successfully", appointment)
}

// GetPractitionerSchedule returns the practitioner's appointments for one day.
func (h *AppointmentHandler) GetPractitionerSchedule(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	userRole, _ := middleware.GetUserRoleFromContext(c)

	practitionerID := userID
	if userRole == models.RoleAdmin {
		if q := c.Query("practitionerId"); q != "" {
			practitionerID = q
		}
	} else if userRole != models.RolePractitioner {
		utils.Forbidden(c, "Only practitioners can view their schedule")
		return
	}

	dateStr := c.Query("date")
	if dateStr == "" {
		dateStr = time.Now().UTC().Format("2006-01-02")
	}
	day, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		utils.BadRequest(c, "Invalid date format. Use YYYY-MM-DD")
		return
	}
	dayEnd := day.Add(24 * time.Hour)

	var appointments []models.Appointment
	if err := h.DB.Preload("Patient").
		Where("practitioner_id = ? AND start_time >= ? AND start_time < ?", practitionerID, day, dayEnd).
		Order("start_time asc").
		Find(&appointments).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch schedule: "+err.Error())
		return
	}

	utils.Success(c, "Schedule fetched successfully", appointments)
}
