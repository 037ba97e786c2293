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

// ChatHandler handles the per-appointment chat channels.
type ChatHandler struct {
	DB      *gorm.DB
	Log     *zap.Logger
	Metrics *metrics.Collector
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(db *gorm.DB, log *zap.Logger, collector *metrics.Collector) *ChatHandler {
	return &ChatHandler{DB: db, Log: log, Metrics: collector}
}

// GetChats lists every chat the caller participates in.
func (h *ChatHandler) GetChats(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var chats []models.Chat
	err := h.DB.
		Where("patient_id = ? OR practitioner_id = ?", userID, userID).
		Order("updated_at desc").
		Find(&chats).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch chats: "+err.Error())
		return
	}

	utils.Success(c, "Chats fetched successfully", chats)
}

// GetChatByAppointment fetches the chat bound to an appointment, creating it
// on first access. Only the two appointment participants may open it.
func (h *ChatHandler) GetChatByAppointment(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
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

	if userID != appointment.PatientID && userID != appointment.PractitionerID {
		utils.Forbidden(c, "Only appointment participants can access this chat")
		return
	}

	chat, err := h.getOrCreateChat(&appointment)
	if err != nil {
		utils.InternalServerError(c, "Failed to open chat: "+err.Error())
		return
	}

	utils.Success(c, "Chat fetched successfully", chat)
}

// getOrCreateChat returns the channel for an appointment, creating an empty
// one if this is the first access.
func (h *ChatHandler) getOrCreateChat(appointment *models.Appointment) (*models.Chat, error) {
	var chat models.Chat
	err := h.DB.
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		Where("appointment_id = ?", appointment.ID).
		First(&chat).Error
	if err == nil {
		return &chat, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	chat = models.Chat{
		AppointmentID:  appointment.ID,
		PatientID:      appointment.PatientID,
		PractitionerID: appointment.PractitionerID,
	}
	if err := h.DB.Create(&chat).Error; err != nil {
		return nil, err
	}
	h.Log.Info("chat created",
		zap.String("chat", chat.ID),
		zap.String("appointment", appointment.ID))
	return &chat, nil
}

// SendMessageRequest represents the request body for sending a chat message.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// SendMessage appends a message to a chat and bumps the other party's unread
// counter.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	chatID := c.Param("id")

	var req SendMessageRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var chat models.Chat
	if err := h.DB.First(&chat, "id = ?", chatID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Chat not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	party, ok := chat.PartyFor(userID)
	if !ok {
		utils.Forbidden(c, "Only chat participants can send messages")
		return
	}

	message := models.ChatMessage{
		ChatID:     chat.ID,
		SenderID:   userID,
		SenderRole: party,
		Content:    req.Content,
	}
	chat.RecordSend(party)

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return tx.Save(&chat).Error
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to send message: "+err.Error())
		return
	}

	h.Metrics.ChatMessagesTotal.Inc()
	utils.Created(c, "Message sent successfully", message)
}

// MarkChatRead zeroes the caller's own unread counter. The other party's
// counter is untouched.
func (h *ChatHandler) MarkChatRead(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	chatID := c.Param("id")

	var chat models.Chat
	if err := h.DB.First(&chat, "id = ?", chatID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Chat not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	party, ok := chat.PartyFor(userID)
	if !ok {
		utils.Forbidden(c, "Only chat participants can mark messages as read")
		return
	}

	chat.MarkReadFor(party)
	if err := h.DB.Save(&chat).Error; err != nil {
		utils.InternalServerError(c, "Failed to mark chat as read: "+err.Error())
		return
	}

	utils.Success(c, "Chat marked as read", chat)
}
