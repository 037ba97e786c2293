package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ayursutra-server/internal/middleware"
	"ayursutra-server/internal/models"
	"ayursutra-server/internal/notifier"
	"ayursutra-server/internal/utils"
)

// NotificationHandler handles in-app notification requests.
type NotificationHandler struct {
	DB  *gorm.DB
	Log *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(db *gorm.DB, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{DB: db, Log: log}
}

// GetNotifications lists the caller's notifications, newest scheduled first.
// Pass ?unread=true to filter to unread ones.
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	query := h.DB.Where("recipient_id = ?", userID).Order("scheduled_at desc")
	if c.Query("unread") == "true" {
		query = query.Where("read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch notifications: "+err.Error())
		return
	}

	utils.Success(c, "Notifications fetched successfully", notifications)
}

// MarkNotificationRead flags one of the caller's notifications as read.
// Re-reading an already read notification is a no-op, not an error.
func (h *NotificationHandler) MarkNotificationRead(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	notificationID := c.Param("id")

	var notification models.Notification
	if err := h.DB.First(&notification, "id = ?", notificationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Notification not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if notification.RecipientID != userID {
		utils.Forbidden(c, "You can only mark your own notifications as read")
		return
	}

	notification.MarkRead()
	if err := h.DB.Save(&notification).Error; err != nil {
		utils.InternalServerError(c, "Failed to mark notification as read: "+err.Error())
		return
	}

	utils.Success(c, "Notification marked as read", notification)
}

// MarkAllNotificationsRead flags every notification of the caller as read.
func (h *NotificationHandler) MarkAllNotificationsRead(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	result := h.DB.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", userID, false).
		Update("read", true)
	if result.Error != nil {
		utils.InternalServerError(c, "Failed to mark notifications as read: "+result.Error.Error())
		return
	}

	utils.Success(c, "All notifications marked as read", gin.H{"updated": result.RowsAffected})
}

// CreateNotificationRequest represents the request body for a custom notification.
type CreateNotificationRequest struct {
	RecipientID string                       `json:"recipientId" binding:"required,uuid"`
	Title       string                       `json:"title" binding:"required"`
	Body        string                       `json:"body" binding:"required"`
	Channels    []models.NotificationChannel `json:"channels"`
	ScheduledAt *time.Time                   `json:"scheduledAt"`
}

// CreateNotification schedules a custom notification for a recipient.
// Practitioners and admins only; omitting scheduledAt delivers immediately.
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var req CreateNotificationRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var recipient models.User
	if err := h.DB.First(&recipient, "id = ?", req.RecipientID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Recipient not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	channels := req.Channels
	if len(channels) == 0 {
		channels = []models.NotificationChannel{models.ChannelInApp}
	}
	for _, ch := range channels {
		if !ch.IsValid() {
			utils.BadRequest(c, "Unknown notification channel: "+string(ch))
			return
		}
	}

	scheduledAt := time.Now().UTC()
	if req.ScheduledAt != nil {
		scheduledAt = req.ScheduledAt.UTC()
	}

	notification := notifier.Build(
		req.RecipientID,
		nil,
		models.TemplateCustom,
		map[string]string{
			notifier.VarTitle: req.Title,
			notifier.VarBody:  req.Body,
		},
		channels,
		scheduledAt,
	)

	if err := h.DB.Create(&notification).Error; err != nil {
		utils.InternalServerError(c, "Failed to create notification: "+err.Error())
		return
	}

	h.Log.Info("custom notification scheduled",
		zap.String("notification", notification.ID),
		zap.String("recipient", notification.RecipientID),
		zap.Time("scheduledAt", notification.ScheduledAt))
	utils.Created(c, "Notification scheduled successfully", notification)
}
