package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"ayursutra-server/internal/models"
	"ayursutra-server/internal/utils"
)

// respondDomainError maps domain sentinel errors onto HTTP responses.
// Rejected transitions and sequence violations are conflicts; unknown
// procedure types are not found.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrProcedureNotFound):
		utils.NotFound(c, err.Error())
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrSequenceViolation),
		errors.Is(err, models.ErrFeedbackAlreadySubmitted),
		errors.Is(err, models.ErrFeedbackNotOpen):
		utils.Conflict(c, err.Error())
	default:
		utils.InternalServerError(c, err.Error())
	}
}
