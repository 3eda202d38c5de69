package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-reservations/services"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

const msgUnexpected = "Erro inesperado. Tente novamente mais tarde."

// respondServiceError maps a service error onto its HTTP status. The message is always the
// localized text carried by the error.
func respondServiceError(c *gin.Context, err error) {
	var (
		validation  *services.ValidationError
		capacity    *services.CapacityError
		persistence *services.PersistenceError
	)

	switch {
	case errors.As(err, &validation):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.As(err, &capacity):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, services.ErrLeadTime):
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
	case errors.Is(err, services.ErrReservationNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrUpdateConflict):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, services.ErrLockTimeout):
		utils.RespondError(c, http.StatusServiceUnavailable, err)
	case errors.As(err, &persistence):
		utils.RespondError(c, http.StatusInternalServerError, err)
	default:
		_ = c.Error(err)
		utils.ErrorLogger.Printf("unexpected error on %s: %v", c.FullPath(), err)
		utils.RespondMessage(c, http.StatusInternalServerError, msgUnexpected)
	}
}
