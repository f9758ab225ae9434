package v1

import (
	"errors"
	"net/http"

	"github.com/formulab-api/recipe"
	"github.com/formulab-api/runengine"
	"github.com/formulab-api/services"
	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, recipe.ErrDraftNotFound),
		errors.Is(err, recipe.ErrPhaseNotFound),
		errors.Is(err, recipe.ErrStepNotFound),
		errors.Is(err, runengine.ErrRunNotFound),
		errors.Is(err, runengine.ErrNoActiveRun):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, runengine.ErrRunInProgress),
		errors.Is(err, runengine.ErrNotRunning):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidProject),
		errors.Is(err, recipe.ErrInvalidReorder),
		errors.Is(err, recipe.ErrInvalidColor),
		errors.Is(err, recipe.ErrInvalidStepType),
		errors.Is(err, recipe.ErrInvalidStepValue),
		errors.Is(err, recipe.ErrDuplicateStepID),
		errors.Is(err, runengine.ErrMalformedNumericInput),
		errors.Is(err, runengine.ErrNotTimerStep),
		errors.Is(err, runengine.ErrNotWeighingStep),
		errors.Is(err, runengine.ErrInvalidTimerAction):
		return http.StatusBadRequest
	case errors.Is(err, runengine.ErrInvalidStepState):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		message = "Internal server error"
	}
	c.JSON(status, gin.H{
		"status":  "error",
		"message": message,
	})
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"status":  "error",
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"status": "success",
		"data":   data,
	})
}
