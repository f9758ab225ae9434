package v1

import (
	"net/http"

	"github.com/formulab-api/dto"
	"github.com/formulab-api/middleware"
	"github.com/formulab-api/runengine"
	"github.com/formulab-api/services"
	"github.com/gin-gonic/gin"
)

// RunController handles guided production runs
type RunController struct {
	runs   *services.RunService
	engine *runengine.Engine
}

// NewRunController creates a new run controller
func NewRunController(runs *services.RunService) *RunController {
	return &RunController{runs: runs, engine: runs.Engine()}
}

// RegisterRoutes registers run routes
func (rc *RunController) RegisterRoutes(router *gin.RouterGroup) {
	runs := router.Group("/runs")
	{
		runs.POST("", rc.StartRun)
		runs.GET("", rc.ListRuns)
		runs.GET("/active", rc.GetActiveRun)
		runs.GET("/:runId", rc.GetRun)
		runs.POST("/:runId/weight", rc.EnterWeight)
		runs.POST("/:runId/confirm", rc.Confirm)
		runs.POST("/:runId/timer/:action", rc.Timer)
		runs.POST("/:runId/next", rc.Next)
		runs.POST("/:runId/prev", rc.Prev)
		runs.DELETE("/:runId", rc.Cancel)
	}
}

// RegisterAdminRoutes registers supervision routes. Use behind AdminMiddleware.
func (rc *RunController) RegisterAdminRoutes(router *gin.RouterGroup) {
	router.GET("/runs/active", rc.ListActiveRuns)
}

// StartRun godoc
// @Summary Start a guided run of a project
// @Tags runs
// @Accept json
// @Produce json
// @Param run body dto.StartRunRequest true "Project to run"
// @Success 201 {object} runengine.View
// @Failure 409 {object} map[string]interface{} "Operator already has a run in progress"
// @Router /runs [post]
func (rc *RunController) StartRun(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	var req dto.StartRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	view, err := rc.runs.Start(c.Request.Context(), operator.ID, req.ProjectID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, view)
}

// ListRuns godoc
// @Summary Recent batches completed by this instance, newest first
// @Tags runs
// @Produce json
// @Success 200 {object} dto.RunListResponse
// @Router /runs [get]
func (rc *RunController) ListRuns(c *gin.Context) {
	respondOK(c, http.StatusOK, rc.runs.History())
}

// GetActiveRun godoc
// @Summary Get the caller's run in progress
// @Tags runs
// @Produce json
// @Success 200 {object} runengine.View
// @Router /runs/active [get]
func (rc *RunController) GetActiveRun(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	view, err := rc.engine.Active(c.Request.Context(), operator.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, view)
}

// GetRun godoc
// @Summary Get a run session
// @Tags runs
// @Produce json
// @Param runId path string true "Run session ID"
// @Success 200 {object} runengine.View
// @Router /runs/{runId} [get]
func (rc *RunController) GetRun(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	view, err := rc.engine.Get(c.Request.Context(), operator.ID, c.Param("runId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, view)
}

// EnterWeight godoc
// @Summary Enter the scale reading of the active weighing step
// @Tags runs
// @Accept json
// @Produce json
// @Param runId path string true "Run session ID"
// @Param weight body dto.WeightRequest true "Raw weight input"
// @Success 200 {object} runengine.View
// @Router /runs/{runId}/weight [post]
func (rc *RunController) EnterWeight(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	var req dto.WeightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	view, err := rc.engine.EnterWeight(c.Request.Context(), operator.ID, c.Param("runId"), req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, view)
}

// Confirm godoc
// @Summary Confirm a process step or acknowledge a timer step
// @Tags runs
// @Accept json
// @Produce json
// @Param runId path string true "Run session ID"
// @Param confirm body dto.ConfirmRequest true "Confirm flag"
// @Success 200 {object} runengine.View
// @Router /runs/{runId}/confirm [post]
func (rc *RunController) Confirm(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	var req dto.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	view, err := rc.engine.Confirm(c.Request.Context(), operator.ID, c.Param("runId"), *req.Confirmed)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, view)
}

// Timer godoc
// @Summary Start, pause or reset the countdown of the active timer step
// @Tags runs
// @Produce json
// @Param runId path string true "Run session ID"
// @Param action path string true "start, pause or reset"
// @Success 200 {object} runengine.View
// @Router /runs/{runId}/timer/{action} [post]
func (rc *RunController) Timer(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	action := runengine.TimerAction(c.Param("action"))
	view, err := rc.engine.Timer(c.Request.Context(), operator.ID, c.Param("runId"), action)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, view)
}

// Next godoc
// @Summary Advance past the active step, finalizing the run after the last one
// @Tags runs
// @Produce json
// @Param runId path string true "Run session ID"
// @Success 200 {object} runengine.View
// @Failure 422 {object} map[string]interface{} "Step is not valid yet"
// @Router /runs/{runId}/next [post]
func (rc *RunController) Next(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	view, err := rc.engine.Next(c.Request.Context(), operator.ID, c.Param("runId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, view)
}

// Prev godoc
// @Summary Go back one step. From the first step the run is discarded.
// @Tags runs
// @Produce json
// @Param runId path string true "Run session ID"
// @Success 200 {object} runengine.View
// @Router /runs/{runId}/prev [post]
func (rc *RunController) Prev(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	view, err := rc.engine.Prev(c.Request.Context(), operator.ID, c.Param("runId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, view)
}

// Cancel godoc
// @Summary Abandon a run without recording it
// @Tags runs
// @Param runId path string true "Run session ID"
// @Success 204
// @Router /runs/{runId} [delete]
func (rc *RunController) Cancel(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	if err := rc.engine.Cancel(c.Request.Context(), operator.ID, c.Param("runId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListActiveRuns godoc
// @Summary List every run in progress (admin)
// @Tags admin
// @Produce json
// @Success 200 {array} runengine.Session
// @Router /admin/runs/active [get]
func (rc *RunController) ListActiveRuns(c *gin.Context) {
	sessions, err := rc.engine.Running(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, sessions)
}
