package v1

import (
	"net/http"

	"github.com/formulab-api/dto"
	"github.com/formulab-api/middleware"
	"github.com/formulab-api/recipe"
	"github.com/formulab-api/services"
	"github.com/gin-gonic/gin"
)

// FormulationController handles the formulation draft endpoints. Drafts are
// per operator and per project.
type FormulationController struct {
	formulation *services.FormulationService
}

// NewFormulationController creates a new formulation controller
func NewFormulationController(formulation *services.FormulationService) *FormulationController {
	return &FormulationController{formulation: formulation}
}

// RegisterRoutes registers formulation routes
func (fc *FormulationController) RegisterRoutes(router *gin.RouterGroup) {
	draft := router.Group("/projects/:id/draft")
	{
		draft.POST("", fc.OpenDraft)
		draft.GET("", fc.GetDraft)
		draft.DELETE("", fc.DiscardDraft)
		draft.POST("/save", fc.SaveDraft)

		draft.POST("/phases", fc.AddPhase)
		draft.PATCH("/phases/:phaseId", fc.PatchPhase)
		draft.DELETE("/phases/:phaseId", fc.DeletePhase)
		draft.PUT("/phases/:phaseId/order", fc.ReorderSteps)

		draft.POST("/phases/:phaseId/steps", fc.AddStep)
		draft.PATCH("/phases/:phaseId/steps/:stepId", fc.UpdateStep)
		draft.DELETE("/phases/:phaseId/steps/:stepId", fc.DeleteStep)
	}
}

// OpenDraft godoc
// @Summary Open a formulation draft, or return the one already open
// @Tags formulation
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} dto.DraftResponse
// @Router /projects/{id}/draft [post]
func (fc *FormulationController) OpenDraft(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	draft, err := fc.formulation.OpenDraft(c.Request.Context(), operator.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, draft)
}

// GetDraft godoc
// @Summary Get the open formulation draft
// @Tags formulation
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} dto.DraftResponse
// @Router /projects/{id}/draft [get]
func (fc *FormulationController) GetDraft(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	draft, err := fc.formulation.GetDraft(operator.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, draft)
}

// DiscardDraft godoc
// @Summary Discard the open draft without saving
// @Tags formulation
// @Param id path string true "Project ID"
// @Success 204
// @Router /projects/{id}/draft [delete]
func (fc *FormulationController) DiscardDraft(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	if err := fc.formulation.DiscardDraft(operator.ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SaveDraft godoc
// @Summary Replace the project's phases with the draft
// @Tags formulation
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} dto.DraftResponse
// @Router /projects/{id}/draft/save [post]
func (fc *FormulationController) SaveDraft(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	draft, err := fc.formulation.SaveDraft(c.Request.Context(), operator.ID, c.Param("id"), operator.IsAdmin())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, draft)
}

// AddPhase godoc
// @Summary Append an empty phase
// @Tags formulation
// @Produce json
// @Param id path string true "Project ID"
// @Success 201 {object} models.RecipePhase
// @Router /projects/{id}/draft/phases [post]
func (fc *FormulationController) AddPhase(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	phase, err := fc.formulation.AddPhase(operator.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, phase)
}

// PatchPhase godoc
// @Summary Rename and/or recolor a phase
// @Tags formulation
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param phaseId path string true "Phase ID"
// @Param phase body dto.PhasePatchRequest true "Phase changes"
// @Success 200 {object} dto.DraftResponse
// @Router /projects/{id}/draft/phases/{phaseId} [patch]
func (fc *FormulationController) PatchPhase(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	var req dto.PhasePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	draft, err := fc.formulation.PatchPhase(operator.ID, c.Param("id"), c.Param("phaseId"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, draft)
}

// DeletePhase godoc
// @Summary Delete a phase and its steps
// @Tags formulation
// @Param id path string true "Project ID"
// @Param phaseId path string true "Phase ID"
// @Success 204
// @Router /projects/{id}/draft/phases/{phaseId} [delete]
func (fc *FormulationController) DeletePhase(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	if err := fc.formulation.DeletePhase(operator.ID, c.Param("id"), c.Param("phaseId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReorderSteps godoc
// @Summary Set the step order of a phase
// @Description stepIds must contain every step of the phase exactly once
// @Tags formulation
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param phaseId path string true "Phase ID"
// @Param order body dto.ReorderStepsRequest true "New order"
// @Success 200 {object} dto.DraftResponse
// @Router /projects/{id}/draft/phases/{phaseId}/order [put]
func (fc *FormulationController) ReorderSteps(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	var req dto.ReorderStepsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	draft, err := fc.formulation.ReorderSteps(operator.ID, c.Param("id"), c.Param("phaseId"), req.StepIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, draft)
}

// AddStep godoc
// @Summary Append a step with the defaults of its type
// @Tags formulation
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param phaseId path string true "Phase ID"
// @Param step body dto.AddStepRequest true "Step type"
// @Success 201 {object} models.RecipeStep
// @Router /projects/{id}/draft/phases/{phaseId}/steps [post]
func (fc *FormulationController) AddStep(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	var req dto.AddStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	step, err := fc.formulation.AddStep(operator.ID, c.Param("id"), c.Param("phaseId"), req.Type)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, step)
}

// UpdateStep godoc
// @Summary Update fields of a step
// @Tags formulation
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param phaseId path string true "Phase ID"
// @Param stepId path string true "Step ID"
// @Param step body recipe.StepPatch true "Changed fields"
// @Success 200 {object} models.RecipeStep
// @Router /projects/{id}/draft/phases/{phaseId}/steps/{stepId} [patch]
func (fc *FormulationController) UpdateStep(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	var patch recipe.StepPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, err)
		return
	}

	step, err := fc.formulation.UpdateStep(operator.ID, c.Param("id"), c.Param("phaseId"), c.Param("stepId"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, step)
}

// DeleteStep godoc
// @Summary Delete a step
// @Tags formulation
// @Param id path string true "Project ID"
// @Param phaseId path string true "Phase ID"
// @Param stepId path string true "Step ID"
// @Success 204
// @Router /projects/{id}/draft/phases/{phaseId}/steps/{stepId} [delete]
func (fc *FormulationController) DeleteStep(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	if err := fc.formulation.DeleteStep(operator.ID, c.Param("id"), c.Param("phaseId"), c.Param("stepId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
