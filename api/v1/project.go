package v1

import (
	"net/http"

	"github.com/formulab-api/config"
	"github.com/formulab-api/dto"
	"github.com/formulab-api/middleware"
	"github.com/formulab-api/recipe"
	"github.com/formulab-api/services"
	"github.com/formulab-api/utils"
	"github.com/gin-gonic/gin"
)

// ProjectController handles project endpoints
type ProjectController struct {
	projects *services.ProjectService
	runs     *services.RunService
	units    config.Units
}

// NewProjectController creates a new project controller
func NewProjectController(projects *services.ProjectService, runs *services.RunService, units config.Units) *ProjectController {
	return &ProjectController{
		projects: projects,
		runs:     runs,
		units:    units,
	}
}

// RegisterRoutes registers project routes
func (pc *ProjectController) RegisterRoutes(router *gin.RouterGroup) {
	projects := router.Group("/projects")
	{
		projects.GET("", pc.ListProjects)
		projects.POST("", pc.CreateProject)
		projects.GET("/:id", pc.GetProject)
		projects.PUT("/:id", pc.UpdateProject)
		projects.DELETE("/:id", pc.DeleteProject)
		projects.GET("/:id/phases", pc.GetPhases)
		projects.GET("/:id/composition", pc.GetComposition)
		projects.GET("/:id/runs", pc.ListProjectRuns)
	}
}

// ListProjects godoc
// @Summary List projects with pagination and filtering
// @Tags projects
// @Produce json
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Param status query string false "Project status"
// @Param search query string false "Search term for name, description or lead"
// @Param sortBy query string false "Field to sort by (created_at, updated_at, name, status, progress)"
// @Param sortOrder query string false "Sort order (asc or desc)"
// @Success 200 {object} dto.ProjectListResponse
// @Router /projects [get]
func (pc *ProjectController) ListProjects(c *gin.Context) {
	filter := dto.ProjectFilter{
		Status:    c.Query("status"),
		Search:    c.Query("search"),
		SortBy:    c.DefaultQuery("sortBy", "updated_at"),
		SortOrder: c.DefaultQuery("sortOrder", "desc"),
		Page:      utils.QueryInt(c, "page", 1),
		PageSize:  utils.QueryInt(c, "pageSize", 10),
	}

	response, err := pc.projects.ListProjects(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, response)
}

// GetProject godoc
// @Summary Get a project by ID
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} models.Project
// @Router /projects/{id} [get]
func (pc *ProjectController) GetProject(c *gin.Context) {
	project, err := pc.projects.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, project)
}

// CreateProject godoc
// @Summary Create a new project
// @Tags projects
// @Accept json
// @Produce json
// @Param project body dto.ProjectRequest true "Project Data"
// @Success 201 {object} models.Project
// @Router /projects [post]
func (pc *ProjectController) CreateProject(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	var req dto.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	project, err := pc.projects.CreateProject(c.Request.Context(), req, operator.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, project)
}

// UpdateProject godoc
// @Summary Update project metadata and ingredients
// @Description Phases are not changed here, use the formulation draft
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param project body dto.ProjectRequest true "Project Data"
// @Success 200 {object} models.Project
// @Router /projects/{id} [put]
func (pc *ProjectController) UpdateProject(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	var req dto.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	project, err := pc.projects.UpdateProject(c.Request.Context(), c.Param("id"), req, operator.ID, operator.IsAdmin())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, project)
}

// DeleteProject godoc
// @Summary Delete a project
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} map[string]interface{}
// @Router /projects/{id} [delete]
func (pc *ProjectController) DeleteProject(c *gin.Context) {
	operator, _ := middleware.CurrentOperator(c)

	if err := pc.projects.DeleteProject(c.Request.Context(), c.Param("id"), operator.ID, operator.IsAdmin()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Project deleted successfully",
	})
}

// GetPhases godoc
// @Summary Get the executable phases of a project
// @Description Projects without authored phases get one phase with a weighing step per ingredient
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {array} models.RecipePhase
// @Router /projects/{id}/phases [get]
func (pc *ProjectController) GetPhases(c *gin.Context) {
	phases, err := pc.projects.NormalizedPhases(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, phases)
}

// GetComposition godoc
// @Summary Get ingredient percentages, batch cost and changes against the previous version
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} dto.CompositionResponse
// @Router /projects/{id}/composition [get]
func (pc *ProjectController) GetComposition(c *gin.Context) {
	project, err := pc.projects.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	composition := recipe.Compose(&project)

	response := dto.CompositionResponse{
		Composition:        composition,
		TotalWeightDisplay: utils.FormatMassKg(composition.TotalWeight/1000, pc.units),
	}
	if project.ProcessingTemp != nil {
		response.ProcessingTemp = utils.FormatTemp(*project.ProcessingTemp, pc.units)
	}
	respondOK(c, http.StatusOK, response)
}

// ListProjectRuns godoc
// @Summary List the recorded runs of a project, newest first
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Param limit query int false "Maximum number of runs"
// @Success 200 {object} dto.RunListResponse
// @Router /projects/{id}/runs [get]
func (pc *ProjectController) ListProjectRuns(c *gin.Context) {
	runs, err := pc.runs.ProjectRuns(c.Request.Context(), c.Param("id"), utils.QueryInt(c, "limit", 20))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, runs)
}
