package handlers

import (
	"net/http"
	"strconv"

	"github.com/evalytics-ai/assessment-service/internal/models"
	"github.com/evalytics-ai/assessment-service/internal/repositories"
	"github.com/evalytics-ai/assessment-service/internal/services"
	"github.com/evalytics-ai/assessment-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type AssessmentHandler struct {
	BaseHandler
	assessments services.AssessmentService
	auth        services.AuthService
}

func NewAssessmentHandler(assessments services.AssessmentService, auth services.AuthService, logger utils.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		BaseHandler: NewBaseHandler(logger),
		assessments: assessments,
		auth:        auth,
	}
}

// List handles GET /api/v1/assessments?kind=&difficulty=&language=&limit=&offset=
func (h *AssessmentHandler) List(c *gin.Context) {
	var filters repositories.AssessmentFilters

	if kind := c.Query("kind"); kind != "" {
		k := models.AssessmentKind(kind)
		filters.Kind = &k
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		d := models.DifficultyLevel(difficulty)
		filters.Difficulty = &d
	}
	if language := c.Query("language"); language != "" {
		filters.Language = &language
	}
	filters.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	filters.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	filters.SortBy = c.Query("sort_by")
	filters.SortOrder = c.Query("sort_order")

	assessments, total, err := h.assessments.List(c.Request.Context(), filters)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "assessments", gin.H{
		"assessments": assessments,
		"total":       total,
	})
}

// Get handles GET /api/v1/assessments/:id
func (h *AssessmentHandler) Get(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid assessment id", err)
		return
	}

	assessment, err := h.assessments.Get(c.Request.Context(), id)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "assessment", assessment)
}

// Create handles POST /api/v1/assessments (admin)
func (h *AssessmentHandler) Create(c *gin.Context) {
	var assessment models.Assessment
	if err := c.ShouldBindJSON(&assessment); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	actor, err := h.auth.GetProfile(c.Request.Context(), h.CurrentUserID(c))
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	created, err := h.assessments.Create(c.Request.Context(), &assessment, actor)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "assessment created", created)
}

// Stats handles GET /api/v1/assessments/:id/stats (admin)
func (h *AssessmentHandler) Stats(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid assessment id", err)
		return
	}

	stats, err := h.assessments.GetStats(c.Request.Context(), id)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "assessment stats", stats)
}

func parseUintParam(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	return uint(v), err
}
