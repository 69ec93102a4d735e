package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/evalytics-ai/assessment-service/internal/repositories"
	"github.com/evalytics-ai/assessment-service/internal/services"
	"github.com/evalytics-ai/assessment-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type ResultHandler struct {
	BaseHandler
	results services.ResultService
	auth    services.AuthService
}

func NewResultHandler(results services.ResultService, auth services.AuthService, logger utils.Logger) *ResultHandler {
	return &ResultHandler{
		BaseHandler: NewBaseHandler(logger),
		results:     results,
		auth:        auth,
	}
}

// List handles GET /api/v1/results
func (h *ResultHandler) List(c *gin.Context) {
	var filters repositories.ResultFilters
	if v := c.Query("assessment_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			aid := uint(id)
			filters.AssessmentID = &aid
		}
	}
	filters.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	filters.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	results, total, err := h.results.GetUserResults(c.Request.Context(), h.CurrentUserID(c), filters)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "results", gin.H{
		"results": results,
		"total":   total,
	})
}

// Get handles GET /api/v1/results/:id
func (h *ResultHandler) Get(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid result id", err)
		return
	}

	result, err := h.results.GetResult(c.Request.Context(), h.CurrentUserID(c), id)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "result", result)
}

// Certifications handles GET /api/v1/results/certifications
func (h *ResultHandler) Certifications(c *gin.Context) {
	certs, err := h.results.GetCertifications(c.Request.Context(), h.CurrentUserID(c))
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "certifications", certs)
}

// Export handles GET /api/v1/results/export/:assessment_id (admin)
func (h *ResultHandler) Export(c *gin.Context) {
	assessmentID, err := parseUintParam(c, "assessment_id")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid assessment id", err)
		return
	}

	actor, err := h.auth.GetProfile(c.Request.Context(), h.CurrentUserID(c))
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	data, err := h.results.ExportAssessmentResults(c.Request.Context(), assessmentID, actor)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("assessment_%d_results.xlsx", assessmentID)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
