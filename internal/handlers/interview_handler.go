package handlers

import (
	"net/http"
	"strconv"

	"github.com/evalytics-ai/assessment-service/internal/services"
	"github.com/evalytics-ai/assessment-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type InterviewHandler struct {
	BaseHandler
	interviews services.InterviewService
}

func NewInterviewHandler(interviews services.InterviewService, logger utils.Logger) *InterviewHandler {
	return &InterviewHandler{
		BaseHandler: NewBaseHandler(logger),
		interviews:  interviews,
	}
}

// List handles GET /api/v1/interviews
func (h *InterviewHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	interviews, total, err := h.interviews.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "interviews", gin.H{
		"interviews": interviews,
		"total":      total,
	})
}

// Start handles POST /api/v1/interviews/start/:interview_id
func (h *InterviewHandler) Start(c *gin.Context) {
	interviewID, err := parseUintParam(c, "interview_id")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid interview id", err)
		return
	}

	resp, err := h.interviews.Start(c.Request.Context(), h.CurrentUserID(c), interviewID)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "interview started", resp)
}

// Submit handles POST /api/v1/interviews/sessions/:session_id/submit
func (h *InterviewHandler) Submit(c *gin.Context) {
	sessionID, err := parseUintParam(c, "session_id")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid session id", err)
		return
	}

	var req struct {
		Answers []services.InterviewAnswer `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := h.interviews.Submit(c.Request.Context(), h.CurrentUserID(c), sessionID, req.Answers)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "interview submitted", result)
}

// Results handles GET /api/v1/interviews/results
func (h *InterviewHandler) Results(c *gin.Context) {
	results, err := h.interviews.GetUserResults(c.Request.Context(), h.CurrentUserID(c))
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "interview results", results)
}
