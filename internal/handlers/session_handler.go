package handlers

import (
	"net/http"

	"github.com/evalytics-ai/assessment-service/internal/models"
	"github.com/evalytics-ai/assessment-service/internal/services"
	"github.com/evalytics-ai/assessment-service/internal/session"
	"github.com/evalytics-ai/assessment-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	BaseHandler
	sessions services.SessionService
}

func NewSessionHandler(sessions services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(logger),
		sessions:    sessions,
	}
}

// Start handles POST /api/v1/sessions/start/:assessment_id
func (h *SessionHandler) Start(c *gin.Context) {
	assessmentID, err := parseUintParam(c, "assessment_id")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid assessment id", err)
		return
	}

	resp, err := h.sessions.Start(c.Request.Context(), h.CurrentUserID(c), assessmentID)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "session started", resp,
		"session_id", resp.SessionID, "resumed", resp.Resumed)
}

// State handles GET /api/v1/sessions/:session_id
func (h *SessionHandler) State(c *gin.Context) {
	state, err := h.sessions.GetState(c.Request.Context(), h.CurrentUserID(c), c.Param("session_id"))
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "session state", state)
}

// Visit handles POST /api/v1/sessions/:session_id/visit
func (h *SessionHandler) Visit(c *gin.Context) {
	var req services.VisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.sessions.Visit(c.Request.Context(), h.CurrentUserID(c), c.Param("session_id"), req.QuestionID); err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "question visited", nil)
}

// SaveAnswer handles POST /api/v1/sessions/:session_id/answers
func (h *SessionHandler) SaveAnswer(c *gin.Context) {
	var req services.SaveAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.sessions.SaveAnswer(c.Request.Context(), h.CurrentUserID(c), c.Param("session_id"), req); err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "answer saved", nil)
}

// Proctor handles POST /api/v1/sessions/:session_id/proctor
func (h *SessionHandler) Proctor(c *gin.Context) {
	var req struct {
		Detections []session.Detection `json:"detections"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	flag, err := h.sessions.IngestProctoring(c.Request.Context(), h.CurrentUserID(c), c.Param("session_id"), req.Detections)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "sample processed", gin.H{"flag": flag})
}

// RunCode handles POST /api/v1/sessions/:session_id/run-code
func (h *SessionHandler) RunCode(c *gin.Context) {
	var req services.RunCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	results, err := h.sessions.RunCode(c.Request.Context(), h.CurrentUserID(c), c.Param("session_id"), req)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "code executed", gin.H{"results": results})
}

// Submit handles POST /api/v1/sessions/:session_id/submit
func (h *SessionHandler) Submit(c *gin.Context) {
	var req services.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := h.sessions.Submit(c.Request.Context(), h.CurrentUserID(c), c.Param("session_id"), req, models.EndReasonManual)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "session submitted", result)
}

// Beacon handles POST /api/v1/sessions/:session_id/beacon: the page-unload
// auto submit. The sender is usually gone before the response, so failures
// are logged rather than reported.
func (h *SessionHandler) Beacon(c *gin.Context) {
	var req services.SubmitRequest
	// Unload beacons may carry no body at all.
	_ = c.ShouldBindJSON(&req)

	_, err := h.sessions.Submit(c.Request.Context(), h.CurrentUserID(c), c.Param("session_id"), req, models.EndReasonUnload)
	if err != nil {
		h.LogWarn(c, "beacon submit failed", "session_id", c.Param("session_id"), "error", err)
	}
	c.Status(http.StatusNoContent)
}
