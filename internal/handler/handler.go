// Package handler exposes the attendance service over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tutorattend/internal/attendance"
	"tutorattend/internal/errs"
	"tutorattend/internal/httpmiddleware"
)

// Handler serves the REST endpoints.
type Handler struct {
	svc *attendance.Service
}

// New creates a Handler.
func New(svc *attendance.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) listStudents(c *gin.Context) {
	students, err := h.svc.ListStudents(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *Handler) getStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	st, err := h.svc.GetStudent(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) createStudent(c *gin.Context) {
	var req attendance.NewStudent
	if !bindJSON(c, &req) {
		return
	}
	st, err := h.svc.CreateStudent(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *Handler) updateStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch attendance.StudentPatch
	if !bindJSON(c, &patch) {
		return
	}
	st, err := h.svc.UpdateStudent(c.Request.Context(), id, patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := h.svc.ListSessions(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *Handler) createSession(c *gin.Context) {
	var req attendance.NewSession
	if !bindJSON(c, &req) {
		return
	}
	s, err := h.svc.CreateSession(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *Handler) listAttendance(c *gin.Context) {
	raw := c.Query("sessionId")
	if raw == "" {
		fail(c, errs.Validation("sessionId query parameter is required",
			errs.FieldError{Field: "sessionId", Error: "is required"}))
		return
	}
	sessionID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || sessionID <= 0 {
		fail(c, errs.Validation("invalid sessionId",
			errs.FieldError{Field: "sessionId", Error: "must be a positive integer"}))
		return
	}
	entries, err := h.svc.ListAttendance(c.Request.Context(), sessionID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) markAttendance(c *gin.Context) {
	var req attendance.Mark
	if !bindJSON(c, &req) {
		return
	}
	rec, err := h.svc.MarkAttendance(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) summary(c *gin.Context) {
	rows, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// fail writes err as an errs.HTTPError body. Server errors are logged with
// their cause; the client only sees a generic message.
func fail(c *gin.Context, err error) {
	resp := errs.ToHTTP(err)
	log := httpmiddleware.GetLogger(c)
	if resp.Status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	} else {
		log.Warn().Err(err).Str("code", resp.Code).Msg("request rejected")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(resp.Status, resp)
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, errs.Validation("invalid JSON body: "+err.Error()))
		return false
	}
	return true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, errs.Validation("invalid id", errs.FieldError{Field: "id", Error: "must be a positive integer"}))
		return 0, false
	}
	return id, true
}
