package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workend-notifier/internal/models"
)

// PostAttendance принимает отметки дня и возвращает результат расчета
func (h *Handler) PostAttendance(c *gin.Context) {
	var record models.AttendanceRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.tracker.ReportAttendance(c.Request.Context(), record)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type breakStartRequest struct {
	DurationMinutes int `json:"duration_minutes" binding:"required"`
	WarningMinutes  int `json:"warning_minutes"`
}

// PostBreakStart ставит напоминания о конце начатого перерыва
func (h *Handler) PostBreakStart(c *gin.Context) {
	var req breakStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.tracker.ReportBreakStart(c.Request.Context(), req.DurationMinutes, req.WarningMinutes)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PostBreakEnd отменяет напоминания о перерыве
func (h *Handler) PostBreakEnd(c *gin.Context) {
	result, err := h.tracker.ReportBreakEnd(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) PostBeforeWork(c *gin.Context) {
	result, err := h.tracker.ReportBeforeWork(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) PostOnBreak(c *gin.Context) {
	result, err := h.tracker.ReportOnBreak(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
