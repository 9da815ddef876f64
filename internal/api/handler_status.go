package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type alarmView struct {
	Name          string    `json:"name"`
	FireAt        time.Time `json:"fireAt"`
	PeriodMinutes int       `json:"periodMinutes,omitempty"`
}

// GetStatus - рабочий день, последний результат и состояние каналов
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.tracker.CurrentStatus(c.Request.Context()))
}

// GetAlarms - живые таймеры в порядке срабатывания
func (h *Handler) GetAlarms(c *gin.Context) {
	timers := h.alarms.Alarms()
	views := make([]alarmView, 0, len(timers))
	for _, t := range timers {
		views = append(views, alarmView{
			Name:          t.Name,
			FireAt:        t.FireAt,
			PeriodMinutes: int(t.Period / time.Minute),
		})
	}
	c.JSON(http.StatusOK, gin.H{"alarms": views})
}
