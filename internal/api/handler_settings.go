package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workend-notifier/internal/config"
	"workend-notifier/internal/models"
)

type settingsResponse struct {
	Settings config.Settings            `json:"settings"`
	Resolved models.NotificationConfig `json:"resolved"`
}

func newSettingsResponse(s config.Settings) settingsResponse {
	return settingsResponse{Settings: s, Resolved: s.NotificationConfig()}
}

// GetSettings возвращает сохраненные настройки и вычисленные значения
func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, newSettingsResponse(h.settings.Get()))
}

// PutSettings заменяет настройки, пропущенные поля берутся по умолчанию
func (h *Handler) PutSettings(c *gin.Context) {
	next := config.DefaultSettings()
	if err := c.ShouldBindJSON(&next); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.settings.Save(next); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, newSettingsResponse(next))
}
