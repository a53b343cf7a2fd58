package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rmejia/labtrack-api/internal/config"
	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestEmailService_SendSkippedWhenDisabled(t *testing.T) {
	logger.Setup("test")

	cfg := &config.Config{EnableEmailNotifications: false}
	service := NewEmailService(cfg)
	user := &models.User{ID: 1, Email: "student@uni.edu", FullName: "Test Student"}

	// No API key is configured, so a real send attempt would fail; a nil
	// return proves the disabled flag short-circuits before the client.
	err := service.SendAccountCreated(context.Background(), user)
	assert.NoError(t, err)
}

func TestEmailService_RenderTemplates(t *testing.T) {
	logger.Setup("test")

	service := NewEmailService(&config.Config{AppURL: "http://localhost:3000"})

	t.Run("reset code", func(t *testing.T) {
		body, err := service.renderTemplate("reset_code.html", struct {
			Name    string
			Code    string
			Minutes int
			AppURL  string
		}{Name: "Test Student", Code: "123456", Minutes: 15, AppURL: "http://localhost:3000"})

		assert.NoError(t, err)
		assert.Contains(t, body, "123456")
		assert.Contains(t, body, "Test Student")
	})

	t.Run("late return ban", func(t *testing.T) {
		until := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		body, err := service.renderTemplate("late_return_ban.html", struct {
			Name        string
			ItemName    string
			DaysLate    int
			BannedUntil string
			AppURL      string
		}{Name: "Test Student", ItemName: "Oscilloscope", DaysLate: 3, BannedUntil: until.Format("02 Jan 2006"), AppURL: ""})

		assert.NoError(t, err)
		assert.Contains(t, body, "Oscilloscope")
		assert.Contains(t, body, "01 Mar 2026")
	})

	t.Run("unknown template", func(t *testing.T) {
		_, err := service.renderTemplate("does_not_exist.html", nil)
		assert.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "does_not_exist.html"))
	})
}
