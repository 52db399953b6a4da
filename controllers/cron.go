// controllers/cron.go
package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"autoactas-backend/config"
	"autoactas-backend/services"
	"autoactas-backend/utils"
)

const (
	eventRemindersPath  = "/api/event-reminders"
	responsePreviewSize = 500
)

// CronController is the scheduler trigger: it authenticates the external
// scheduler and forwards to the dispatcher with the dispatcher's own secret.
type CronController struct {
	cfg    *config.Config
	client *services.TriggerClient
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewCronController(cfg *config.Config, client *services.TriggerClient, log logrus.FieldLogger) *CronController {
	return &CronController{cfg: cfg, client: client, log: log, now: time.Now}
}

// Trigger handles GET|POST /api/cron.
func (ctl *CronController) Trigger(c *gin.Context) {
	if ctl.cfg.CronSecret == "" {
		utils.RespondWithError(c, http.StatusInternalServerError, "CRON_SECRET is not configured.")
		return
	}
	if !utils.BearerMatches(c.GetHeader("Authorization"), ctl.cfg.CronSecret) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if ctl.cfg.EventReminderSecret == "" {
		utils.RespondWithError(c, http.StatusInternalServerError, "EVENT_REMINDER_SECRET is not configured.")
		return
	}

	target := ctl.reminderURL(c)
	header := http.Header{}
	header.Set(ReminderSecretHeader, ctl.cfg.EventReminderSecret)
	header.Set("Content-Type", "application/json")

	triggeredAt := ctl.now()
	res, err := ctl.client.Invoke(c.Request.Context(), http.MethodPost, target, header)
	if err != nil {
		ctl.log.WithField("target", target).Errorf("Event reminder call failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"ok":      false,
			"message": "Event reminder execution failed.",
			"error":   err.Error(),
		})
		return
	}

	preview := services.Preview(res.Body, responsePreviewSize)
	entry := ctl.log.WithFields(logrus.Fields{
		"target":      target,
		"status":      res.Status,
		"duration_ms": res.Duration.Milliseconds(),
		"response":    preview,
	})

	if !res.OK() {
		entry.Error("Event reminder execution failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"ok":       false,
			"message":  "Event reminder execution failed.",
			"status":   res.Status,
			"response": preview,
		})
		return
	}
	entry.Info("Event reminder execution completed")

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"payload": parsePayload(res.Body),
		"debug": gin.H{
			"triggeredAt":             triggeredAt.UTC().Format(time.RFC3339Nano),
			"eventReminderStatus":     res.Status,
			"eventReminderDurationMs": res.Duration.Milliseconds(),
		},
	})
}

func (ctl *CronController) reminderURL(c *gin.Context) string {
	if ctl.cfg.EventReminderURL != "" {
		return ctl.cfg.EventReminderURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	} else if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host + eventRemindersPath
}

// parsePayload returns the body as JSON when it is JSON, as a string when it
// is not, and nil when it is empty.
func parsePayload(body []byte) any {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	return string(body)
}
