// controllers/event_reminders.go
package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"autoactas-backend/config"
	"autoactas-backend/services"
	"autoactas-backend/utils"
)

// ReminderSecretHeader carries the dispatcher's shared secret.
const ReminderSecretHeader = "x-event-reminder-secret"

// Reminders runs a dispatcher pass. It is satisfied by *services.ReminderService.
type Reminders interface {
	SendDueReminders(ctx context.Context) (*services.Summary, error)
}

type EventReminderController struct {
	cfg       *config.Config
	reminders Reminders
	log       logrus.FieldLogger
}

// NewEventReminderController builds the dispatcher handler. reminders may be
// nil when the store or the mailer could not be configured.
func NewEventReminderController(cfg *config.Config, reminders Reminders, log logrus.FieldLogger) *EventReminderController {
	return &EventReminderController{cfg: cfg, reminders: reminders, log: log}
}

// Dispatch handles POST /api/event-reminders.
func (ctl *EventReminderController) Dispatch(c *gin.Context) {
	if ctl.cfg.EventReminderSecret == "" {
		utils.RespondWithError(c, http.StatusInternalServerError, "Reminder secret is not configured.")
		return
	}
	incoming := strings.TrimSpace(c.GetHeader(ReminderSecretHeader))
	if !utils.SecretMatches(incoming, ctl.cfg.EventReminderSecret) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !ctl.cfg.HasStore() {
		utils.RespondWithError(c, http.StatusInternalServerError, "Missing database configuration.")
		return
	}
	if !ctl.cfg.HasMailer() {
		utils.RespondWithError(c, http.StatusInternalServerError, "Missing Resend configuration.")
		return
	}
	if ctl.reminders == nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Reminder service is not available.")
		return
	}

	// A started run finishes even if the caller goes away.
	ctx := context.WithoutCancel(c.Request.Context())
	summary, err := ctl.reminders.SendDueReminders(ctx)
	if err != nil {
		ctl.log.Errorf("Event reminder lookup error: %v", err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Unable to load upcoming events.")
		return
	}

	c.JSON(http.StatusOK, summary)
}
