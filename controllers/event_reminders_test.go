package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"autoactas-backend/config"
	"autoactas-backend/services"
)

func dispatch(cfg *config.Config, reminders Reminders, secret string) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/api/event-reminders", NewEventReminderController(cfg, reminders, quietLogger()).Dispatch)

	req := httptest.NewRequest(http.MethodPost, "/api/event-reminders", nil)
	if secret != "" {
		req.Header.Set(ReminderSecretHeader, secret)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDispatch_Success(t *testing.T) {
	fake := &fakeReminders{summary: sampleSummary()}
	w := dispatch(fullConfig(), fake, " reminder-secret ")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var body struct {
		Window struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"window"`
		EventsChecked       int `json:"eventsChecked"`
		RemindersSent       int `json:"remindersSent"`
		SkippedNoRecipients int `json:"skippedNoRecipients"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Window.Start != "2026-10-16T14:28:00.000Z" || body.Window.End != "2026-10-16T14:32:00.000Z" {
		t.Errorf("window = %+v", body.Window)
	}
	if body.EventsChecked != 3 || body.RemindersSent != 2 || body.SkippedNoRecipients != 1 {
		t.Errorf("body = %+v", body)
	}
}

func TestDispatch_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		secret string
		nilSvc bool
		want   int
	}{
		{"secret not configured", func(c *config.Config) { c.EventReminderSecret = "" }, "reminder-secret", false, http.StatusInternalServerError},
		{"missing header", nil, "", false, http.StatusUnauthorized},
		{"wrong secret", nil, "nope", false, http.StatusUnauthorized},
		{"cron secret is not the reminder secret", nil, "cron-secret", false, http.StatusUnauthorized},
		{"missing store", func(c *config.Config) { c.DatabaseURL = "" }, "reminder-secret", false, http.StatusInternalServerError},
		{"missing resend key", func(c *config.Config) { c.ResendAPIKey = "" }, "reminder-secret", false, http.StatusInternalServerError},
		{"missing resend sender", func(c *config.Config) { c.ResendDefaultFrom = "" }, "reminder-secret", false, http.StatusInternalServerError},
		{"service unavailable", nil, "reminder-secret", true, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fullConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			fake := &fakeReminders{summary: sampleSummary()}
			var reminders Reminders = fake
			if tt.nilSvc {
				reminders = nil
			}

			w := dispatch(cfg, reminders, tt.secret)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body)
			}
			if fake.calls.Load() != 0 {
				t.Errorf("dispatcher ran %d times, want 0", fake.calls.Load())
			}
		})
	}
}

func TestDispatch_EventQueryError(t *testing.T) {
	fake := &fakeReminders{err: errors.Join(services.ErrEventQuery, errors.New("connection refused"))}
	w := dispatch(fullConfig(), fake, "reminder-secret")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"eventsChecked", "remindersSent", "skippedNoRecipients", "window"} {
		if _, ok := body[key]; ok {
			t.Errorf("error response must not carry %q: %v", key, body)
		}
	}
	if body["message"] != "Unable to load upcoming events." {
		t.Errorf("message = %v", body["message"])
	}
}
