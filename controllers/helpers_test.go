package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"autoactas-backend/config"
	"autoactas-backend/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func fullConfig() *config.Config {
	return &config.Config{
		CronSecret:          "cron-secret",
		EventReminderSecret: "reminder-secret",
		DatabaseURL:         "postgres://localhost/autoactas",
		ResendAPIKey:        "re_test",
		ResendDefaultFrom:   "AutoActas <noreply@autoactas.co>",
	}
}

type fakeReminders struct {
	calls   atomic.Int32
	summary *services.Summary
	err     error
}

func (f *fakeReminders) SendDueReminders(ctx context.Context) (*services.Summary, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

func sampleSummary() *services.Summary {
	now := time.Date(2026, 10, 16, 14, 0, 0, 0, time.UTC)
	return &services.Summary{
		Window:              services.WindowAt(now),
		EventsChecked:       3,
		RemindersSent:       2,
		SkippedNoRecipients: 1,
	}
}

// countingServer records how many times it was called and answers with status/body.
func countingServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32, *atomic.Value) {
	t.Helper()
	var calls atomic.Int32
	var secret atomic.Value
	secret.Store("")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		secret.Store(r.Header.Get(ReminderSecretHeader))
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls, &secret
}
