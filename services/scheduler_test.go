package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCronScheduler_RunSendsBearerSecret(t *testing.T) {
	calls := 0
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	s := NewCronScheduler(NewTriggerClient(srv.Client()), "*/5 * * * *", srv.URL, "cron-secret", quietLogger())
	s.run()

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if auth != "Bearer cron-secret" {
		t.Errorf("Authorization = %q", auth)
	}
}

func TestCronScheduler_StartRejectsInvalidSpec(t *testing.T) {
	s := NewCronScheduler(NewTriggerClient(nil), "every now and then", "http://localhost", "x", quietLogger())
	if err := s.Start(); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestCronScheduler_StartStop(t *testing.T) {
	s := NewCronScheduler(NewTriggerClient(nil), "@every 1h", "http://localhost", "x", quietLogger())
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
}
