package services

import (
	"context"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"autoactas-backend/utils"
)

const schedulerRunTimeout = 2 * time.Minute

// CronScheduler stands in for the external scheduler on single-host
// deployments: it calls the trigger endpoint on a cron spec.
type CronScheduler struct {
	engine    *cron.Cron
	client    *TriggerClient
	spec      string
	targetURL string
	secret    string
	log       logrus.FieldLogger
}

func NewCronScheduler(client *TriggerClient, spec, targetURL, secret string, log logrus.FieldLogger) *CronScheduler {
	return &CronScheduler{
		engine:    cron.New(),
		client:    client,
		spec:      spec,
		targetURL: targetURL,
		secret:    secret,
		log:       log,
	}
}

func (s *CronScheduler) Start() error {
	if _, err := s.engine.AddFunc(s.spec, s.run); err != nil {
		return err
	}
	s.engine.Start()
	s.log.WithFields(logrus.Fields{"spec": s.spec, "target": s.targetURL}).Info("Reminder scheduler started")
	return nil
}

// Stop waits for a running job to finish.
func (s *CronScheduler) Stop() {
	<-s.engine.Stop().Done()
	s.log.Info("Reminder scheduler stopped")
}

func (s *CronScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), schedulerRunTimeout)
	defer cancel()

	header := http.Header{}
	header.Set("Authorization", utils.BearerHeader(s.secret))

	res, err := s.client.Invoke(ctx, http.MethodGet, s.targetURL, header)
	if err != nil {
		s.log.Errorf("Scheduled reminder trigger failed: %v", err)
		return
	}
	entry := s.log.WithFields(logrus.Fields{"status": res.Status, "duration_ms": res.Duration.Milliseconds()})
	if !res.OK() {
		entry.WithField("response", Preview(res.Body, 500)).Error("Scheduled reminder trigger returned an error")
		return
	}
	entry.Info("Scheduled reminder trigger completed")
}
