package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"autoactas-backend/config"
	"autoactas-backend/controllers"
	"autoactas-backend/routes"
	"autoactas-backend/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:          "autoactas",
		Short:        "AutoActas event reminder service",
		Long:         `Sends email reminders to the apoderados of a proceso 30 minutes before each scheduled evento.`,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(remindCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (cron trigger and reminder dispatcher)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("could not load configuration: %w", err)
			}
			log := config.InitLogger(cfg)
			if cfg.Environment == "production" {
				gin.SetMode(gin.ReleaseMode)
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics := services.NewMetrics(reg)

			svc, err := buildReminderService(cfg, log, metrics)
			if err != nil {
				return err
			}
			// A nil *ReminderService must stay a nil interface for the handler's check.
			var reminders controllers.Reminders
			if svc != nil {
				reminders = svc
			}

			trigger := services.NewTriggerClient(nil)
			r := routes.SetupRouter(routes.Dependencies{
				Config:    cfg,
				Logger:    log,
				Reminders: reminders,
				Trigger:   trigger,
				Metrics:   metrics,
				Gatherer:  reg,
			})
			printRoutes(r, log)

			var scheduler *services.CronScheduler
			if cfg.CronSpec != "" {
				scheduler = services.NewCronScheduler(trigger, cfg.CronSpec, cfg.CronTargetURL, cfg.CronSecret, log)
				if err := scheduler.Start(); err != nil {
					return fmt.Errorf("invalid CRON_SPEC %q: %w", cfg.CronSpec, err)
				}
			}

			srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
			errCh := make(chan error, 1)
			go func() {
				log.Infof("Listening on :%s", cfg.Port)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-quit:
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
			}

			log.Info("Shutting down...")
			if scheduler != nil {
				scheduler.Stop()
			}
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("http server shutdown: %w", err)
			}
			log.Info("Shut down gracefully")
			return nil
		},
	}
}

func remindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Run the reminder dispatcher once and print its summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("could not load configuration: %w", err)
			}
			log := config.InitLogger(cfg)

			svc, err := buildReminderService(cfg, log, nil)
			if err != nil {
				return err
			}
			if svc == nil {
				return errors.New("reminders need DATABASE_URL, RESEND_API_KEY and RESEND_DEFAULT_FROM")
			}

			summary, err := svc.SendDueReminders(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
}

// buildReminderService returns nil without error when the store or the mailer
// is not configured; the dispatcher endpoint reports that per request.
func buildReminderService(cfg *config.Config, log *logrus.Logger, metrics *services.Metrics) (*services.ReminderService, error) {
	if !cfg.HasStore() {
		log.Warn("DATABASE_URL is not set; event reminders are disabled")
		return nil, nil
	}
	if !cfg.HasMailer() {
		log.Warn("RESEND_API_KEY or RESEND_DEFAULT_FROM is not set; event reminders are disabled")
		return nil, nil
	}

	db, err := config.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	store := services.NewGormStore(db)
	if cfg.AuditLog {
		if err := store.Migrate(); err != nil {
			return nil, fmt.Errorf("migrate reminder_logs: %w", err)
		}
	}

	opts := services.ReminderOptions{
		Metrics:         metrics,
		Logger:          log,
		Location:        cfg.Location,
		ClaimBeforeSend: cfg.ClaimBeforeSend,
		AuditLog:        cfg.AuditLog,
	}
	if cfg.HasSMS() {
		opts.SMS = services.NewTwilioSMS(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, cfg.TwilioWhatsAppNumber)
		log.Info("SMS reminder copies enabled")
	}

	mailer := services.NewResendMailer(cfg.ResendAPIKey, cfg.ResendDefaultFrom)
	return services.NewReminderService(store, mailer, opts), nil
}

func printRoutes(r *gin.Engine, log logrus.FieldLogger) {
	for _, route := range r.Routes() {
		log.Debugf("%-6s %s", route.Method, route.Path)
	}
}
