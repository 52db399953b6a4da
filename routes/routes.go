package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"autoactas-backend/config"
	"autoactas-backend/controllers"
	"autoactas-backend/services"
)

type Dependencies struct {
	Config    *config.Config
	Logger    logrus.FieldLogger
	Reminders controllers.Reminders
	Trigger   *services.TriggerClient
	Metrics   *services.Metrics
	// Gatherer backs GET /metrics; the route is omitted when nil.
	Gatherer prometheus.Gatherer
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	var durations *prometheus.HistogramVec
	if deps.Metrics != nil {
		durations = deps.Metrics.RequestDuration
	}
	r.Use(config.PerformanceLogger(deps.Logger, durations))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	trigger := deps.Trigger
	if trigger == nil {
		trigger = services.NewTriggerClient(nil)
	}
	cronController := controllers.NewCronController(deps.Config, trigger, deps.Logger)
	reminderController := controllers.NewEventReminderController(deps.Config, deps.Reminders, deps.Logger)

	api := r.Group("/api")
	{
		api.GET("/cron", cronController.Trigger)
		api.POST("/cron", cronController.Trigger)
		api.POST("/event-reminders", reminderController.Dispatch)
	}

	return r
}
