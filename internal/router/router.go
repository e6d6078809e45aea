package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sitewarden-dev/sitewarden/internal/config"
	"github.com/sitewarden-dev/sitewarden/internal/handlers"
	"github.com/sitewarden-dev/sitewarden/internal/middleware"
)

// New mounts the API: a health probe, the agent surface (poll/report,
// guarded by the agent token) and the admin surface (commands, checks,
// alerts, guarded by the admin token).
func New(cfg *config.Config) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		agent := api.Group("/agent", middleware.TokenAuth(cfg.Server.AgentToken))
		{
			agent.GET("/commands/:tenant_id/poll", handlers.PollCommands)
			agent.POST("/commands/:command_id/result", handlers.ReportCommandResult)
		}

		admin := api.Group("/admin", middleware.TokenAuth(cfg.Server.AdminToken))
		{
			admin.POST("/commands", handlers.EnqueueCommand)
			admin.POST("/commands/bulk", handlers.EnqueueCommandsBulk)
			admin.GET("/commands/pending", handlers.PendingCommands)
			admin.POST("/commands/retry", handlers.RetryFailedCommands)
			admin.POST("/commands/cleanup", handlers.CleanupCommands)
			admin.GET("/commands/stats", handlers.CommandStats)

			admin.POST("/checks", handlers.CreateCheck)
			admin.GET("/checks", handlers.ListChecks)
			admin.PUT("/checks/:check_id", handlers.UpdateCheck)
			admin.DELETE("/checks/:check_id", handlers.DeleteCheck)
			admin.GET("/checks/:check_id/results", handlers.GetCheckResults)
			admin.POST("/checks/:check_id/run", handlers.RunCheck)
			admin.POST("/tenants/:tenant_id/checks/run", handlers.RunTenantChecks)

			admin.GET("/alerts", handlers.ListAlerts)
			admin.GET("/alerts/inbox", handlers.AlertInbox)
			admin.POST("/alerts/:alert_id/acknowledge", handlers.AcknowledgeAlert)
			admin.POST("/alerts/:alert_id/resolve", handlers.ResolveAlert)
		}
	}

	return r
}
