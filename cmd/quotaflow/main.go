// Command quotaflow runs a demo API gateway guarded by the admission
// controller.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quotaflow/quotaflow/admission"
	"github.com/quotaflow/quotaflow/config"
	"github.com/quotaflow/quotaflow/logger"
	"github.com/quotaflow/quotaflow/middleware"
	"github.com/quotaflow/quotaflow/redis"
	"github.com/quotaflow/quotaflow/telemetry"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "quotaflow",
		Short: "Adaptive multi-window request admission controller",
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the guarded demo gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
	serve.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "configuration file")

	root.AddCommand(serve)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger.InitManager(cfg.Logger)
	log := logger.GetLogger("quotaflow")

	healthChecks := map[string]middleware.HealthCheck{}

	var redisClient *goredis.Client
	if cfg.Admission.Enabled && cfg.Admission.StoreType == string(admission.StoreTypeRedis) {
		client, err := redis.Connect(cfg.Redis, log)
		if err != nil {
			return err
		}
		defer client.Close()
		redisClient = client
		healthChecks["redis"] = redis.HealthCheck(client)
	}

	guard, err := admission.NewGuardWithLogger(cfg.Admission, logger.GetLogger("admission"), redisClient)
	if err != nil {
		return err
	}
	defer guard.Close()

	tm, err := telemetry.NewManager(context.Background(), cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tm.Shutdown(ctx)
	}()

	if tm.IsEnabled() {
		otelMetrics := admission.NewOTelMetrics(admission.OTelMetricsConfig{
			Enabled:        true,
			RecordSlowdown: true,
		})
		if err := otelMetrics.RegisterMetrics(tm.Meter("quotaflow/admission")); err != nil {
			return err
		}
		guard.SetOTelMetrics(otelMetrics)
	}

	guard.EventBus().Subscribe(admission.EventListenerFunc(func(event admission.Event) {
		if event.Type() == admission.EventBlocked {
			log.Debug("request blocked",
				zap.String("identity", event.Identity()),
				zap.String("endpoint", event.Endpoint()))
		}
	}))

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.Admission(guard))

	middleware.RegisterHealthRoutes(engine, healthChecks)
	registerDemoRoutes(engine)

	log.Info("gateway listening",
		zap.String("addr", cfg.App.Addr),
		zap.Bool("admission_enabled", guard.IsEnabled()))

	return engine.Run(cfg.App.Addr)
}

// registerDemoRoutes wires stub endpoints standing in for the
// messaging/file API behind the controller.
func registerDemoRoutes(engine *gin.Engine) {
	api := engine.Group("/api")

	api.GET("/conversations", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"conversations": []string{}})
	})
	api.GET("/conversations/:id/messages", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"messages": []string{}})
	})
	api.POST("/messages", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"status": "sent"})
	})
	api.POST("/upload", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"status": "stored"})
	})
	api.GET("/search", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"results": []string{}})
	})
}
