package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ReynaldiRP/test-backend-dmc/config"
	"github.com/ReynaldiRP/test-backend-dmc/controllers"
	"github.com/ReynaldiRP/test-backend-dmc/middlewares"
	"github.com/ReynaldiRP/test-backend-dmc/mqtt"
	"github.com/ReynaldiRP/test-backend-dmc/services"
)

func main() {
	formatter := new(logrus.TextFormatter)
	formatter.TimestampFormat = "2006-01-02 15:04:05"
	formatter.FullTimestamp = true
	logrus.SetFormatter(formatter)

	cfg := config.Load()

	// Connect to PostgreSQL and migrate the schema
	db, err := config.ConnectDatabase(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	// Connect the shared MQTT client. A broker outage at startup is not
	// fatal: the server still answers, health reports degraded, and the
	// client connects on the next publish.
	broker := mqtt.NewClient(mqtt.Options{
		BrokerURL: cfg.MQTTBrokerURL,
		ClientID:  cfg.MQTTClientID,
		Username:  cfg.MQTTUsername,
		Password:  cfg.MQTTPassword,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := broker.Connect(ctx); err != nil {
		logrus.Warnf("MQTT broker unreachable at startup: %v", err)
	}
	cancel()

	router := setupRouter(cfg, db, broker)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	go func() {
		logrus.Infof("Server is running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logrus.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server shutdown failed: %v", err)
	}
	broker.Disconnect()
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func setupRouter(cfg config.Config, db *gorm.DB, broker *mqtt.Client) *gin.Engine {
	sensorService := services.NewSensorService(db)
	commandService := services.NewCommandService(db, broker, cfg.TopicNamespace)
	healthService := services.NewHealthService(db, broker, cfg.HealthDBTimeout)

	hub := controllers.NewWSHub()
	sensorController := controllers.NewSensorController(sensorService, hub)
	deviceController := controllers.NewDeviceController(commandService)
	healthController := controllers.NewHealthController(healthService)
	mqttController := controllers.NewMQTTController(broker)

	r := gin.New()
	r.Use(middlewares.RequestLogger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/health/status", healthController.Status)

	sensors := r.Group("/sensors")
	sensors.POST("/sensor-data", sensorController.ReceiveData)
	sensors.GET("/sensor-data", sensorController.GetHistory)

	devices := r.Group("/devices")
	devices.POST("/device-control", deviceController.SendCommand)
	devices.GET("/device-control/history", deviceController.GetHistory)

	mqttGroup := r.Group("/mqtt")
	mqttGroup.POST("/publish", mqttController.Publish)
	mqttGroup.POST("/subscribe", mqttController.Subscribe)

	r.GET("/ws", hub.Handle)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
