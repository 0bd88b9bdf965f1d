package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v9"

	"devwish/internal/achievement"
	"devwish/internal/client"
	"devwish/internal/configuration"
	"devwish/internal/database"
	"devwish/internal/logger"
	"devwish/internal/monitor"
	"devwish/internal/notify"
	"devwish/internal/platform"
	"devwish/internal/server"
)

const logFileName = "devwish.log"

func main() {
	os.Exit(runApp())
}

func runApp() (exitCode int) {
	config, err := configuration.GetConfig("config.toml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading configuration: %+v\n", err)
		return 1
	}

	var logOut io.Writer = os.Stderr
	if config.LogToFile {
		logFile, err := os.OpenFile(logFileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %+v\n", err)
			return 1
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stderr, logFile)
	}
	log := logger.NewLogger(config.LogLevel, logOut)

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("panic: %+v", r)
			exitCode = 1
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	mongoClient, err := database.ConnectDB(connectCtx, config.DatabaseURI)
	if err != nil {
		log.Errorf("Error connecting to database: %+v", err)
		return 1
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Errorf("Error disconnecting from database: %+v", err)
		}
	}()
	db := database.Database{Database: mongoClient.Database(database.Name)}
	log.Info("Connected to database")

	redisClient := redis.NewClient(&redis.Options{Addr: config.RedisAddress})
	defer redisClient.Close()

	c := client.Client{
		Client:      &http.Client{Timeout: 15 * time.Second},
		LLMClient:   &http.Client{Timeout: 180 * time.Second},
		Redis:       redisClient,
		GitHubToken: config.GitHubToken,
		LLMAPIKey:   config.LLMAPIKey,
		LLMBaseURL:  config.LLMBaseURL,
		LLMModel:    config.LLMModel,
		Logger:      log,
	}

	platforms := platform.DefaultRegistry(&c, log)
	dispatcher := notify.Dispatcher{
		Users: db,
		Mailer: &notify.SMTPMailer{
			Host:     config.SMTP.Host,
			Port:     config.SMTP.Port,
			Username: config.SMTP.Username,
			Password: config.SMTP.Password,
			Sender:   config.SMTP.Sender,
		},
		Logger: log,
	}

	m := monitor.Monitor{
		Store:     db,
		Platforms: platforms,
		Notifier:  dispatcher,
		Logger:    log,
		Interval:  config.MonitorInterval,
	}
	go m.Run(ctx)

	s := server.Server{
		DB:            db,
		Client:        c,
		Platforms:     platforms,
		Dispatcher:    dispatcher,
		Checker:       achievement.Checker{Metrics: c, Logger: log},
		Logger:        log,
		AuthSecretKey: config.AuthSecretKey,
	}
	httpServer := &http.Server{
		Addr:              config.ServerAddress,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      200 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server listening on %s", config.ServerAddress)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		log.Errorf("Server error: %+v", err)
		return 1
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Error shutting down server: %+v", err)
		return 1
	}
	return 0
}
