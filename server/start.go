package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/neritic/functiond/config"
	"github.com/neritic/functiond/dao"
	"github.com/neritic/functiond/executor"
	"github.com/neritic/functiond/services/kafka"
)

var logger = config.RootLogger

// Start wires together dependencies and runs the server until it is
// signalled to stop.
func Start(conf config.AppConfiguration) error {

	app, err := NewAppServer(conf.ServerSettings)
	if err != nil {
		logger.Error("error constructing app server", zap.Error(err))
		return err
	}

	d, dbID, err := dao.NewDataAccessLayer(conf.DatabaseConnection, dao.WithLogger(logger))
	if err != nil {
		logger.Error("error configuring dao. check environment variable settings for FN_DB_*", zap.Error(err))
		return err
	}
	app.RootDAO = d
	logger.Info("database opened", zap.String("identifier", dbID))

	configureEventQueue(app, conf.EventQueue)

	runner := executor.NewExecCommandRunner(logger)
	client := executor.NewDockerCmdRunner(runner, conf.ExecutorSettings.DockerBinary)
	engine := executor.NewContainerExecutor(conf.ExecutorSettings, client, d, app.Tracker, logger)

	// image builds dominate this budget on a cold host
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancelStartup()
	if err := engine.Startup(startupCtx); err != nil {
		logger.Error("executor startup failed", zap.Error(err))
		return err
	}
	app.Engine = engine

	httpServer := &http.Server{
		Addr:              app.Addr,
		Handler:           app,
		IdleTimeout:       time.Duration(conf.ServerSettings.IdleTimeout) * time.Second,
		ReadTimeout:       time.Duration(conf.ServerSettings.ReadTimeout) * time.Second,
		ReadHeaderTimeout: time.Duration(conf.ServerSettings.ReadHeaderTimeout) * time.Second,
		WriteTimeout:      time.Duration(conf.ServerSettings.WriteTimeout) * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	exitChan := make(chan error)
	go func() {
		exitChan <- httpServer.ListenAndServe()
	}()
	logger.Info("starting server", zap.String("addr", app.Addr))

	TrapSignals(logger, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http server shutdown", zap.Error(err))
		}
		engine.Shutdown(shutdownCtx)
		app.Tracker.Stop()
		logger.Info("dying")
	})

	err = <-exitChan
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// configureEventQueue connects the Kafka publisher when brokers are
// configured, and falls back to the null publisher otherwise.
func configureEventQueue(app *AppServer, conf config.EventQueueConfiguration) {
	if len(conf.KafkaAddrs) == 0 {
		app.EventQueue = kafka.NewFakeAsyncProducer(logger)
		return
	}
	ap, err := kafka.NewAsyncProducer(conf.KafkaAddrs,
		kafka.WithLogger(logger),
		kafka.WithTopic(conf.Topic),
		kafka.WithPublishActions(conf.PublishSuccessActions, conf.PublishFailureActions))
	if err != nil {
		logger.Error("cannot connect to kafka, events will be discarded",
			zap.Strings("addrs", conf.KafkaAddrs), zap.Error(err))
		app.EventQueue = kafka.NewFakeAsyncProducer(logger)
		return
	}
	logger.Info("kafka event queue connected", zap.Strings("addrs", conf.KafkaAddrs), zap.String("topic", conf.Topic))
	app.EventQueue = ap
}
