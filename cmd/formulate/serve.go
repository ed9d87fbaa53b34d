package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/goliatone/go-formulate/internal/config"
	"github.com/goliatone/go-formulate/pkg/model"
	"github.com/goliatone/go-formulate/pkg/receiver"
)

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var shared common
	shared.register(fs)
	formsDir := fs.String("forms", "", "directory of form definitions (overrides config)")
	addr := fs.String("addr", "", "listen address (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := shared.load()
	if err != nil {
		return err
	}
	if *formsDir != "" {
		cfg.Forms.Dir = *formsDir
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	handler, closeStore, err := newReceiver(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{"addr": cfg.Server.Addr, "storage": cfg.Storage.Type}).Info("receiver listening")
		errChan <- httpServer.ListenAndServe()
	}()
	return waitForShutdown(httpServer, errChan, logger)
}

// newReceiver wires the forms catalog, texts and store behind the receiver
// router. The returned func releases the store.
func newReceiver(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (http.Handler, func(), error) {
	forms, err := model.LoadFS(os.DirFS(cfg.Forms.Dir))
	if err != nil {
		return nil, nil, err
	}
	texts, err := loadTexts(cfg)
	if err != nil {
		return nil, nil, err
	}
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	handler := receiver.NewHandler(receiver.Config{
		Forms:     receiver.Catalog(forms),
		Store:     store,
		Texts:     texts,
		Logger:    logger,
		MaxMemory: cfg.Server.MaxUploadBytes,
	})
	logger.WithField("forms", len(forms)).Debug("receiver catalog loaded")
	return receiver.NewRouter(handler), closeStore, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (receiver.Store, func(), error) {
	if cfg.Storage.Type != config.StorageMongo {
		return receiver.NewMemoryStore(), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.Storage.Mongo.URI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	store := receiver.NewMongoStore(client.Database(cfg.Storage.Mongo.Database), cfg.Storage.Mongo.Collection)
	if err := store.EnsureIndexes(connectCtx); err != nil {
		logger.WithError(err).Warn("could not ensure submission indexes")
	}

	closeFn := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(shutdownCtx); err != nil {
			logger.WithError(err).Warn("mongo disconnect failed")
		}
	}
	return store, closeFn, nil
}

func waitForShutdown(httpServer *http.Server, errChan <-chan error, logger logrus.FieldLogger) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	}
}
