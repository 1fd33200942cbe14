package main

import (
	"context"
	"fmt"
	"github.com/jonboulle/clockwork"
	"github.com/prhdev222/med-file-case/internal/backup"
	"github.com/prhdev222/med-file-case/internal/config"
	"github.com/prhdev222/med-file-case/internal/database"
	"github.com/prhdev222/med-file-case/internal/eventbus"
	"github.com/prhdev222/med-file-case/internal/httphandlers"
	"github.com/prhdev222/med-file-case/internal/service"
	"github.com/prhdev222/med-file-case/internal/storage"
	"github.com/prhdev222/med-file-case/logger"
	"go.uber.org/zap"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatal(err)
	}

	if err := logger.InitLogger(cfg.Mode); err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		return
	}
	defer logger.Sync()

	srv, teardown, err := setup(cfg)
	if err != nil {
		logger.Error("setup failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	go func() {
		logger.Info("serving http", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server closed: ", err)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	<-done
	logger.Info("Shutting down...")

	teardown()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
}

func setup(cfg config.Config) (*http.Server, func(), error) {
	eventBus := eventbus.New()
	holder := config.NewHolder(cfg.Backup)
	clock := clockwork.NewRealClock()

	opts := backup.Options{
		Root:           cfg.Backup.BackupDir,
		Database:       database.NewSQLite(cfg.Backup.DatabasePath),
		UploadsDir:     cfg.Backup.UploadsDir,
		UploadsTimeout: cfg.Backup.UploadsTimeout,
		Locks:          &backup.Locks{},
		Clock:          clock,
		Verify:         database.Verify,
	}

	offsite, err := storage.New(cfg.Offsite)
	if err != nil {
		return nil, nil, err
	}

	backupSvc := service.NewBackupService(service.Params{
		Config:    holder,
		Store:     config.NewStore(cfg.EnvFile),
		Snapshots: backup.NewSnapshotter(opts),
		Retention: backup.NewRetention(opts),
		Restorer:  backup.NewRestorer(opts),
		Catalog:   backup.NewCatalog(opts),
		Offsite:   offsite,
		Events:    eventBus,
		Clock:     clock,
	})

	if err := backupSvc.Run(context.Background()); err != nil {
		return nil, nil, err
	}

	logger.Info("backup service started",
		zap.String("backup_dir", cfg.Backup.BackupDir),
		zap.String("database", cfg.Backup.DatabasePath),
		zap.String("uploads", cfg.Backup.UploadsDir),
		zap.Bool("offsite", offsite != nil))

	apiHandler := httphandlers.NewApiHandler(backupSvc, eventBus, logger.GetLogger())
	routes := httphandlers.Routes(apiHandler)

	return &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: routes,
		}, func() {
			backupSvc.Stop()
		}, nil
}
