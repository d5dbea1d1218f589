package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/tsucess/paeshift-backend-sub001/internal/config"
	"github.com/tsucess/paeshift-backend-sub001/internal/database"
	"github.com/tsucess/paeshift-backend-sub001/internal/database/schema"
	"github.com/tsucess/paeshift-backend-sub001/internal/database/schema/migrations"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	db, err := database.New(ctx, database.Options{
		Host:           cfg.RDSHostname,
		Port:           cfg.RDSPort,
		DBName:         cfg.RDSDBName,
		Username:       cfg.RDSUsername,
		Password:       cfg.RDSPassword,
		ConnectTimeout: cfg.DBConnectTimeout,
		SQLitePath:     cfg.SQLitePath,
	}, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	migrator := schema.NewMigrator(db, logger)
	if err := migrator.ApplyAll(ctx, migrations.All()); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	logger.Info("all migrations completed successfully",
		zap.String("backend", string(db.Backend())))
}
