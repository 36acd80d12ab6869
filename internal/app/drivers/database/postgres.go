package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"konsulin-wallet-service/internal/app/config"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func postgresDSN(cfg config.Postgres) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.DbName,
		sslMode,
	)
}

func NewPostgresDB(driverConfig *config.DriverConfig, log *logrus.Logger) (*sql.DB, error) {
	cfg := driverConfig.Postgres
	db, err := sql.Open("postgres", postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres %s:%s: %w", cfg.Host, cfg.Port, err)
	}

	log.WithFields(logrus.Fields{
		"host":           cfg.Host,
		"database":       cfg.DbName,
		"max_open_conns": cfg.MaxOpenConns,
	}).Info("Successfully connected to postgres database")
	return db, nil
}
