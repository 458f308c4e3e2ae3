package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/newsboard/newsboard/internal/config"
	"github.com/newsboard/newsboard/internal/db"
	"github.com/newsboard/newsboard/internal/logger"
)

// open loads the configuration and connects to the configured database.
func open() (*config.Config, *sqlx.DB, error) {
	cfg := config.Load()
	logger.Init(logger.Options{Development: true})

	conn, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect: %w", err)
	}
	return cfg, conn, nil
}
