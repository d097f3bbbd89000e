package cli

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/proximalabs/proxima-go/internal/infrastructure/config"
	"github.com/proximalabs/proxima-go/internal/infrastructure/database"
)

// openStore loads configuration and opens a migrated database handle.
// Every subcommand that touches the store goes through here.
func openStore() (*config.Config, *gorm.DB, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		database.Close(db)
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return cfg, db, nil
}

func closeStore(db *gorm.DB) {
	_ = database.Close(db)
}
