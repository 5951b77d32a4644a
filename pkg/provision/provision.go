// Package provision creates and seeds the sample sales database so a fresh
// checkout can answer questions without any external setup.
package provision

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

//go:embed seed.yaml
var seedYAML []byte

// seedData mirrors seed.yaml.
type seedData struct {
	Products []productRow `yaml:"products"`
	Sales    []saleRow    `yaml:"sales"`
}

type productRow struct {
	ProductID int     `yaml:"product_id"`
	Name      string  `yaml:"name"`
	Category  string  `yaml:"category"`
	Price     float64 `yaml:"price"`
}

type saleRow struct {
	SaleID    int    `yaml:"sale_id"`
	ProductID int    `yaml:"product_id"`
	Quantity  int    `yaml:"quantity"`
	SaleDate  string `yaml:"sale_date"`
	Region    string `yaml:"region"`
}

// Setup migrates the schema and seeds the sample data. Idempotent: applied
// migrations are skipped and existing seed rows are left alone.
func Setup(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	if err := Migrate(db, logger); err != nil {
		return err
	}
	return Seed(ctx, db, logger)
}

// Migrate runs pending schema migrations from the embedded migration
// files. Safe to call multiple times.
func Migrate(db *sql.DB, logger *zap.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	if err == migrate.ErrNoChange {
		logger.Info("No migrations to apply (database up-to-date)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info("Applied migrations successfully", zap.Uint("version", version))
	return nil
}

// Seed inserts the sample rows from the embedded seed file. Rows that
// already exist keep their current values.
func Seed(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	var data seedData
	if err := yaml.Unmarshal(seedYAML, &data); err != nil {
		return fmt.Errorf("failed to parse seed data: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range data.Products {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO products (product_id, name, category, price) VALUES ($1, $2, $3, $4)`,
			p.ProductID, p.Name, p.Category, p.Price)
		if err != nil {
			return fmt.Errorf("failed to seed product %d: %w", p.ProductID, err)
		}
	}
	for _, s := range data.Sales {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO sales (sale_id, product_id, quantity, sale_date, region) VALUES ($1, $2, $3, $4, $5)`,
			s.SaleID, s.ProductID, s.Quantity, s.SaleDate, s.Region)
		if err != nil {
			return fmt.Errorf("failed to seed sale %d: %w", s.SaleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	logger.Info("Seeded sample data",
		zap.Int("products", len(data.Products)),
		zap.Int("sales", len(data.Sales)))
	return nil
}
