package db

import (
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/AdamBeresnev/bracket-engine/internal/config"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrations embed.FS

func InitDB(cfg *config.Config) *sqlx.DB {
	db, err := Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalln("Failed to connect to DB:", err)
	}

	if err := RunMigrations(db); err != nil {
		log.Fatalln("Failed to apply migrations:", err)
	}

	log.Println("Database connected.")
	return db
}

// Open connects with the given driver. SQLite connections get foreign keys enabled.
func Open(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == "sqlite3" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(db *sqlx.DB) error {
	var (
		driver database.Driver
		err    error
	)
	switch db.DriverName() {
	case "sqlite3":
		driver, err = sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	case "postgres":
		driver, err = postgres.WithInstance(db.DB, &postgres.Config{})
	default:
		return fmt.Errorf("no migration driver for %q", db.DriverName())
	}
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, db.DriverName(), driver)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
