package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

var DB *sql.DB

func InitDB() error {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_SSLMODE"),
	)

	var err error
	DB, err = sql.Open("postgres", connStr)
	if err != nil {
		return err
	}

	if err = DB.Ping(); err != nil {
		return err
	}

	log.Println("Connected to database successfully")

	if err := runMigrations(); err != nil {
		return err
	}

	return nil
}

func runMigrations() error {
	driver, err := postgres.WithInstance(DB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	log.Println("Database migrations applied successfully")
	return nil
}

func CloseDB() {
	if DB != nil {
		DB.Close()
	}
}

// In-memory schema for integration tests.
func InitTestDB() error {
	var err error
	DB, err = sql.Open("sqlite3", ":memory:")
	if err != nil {
		return err
	}

	if err = DB.Ping(); err != nil {
		return err
	}

	return createTestTables()
}

func createTestTables() error {
	queries := []string{
		`CREATE TABLE users (
            id TEXT PRIMARY KEY,
            username TEXT NOT NULL UNIQUE,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL DEFAULT '',
            health_condition TEXT NOT NULL DEFAULT '[]',
            allergies TEXT NOT NULL DEFAULT '[]',
            is_verified BOOLEAN NOT NULL DEFAULT 0,
            is_logged_in BOOLEAN NOT NULL DEFAULT 0,
            otp TEXT,
            otp_expiry DATETIME,
            google_id TEXT,
            auth_provider TEXT NOT NULL DEFAULT 'local',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE sessions (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            FOREIGN KEY (user_id) REFERENCES users(id)
        )`,

		`CREATE TABLE scan_history (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            scanned_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            scan_type TEXT NOT NULL,
            product_name TEXT NOT NULL DEFAULT 'Unknown Product',
            barcode TEXT,
            scanned_image_url TEXT NOT NULL,
            risk_score INTEGER NOT NULL,
            verdict TEXT NOT NULL,
            analysis_summary TEXT,
            flagged_ingredients TEXT NOT NULL DEFAULT '[]',
            alternatives TEXT NOT NULL DEFAULT '[]',
            FOREIGN KEY (user_id) REFERENCES users(id)
        )`,
	}

	for _, query := range queries {
		_, err := DB.Exec(query)
		if err != nil {
			return err
		}
	}

	return nil
}
