package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite persistence layer shared by accounts, bookings,
// payments and flight choices. Chat sessions deliberately stay in memory;
// only travel records survive a restart.
type Store struct {
	db *sql.DB
}

// Open opens the database at path, creating the file and parent directory
// if needed, and runs migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_email TEXT NOT NULL,
			type TEXT NOT NULL,
			ref TEXT,
			title TEXT,
			detail_json TEXT,
			status TEXT DEFAULT 'active',
			created_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings(user_email, created_at)`,
		`CREATE TABLE IF NOT EXISTS payments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			stripe_payment_intent_id TEXT UNIQUE NOT NULL,
			offer_id TEXT,
			order_id TEXT,
			amount TEXT NOT NULL,
			currency TEXT NOT NULL,
			status TEXT NOT NULL,
			customer_email TEXT,
			card_brand TEXT,
			card_last4 TEXT,
			metadata_json TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_email ON payments(customer_email, created_at)`,
		`CREATE TABLE IF NOT EXISTS flight_choices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			offer_id TEXT,
			airline TEXT,
			price REAL,
			currency TEXT,
			cabin_class TEXT,
			origin TEXT,
			destination TEXT,
			departure_date TEXT,
			return_date TEXT,
			passenger_ids TEXT,
			chosen_at INTEGER
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
