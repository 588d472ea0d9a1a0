package storage

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/wricardo/sumstack/game/engine"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps records in a key/value table
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite has a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Get returns the value stored under key
func (s *SQLiteStore) Get(key string) (int, error) {
	var value int
	err := s.db.QueryRow(`SELECT value FROM records WHERE key = ?;`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query record %s: %w", key, err)
	}
	return value, nil
}

// Put stores value under key, replacing any previous value
func (s *SQLiteStore) Put(key string, value int) error {
	q := `
	INSERT OR REPLACE INTO records (key, value)
	VALUES (?, ?);
	`
	if _, err := s.db.Exec(q, key, value); err != nil {
		return fmt.Errorf("failed to store record %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) LoadHighScore() int {
	score, err := s.Get(engine.HighScoreKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			zap.L().Warn("failed to load high score", zap.Error(err))
		}
		return 0
	}
	if score < 0 {
		return 0
	}
	return score
}

func (s *SQLiteStore) SaveHighScore(score int) {
	if err := s.Put(engine.HighScoreKey, score); err != nil {
		zap.L().Warn("failed to save high score", zap.Error(err))
	}
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
