package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/wricardo/sumstack/game/engine"
)

// RecordFileName is the document FileStore keeps inside its directory
const RecordFileName = "highscore.json"

// FileStore persists the record as a small JSON document keyed by
// engine.HighScoreKey
type FileStore struct {
	path string
}

// NewFileStore creates a file store in dir, creating the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, RecordFileName)}, nil
}

// Path returns the location of the record document
func (fs *FileStore) Path() string {
	return fs.path
}

// LoadHighScore returns 0 when the file is missing or unreadable
func (fs *FileStore) LoadHighScore() int {
	score, err := fs.read()
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			zap.L().Warn("failed to load high score", zap.String("path", fs.path), zap.Error(err))
		}
		return 0
	}
	return score
}

// SaveHighScore writes the record. Failures are logged and dropped.
func (fs *FileStore) SaveHighScore(score int) {
	if err := fs.write(score); err != nil {
		zap.L().Warn("failed to save high score", zap.String("path", fs.path), zap.Error(err))
	}
}

func (fs *FileStore) Close() error {
	return nil
}

func (fs *FileStore) read() (int, error) {
	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read record file: %w", err)
	}

	var doc map[string]int
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("failed to unmarshal record file: %w", err)
	}

	score, ok := doc[engine.HighScoreKey]
	if !ok {
		return 0, ErrNotFound
	}
	if score < 0 {
		return 0, fmt.Errorf("negative record %d", score)
	}
	return score, nil
}

// write replaces the document through a temp file
func (fs *FileStore) write(score int) error {
	data, err := json.MarshalIndent(map[string]int{engine.HighScoreKey: score}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write record file: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return fmt.Errorf("failed to replace record file: %w", err)
	}
	return nil
}
