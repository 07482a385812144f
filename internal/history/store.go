// Package history persists search results to a JSON file, newest first,
// capped at a configured number of entries.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"kye-workers/internal/common/config"
	"kye-workers/internal/common/logger"
	"kye-workers/internal/models"
)

// Store is safe for concurrent use within one process. The file itself is
// not locked across processes; the record-result worker is the single
// writer in the deployed topology.
type Store struct {
	path     string
	maxItems int
	logger   logger.Logger

	mu sync.Mutex
}

func NewStore(cfg config.HistoryConfig, log logger.Logger) *Store {
	maxItems := cfg.MaxItems
	if maxItems <= 0 {
		maxItems = 50
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Store{
		path:     cfg.Path,
		maxItems: maxItems,
		logger:   log,
	}
}

// Load reads the full history. A missing file is an empty history, not an
// error.
func (s *Store) Load() ([]models.SearchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() ([]models.SearchRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.SearchRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var records []models.SearchRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}
	return records, nil
}

// Append prepends a record (newest first) and trims the list to the
// configured cap.
func (s *Store) Append(record models.SearchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	records = append([]models.SearchRecord{record}, records...)
	if len(records) > s.maxItems {
		records = records[:s.maxItems]
	}

	return s.save(records)
}

// SaveProcessDetails attaches detail data to a process already present in
// the history, keyed by its CNJ number. Returns false when no history
// entry references that process.
func (s *Store) SaveProcessDetails(processNumber string, details map[string]interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return false, err
	}

	for i := range records {
		for _, proc := range records[i].Resultados {
			if proc.NumeroProcessoUnico == processNumber {
				if records[i].DetalhesProcessos == nil {
					records[i].DetalhesProcessos = make(map[string]map[string]interface{})
				}
				records[i].DetalhesProcessos[processNumber] = details

				if err := s.save(records); err != nil {
					return false, err
				}
				return true, nil
			}
		}
	}

	return false, nil
}

// save writes atomically via a temp file in the same directory.
func (s *Store) save(records []models.SearchRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close history file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace history file: %w", err)
	}

	s.logger.Debug("History saved", map[string]interface{}{
		"path":  s.path,
		"items": len(records),
	})
	return nil
}
