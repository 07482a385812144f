package history

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kye-workers/internal/common/config"
	"kye-workers/internal/common/logger"
	"kye-workers/internal/models"
)

func newTestStore(t *testing.T, maxItems int) *Store {
	return NewStore(config.HistoryConfig{
		Path:     filepath.Join(t.TempDir(), "historico_pesquisas.json"),
		MaxItems: maxItems,
	}, logger.NewTestLogger(t))
}

func searchRecord(id, term string) models.SearchRecord {
	return models.SearchRecord{
		ID:         id,
		SearchTerm: term,
		SearchType: "cpf",
		Resultados: []models.ProcessRecord{
			{NumeroProcessoUnico: "proc-" + id, Tribunal: "TJSP"},
		},
	}
}

func TestNewStoreNilLoggerIsSafe(t *testing.T) {
	store := NewStore(config.HistoryConfig{
		Path: filepath.Join(t.TempDir(), "historico_pesquisas.json"),
	}, nil)

	require.NoError(t, store.Append(searchRecord("1", "12345678901")))

	records, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	store := newTestStore(t, 50)

	records, err := store.Load()

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAppendAndLoad(t *testing.T) {
	store := newTestStore(t, 50)

	require.NoError(t, store.Append(searchRecord("1", "first")))
	require.NoError(t, store.Append(searchRecord("2", "second")))

	records, err := store.Load()
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.Equal(t, "2", records[0].ID)
	assert.Equal(t, "1", records[1].ID)
}

func TestAppendTrimsToCap(t *testing.T) {
	store := newTestStore(t, 3)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(searchRecord(fmt.Sprint(i), "term")))
	}

	records, err := store.Load()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "4", records[0].ID)
	assert.Equal(t, "2", records[2].ID)
}

func TestSaveProcessDetails(t *testing.T) {
	store := newTestStore(t, 50)
	require.NoError(t, store.Append(searchRecord("1", "term")))

	found, err := store.SaveProcessDetails("proc-1", map[string]interface{}{
		"movimentos": 12,
	})

	require.NoError(t, err)
	assert.True(t, found)

	records, err := store.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	details := records[0].DetalhesProcessos["proc-1"]
	require.NotNil(t, details)
	assert.EqualValues(t, 12, details["movimentos"])
}

func TestSaveProcessDetailsUnknownProcess(t *testing.T) {
	store := newTestStore(t, 50)
	require.NoError(t, store.Append(searchRecord("1", "term")))

	found, err := store.SaveProcessDetails("no-such-process", map[string]interface{}{"x": 1})

	require.NoError(t, err)
	assert.False(t, found)
}

func TestAppendPreservesAssessment(t *testing.T) {
	store := newTestStore(t, 50)

	rec := searchRecord("1", "term")
	rec.Assessment = &models.RiskAssessment{
		Score: 60.0,
		Level: models.RiskLevelHigh,
	}
	require.NoError(t, store.Append(rec))

	records, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, records[0].Assessment)
	assert.Equal(t, 60.0, records[0].Assessment.Score)
	assert.Equal(t, models.RiskLevelHigh, records[0].Assessment.Level)
}
