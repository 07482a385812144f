// internal/workers/screening/record-result/handler_test.go
package recordresult

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"kye-workers/internal/common/config"
	"kye-workers/internal/common/errors"
	"kye-workers/internal/common/logger"
	"kye-workers/internal/history"
	"kye-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
		Index:   "screening-results",
	}
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock
}

type fakeIndexer struct {
	err   error
	calls []indexCall
}

type indexCall struct {
	index string
	docID string
	body  []byte
}

func (f *fakeIndexer) IndexDocument(_ context.Context, index, docID string, body []byte) error {
	f.calls = append(f.calls, indexCall{index: index, docID: docID, body: body})
	return f.err
}

func newTestHistory(t *testing.T) *history.Store {
	return history.NewStore(config.HistoryConfig{
		Path:     filepath.Join(t.TempDir(), "historico_pesquisas.json"),
		MaxItems: 50,
	}, logger.NewTestLogger(t))
}

func newHandler(t *testing.T, db *sql.DB, indexer DocumentIndexer, store *history.Store) *Handler {
	return NewHandler(createTestConfig(), db, indexer, store, logger.NewTestLogger(t))
}

func validInput() *Input {
	return &Input{
		SearchTerm: "12345678901",
		SearchType: "cpf",
		Processes: []models.ProcessRecord{
			{
				NumeroProcessoUnico: "0001234-56.2023.8.26.0100",
				ClasseProcessual:    models.CaseClass{Nome: "Ação Civil"},
			},
		},
		RiskAssessment: &models.RiskAssessment{
			Score:      42.5,
			Level:      models.RiskLevelMedium,
			LevelLabel: "Medium Risk",
			Summary:    "1 process(es) found with some concerns - review recommended",
		},
	}
}

func expectInsert(mock sqlmock.Sqlmock) *sqlmock.ExpectedExec {
	return mock.ExpectExec("INSERT INTO screening_results").
		WillReturnResult(sqlmock.NewResult(1, 1))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestExecutePersistsIndexesAndRecordsHistory(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	expectInsert(mock)

	indexer := &fakeIndexer{}
	store := newTestHistory(t)
	handler := newHandler(t, db, indexer, store)

	output, err := handler.Execute(context.Background(), validInput())

	require.NoError(t, err)
	assert.True(t, output.Indexed)
	_, err = uuid.Parse(output.RecordID)
	assert.NoError(t, err, "recordId should be a UUID")
	assert.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, indexer.calls, 1)
	assert.Equal(t, "screening-results", indexer.calls[0].index)
	assert.Equal(t, output.RecordID, indexer.calls[0].docID)

	records, err := store.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, output.RecordID, records[0].ID)
	assert.Equal(t, "12345678901", records[0].SearchTerm)
	require.NotNil(t, records[0].Assessment)
	assert.Equal(t, 42.5, records[0].Assessment.Score)
}

func TestExecuteInsertArguments(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO screening_results").
		WithArgs(sqlmock.AnyArg(), "12345678901", "cpf", 1, 42.5, "medium", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	handler := newHandler(t, db, &fakeIndexer{}, newTestHistory(t))

	_, err := handler.Execute(context.Background(), validInput())

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Schema Validation Tests
// ==========================

func TestExecuteSchemaValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"missing assessment", func(in *Input) { in.RiskAssessment = nil }},
		{"empty search term", func(in *Input) { in.SearchTerm = "" }},
		{"unknown search type", func(in *Input) { in.SearchType = "email" }},
		{"score out of range", func(in *Input) { in.RiskAssessment.Score = 150 }},
		{"unknown risk level", func(in *Input) { in.RiskAssessment.Level = "extreme" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			defer db.Close()

			handler := newHandler(t, db, &fakeIndexer{}, newTestHistory(t))

			input := validInput()
			tt.mutate(input)

			_, err := handler.Execute(context.Background(), input)

			require.Error(t, err)
			stdErr, ok := err.(*errors.StandardError)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeRecordSchemaInvalid, stdErr.Code)
			assert.False(t, stdErr.Retryable)

			// Nothing may be written when validation fails.
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// ==========================
// Failure Path Tests
// ==========================

func TestExecuteInsertFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO screening_results").
		WillReturnError(fmt.Errorf("connection reset"))

	indexer := &fakeIndexer{}
	handler := newHandler(t, db, indexer, newTestHistory(t))

	_, err := handler.Execute(context.Background(), validInput())

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeRecordPersistFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Empty(t, indexer.calls, "index must not run after a failed insert")
}

func TestExecuteIndexFailureIsBestEffort(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	expectInsert(mock)

	indexer := &fakeIndexer{err: fmt.Errorf("cluster red")}
	store := newTestHistory(t)
	handler := newHandler(t, db, indexer, store)

	output, err := handler.Execute(context.Background(), validInput())

	require.NoError(t, err)
	assert.False(t, output.Indexed)

	// The row and the history entry still land.
	records, loadErr := store.Load()
	require.NoError(t, loadErr)
	assert.Len(t, records, 1)
}

func TestExecuteWithoutIndexer(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	expectInsert(mock)

	handler := newHandler(t, db, nil, newTestHistory(t))

	output, err := handler.Execute(context.Background(), validInput())

	require.NoError(t, err)
	assert.False(t, output.Indexed)
}

func TestExecuteMergesProcessDetails(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	expectInsert(mock)

	store := newTestHistory(t)
	handler := newHandler(t, db, &fakeIndexer{}, store)

	input := validInput()
	input.ProcessDetails = map[string]map[string]interface{}{
		"0001234-56.2023.8.26.0100": {"vara": "2ª Vara Cível"},
	}

	_, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)

	records, err := store.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Contains(t, records[0].DetalhesProcessos, "0001234-56.2023.8.26.0100")
	assert.Equal(t, "2ª Vara Cível",
		records[0].DetalhesProcessos["0001234-56.2023.8.26.0100"]["vara"])
}

func TestExecuteDetailsForUnknownProcessAreDropped(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	expectInsert(mock)

	store := newTestHistory(t)
	handler := newHandler(t, db, &fakeIndexer{}, store)

	input := validInput()
	input.ProcessDetails = map[string]map[string]interface{}{
		"9999999-99.2023.8.26.0100": {"vara": "unknown"},
	}

	// Details for a process the history never saw are dropped, not fatal.
	_, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)

	records, err := store.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].DetalhesProcessos)
}

func TestExecuteHistoryNewestFirst(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	expectInsert(mock)
	expectInsert(mock)

	store := newTestHistory(t)
	handler := newHandler(t, db, &fakeIndexer{}, store)

	first, err := handler.Execute(context.Background(), validInput())
	require.NoError(t, err)

	second := validInput()
	second.SearchTerm = "98765432109"
	secondOut, err := handler.Execute(context.Background(), second)
	require.NoError(t, err)

	records, err := store.Load()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, secondOut.RecordID, records[0].ID)
	assert.Equal(t, first.RecordID, records[1].ID)
}
