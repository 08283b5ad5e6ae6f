package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jalshrestha/Outfit/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockQuerier struct {
	mock.Mock
}

func (m *MockQuerier) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	called := m.Called(append([]interface{}{ctx, sql}, args...)...)
	return pgconn.NewCommandTag("INSERT 0 1"), called.Error(0)
}

func (m *MockQuerier) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	called := m.Called(append([]interface{}{ctx, sql}, args...)...)
	return nil, called.Error(0)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, 20, NormalizeLimit(0))
	assert.Equal(t, 20, NormalizeLimit(-1))
	assert.Equal(t, 5, NormalizeLimit(5))
	assert.Equal(t, 100, NormalizeLimit(1000))
}

func TestRunMapsRoundTrip(t *testing.T) {
	run := models.RefreshRun{PerSource: map[string]int{"hm": 4}}
	perSource, errs, err := encodeRunMaps(run)
	require.NoError(t, err)
	assert.JSONEq(t, `{"hm":4}`, string(perSource))
	assert.JSONEq(t, `{}`, string(errs))

	var decoded models.RefreshRun
	require.NoError(t, decodeRunMaps(&decoded, perSource, errs))
	assert.Equal(t, run.PerSource, decoded.PerSource)
	assert.Nil(t, decoded.Errors, "empty error map decodes to nil")

	assert.Error(t, decodeRunMaps(&decoded, []byte("{"), nil))
}

func TestHistoryRepository_Record(t *testing.T) {
	ctx := context.Background()
	db := new(MockQuerier)
	repo := NewHistoryRepository(db)

	run := models.RefreshRun{
		ID:             uuid.New(),
		Source:         models.SourceHM,
		Trigger:        models.TriggerAPI,
		ItemsRefreshed: 5,
		PerSource:      map[string]int{"hm": 5},
		StartedAt:      time.Now(),
		FinishedAt:     time.Now(),
	}

	db.On("Exec", ctx, mock.AnythingOfType("string"),
		run.ID, "hm", "api", 5, []byte(`{"hm":5}`), []byte(`{}`), run.StartedAt, run.FinishedAt).
		Return(nil).Once()
	require.NoError(t, repo.Record(ctx, run))

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("relation does not exist")).Once()
	err := repo.Record(ctx, run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert refresh run")

	db.AssertExpectations(t)
}

func TestHistoryRepository_RecentQueryError(t *testing.T) {
	ctx := context.Background()
	db := new(MockQuerier)
	repo := NewHistoryRepository(db)

	db.On("Query", ctx, mock.AnythingOfType("string"), 100).Return(errors.New("connection refused"))

	_, err := repo.Recent(ctx, 500)
	require.Error(t, err)
	db.AssertExpectations(t)
}

func TestHistoryRepository_Postgres(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	repo := NewHistoryRepository(db)
	require.NoError(t, repo.EnsureSchema(ctx))

	started := time.Now().UTC().Truncate(time.Microsecond)
	run := models.RefreshRun{
		ID:             uuid.New(),
		Source:         models.SourceAll,
		Trigger:        models.TriggerScheduler,
		ItemsRefreshed: 12,
		PerSource:      map[string]int{"pinterest": 4, "hollister": 4, "hm": 4},
		Errors:         map[string]string{"pinterest": "extraction timed out"},
		StartedAt:      started,
		FinishedAt:     started.Add(time.Minute),
	}
	require.NoError(t, repo.Record(ctx, run))

	runs, err := repo.Recent(ctx, 100)
	require.NoError(t, err)

	var found *models.RefreshRun
	for i := range runs {
		if runs[i].ID == run.ID {
			found = &runs[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, run.PerSource, found.PerSource)
	assert.Equal(t, run.Errors, found.Errors)
	assert.True(t, run.StartedAt.Equal(found.StartedAt))

	_, err = db.Exec(ctx, `DELETE FROM refresh_runs WHERE id = $1`, run.ID)
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Test database not configured")
	}

	db, err := New(context.Background(), Config{URL: url, MaxConns: 2})
	if err != nil {
		t.Skipf("Test database unavailable: %v", err)
	}
	return db
}
