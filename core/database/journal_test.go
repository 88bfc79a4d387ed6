package database

import (
	"context"
	"regexp"
	"testing"
	"time"

	"variant-manager/core/fsutil"
	"variant-manager/core/variant"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMemoryJournal(t *testing.T) *Journal {
	t.Helper()
	db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	journal, err := NewJournal(db, "session-1")
	require.NoError(t, err)
	return journal
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestJournalRecordsChanges(t *testing.T) {
	journal := newMemoryJournal(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, journal.Observe(ctx, variant.Outcome{
		Action: variant.ActionCopy,
		Tier:   variant.TierChannel,
		Kind:   fsutil.KindFile,
		Rel:    "conf/app.json",
		Source: "/v/beta/conf/app.json",
		Target: "/src/conf/app.json",
		At:     at,
	}))
	require.NoError(t, journal.Observe(ctx, variant.Outcome{Action: variant.ActionSkip, Reason: variant.ReasonShadowed}))
	require.NoError(t, journal.Observe(ctx, variant.Outcome{
		Action: variant.ActionRestore,
		Tier:   variant.TierChannel,
		Kind:   fsutil.KindFile,
		Rel:    "conf/app.json",
		At:     at.Add(time.Second),
	}))
	require.NoError(t, journal.ObserveSync(ctx, &variant.SyncReport{
		Roots:  variant.Roots{Output: "/src"},
		Stats:  fsutil.Stats{FilesCopied: 3},
		Pruned: 1,
	}))

	entries, err := journal.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, ActionSync, entries[0].Action)
	assert.Equal(t, "copied=3 skipped=0 pruned=1", entries[0].Reason)
	assert.Equal(t, "restore", entries[1].Action)
	assert.Equal(t, "copy", entries[2].Action)
	assert.Equal(t, "channel", entries[2].Tier)
	assert.Equal(t, "file", entries[2].Kind)
	assert.Equal(t, "session-1", entries[2].Session)
	assert.True(t, entries[2].At.Equal(at))
}

func TestJournalRecentLimit(t *testing.T) {
	journal := newMemoryJournal(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, journal.Observe(ctx, variant.Outcome{Action: variant.ActionMkdir, Rel: "d", At: time.Now()}))
	}

	entries, err := journal.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Greater(t, entries[0].ID, entries[1].ID)
}

func TestJournalObserveError(t *testing.T) {
	db, mock := setupMockDB(t)
	journal := &Journal{db: db, session: "s"}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `journal_entries`")).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := journal.Observe(context.Background(), variant.Outcome{Action: variant.ActionRemove, Rel: "a.txt"})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournalRecentError(t *testing.T) {
	db, mock := setupMockDB(t)
	journal := &Journal{db: db, session: "s"}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `journal_entries`")).
		WillReturnError(assert.AnError)

	_, err := journal.Recent(context.Background(), 5)
	assert.ErrorIs(t, err, assert.AnError)
}
