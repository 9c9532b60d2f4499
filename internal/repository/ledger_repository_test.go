package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vanity-bot/internal/models"
)

func TestLedgerRepositoryListByCommunity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"community_id", "user_id", "announced_at"}).
		AddRow("g1", "u1", now).
		AddRow("g1", "u2", now)
	mock.ExpectQuery("SELECT community_id, user_id, announced_at FROM announcement_ledger").
		WithArgs("g1").
		WillReturnRows(rows)

	entries, err := repo.ListByCommunity(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "u2", entries[1].UserID)
}

func TestLedgerRepositoryAddIgnoresDuplicates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)
	mock.ExpectExec("INSERT INTO announcement_ledger .* ON CONFLICT \\(community_id, user_id\\) DO NOTHING").
		WithArgs("g1", "u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Add(context.Background(), models.LedgerEntry{CommunityID: "g1", UserID: "u1"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryAddPropagatesFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)
	mock.ExpectExec("INSERT INTO announcement_ledger").
		WillReturnError(errors.New("disk full"))

	err := repo.Add(context.Background(), models.LedgerEntry{CommunityID: "g1", UserID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestLedgerRepositoryReset(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)
	mock.ExpectExec("DELETE FROM announcement_ledger WHERE community_id").
		WithArgs("g1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	removed, err := repo.Reset(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
}
