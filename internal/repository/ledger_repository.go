package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/vanity-bot/internal/models"
)

// LedgerRepository persists the announcement ledger in PostgreSQL.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository constructs the repository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// ListByCommunity returns every announced user of a community.
func (r *LedgerRepository) ListByCommunity(ctx context.Context, communityID string) ([]models.LedgerEntry, error) {
	const query = `SELECT community_id, user_id, announced_at FROM announcement_ledger
WHERE community_id = $1 ORDER BY announced_at ASC`
	var entries []models.LedgerEntry
	if err := r.db.SelectContext(ctx, &entries, query, communityID); err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	return entries, nil
}

// Add records an announcement. Adding an existing pair is a no-op.
func (r *LedgerRepository) Add(ctx context.Context, entry models.LedgerEntry) error {
	const query = `INSERT INTO announcement_ledger (community_id, user_id, announced_at)
VALUES (:community_id, :user_id, :announced_at)
ON CONFLICT (community_id, user_id) DO NOTHING`
	if entry.AnnouncedAt.IsZero() {
		entry.AnnouncedAt = time.Now().UTC()
	}
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("add ledger entry: %w", err)
	}
	return nil
}

// Reset clears the ledger of a community and reports how many entries went.
func (r *LedgerRepository) Reset(ctx context.Context, communityID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM announcement_ledger WHERE community_id = $1", communityID)
	if err != nil {
		return 0, fmt.Errorf("reset ledger: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset ledger rows affected: %w", err)
	}
	return affected, nil
}
