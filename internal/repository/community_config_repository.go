package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/vanity-bot/internal/models"
	appErrors "github.com/noah-isme/vanity-bot/pkg/errors"
)

type communityConfigRow struct {
	CommunityID   string         `db:"community_id"`
	RoleID        *string        `db:"role_id"`
	ChannelID     *string        `db:"channel_id"`
	AnnounceLines pq.StringArray `db:"announce_lines"`
	UpdatedBy     *string        `db:"updated_by"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r communityConfigRow) toModel() models.CommunityConfig {
	cfg := models.CommunityConfig{
		CommunityID: r.CommunityID,
		RoleID:      r.RoleID,
		ChannelID:   r.ChannelID,
		UpdatedBy:   r.UpdatedBy,
		UpdatedAt:   r.UpdatedAt,
	}
	if len(r.AnnounceLines) > 0 {
		cfg.AnnounceLines = []string(r.AnnounceLines)
	}
	return cfg
}

// CommunityConfigRepository persists per-community settings in PostgreSQL.
type CommunityConfigRepository struct {
	db *sqlx.DB
}

// NewCommunityConfigRepository constructs the repository.
func NewCommunityConfigRepository(db *sqlx.DB) *CommunityConfigRepository {
	return &CommunityConfigRepository{db: db}
}

// Get fetches the configuration for a community.
func (r *CommunityConfigRepository) Get(ctx context.Context, communityID string) (*models.CommunityConfig, error) {
	const query = `SELECT community_id, role_id, channel_id, announce_lines, updated_by, updated_at
FROM community_configs WHERE community_id = $1`
	var row communityConfigRow
	if err := r.db.GetContext(ctx, &row, query, communityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("get community config: %w", err)
	}
	cfg := row.toModel()
	return &cfg, nil
}

// Upsert inserts or replaces a community configuration atomically.
func (r *CommunityConfigRepository) Upsert(ctx context.Context, cfg *models.CommunityConfig) error {
	const query = `INSERT INTO community_configs (community_id, role_id, channel_id, announce_lines, updated_by, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (community_id)
DO UPDATE SET role_id = EXCLUDED.role_id, channel_id = EXCLUDED.channel_id, announce_lines = EXCLUDED.announce_lines,
              updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	cfg.UpdatedAt = time.Now().UTC()
	lines := pq.StringArray(cfg.AnnounceLines)
	if lines == nil {
		lines = pq.StringArray{}
	}
	if _, err := r.db.ExecContext(ctx, query, cfg.CommunityID, cfg.RoleID, cfg.ChannelID, lines, cfg.UpdatedBy, cfg.UpdatedAt); err != nil {
		return fmt.Errorf("upsert community config: %w", err)
	}
	return nil
}

// ListConfigured returns communities that have both role and channel set.
func (r *CommunityConfigRepository) ListConfigured(ctx context.Context) ([]models.CommunityConfig, error) {
	const query = `SELECT community_id, role_id, channel_id, announce_lines, updated_by, updated_at
FROM community_configs
WHERE role_id IS NOT NULL AND role_id <> '' AND channel_id IS NOT NULL AND channel_id <> ''
ORDER BY community_id ASC`
	var rows []communityConfigRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list configured communities: %w", err)
	}
	configs := make([]models.CommunityConfig, 0, len(rows))
	for _, row := range rows {
		configs = append(configs, row.toModel())
	}
	return configs, nil
}
