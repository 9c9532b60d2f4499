package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/noah-isme/vanity-bot/internal/models"
	appErrors "github.com/noah-isme/vanity-bot/pkg/errors"
)

const (
	configKeyPrefix = "config/"
	ledgerKeyPrefix = "ledger/"
)

func configKey(communityID string) []byte {
	return []byte(configKeyPrefix + communityID)
}

func ledgerPrefix(communityID string) []byte {
	return []byte(ledgerKeyPrefix + communityID + "/")
}

func ledgerKey(communityID, userID string) []byte {
	return append(ledgerPrefix(communityID), userID...)
}

// BadgerCommunityConfigRepository stores community settings in the embedded store.
type BadgerCommunityConfigRepository struct {
	db *badger.DB
}

// NewBadgerCommunityConfigRepository constructs the repository.
func NewBadgerCommunityConfigRepository(db *badger.DB) *BadgerCommunityConfigRepository {
	return &BadgerCommunityConfigRepository{db: db}
}

// Get fetches the configuration for a community.
func (r *BadgerCommunityConfigRepository) Get(ctx context.Context, communityID string) (*models.CommunityConfig, error) {
	var cfg models.CommunityConfig
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(configKey(communityID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &cfg)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("get community config: %w", err)
	}
	return &cfg, nil
}

// Upsert writes the whole configuration in a single transaction.
func (r *BadgerCommunityConfigRepository) Upsert(ctx context.Context, cfg *models.CommunityConfig) error {
	cfg.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal community config: %w", err)
	}
	if err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(configKey(cfg.CommunityID), payload)
	}); err != nil {
		return fmt.Errorf("upsert community config: %w", err)
	}
	return nil
}

// ListConfigured returns communities that have both role and channel set.
func (r *BadgerCommunityConfigRepository) ListConfigured(ctx context.Context) ([]models.CommunityConfig, error) {
	var configs []models.CommunityConfig
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(configKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var cfg models.CommunityConfig
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &cfg)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			if cfg.Configured() {
				configs = append(configs, cfg)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list configured communities: %w", err)
	}
	return configs, nil
}

// BadgerLedgerRepository stores the announcement ledger in the embedded store.
type BadgerLedgerRepository struct {
	db *badger.DB
}

// NewBadgerLedgerRepository constructs the repository.
func NewBadgerLedgerRepository(db *badger.DB) *BadgerLedgerRepository {
	return &BadgerLedgerRepository{db: db}
}

// ListByCommunity returns every announced user of a community.
func (r *BadgerLedgerRepository) ListByCommunity(ctx context.Context, communityID string) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	prefix := ledgerPrefix(communityID)
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			userID := string(bytes.TrimPrefix(item.KeyCopy(nil), prefix))
			entry := models.LedgerEntry{CommunityID: communityID, UserID: userID}
			if err := item.Value(func(val []byte) error {
				at, err := time.Parse(time.RFC3339Nano, string(val))
				if err != nil {
					return err
				}
				entry.AnnouncedAt = at
				return nil
			}); err != nil {
				return fmt.Errorf("decode ledger entry %s: %w", userID, err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AnnouncedAt.Before(entries[j].AnnouncedAt)
	})
	return entries, nil
}

// Add records an announcement. Adding an existing pair keeps the first timestamp.
func (r *BadgerLedgerRepository) Add(ctx context.Context, entry models.LedgerEntry) error {
	if entry.AnnouncedAt.IsZero() {
		entry.AnnouncedAt = time.Now().UTC()
	}
	key := ledgerKey(entry.CommunityID, entry.UserID)
	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return nil
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, []byte(entry.AnnouncedAt.Format(time.RFC3339Nano)))
	})
	if err != nil {
		return fmt.Errorf("add ledger entry: %w", err)
	}
	return nil
}

// Reset clears the ledger of a community and reports how many entries went.
func (r *BadgerLedgerRepository) Reset(ctx context.Context, communityID string) (int64, error) {
	prefix := ledgerPrefix(communityID)
	var keys [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan ledger: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wb := r.db.NewWriteBatch()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			wb.Cancel()
			return 0, fmt.Errorf("reset ledger: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("reset ledger: %w", err)
	}
	return int64(len(keys)), nil
}
