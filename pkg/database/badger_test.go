package database

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/vanity-bot/pkg/config"
)

func TestNewBadgerPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := config.BadgerConfig{Path: dir, SyncWrites: true}

	db, err := NewBadger(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("ledger/g/u"), []byte("x"))
	}))
	require.NoError(t, db.Close())

	db, err = NewBadger(cfg, nil)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("ledger/g/u"))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			assert.Equal(t, []byte("x"), val)
			return nil
		})
	}))
}

func TestNewBadgerRequiresPath(t *testing.T) {
	_, err := NewBadger(config.BadgerConfig{}, nil)
	require.Error(t, err)
}
