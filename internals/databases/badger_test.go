package database

import (
	"io"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBadgerInMemory(t *testing.T) {
	db, err := OpenBadgerInMemory()
	require.NoError(t, err)
	defer db.Close()

	err = db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("key"), []byte("value"))
	})
	require.NoError(t, err)

	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("key"))
		require.NoError(t, err)
		return item.Value(func(val []byte) error {
			assert.Equal(t, []byte("value"), val)
			return nil
		})
	})
	require.NoError(t, err)

	// GC in-memory tidak boleh panic
	RunBadgerGC(db, 0.5, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestOpenBadgerPersistent(t *testing.T) {
	dir := t.TempDir()

	db, err := OpenBadger(DefaultBadgerConfig(dir))
	require.NoError(t, err)
	require.NoError(t, db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("k"), []byte("v"))
	}))
	require.NoError(t, db.Close())

	db2, err := OpenBadger(DefaultBadgerConfig(dir))
	require.NoError(t, err)
	defer db2.Close()
	require.NoError(t, db2.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte("k"))
		return err
	}))
}

func TestOpenBadgerRequiresPath(t *testing.T) {
	_, err := OpenBadger(BadgerConfig{})
	assert.Error(t, err)
}
