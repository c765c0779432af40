package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore_GetAndKeys(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "DRY-COMPLETE-2.csv"), []byte(sampleDoc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	s := NewFS(dir)
	defer s.Close()

	body, err := s.Get(context.Background(), "DRY-COMPLETE-2")
	require.NoError(t, err)
	assert.Equal(t, sampleDoc, body)

	_, err = s.Get(context.Background(), "OILY-SIMPLE-1")
	assert.True(t, errors.Is(err, ErrNotFound))

	keys, err := s.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"DRY-COMPLETE-2"}, keys)
}

func TestFSStore_Put(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s := NewFS(dir)

	require.NoError(t, s.Put(context.Background(), "NORMAL-SIMPLE-1", "body"))

	body, err := s.Get(context.Background(), "NORMAL-SIMPLE-1")
	require.NoError(t, err)
	assert.Equal(t, "body", body)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()

	_, err = s.Get(ctx, "DRY-COMPLETE-2")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Put(ctx, "DRY-COMPLETE-2", sampleDoc))
	require.NoError(t, s.Put(ctx, "OILY-SIMPLE-1", "other"))

	body, err := s.Get(ctx, "DRY-COMPLETE-2")
	require.NoError(t, err)
	assert.Equal(t, sampleDoc, body)

	// Put is an upsert.
	require.NoError(t, s.Put(ctx, "OILY-SIMPLE-1", "updated"))
	body, err = s.Get(ctx, "OILY-SIMPLE-1")
	require.NoError(t, err)
	assert.Equal(t, "updated", body)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"DRY-COMPLETE-2", "OILY-SIMPLE-1"}, keys)
}
