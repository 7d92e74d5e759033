package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	_, ok, err := s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "cart", `[{"id":1}]`))

	v, ok, err := s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":1}]`, v)

	require.NoError(t, s.Delete(ctx, "cart"))
	_, ok, err = s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "store.json")

	s, err := OpenFile(path)
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "cart:abc", "payload"))
	require.NoError(t, s.Set(ctx, "cart:def", "other"))
	require.NoError(t, s.Delete(ctx, "cart:def"))

	// Reopen: state must survive the process.
	reopened, err := OpenFile(path)
	require.NoError(t, err)

	v, ok, err := reopened.Get(ctx, "cart:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "payload", v)

	_, ok, err = reopened.Get(ctx, "cart:def")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFile_MissingFileIsEmpty(t *testing.T) {
	s, err := OpenFile(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	_, ok, err := s.Get(context.Background(), "anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFile_CorruptFileIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := OpenFile(path)
	require.Error(t, err)
}
