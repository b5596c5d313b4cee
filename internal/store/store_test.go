package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()
	dir := t.TempDir()

	fileKV, err := NewFileKV(filepath.Join(dir, "state"))
	require.NoError(t, err)
	sqliteKV, err := NewSQLiteKV(filepath.Join(dir, "state.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		fileKV.Close()
		sqliteKV.Close()
	})
	return map[string]KV{"file": fileKV, "sqlite": sqliteKV}
}

func TestKV_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := kv.Get(ctx, "hactState")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, kv.Put(ctx, "hactState", []byte(`{"a":1}`)))
			got, err := kv.Get(ctx, "hactState")
			require.NoError(t, err)
			assert.Equal(t, `{"a":1}`, string(got))

			require.NoError(t, kv.Put(ctx, "hactState", []byte(`{"a":2}`)))
			got, err = kv.Get(ctx, "hactState")
			require.NoError(t, err)
			assert.Equal(t, `{"a":2}`, string(got))

			require.NoError(t, kv.Delete(ctx, "hactState"))
			_, err = kv.Get(ctx, "hactState")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, kv.Delete(ctx, "hactState"), ErrNotFound)
		})
	}
}

func TestKV_RejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
				assert.Error(t, kv.Put(ctx, key, []byte("x")), "key %q", key)
			}
		})
	}
}

func TestKV_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					assert.NoError(t, kv.Put(ctx, "shared", []byte(fmt.Sprintf(`{"writer":%d}`, i))))
				}(i)
			}
			wg.Wait()

			got, err := kv.Get(ctx, "shared")
			require.NoError(t, err)
			assert.Regexp(t, `^\{"writer":\d\}$`, string(got))
		})
	}
}

func TestFileKV_CancelledContext(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, kv.Put(ctx, "k", []byte("v")), context.Canceled)
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileKV_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)

	require.NoError(t, kv.Put(context.Background(), "hactState", []byte("{}")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
	assert.FileExists(t, filepath.Join(dir, "hactState.json"))
}

func TestSQLiteKV_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	ctx := context.Background()

	kv, err := NewSQLiteKV(path)
	require.NoError(t, err)
	require.NoError(t, kv.Put(ctx, "hactState", []byte("persisted")))
	require.NoError(t, kv.Close())

	kv, err = NewSQLiteKV(path)
	require.NoError(t, err)
	defer kv.Close()

	got, err := kv.Get(ctx, "hactState")
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(got))
}

func TestOpen(t *testing.T) {
	home := t.TempDir()

	kv, err := Open("", "", home)
	require.NoError(t, err)
	assert.IsType(t, &FileKV{}, kv)
	assert.Equal(t, filepath.Join(home, "state"), kv.(*FileKV).Dir())

	kv, err = Open(BackendSQLite, "", home)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteKV{}, kv)
	kv.Close()
	assert.FileExists(t, filepath.Join(home, "state.db"))

	_, err = Open("redis", "", home)
	assert.ErrorContains(t, err, "unknown store backend")
}
