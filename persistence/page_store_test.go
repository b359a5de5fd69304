package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nguyenkhacvan/uggo-new/lcu"
)

func newTestStore(t *testing.T) *SQLitePageStore {
	t.Helper()
	store, err := NewSQLitePageStore(filepath.Join(t.TempDir(), "data", "pages.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPageStoreSaveLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	backup := &PageBackup{
		Summoner: "Faker#KR1",
		Reason:   BackupReasonDelete,
		Page: lcu.RunePage{
			ID:              42,
			Name:            "Conqueror",
			PrimaryStyleID:  8000,
			SubStyleID:      8400,
			SelectedPerkIDs: []int64{8010, 9111, 9104, 8299, 8444, 8242},
		},
	}
	require.NoError(t, store.Save(ctx, backup))
	require.NotEmpty(t, backup.ID)
	require.False(t, backup.CreatedAt.IsZero())

	loaded, ok, err := store.Load(ctx, backup.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, backup.Page, loaded.Page)
	require.Equal(t, "Faker#KR1", loaded.Summoner)
	require.Equal(t, BackupReasonDelete, loaded.Reason)
	require.True(t, backup.CreatedAt.Equal(loaded.CreatedAt))
}

func TestPageStoreLoadMissing(t *testing.T) {
	store := newTestStore(t)
	loaded, ok, err := store.Load(context.Background(), "nope")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, loaded)
}

func TestPageStoreListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"old", "middle", "new"} {
		require.NoError(t, store.Save(ctx, &PageBackup{
			Page:      lcu.RunePage{ID: int64(i + 1), Name: name},
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	backups, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 3)
	require.Equal(t, "new", backups[0].Page.Name)
	require.Equal(t, "old", backups[2].Page.Name)
	require.Equal(t, BackupReasonExport, backups[1].Reason)
}

func TestPageStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	backup := &PageBackup{Page: lcu.RunePage{ID: 1, Name: "gone"}}
	require.NoError(t, store.Save(ctx, backup))
	require.NoError(t, store.Delete(ctx, backup.ID))
	backups, err := store.List(ctx)
	require.NoError(t, err)
	require.Empty(t, backups)
}

func TestPageStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.db")
	store, err := NewSQLitePageStore(path)
	require.NoError(t, err)
	backup := &PageBackup{Page: lcu.RunePage{ID: 7, Name: "kept"}}
	require.NoError(t, store.Save(context.Background(), backup))
	require.NoError(t, store.Close())

	reopened, err := NewSQLitePageStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	loaded, ok, err := reopened.Load(context.Background(), backup.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "kept", loaded.Page.Name)
}
