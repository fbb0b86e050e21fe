package session

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/bililive/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/bililive/internal/client/storage"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLitePersistence_PlainRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := storage.OpenDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	p := NewSQLitePersistence(db, nil)

	got, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	saved, err := p.SavedAt(ctx)
	require.NoError(t, err)
	assert.True(t, saved.IsZero())

	s := sampleSession()
	require.NoError(t, p.Save(ctx, s))

	saved, err = p.SavedAt(ctx)
	require.NoError(t, err)
	assert.False(t, saved.IsZero())

	got, err = p.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	if diff := cmp.Diff(s, *got); diff != "" {
		t.Fatalf("session mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, p.Delete(ctx))
	got, err = p.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLitePersistence_SealedRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := storage.OpenDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	p := NewSQLitePersistence(db, []byte("hunter2"))
	s := sampleSession()
	require.NoError(t, p.Save(ctx, s))

	raw, err := metadata.NewSQLiteRepository(db).Get(ctx, keyBlob)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "SESSDATA")

	got, err := p.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, s.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, s.Cookies, got.Cookies)

	_, err = NewSQLitePersistence(db, nil).Load(ctx)
	require.ErrorIs(t, err, ErrPassphraseRequired)

	_, err = NewSQLitePersistence(db, []byte("wrong")).Load(ctx)
	require.Error(t, err)

	locked := NewSQLitePersistence(db, nil)
	locked.SetPassphrase([]byte("hunter2"))
	got, err = locked.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.UID, got.UID)
}

func TestSQLitePersistence_WithStore(t *testing.T) {
	ctx := context.Background()
	db, err := storage.OpenDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	first := newTestStore(NewSQLitePersistence(db, nil))
	require.NoError(t, first.Put(ctx, sampleSession()))

	second := newTestStore(NewSQLitePersistence(db, nil))
	ok, err := second.Restore(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}
