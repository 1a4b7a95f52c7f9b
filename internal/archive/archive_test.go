package archive

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndGet(t *testing.T) {
	s, err := Open(":memory:", 5)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	id, err := s.Save(ctx, "en", "general-error", []byte(`[{"what_type": "x"}]`))
	require.NoError(t, err)
	assert.Len(t, id, 36)

	p, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "en", p.Language)
	assert.Equal(t, "general-error", p.Reason)
	assert.Equal(t, `[{"what_type": "x"}]`, string(p.Data))
	assert.False(t, p.CreatedAt.IsZero())

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStore_Retention(t *testing.T) {
	s, err := Open(":memory:", 3)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.Save(ctx, "en", "general-error", []byte(fmt.Sprintf("payload-%d", i)))
		require.NoError(t, err)
	}

	payloads, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, payloads, 3)
	assert.Equal(t, "payload-4", string(payloads[0].Data))
	assert.Equal(t, "payload-2", string(payloads[2].Data))
}

func TestStore_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "payloads.db")

	s, err := Open(path, 0)
	require.NoError(t, err)
	_, err = s.Save(context.Background(), "fi", "panic", []byte("{}"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path, 0)
	require.NoError(t, err)
	defer reopened.Close()

	payloads, err := reopened.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, payloads, 1)
	assert.Equal(t, DefaultMaxPayloads, reopened.maxPayloads)
}
