package capability

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famledger/internal/logger"
	"famledger/models"
)

func TestPick_EmptyLocationIsCancellation(t *testing.T) {
	p := NewOSFileProvider(logger.Nop())

	_, _, err := p.Pick(context.Background(), PickRequest{})
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestPick_CreatesFileAndDescriptor(t *testing.T) {
	p := NewOSFileProvider(logger.Nop())
	path := filepath.Join(t.TempDir(), "family.ffsync")

	handle, descriptor, err := p.Pick(context.Background(), PickRequest{Location: path, Create: true})
	require.NoError(t, err)

	assert.NotEmpty(t, descriptor.ID)
	assert.Equal(t, OSFileKind, descriptor.Kind)
	assert.Equal(t, "family.ffsync", descriptor.DisplayName)
	assert.Equal(t, models.ScopeReadWrite, descriptor.Scope)
	assert.Equal(t, "family.ffsync", handle.DisplayName())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestPick_MissingFileWithoutCreateFails(t *testing.T) {
	p := NewOSFileProvider(logger.Nop())
	path := filepath.Join(t.TempDir(), "nope.ffsync")

	_, _, err := p.Pick(context.Background(), PickRequest{Location: path})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCancelled)
}

func TestRestore_RejectsForeignKind(t *testing.T) {
	p := NewOSFileProvider(logger.Nop())

	_, err := p.Restore(models.Capability{Kind: "icloud-drive", Location: "/x"})
	assert.Error(t, err)
}

func TestHandle_WriteThenRead_RoundTrip(t *testing.T) {
	p := NewOSFileProvider(logger.Nop())
	path := filepath.Join(t.TempDir(), "data.ffsync")

	handle, _, err := p.Pick(context.Background(), PickRequest{Location: path, Create: true})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, handle.Write(ctx, []byte("snapshot-v1")))

	got, err := handle.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("snapshot-v1"), got)

	// overwrite is a full replace
	require.NoError(t, handle.Write(ctx, []byte("v2")))
	got, err = handle.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHandle_ScopeRevocation(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits do not bind root")
	}

	p := NewOSFileProvider(logger.Nop())
	path := filepath.Join(t.TempDir(), "data.ffsync")

	handle, _, err := p.Pick(context.Background(), PickRequest{Location: path, Create: true})
	require.NoError(t, err)
	require.Equal(t, models.ScopeReadWrite, handle.CurrentScope())

	// drop write permission out from under the handle
	require.NoError(t, os.Chmod(path, 0o400))
	assert.Equal(t, models.ScopeRead, handle.CurrentScope())
	assert.ErrorIs(t, handle.Write(context.Background(), []byte("x")), ErrNoScope)

	granted, err := handle.RequestScope(context.Background(), models.ScopeReadWrite)
	require.NoError(t, err)
	assert.False(t, granted)

	// deleting the file revokes everything
	require.NoError(t, os.Chmod(path, 0o600))
	require.NoError(t, os.Remove(path))
	assert.Equal(t, models.ScopeNone, handle.CurrentScope())
}

func TestHandle_ContextCancellation(t *testing.T) {
	p := NewOSFileProvider(logger.Nop())
	path := filepath.Join(t.TempDir(), "data.ffsync")

	handle, _, err := p.Pick(context.Background(), PickRequest{Location: path, Create: true})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = handle.Read(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, handle.Write(ctx, []byte("x")), context.Canceled)
}
