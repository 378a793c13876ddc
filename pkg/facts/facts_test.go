package facts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	assert.Equal(t, "show_vlan.txt", FileName("show vlan"))
	assert.Equal(t, "show_vlan_members.txt", FileName(" show  vlan members "))
}

func TestDirFetch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "show_vlan.txt"), []byte("1 std Ena Ena Dis 1500 VLAN 1\n"), 0o644))

	out, err := Dir(dir).Fetch(context.Background(), "show vlan")
	require.NoError(t, err)
	assert.Equal(t, "1 std Ena Ena Dis 1500 VLAN 1\n", out)

	_, err = Dir(dir).Fetch(context.Background(), "show vlan members")
	assert.ErrorIs(t, err, ErrNoOutput)
}

func TestDirFetchHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Dir(t.TempDir()).Fetch(ctx, "show vlan")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStaticFetch(t *testing.T) {
	src := Static{"show vlan": "text"}
	out, err := src.Fetch(context.Background(), "show vlan")
	require.NoError(t, err)
	assert.Equal(t, "text", out)

	_, err = src.Fetch(context.Background(), "show system")
	assert.ErrorIs(t, err, ErrNoOutput)
}
