package sink

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterMarksRemovals(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer

	out, err := Writer{W: &buf}.Execute(context.Background(), []string{"no vlan 99", "vlan 33 mtu-ip 1280"})
	require.NoError(t, err)

	assert.Equal(t, []string{"", ""}, out)
	assert.Equal(t, "🗑️  no vlan 99\n➕ vlan 33 mtu-ip 1280\n", buf.String())
}

func TestWriterStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer

	_, err := Writer{W: &buf}.Execute(ctx, []string{"vlan 2"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}

func TestDiscard(t *testing.T) {
	out, err := Discard{}.Execute(context.Background(), []string{"vlan 2", "vlan 3"})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

type recorder struct {
	got [][]string
	err error
}

func (r *recorder) Execute(_ context.Context, commands []string) ([]string, error) {
	r.got = append(r.got, commands)
	if r.err != nil {
		return nil, r.err
	}
	return []string{"ok"}, nil
}

func TestTee(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	out, err := Tee{a, b}.Execute(context.Background(), []string{"vlan 2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, out)
	assert.Equal(t, [][]string{{"vlan 2"}}, b.got)

	boom := errors.New("boom")
	c := &recorder{}
	_, err = Tee{&recorder{err: boom}, c}.Execute(context.Background(), []string{"vlan 2"})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, c.got)
}
