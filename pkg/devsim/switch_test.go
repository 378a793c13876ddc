package devsim_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aos8ctl/pkg/aos8"
	"aos8ctl/pkg/devsim"
	"aos8ctl/pkg/reconcile"
	"aos8ctl/pkg/resource"
)

func TestFactoryState(t *testing.T) {
	sw := devsim.New()

	out, err := sw.Fetch(context.Background(), "show vlan")
	require.NoError(t, err)
	assert.Contains(t, out, "1      std       Ena     Dis   Dis    1500    VLAN 1\n")

	out, err = sw.Fetch(context.Background(), "show  vlan   members")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "\n"))

	_, err = sw.Fetch(context.Background(), "show ip interface")
	assert.ErrorContains(t, err, "Invalid entry")
}

func TestExecuteAppliesInOrder(t *testing.T) {
	sw := devsim.New()
	out, err := sw.Execute(context.Background(), []string{
		`vlan 10 name "Lab net"`,
		"vlan 10 mtu-ip 9000",
		"vlan 10 members port 1/1/3 tagged",
		"vlan 10 members linkagg 5 untagged",
		"write memory flash-synchro",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"", "", "", "", ""}, out)
	assert.True(t, sw.Saved())

	show, err := sw.Fetch(context.Background(), "show vlan")
	require.NoError(t, err)
	assert.Contains(t, show, "10     std       Ena     Dis   Dis    9000    Lab net\n")

	members, err := sw.Fetch(context.Background(), "show vlan members")
	require.NoError(t, err)
	assert.Contains(t, members, "   10     0/5       untagged    inactive\n")
	assert.Contains(t, members, "   10     1/1/3     tagged      inactive\n")
}

func TestExecuteStopsAtFirstRejectedCommand(t *testing.T) {
	sw := devsim.New()
	out, err := sw.Execute(context.Background(), []string{
		"vlan 20",
		"vlan 30 members port 1/1/1 untagged",
		"vlan 40",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `command 2 "vlan 30 members port 1/1/1 untagged"`)
	assert.Contains(t, err.Error(), "VLAN 30 does not exist")
	assert.Len(t, out, 1)

	show, err := sw.Fetch(context.Background(), "show vlan")
	require.NoError(t, err)
	assert.Contains(t, show, "VLAN 20")
	assert.NotContains(t, show, "VLAN 40")
}

func TestDeviceRejections(t *testing.T) {
	for _, cmd := range []string{
		"no vlan 1",
		"no vlan 77",
		"no vlan 1 members port 1/1/1",
		"vlan 5 mtu-ip 100",
		"vlan 5 speed 10",
	} {
		_, err := devsim.New().Execute(context.Background(), []string{cmd})
		assert.Error(t, err, cmd)
	}
}

func TestRemovingVlanDropsItsMembers(t *testing.T) {
	sw := devsim.New()
	_, err := sw.Execute(context.Background(), []string{
		"vlan 10",
		"vlan 10 members port 1/1/3 tagged",
		"vlan 1 members port 1/1/4 untagged",
		"no vlan 10",
	})
	require.NoError(t, err)

	members, err := sw.Fetch(context.Background(), "show vlan members")
	require.NoError(t, err)
	assert.NotContains(t, members, "1/1/3")
	assert.Contains(t, members, "1/1/4")
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lab.yaml")
	sw := devsim.New()
	_, err := sw.Execute(context.Background(), []string{"vlan 33 name Vlan_33", "vlan 33 members linkagg 2 tagged"})
	require.NoError(t, err)
	require.NoError(t, sw.Save(path))

	loaded, err := devsim.Load(path)
	require.NoError(t, err)
	for _, cmd := range []string{"show vlan", "show vlan members"} {
		want, _ := sw.Fetch(context.Background(), cmd)
		got, err := loaded.Fetch(context.Background(), cmd)
		require.NoError(t, err)
		assert.Equal(t, want, got, cmd)
	}

	_, err = loaded.Execute(context.Background(), []string{"vlan 33 mtu-ip 9000"})
	require.NoError(t, err)
	show, err := loaded.Fetch(context.Background(), "show vlan")
	require.NoError(t, err)
	assert.Contains(t, show, "1500    VLAN 1\n")
	assert.Contains(t, show, "9000    Vlan_33\n")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := devsim.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := devsim.New().Fetch(ctx, "show vlan")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = devsim.New().Execute(ctx, []string{"vlan 2"})
	assert.ErrorIs(t, err, context.Canceled)
}

// apply runs one invocation against sw, executes its commands and returns
// the result together with what a fresh gather reports afterwards.
func apply(t *testing.T, sw *devsim.Switch, m *reconcile.Module, req reconcile.Request) (reconcile.Result, resource.RecordSet) {
	t.Helper()
	ctx := context.Background()
	res, err := m.Run(ctx, req, reconcile.WithSource(sw))
	require.NoError(t, err)
	_, err = sw.Execute(ctx, res.Commands)
	require.NoError(t, err)
	gathered, err := m.Run(ctx, reconcile.Request{State: resource.Gathered}, reconcile.WithSource(sw))
	require.NoError(t, err)
	return res, gathered.Gathered
}

func TestAfterMatchesRegather(t *testing.T) {
	sw := devsim.New()
	steps := []struct {
		module *reconcile.Module
		req    reconcile.Request
	}{
		{aos8.Vlans, reconcile.Request{State: resource.Merged, Config: []map[string]any{
			{"vlan_id": 33, "name": "Vlan 33", "admin": "enable", "mtu": 1280},
			{"vlan_id": 99, "name": "Vlan_99", "admin": "disable"},
			{"vlan_id": 100},
		}}},
		{aos8.L2Interfaces, reconcile.Request{State: resource.Merged, Config: []map[string]any{
			{"vlan_id": 33, "port_type": "port", "port_number": "1/1/3", "mode": "tagged"},
			{"vlan_id": 99, "port_type": "linkagg", "port_number": 7, "mode": "untagged"},
		}}},
		{aos8.Vlans, reconcile.Request{State: resource.Replaced, Config: []map[string]any{
			{"vlan_id": 99, "name": "Vlan_99"},
		}}},
		{aos8.L2Interfaces, reconcile.Request{State: resource.Overridden, Config: []map[string]any{
			{"vlan_id": 33, "port_type": "port", "port_number": "1/1/3", "mode": "untagged"},
		}}},
		{aos8.Vlans, reconcile.Request{State: resource.Overridden, Config: []map[string]any{
			{"vlan_id": 1, "name": "VLAN 1"},
			{"vlan_id": 33, "name": "Vlan 33", "mtu": 1280},
		}}},
		{aos8.Vlans, reconcile.Request{State: resource.Deleted, Config: []map[string]any{
			{"vlan_id": 33},
		}}},
	}
	for i, step := range steps {
		res, gathered := apply(t, sw, step.module, step.req)
		assert.True(t, res.Changed, "step %d", i)
		assert.True(t, res.After.Equal(gathered), "step %d: after %v, gathered %v", i, res.After.Records(), gathered.Records())

		again, err := step.module.Run(context.Background(), step.req, reconcile.WithSource(sw))
		require.NoError(t, err)
		assert.Empty(t, again.Commands, "step %d is not idempotent", i)
	}
}

func TestVlanNamesRoundTrip(t *testing.T) {
	sw := devsim.New()
	req := reconcile.Request{State: resource.Merged, Config: []map[string]any{
		{"vlan_id": 5, "name": "lab  net"},
	}}
	res, gathered := apply(t, sw, aos8.Vlans, req)
	assert.True(t, res.After.Equal(gathered), "after %v, gathered %v", res.After.Records(), gathered.Records())
	again, err := aos8.Vlans.Run(context.Background(), req, reconcile.WithSource(sw))
	require.NoError(t, err)
	assert.Empty(t, again.Commands)

	_, err = aos8.Vlans.Run(context.Background(), reconcile.Request{State: resource.Merged, Config: []map[string]any{
		{"vlan_id": 5, "name": " lab "},
	}}, reconcile.WithSource(sw))
	assert.ErrorContains(t, err, `must not start or end with whitespace`)
}

func TestRenderedCommandsRebuildTheConfig(t *testing.T) {
	config := []map[string]any{
		{"vlan_id": 12, "name": "it's a lab"},
		{"vlan_id": 40, "admin": "disable", "mtu": 9198},
	}
	res, err := aos8.Vlans.Run(context.Background(), reconcile.Request{State: resource.Rendered, Config: config})
	require.NoError(t, err)

	sw := devsim.New()
	_, err = sw.Execute(context.Background(), res.Rendered)
	require.NoError(t, err)

	show, err := sw.Fetch(context.Background(), aos8.ShowVlan)
	require.NoError(t, err)
	parsed, err := aos8.Vlans.Parser.Parse(show)
	require.NoError(t, err)

	twelve, ok := parsed.Get("12")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"vlan_id": 12, "name": "it's a lab", "admin": "enable", "mtu": 1500}, twelve.Fields())
	forty, ok := parsed.Get("40")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"vlan_id": 40, "name": "VLAN 40", "admin": "disable", "mtu": 9198}, forty.Fields())
}

func TestSeed(t *testing.T) {
	vlans, err := aos8.VlanSchema.Desired([]map[string]any{{"vlan_id": 10, "name": "ten"}}, resource.Merged)
	require.NoError(t, err)
	members, err := aos8.L2InterfaceSchema.Desired([]map[string]any{
		{"vlan_id": 10, "port_type": "port", "port_number": "1/1/1", "mode": "tagged"},
	}, resource.Merged)
	require.NoError(t, err)

	sw, err := devsim.Seed(vlans, members)
	require.NoError(t, err)
	show, err := sw.Fetch(context.Background(), "show vlan")
	require.NoError(t, err)
	assert.Contains(t, show, "10     std       Ena     Ena   Dis    1500    ten\n")

	orphan, err := aos8.L2InterfaceSchema.Desired([]map[string]any{
		{"vlan_id": 20, "port_type": "port", "port_number": "1/1/1", "mode": "tagged"},
	}, resource.Merged)
	require.NoError(t, err)
	_, err = devsim.Seed(vlans, orphan)
	assert.ErrorContains(t, err, "unknown vlan 20")
}
