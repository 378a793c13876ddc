package diff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aos8ctl/pkg/aos8"
	"aos8ctl/pkg/diff"
	"aos8ctl/pkg/resource"
)

func vlans(t *testing.T, rows ...map[string]any) resource.RecordSet {
	t.Helper()
	records := make([]resource.Record, 0, len(rows))
	for _, row := range rows {
		r, err := aos8.VlanSchema.NewRecord(row)
		require.NoError(t, err)
		records = append(records, r)
	}
	rs, err := resource.NewRecordSet(aos8.VlanSchema, records...)
	require.NoError(t, err)
	return rs
}

func vlan(id int, name, admin string, mtu int) map[string]any {
	return map[string]any{"vlan_id": id, "name": name, "admin": admin, "mtu": mtu}
}

func TestMergedAddsMissingKeysInDesiredOrder(t *testing.T) {
	desired := vlans(t,
		map[string]any{"vlan_id": 99, "name": "Vlan_99"},
		vlan(33, "Vlan_33", "enable", 1280),
	)
	observed := vlans(t, vlan(1, "MGNT", "enable", 1500))

	res := diff.Diff(desired, observed, resource.Merged)

	assert.Equal(t, []resource.Key{"99", "33"}, diff.Keys(res.ToAdd))
	assert.Empty(t, res.ToRemove)
	assert.Empty(t, res.ToChange)
	assert.False(t, res.Empty())
}

func TestMergedIgnoresUnspecifiedAttributes(t *testing.T) {
	desired := vlans(t, map[string]any{"vlan_id": 33, "mtu": 9000})
	observed := vlans(t, vlan(33, "Vlan_33", "disable", 1500))

	res := diff.Diff(desired, observed, resource.Merged)

	require.Len(t, res.ToChange, 1)
	assert.Equal(t, []string{"mtu"}, res.ToChange[0].Attrs)
	assert.False(t, res.ToChange[0].Desired.Has("admin"))
}

func TestReplacedResetsOmittedAttributesToDefaults(t *testing.T) {
	desired := vlans(t, map[string]any{"vlan_id": 33, "name": "Vlan_33"})
	observed := vlans(t, vlan(33, "Vlan_33", "disable", 9000))

	res := diff.Diff(desired, observed, resource.Replaced)

	require.Len(t, res.ToChange, 1)
	c := res.ToChange[0]
	assert.Equal(t, []string{"admin", "mtu"}, c.Attrs)
	mtu, _ := c.Desired.Get("mtu")
	assert.Equal(t, 1500, mtu)
	assert.Empty(t, res.ToRemove)
}

func TestOverriddenRemovesUnlistedKeysInKeyOrder(t *testing.T) {
	desired := vlans(t, vlan(33, "Vlan_33", "enable", 1280))
	observed := vlans(t,
		vlan(99, "Vlan_99", "enable", 1500),
		vlan(1, "MGNT", "enable", 1500),
		vlan(33, "Vlan_33", "enable", 1280),
	)

	res := diff.Diff(desired, observed, resource.Overridden)

	assert.Equal(t, []resource.Key{"1", "99"}, diff.Keys(res.ToRemove))
	assert.Empty(t, res.ToAdd)
	assert.Empty(t, res.ToChange)
}

func TestDeletedOnlyRemovesObservedKeys(t *testing.T) {
	desired := vlans(t, map[string]any{"vlan_id": 99}, map[string]any{"vlan_id": 7}, map[string]any{"vlan_id": 33})
	observed := vlans(t, vlan(33, "Vlan_33", "enable", 1280), vlan(99, "Vlan_99", "enable", 1500))

	res := diff.Diff(desired, observed, resource.Deleted)

	assert.Equal(t, []resource.Key{"99", "33"}, diff.Keys(res.ToRemove))
	assert.Empty(t, res.ToAdd)
}

func TestDeletedWithoutConfigRemovesEverything(t *testing.T) {
	observed := vlans(t, vlan(99, "Vlan_99", "enable", 1500), vlan(1, "MGNT", "enable", 1500))

	res := diff.Diff(resource.Empty(aos8.VlanSchema), observed, resource.Deleted)

	assert.Equal(t, []resource.Key{"1", "99"}, diff.Keys(res.ToRemove))
}

func TestRenderedIgnoresObserved(t *testing.T) {
	desired := vlans(t, vlan(33, "Vlan_33", "enable", 1280))
	observed := vlans(t, vlan(33, "Vlan_33", "enable", 1280))

	res := diff.Diff(desired, observed, resource.Rendered)

	assert.Equal(t, []resource.Key{"33"}, diff.Keys(res.ToAdd))
	assert.Empty(t, res.ToChange)
}

func TestReadOnlyStatesProduceNothing(t *testing.T) {
	observed := vlans(t, vlan(1, "MGNT", "enable", 1500))
	for _, st := range []resource.State{resource.Gathered, resource.Parsed} {
		assert.True(t, diff.Diff(resource.Empty(aos8.VlanSchema), observed, st).Empty(), st)
	}
}

func TestIdenticalSetsHaveNoDifference(t *testing.T) {
	set := vlans(t, vlan(1, "MGNT", "enable", 1500), vlan(33, "Vlan_33", "disable", 1280))
	for _, st := range []resource.State{resource.Merged, resource.Replaced, resource.Overridden} {
		assert.True(t, diff.Diff(set, set, st).Empty(), st)
	}
}

func TestAttrsFollowSchemaOrder(t *testing.T) {
	d, err := aos8.VlanSchema.NewRecord(map[string]any{"mtu": 9000, "vlan_id": 5, "name": "five"})
	require.NoError(t, err)
	o, err := aos8.VlanSchema.NewRecord(vlan(5, "VLAN 5", "enable", 1500))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "mtu"}, diff.Attrs(d, o))
}
