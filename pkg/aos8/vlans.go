package aos8

import (
	"fmt"
	"regexp"
	"strings"

	"aos8ctl/pkg/parser"
	"aos8ctl/pkg/reconcile"
	"aos8ctl/pkg/render"
	"aos8ctl/pkg/resource"
)

// ShowVlan lists every VLAN with its admin state, MTU and name.
const ShowVlan = "show vlan"

// VlanSchema is the attribute table of the vlans resource.
var VlanSchema = resource.NewSchema("vlans",
	resource.Attribute{Name: "vlan_id", Type: resource.Int, Key: true, Min: 1, Max: 4094,
		Doc: "ID of the VLAN. Range 1-4094"},
	resource.Attribute{Name: "name", Type: resource.String, Min: 1, Max: 32, Default: defaultVlanName,
		Doc: "Ascii name of the VLAN. Must not be or end with \"default\", which is reserved for device default VLANs"},
	resource.Attribute{Name: "admin", Type: resource.Choice, Choices: []string{"enable", "disable"}, Default: resource.Static("enable"),
		Doc: "Administration state of the VLAN"},
	resource.Attribute{Name: "mtu", Type: resource.Int, Min: 1280, Max: 9198, Default: resource.Static(1500),
		Doc: "VLAN IP maximum transmission unit"},
)

func init() {
	VlanSchema.Check = checkVlan
}

func defaultVlanName(r resource.Record) any {
	id, _ := r.Get("vlan_id")
	return fmt.Sprintf("VLAN %d", id)
}

func checkVlan(r resource.Record) []string {
	name, ok := r.Get("name")
	if !ok {
		return nil
	}
	var problems []string
	s := name.(string)
	// show vlan pads the name column, so surrounding blanks never read back.
	if strings.TrimSpace(s) != s {
		problems = append(problems, fmt.Sprintf("name %q must not start or end with whitespace", s))
	}
	if strings.HasSuffix(strings.ToLower(strings.TrimSpace(s)), "default") {
		problems = append(problems, fmt.Sprintf("name %q is reserved for device default VLANs", s))
	}
	return problems
}

// Rows of show vlan:
//
//	 vlan    type   admin   oper    ip    mtu          name
//	------+-------+-------+------+------+------+------------------
//	1      std       Ena     Ena   Ena    1500    MGNT
var vlanRow = regexp.MustCompile(`^\s*(?P<vlan_id>\d+)\s+(?P<type>std)\s+(?P<admin>Ena|Dis)\s+(?P<oper>Ena|Dis)\s+(?P<ip>Ena|Dis)\s+(?P<mtu>\d+)\s+(?P<name>.*?)\s*$`)

// Vlans is the vlans resource module.
var Vlans = &reconcile.Module{
	Schema:      VlanSchema,
	ShowCommand: ShowVlan,
	Parser: parser.Must(parser.New(VlanSchema, parser.Rule{
		Name:    "vlan_id",
		Pattern: vlanRow,
		Result: map[string]string{
			"vlan_id": `{{ .vlan_id }}`,
			"name":    `{{ .name }}`,
			"admin":   `{{ if eq .admin "Ena" }}enable{{ else }}disable{{ end }}`,
			"mtu":     `{{ .mtu }}`,
		},
	})),
	Renderer: render.Must(render.New(VlanSchema, render.Templates{
		Attrs: map[string]string{
			"name":  `vlan {{ .vlan_id }} name {{ cliquote .value }}`,
			"admin": `vlan {{ .vlan_id }} admin-state {{ .value }}`,
			"mtu":   `vlan {{ .vlan_id }} mtu-ip {{ .value }}`,
		},
		Remove: `no vlan {{ .vlan_id }}`,
	})),
}
