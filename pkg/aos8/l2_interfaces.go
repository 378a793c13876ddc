package aos8

import (
	"fmt"
	"regexp"
	"strconv"

	"aos8ctl/pkg/parser"
	"aos8ctl/pkg/reconcile"
	"aos8ctl/pkg/render"
	"aos8ctl/pkg/resource"
)

// ShowVlanMembers lists every port and linkagg membership of every VLAN.
const ShowVlanMembers = "show vlan members"

// MaxLinkagg is the highest linkagg identifier.
const MaxLinkagg = 127

// L2InterfaceSchema is the attribute table of the l2_interfaces resource.
// A record is the membership of one port or linkagg in one VLAN.
var L2InterfaceSchema = resource.NewSchema("l2_interfaces",
	resource.Attribute{Name: "vlan_id", Type: resource.Int, Key: true, Min: 1, Max: 4094,
		Doc: "ID of the VLAN. Range 1-4094"},
	resource.Attribute{Name: "port_type", Type: resource.Choice, Key: true, Choices: []string{"port", "linkagg"},
		Doc: "The type of L2 interface"},
	resource.Attribute{Name: "port_number", Type: resource.String, Key: true, Min: 1,
		Doc: "The physical port number (chassis/slot/port) or logical linkagg number"},
	resource.Attribute{Name: "mode", Type: resource.Choice, Required: true, Choices: []string{"untagged", "tagged"}, Default: resource.Static("untagged"),
		Doc: "The type of encapsulation (802.1q or clear)"},
)

func init() {
	L2InterfaceSchema.Check = checkL2Interface
}

var physicalPort = regexp.MustCompile(`^\d+(/\d+){1,2}$`)

func checkL2Interface(r resource.Record) []string {
	kind, _ := r.Get("port_type")
	number, _ := r.Get("port_number")
	n := number.(string)
	switch kind {
	case "port":
		if !physicalPort.MatchString(n) {
			return []string{fmt.Sprintf("port_number %q must look like chassis/slot/port or slot/port", n)}
		}
	case "linkagg":
		id, err := strconv.Atoi(n)
		if err != nil || id < 0 || id > MaxLinkagg {
			return []string{fmt.Sprintf("port_number %q must be a linkagg id in range 0-%d", n, MaxLinkagg)}
		}
	}
	return nil
}

// Rows of show vlan members; linkaggs are listed as 0/<id>:
//
//	 vlan     port       type        status
//	--------+---------+-----------+-----------
//	   1      1/1/3     untagged    forwarding
//	  10      0/5       tagged      inactive
var memberRow = regexp.MustCompile(`^\s*(?P<vlan_id>\d+)\s+(?P<port>\d+(?:/\d+){1,2})\s+(?P<mode>untagged|tagged)\s+(?P<status>\S+)\s*$`)

// L2Interfaces is the l2_interfaces resource module.
var L2Interfaces = &reconcile.Module{
	Schema:      L2InterfaceSchema,
	ShowCommand: ShowVlanMembers,
	Parser: parser.Must(parser.New(L2InterfaceSchema, parser.Rule{
		Name:    "member",
		Pattern: memberRow,
		Result: map[string]string{
			"vlan_id":     `{{ .vlan_id }}`,
			"port_type":   `{{ if hasPrefix "0/" .port }}linkagg{{ else }}port{{ end }}`,
			"port_number": `{{ trimPrefix "0/" .port }}`,
			"mode":        `{{ .mode }}`,
		},
	})),
	Renderer: render.Must(render.New(L2InterfaceSchema, render.Templates{
		Attrs: map[string]string{
			"mode": `vlan {{ .vlan_id }} members {{ .port_type }} {{ .port_number }} {{ .value }}`,
		},
		Remove: `no vlan {{ .vlan_id }} members {{ .port_type }} {{ .port_number }}`,
	})),
}
