// Package devsim emulates the parts of an AOS8 switch the resource modules
// touch: the VLAN table and VLAN port memberships. A Switch answers show
// commands like a facts.Source and applies configuration commands like a
// sink.Sink, which makes it a stand-in device for labs and tests.
package devsim

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"aos8ctl/pkg/resource"
)

// Vlan is one row of the VLAN table.
type Vlan struct {
	ID    int    `yaml:"id"`
	Name  string `yaml:"name"`
	Admin string `yaml:"admin"`
	MTU   int    `yaml:"mtu"`
}

// Member is the membership of a port or linkagg in a VLAN.
type Member struct {
	Vlan     int    `yaml:"vlan"`
	PortType string `yaml:"port_type"`
	Port     string `yaml:"port"`
	Mode     string `yaml:"mode"`
	// Status is what show vlan members reports; new memberships are inactive.
	Status string `yaml:"status,omitempty"`
}

// Switch is an in-memory device. It is safe for concurrent use.
type Switch struct {
	mu      sync.Mutex
	vlans   map[int]*Vlan
	members []Member
	saved   bool
}

type state struct {
	Vlans   []Vlan   `yaml:"vlans"`
	Members []Member `yaml:"members,omitempty"`
}

// New returns a switch in factory state: only the default VLAN 1.
func New() *Switch {
	sw := &Switch{vlans: map[int]*Vlan{}}
	sw.vlans[1] = newVlan(1)
	return sw
}

func newVlan(id int) *Vlan {
	return &Vlan{ID: id, Name: fmt.Sprintf("VLAN %d", id), Admin: "enable", MTU: 1500}
}

// Load reads a lab file written by Save.
func Load(path string) (*Switch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var st state
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing lab %s: %w", path, err)
	}
	sw := &Switch{vlans: map[int]*Vlan{}}
	for i := range st.Vlans {
		sw.vlans[st.Vlans[i].ID] = &st.Vlans[i]
	}
	for _, m := range st.Members {
		if _, ok := sw.vlans[m.Vlan]; !ok {
			return nil, fmt.Errorf("lab %s: member %s %s references unknown vlan %d", path, m.PortType, m.Port, m.Vlan)
		}
		if m.Status == "" {
			m.Status = "inactive"
		}
		sw.members = append(sw.members, m)
	}
	return sw, nil
}

// Save writes the switch state as YAML.
func (sw *Switch) Save(path string) error {
	sw.mu.Lock()
	st := state{Vlans: sw.sortedVlans(), Members: sw.sortedMembers()}
	sw.mu.Unlock()
	data, err := yaml.Marshal(st)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Saved reports whether a write memory command was received.
func (sw *Switch) Saved() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.saved
}

// Fetch answers show vlan and show vlan members.
func (sw *Switch) Fetch(ctx context.Context, command string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sw.mu.Lock()
	defer sw.mu.Unlock()
	switch strings.Join(strings.Fields(command), " ") {
	case "show vlan":
		return sw.showVlan(), nil
	case "show vlan members":
		return sw.showMembers(), nil
	}
	return "", fmt.Errorf("ERROR: Invalid entry: %q", command)
}

// Execute applies commands in order and stops at the first rejected one.
// Configuration commands print nothing, so every output is empty.
func (sw *Switch) Execute(ctx context.Context, commands []string) ([]string, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	outputs := make([]string, 0, len(commands))
	for i, c := range commands {
		if err := ctx.Err(); err != nil {
			return outputs, err
		}
		if err := sw.apply(strings.TrimSpace(c)); err != nil {
			return outputs, fmt.Errorf("command %d %q: %w", i+1, c, err)
		}
		outputs = append(outputs, "")
	}
	return outputs, nil
}

type handler struct {
	pattern *regexp.Regexp
	apply   func(sw *Switch, m []string) error
}

var handlers = []handler{
	{regexp.MustCompile(`^vlan (\d+)$`), func(sw *Switch, m []string) error {
		sw.vlan(atoi(m[1]))
		return nil
	}},
	{regexp.MustCompile(`^vlan (\d+) name (.+)$`), func(sw *Switch, m []string) error {
		name := m[2]
		if strings.HasPrefix(name, `"`) {
			unq, err := strconv.Unquote(name)
			if err != nil {
				return fmt.Errorf("ERROR: bad name %s", name)
			}
			name = unq
		}
		sw.vlan(atoi(m[1])).Name = name
		return nil
	}},
	{regexp.MustCompile(`^vlan (\d+) admin-state (enable|disable)$`), func(sw *Switch, m []string) error {
		sw.vlan(atoi(m[1])).Admin = m[2]
		return nil
	}},
	{regexp.MustCompile(`^vlan (\d+) mtu-ip (\d+)$`), func(sw *Switch, m []string) error {
		mtu := atoi(m[2])
		if mtu < 1280 || mtu > 9198 {
			return fmt.Errorf("ERROR: mtu-ip %d out of range 1280-9198", mtu)
		}
		sw.vlan(atoi(m[1])).MTU = mtu
		return nil
	}},
	{regexp.MustCompile(`^no vlan (\d+)$`), func(sw *Switch, m []string) error {
		id := atoi(m[1])
		if id == 1 {
			return fmt.Errorf("ERROR: VLAN 1 is the default VLAN and cannot be deleted")
		}
		if _, ok := sw.vlans[id]; !ok {
			return fmt.Errorf("ERROR: VLAN %d does not exist", id)
		}
		delete(sw.vlans, id)
		sw.members = slices.DeleteFunc(sw.members, func(mb Member) bool { return mb.Vlan == id })
		return nil
	}},
	{regexp.MustCompile(`^vlan (\d+) members (port|linkagg) (\S+) (untagged|tagged)$`), func(sw *Switch, m []string) error {
		id := atoi(m[1])
		if _, ok := sw.vlans[id]; !ok {
			return fmt.Errorf("ERROR: VLAN %d does not exist", id)
		}
		if i := sw.member(id, m[2], m[3]); i >= 0 {
			sw.members[i].Mode = m[4]
			return nil
		}
		sw.members = append(sw.members, Member{Vlan: id, PortType: m[2], Port: m[3], Mode: m[4], Status: "inactive"})
		return nil
	}},
	{regexp.MustCompile(`^no vlan (\d+) members (port|linkagg) (\S+)$`), func(sw *Switch, m []string) error {
		i := sw.member(atoi(m[1]), m[2], m[3])
		if i < 0 {
			return fmt.Errorf("ERROR: %s %s is not a member of VLAN %s", m[2], m[3], m[1])
		}
		sw.members = slices.Delete(sw.members, i, i+1)
		return nil
	}},
	{regexp.MustCompile(`^write memory( flash-synchro)?$`), func(sw *Switch, _ []string) error {
		sw.saved = true
		return nil
	}},
}

func (sw *Switch) apply(command string) error {
	for _, h := range handlers {
		if m := h.pattern.FindStringSubmatch(command); m != nil {
			return h.apply(sw, m)
		}
	}
	return fmt.Errorf("ERROR: Invalid entry: %q", command)
}

// vlan returns the VLAN, creating it with factory defaults when absent.
func (sw *Switch) vlan(id int) *Vlan {
	v, ok := sw.vlans[id]
	if !ok {
		v = newVlan(id)
		sw.vlans[id] = v
	}
	return v
}

func (sw *Switch) member(vlan int, portType, port string) int {
	return slices.IndexFunc(sw.members, func(m Member) bool {
		return m.Vlan == vlan && m.PortType == portType && m.Port == port
	})
}

func (sw *Switch) sortedVlans() []Vlan {
	out := make([]Vlan, 0, len(sw.vlans))
	for _, v := range sw.vlans {
		out = append(out, *v)
	}
	slices.SortFunc(out, func(a, b Vlan) int { return a.ID - b.ID })
	return out
}

func (sw *Switch) sortedMembers() []Member {
	out := slices.Clone(sw.members)
	slices.SortStableFunc(out, func(a, b Member) int {
		if a.Vlan != b.Vlan {
			return a.Vlan - b.Vlan
		}
		return strings.Compare(displayPort(a), displayPort(b))
	})
	return out
}

func (sw *Switch) showVlan() string {
	var b strings.Builder
	b.WriteString(" vlan    type   admin   oper    ip    mtu          name\n")
	b.WriteString("------+-------+-------+------+------+------+------------------\n")
	for _, v := range sw.sortedVlans() {
		oper := "Dis"
		if v.Admin == "enable" && sw.forwarding(v.ID) {
			oper = "Ena"
		}
		fmt.Fprintf(&b, "%-6d std       %-3s     %-3s   Dis    %-4d    %s\n", v.ID, enaDis(v.Admin), oper, v.MTU, v.Name)
	}
	return b.String()
}

func (sw *Switch) showMembers() string {
	var b strings.Builder
	b.WriteString(" vlan     port       type        status\n")
	b.WriteString("--------+---------+-----------+-----------\n")
	for _, m := range sw.sortedMembers() {
		fmt.Fprintf(&b, "%5d     %-9s %-11s %s\n", m.Vlan, displayPort(m), m.Mode, m.Status)
	}
	return b.String()
}

func (sw *Switch) forwarding(vlan int) bool {
	return slices.ContainsFunc(sw.members, func(m Member) bool { return m.Vlan == vlan && m.Status == "forwarding" })
}

func displayPort(m Member) string {
	if m.PortType == "linkagg" {
		return "0/" + m.Port
	}
	return m.Port
}

func enaDis(admin string) string {
	if admin == "enable" {
		return "Ena"
	}
	return "Dis"
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// Seed builds a switch holding exactly the given vlans and memberships, as
// records of the vlans and l2_interfaces resources. VLAN 1 is always present.
func Seed(vlans, members resource.RecordSet) (*Switch, error) {
	sw := New()
	for _, r := range vlans.Records() {
		f := r.Dense().Fields()
		v := sw.vlan(f["vlan_id"].(int))
		v.Name, v.Admin, v.MTU = f["name"].(string), f["admin"].(string), f["mtu"].(int)
	}
	for _, r := range members.Records() {
		f := r.Dense().Fields()
		id := f["vlan_id"].(int)
		if _, ok := sw.vlans[id]; !ok {
			return nil, fmt.Errorf("member %s references unknown vlan %d", r.Key(), id)
		}
		sw.members = append(sw.members, Member{Vlan: id, PortType: f["port_type"].(string), Port: f["port_number"].(string), Mode: f["mode"].(string), Status: "forwarding"})
	}
	return sw, nil
}
