package levels

import (
	"fmt"
	"net/netip"
	"path"
	"strings"
)

const (
	CatalogKind            = "catalog"
	SupportedSchemaVersion = 1
)

type Catalog struct {
	Kind          string      `yaml:"kind"`
	SchemaVersion int         `yaml:"schema_version"`
	Levels        []LevelSpec `yaml:"levels"`
}

type LevelSpec struct {
	ID          int      `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Hints       []string `yaml:"hints"`

	Terminal    *TerminalSpec   `yaml:"terminal"`
	FileSystem  *FileSystemSpec `yaml:"filesystem"`
	Processes   *ProcessSpec    `yaml:"processes"`
	Permissions *PermissionSpec `yaml:"permissions"`
	Network     *NetworkSpec    `yaml:"network"`
}

type TerminalSpec struct {
	Password   string `yaml:"password"`
	Look       string `yaml:"look"`
	DeskClue   string `yaml:"desk_clue"`
	DrawerClue string `yaml:"drawer_clue"`
}

type FileSystemSpec struct {
	Home      string   `yaml:"home"`
	KeyFile   string   `yaml:"key_file"`
	EasterEgg string   `yaml:"easter_egg"`
	Nodes     []FSNode `yaml:"nodes"`
}

type FSNode struct {
	Path    string `yaml:"path"`
	Dir     bool   `yaml:"dir"`
	Content string `yaml:"content"`
}

type ProcessSpec struct {
	Malware  string           `yaml:"malware"`
	Firewall string           `yaml:"firewall"`
	Table    []ProcessSpecRow `yaml:"table"`
}

type ProcessSpecRow struct {
	PID    int     `yaml:"pid"`
	Name   string  `yaml:"name"`
	CPU    float64 `yaml:"cpu"`
	Memory float64 `yaml:"memory"`
	Status string  `yaml:"status"`
}

type PermissionSpec struct {
	User      string     `yaml:"user"`
	Target    string     `yaml:"target"`
	Script    string     `yaml:"script"`
	AccessKey string     `yaml:"access_key"`
	Files     []FileSpec `yaml:"files"`
}

type FileSpec struct {
	Name        string `yaml:"name"`
	Permissions string `yaml:"permissions"`
	Owner       string `yaml:"owner"`
	Group       string `yaml:"group"`
	Content     string `yaml:"content"`
}

type NetworkSpec struct {
	Portal     PortalSpec      `yaml:"portal"`
	Interfaces []InterfaceSpec `yaml:"interfaces"`
	Firewall   FirewallSpec    `yaml:"firewall"`
}

type PortalSpec struct {
	Host string `yaml:"host"`
	IP   string `yaml:"ip"`
	Port int    `yaml:"port"`
}

type InterfaceSpec struct {
	Name    string `yaml:"name"`
	Status  string `yaml:"status"`
	IP      string `yaml:"ip"`
	Netmask string `yaml:"netmask"`
}

type FirewallSpec struct {
	Enabled bool       `yaml:"enabled"`
	Rules   []RuleSpec `yaml:"rules"`
}

type RuleSpec struct {
	Port     int    `yaml:"port"`
	Protocol string `yaml:"protocol"`
	Action   string `yaml:"action"`
}

func (c Catalog) Validate() error {
	if c.Kind != CatalogKind {
		return fmt.Errorf("kind must be %q", CatalogKind)
	}
	if c.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if c.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported catalog schema_version %d (max supported %d)", c.SchemaVersion, SupportedSchemaVersion)
	}
	if len(c.Levels) == 0 {
		return fmt.Errorf("levels must contain at least one level")
	}
	seen := map[int]struct{}{}
	for _, l := range c.Levels {
		if _, ok := seen[l.ID]; ok {
			return fmt.Errorf("duplicate level id %d", l.ID)
		}
		seen[l.ID] = struct{}{}
		if err := l.Validate(); err != nil {
			return fmt.Errorf("level %d: %w", l.ID, err)
		}
	}
	return nil
}

func (l LevelSpec) Validate() error {
	if l.ID <= 0 {
		return fmt.Errorf("id must be >0")
	}
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(l.Hints) == 0 {
		return fmt.Errorf("hints must contain at least one item")
	}
	blocks := 0
	for _, set := range []bool{l.Terminal != nil, l.FileSystem != nil, l.Processes != nil, l.Permissions != nil, l.Network != nil} {
		if set {
			blocks++
		}
	}
	if blocks != 1 {
		return fmt.Errorf("exactly one puzzle block is required, got %d", blocks)
	}
	switch {
	case l.Terminal != nil:
		return l.Terminal.Validate()
	case l.FileSystem != nil:
		return l.FileSystem.Validate()
	case l.Processes != nil:
		return l.Processes.Validate()
	case l.Permissions != nil:
		return l.Permissions.Validate()
	default:
		return l.Network.Validate()
	}
}

func (t TerminalSpec) Validate() error {
	if strings.TrimSpace(t.Password) == "" {
		return fmt.Errorf("terminal.password is required")
	}
	if t.Password != strings.ToLower(t.Password) {
		return fmt.Errorf("terminal.password must be lowercase")
	}
	return nil
}

func (f FileSystemSpec) Validate() error {
	if !path.IsAbs(f.Home) {
		return fmt.Errorf("filesystem.home must be absolute")
	}
	nodes := map[string]FSNode{}
	for _, n := range f.Nodes {
		if !path.IsAbs(n.Path) || path.Clean(n.Path) != n.Path {
			return fmt.Errorf("filesystem node path %q must be clean and absolute", n.Path)
		}
		if _, ok := nodes[n.Path]; ok {
			return fmt.Errorf("duplicate filesystem node %q", n.Path)
		}
		if n.Path != f.Home {
			if !strings.HasPrefix(n.Path, f.Home+"/") {
				return fmt.Errorf("filesystem node %q is outside home", n.Path)
			}
			parent, ok := nodes[path.Dir(n.Path)]
			if !ok || !parent.Dir {
				return fmt.Errorf("filesystem node %q must follow its parent directory", n.Path)
			}
		}
		nodes[n.Path] = n
	}
	if home, ok := nodes[f.Home]; !ok || !home.Dir {
		return fmt.Errorf("filesystem.home %q must be a directory node", f.Home)
	}
	if key, ok := nodes[f.KeyFile]; !ok || key.Dir {
		return fmt.Errorf("filesystem.key_file %q must be a file node", f.KeyFile)
	}
	if f.EasterEgg != "" {
		if egg, ok := nodes[f.EasterEgg]; !ok || egg.Dir {
			return fmt.Errorf("filesystem.easter_egg %q must be a file node", f.EasterEgg)
		}
	}
	return nil
}

func (p ProcessSpec) Validate() error {
	pids := map[int]struct{}{}
	names := map[string]struct{}{}
	for _, row := range p.Table {
		if row.PID <= 0 {
			return fmt.Errorf("processes.table pid must be >0")
		}
		if _, ok := pids[row.PID]; ok {
			return fmt.Errorf("duplicate pid %d", row.PID)
		}
		pids[row.PID] = struct{}{}
		switch row.Status {
		case statusRunning, statusStopped:
		default:
			return fmt.Errorf("pid %d: invalid status %q", row.PID, row.Status)
		}
		names[row.Name] = struct{}{}
	}
	if _, ok := names[p.Malware]; !ok {
		return fmt.Errorf("processes.malware %q is not in the table", p.Malware)
	}
	if _, ok := names[p.Firewall]; !ok {
		return fmt.Errorf("processes.firewall %q is not in the table", p.Firewall)
	}
	return nil
}

func (p PermissionSpec) Validate() error {
	if strings.TrimSpace(p.User) == "" {
		return fmt.Errorf("permissions.user is required")
	}
	files := map[string]struct{}{}
	for _, f := range p.Files {
		if _, err := parseMode(f.Permissions); err != nil {
			return fmt.Errorf("file %s: %w", f.Name, err)
		}
		if f.Owner == "" || f.Group == "" {
			return fmt.Errorf("file %s: owner and group are required", f.Name)
		}
		files[f.Name] = struct{}{}
	}
	for field, name := range map[string]string{"target": p.Target, "script": p.Script, "access_key": p.AccessKey} {
		if _, ok := files[name]; !ok {
			return fmt.Errorf("permissions.%s %q is not a listed file", field, name)
		}
	}
	return nil
}

func (n NetworkSpec) Validate() error {
	if strings.TrimSpace(n.Portal.Host) == "" {
		return fmt.Errorf("network.portal.host is required")
	}
	if _, ok := parseIPv4(n.Portal.IP); !ok {
		return fmt.Errorf("network.portal.ip %q is not an IPv4 address", n.Portal.IP)
	}
	if n.Portal.Port < 1 || n.Portal.Port > 65535 {
		return fmt.Errorf("network.portal.port must be 1..65535")
	}
	if len(n.Interfaces) == 0 {
		return fmt.Errorf("network.interfaces must contain at least one item")
	}
	for _, iface := range n.Interfaces {
		if iface.Status != ifaceUp && iface.Status != ifaceDown {
			return fmt.Errorf("interface %s: invalid status %q", iface.Name, iface.Status)
		}
		if iface.IP != "" {
			if _, ok := parseIPv4(iface.IP); !ok {
				return fmt.Errorf("interface %s: invalid ip %q", iface.Name, iface.IP)
			}
		}
	}
	for _, r := range n.Firewall.Rules {
		if r.Port < 1 || r.Port > 65535 {
			return fmt.Errorf("firewall rule port %d out of range", r.Port)
		}
		if r.Action != actionAllow && r.Action != actionDeny {
			return fmt.Errorf("firewall rule port %d: invalid action %q", r.Port, r.Action)
		}
	}
	return nil
}

func parseIPv4(s string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return netip.Addr{}, false
	}
	return addr, true
}
