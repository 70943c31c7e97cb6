package game

// LevelStates holds one typed state record per level. Each field is owned by
// exactly one level; the JSON keys are the level ids so a save file maps a
// level id to that level's record.
type LevelStates struct {
	Terminal    *TerminalState   `json:"1,omitempty"`
	FileSystem  *FileSystemState `json:"2,omitempty"`
	Processes   *ProcessState    `json:"3,omitempty"`
	Permissions *PermissionState `json:"4,omitempty"`
	Network     *NetworkState    `json:"5,omitempty"`
}

type TerminalState struct {
	Attempts   int  `json:"attempts"`
	FoundClue1 bool `json:"foundClue1"`
	FoundClue2 bool `json:"foundClue2"`
}

type FileSystemState struct {
	CurrentDir string   `json:"currentDir"`
	Visited    []string `json:"visited"`
	FoundKey   bool     `json:"foundKey"`
	// Explored is set once every directory has been visited.
	Explored bool `json:"explored"`
}

func (s *FileSystemState) HasVisited(dir string) bool {
	for _, v := range s.Visited {
		if v == dir {
			return true
		}
	}
	return false
}

type Process struct {
	PID    int     `json:"pid"`
	Name   string  `json:"name"`
	CPU    float64 `json:"cpu"`
	Memory float64 `json:"memory"`
	Status string  `json:"status"`
}

type ProcessState struct {
	Processes       []Process `json:"processes"`
	MalwareKilled   bool      `json:"malwareKilled"`
	FirewallStarted bool      `json:"firewallStarted"`
}

type FileEntry struct {
	Name        string `json:"name"`
	Permissions string `json:"permissions"`
	Owner       string `json:"owner"`
	Group       string `json:"group"`
}

type PermissionState struct {
	Files             []FileEntry `json:"files"`
	CurrentUser       string      `json:"currentUser"`
	SudoAvailable     bool        `json:"sudoAvailable"`
	ScriptExecutable  bool        `json:"scriptExecutable"`
	AccessKeyReadable bool        `json:"accessKeyReadable"`
}

type Interface struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	IP      string `json:"ip"`
	Netmask string `json:"netmask"`
}

type FirewallRule struct {
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
	Action   string `json:"action"`
}

type Firewall struct {
	Enabled bool           `json:"enabled"`
	Rules   []FirewallRule `json:"rules"`
}

type DNSConfig struct {
	Configured bool   `json:"configured"`
	Server     string `json:"server"`
}

type GatewayConfig struct {
	Configured bool   `json:"configured"`
	Address    string `json:"address"`
}

type Connection struct {
	Protocol      string `json:"protocol"`
	LocalAddress  string `json:"localAddress"`
	LocalPort     int    `json:"localPort"`
	RemoteAddress string `json:"remoteAddress"`
	RemotePort    int    `json:"remotePort"`
}

type NetworkState struct {
	Interfaces  []Interface   `json:"interfaces"`
	Firewall    Firewall      `json:"firewall"`
	DNS         DNSConfig     `json:"dns"`
	Gateway     GatewayConfig `json:"gateway"`
	Connections []Connection  `json:"connections"`
}
