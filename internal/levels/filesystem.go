package levels

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"termescape/internal/game"
)

type fsNode struct {
	dir      bool
	content  string
	children []string
}

// FileSystem is the virtual filesystem maze. The tree is fixed per level;
// only the player's position and discoveries live in the game state.
type FileSystem struct {
	meta
	spec  FileSystemSpec
	nodes map[string]*fsNode
	paths []string
	dirs  []string
}

var fileSystemCommands = []string{"ls", "pwd", "cd", "cat", "find"}

func newFileSystem(m meta, spec FileSystemSpec) *FileSystem {
	l := &FileSystem{meta: m, spec: spec, nodes: map[string]*fsNode{}}
	for _, n := range spec.Nodes {
		l.nodes[n.Path] = &fsNode{dir: n.Dir, content: n.Content}
		if n.Path != spec.Home {
			parent := l.nodes[path.Dir(n.Path)]
			parent.children = append(parent.children, path.Base(n.Path))
		}
		l.paths = append(l.paths, n.Path)
		if n.Dir {
			l.dirs = append(l.dirs, n.Path)
		}
	}
	sort.Strings(l.paths)
	return l
}

func (l *FileSystem) Initialize(gs *game.GameState) {
	st := gs.LevelStates.FileSystem
	if st == nil {
		gs.LevelStates.FileSystem = &game.FileSystemState{
			CurrentDir: l.spec.Home,
			Visited:    []string{l.spec.Home},
		}
		return
	}
	if n, ok := l.nodes[st.CurrentDir]; !ok || !n.dir {
		st.CurrentDir = l.spec.Home
	}
	if !st.HasVisited(l.spec.Home) {
		st.Visited = append(st.Visited, l.spec.Home)
	}
}

func (l *FileSystem) Render(gs *game.GameState) []string {
	cur := l.spec.Home
	if st := gs.LevelStates.FileSystem; st != nil && st.CurrentDir != "" {
		cur = st.CurrentDir
	}
	lines := []string{
		"You're in a virtual file system and need to find the system key.",
		"",
		fmt.Sprintf("Current directory: %s", cur),
		"",
		"Contents:",
	}
	n, ok := l.nodes[cur]
	switch {
	case !ok:
		lines = append(lines, "  (missing directory)")
	case len(n.children) == 0:
		lines = append(lines, "  (empty directory)")
	default:
		for _, child := range n.children {
			kind := "File"
			if l.nodes[path.Join(cur, child)].dir {
				kind = "Directory"
			}
			lines = append(lines, fmt.Sprintf("  %s (%s)", child, kind))
		}
	}
	return append(lines, "", `Commands: "ls", "cd [dir]", "cat [file]", "pwd", "find [name]"`)
}

func (l *FileSystem) HandleInput(gs *game.GameState, input string) game.Result {
	l.Initialize(gs)
	st := gs.LevelStates.FileSystem
	cmd, err := parse(input)
	if err != nil {
		return quoteError(err)
	}

	switch cmd.name {
	case "ls":
		return l.list(st, cmd)
	case "pwd":
		return stay(st.CurrentDir)
	case "cd":
		return l.changeDir(st, cmd.arg(0))
	case "cat":
		if len(cmd.args) == 0 {
			break
		}
		return l.read(st, cmd.arg(0))
	case "find":
		if len(cmd.args) == 0 {
			break
		}
		return l.find(cmd.arg(0))
	default:
		return unknown("Unknown command or invalid syntax.", cmd.name, fileSystemCommands)
	}
	return stay("Unknown command or invalid syntax.")
}

// resolve turns target into an absolute path. ok is false when the result
// would leave the home directory.
func (l *FileSystem) resolve(cur, target string) (string, bool) {
	p := target
	if !path.IsAbs(p) {
		p = path.Join(cur, target)
	}
	p = path.Clean(p)
	if p != l.spec.Home && !strings.HasPrefix(p, l.spec.Home+"/") {
		return p, false
	}
	return p, true
}

func (l *FileSystem) list(st *game.FileSystemState, cmd command) game.Result {
	target := st.CurrentDir
	for _, a := range cmd.args {
		if strings.HasPrefix(a, "-") {
			continue
		}
		p, ok := l.resolve(st.CurrentDir, a)
		if !ok {
			return stay(fmt.Sprintf("Cannot access %s: Permission denied", a))
		}
		target = p
		break
	}
	n, ok := l.nodes[target]
	if !ok {
		return stay(fmt.Sprintf("Cannot access %s: No such file or directory", target))
	}
	if !n.dir {
		return stay(path.Base(target))
	}
	if len(n.children) == 0 {
		return stay("(empty directory)")
	}
	return stay(strings.Join(n.children, "\n"))
}

func (l *FileSystem) changeDir(st *game.FileSystemState, target string) game.Result {
	if target == "" || target == "~" {
		target = l.spec.Home
	}
	if target == "." {
		return stay(fmt.Sprintf("Still in %s", st.CurrentDir))
	}
	p, ok := l.resolve(st.CurrentDir, target)
	if !ok {
		return stay("Cannot go above the home directory.")
	}
	n, exists := l.nodes[p]
	if !exists || !n.dir {
		return stay(fmt.Sprintf("Cannot change to %s: No such directory", target))
	}
	st.CurrentDir = p
	res := stay(fmt.Sprintf("Changed directory to %s", p))
	if !st.HasVisited(p) {
		st.Visited = append(st.Visited, p)
	}
	if !st.Explored && l.allVisited(st) {
		st.Explored = true
		res.Events = append(res.Events, game.EventAllDirectoriesVisited)
	}
	return res
}

func (l *FileSystem) allVisited(st *game.FileSystemState) bool {
	for _, d := range l.dirs {
		if !st.HasVisited(d) {
			return false
		}
	}
	return true
}

func (l *FileSystem) read(st *game.FileSystemState, target string) game.Result {
	p, ok := l.resolve(st.CurrentDir, target)
	n, exists := l.nodes[p]
	if !ok || !exists || n.dir {
		return stay(fmt.Sprintf("Cannot read %s: No such file", target))
	}
	if p == l.spec.KeyFile {
		st.FoundKey = true
		return game.Result{
			Completed: true,
			Message:   fmt.Sprintf("You found the system key! The file contains: %s", n.content),
			Next:      game.NextLevel,
		}
	}
	res := stay(fmt.Sprintf("File contents: %s", n.content))
	if p == l.spec.EasterEgg {
		res.Events = append(res.Events, game.EventEasterEggFound)
	}
	return res
}

func (l *FileSystem) find(needle string) game.Result {
	var matches []string
	for _, p := range l.paths {
		if strings.Contains(p, needle) {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		return stay(fmt.Sprintf("No matches found for %q", needle))
	}
	return stay("Found matches:\n" + strings.Join(matches, "\n"))
}
