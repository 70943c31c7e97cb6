package levels

import (
	"fmt"
	"strings"

	"termescape/internal/game"
)

const rootUser = "root"

// Permissions is the file-permissions puzzle: read the protected database
// either directly or through sudo.
type Permissions struct {
	meta
	spec    PermissionSpec
	content map[string]string
}

var permissionCommands = []string{"ls", "whoami", "cat", "chmod", "sh", "sudo"}

func newPermissions(m meta, spec PermissionSpec) *Permissions {
	l := &Permissions{meta: m, spec: spec, content: map[string]string{}}
	for _, f := range spec.Files {
		l.content[f.Name] = f.Content
	}
	return l
}

func (l *Permissions) Initialize(gs *game.GameState) {
	if gs.LevelStates.Permissions != nil {
		return
	}
	gs.LevelStates.Permissions = l.seed()
}

func (l *Permissions) seed() *game.PermissionState {
	st := &game.PermissionState{CurrentUser: l.spec.User}
	for _, f := range l.spec.Files {
		st.Files = append(st.Files, game.FileEntry{
			Name:        f.Name,
			Permissions: f.Permissions,
			Owner:       f.Owner,
			Group:       f.Group,
		})
	}
	return st
}

func (l *Permissions) Render(gs *game.GameState) []string {
	st := gs.LevelStates.Permissions
	if st == nil {
		st = l.seed()
	}
	lines := []string{
		"You need to access the protected files to proceed.",
		"Current user: " + st.CurrentUser,
	}
	if st.SudoAvailable || st.AccessKeyReadable {
		lines = append(lines, "sudo: available")
	}
	lines = append(lines, "", "Files in current directory:")
	lines = append(lines, fileTable(st.Files)...)
	return append(lines, "", `Commands: "ls", "whoami", "cat [file]", "chmod [permissions] [file]", "sudo [command]", "sh [script]"`)
}

func fileTable(files []game.FileEntry) []string {
	lines := []string{
		"PERMISSIONS  OWNER  GROUP  FILENAME",
		"----------------------------------------",
	}
	for _, f := range files {
		lines = append(lines, fmt.Sprintf("%-13s%-7s%-7s%s", f.Permissions, f.Owner, f.Group, f.Name))
	}
	return lines
}

func (l *Permissions) HandleInput(gs *game.GameState, input string) game.Result {
	l.Initialize(gs)
	st := gs.LevelStates.Permissions
	cmd, err := parse(input)
	if err != nil {
		return quoteError(err)
	}

	switch cmd.name {
	case "ls":
		return stay(strings.Join(fileTable(st.Files), "\n"))
	case "whoami":
		return stay(st.CurrentUser)
	case "cat":
		if len(cmd.args) < 1 {
			break
		}
		return l.cat(st, cmd.arg(0), st.CurrentUser)
	case "chmod":
		if len(cmd.args) < 2 {
			break
		}
		return l.chmod(st, cmd.arg(0), cmd.arg(1), st.CurrentUser)
	case "sh":
		if len(cmd.args) < 1 {
			break
		}
		return l.run(st, cmd.arg(0))
	case "sudo":
		if len(cmd.args) < 1 {
			break
		}
		return l.sudo(st, cmd)
	default:
		return unknown("Unknown command or invalid syntax.", cmd.name, permissionCommands)
	}
	return stay("Unknown command or invalid syntax.")
}

func findFile(st *game.PermissionState, name string) *game.FileEntry {
	for i := range st.Files {
		if st.Files[i].Name == name {
			return &st.Files[i]
		}
	}
	return nil
}

// canRead checks the owner, group or other read bit that applies to user.
func canRead(f *game.FileEntry, user string) bool {
	if user == rootUser {
		return true
	}
	m, err := parseMode(f.Permissions)
	if err != nil {
		return false
	}
	switch user {
	case f.Owner:
		return m.has(classOwner, 'r')
	case f.Group:
		return m.has(classGroup, 'r')
	default:
		return m.has(classOther, 'r')
	}
}

func (l *Permissions) cat(st *game.PermissionState, name, user string) game.Result {
	f := findFile(st, name)
	if f == nil {
		return stay(fmt.Sprintf("File %s not found.", name))
	}
	if !canRead(f, user) {
		return stay(fmt.Sprintf("Permission denied: Cannot read %s", name))
	}
	return l.reveal(st, f)
}

func (l *Permissions) reveal(st *game.PermissionState, f *game.FileEntry) game.Result {
	msg := "File contents:\n\n" + l.content[f.Name]
	switch f.Name {
	case l.spec.Target:
		return game.Result{Completed: true, Message: msg, Next: game.NextLevel}
	case l.spec.AccessKey:
		st.AccessKeyReadable = true
	}
	return stay(msg)
}

func (l *Permissions) chmod(st *game.PermissionState, spec, name, user string) game.Result {
	f := findFile(st, name)
	if f == nil {
		return stay(fmt.Sprintf("File %s not found.", name))
	}
	if user != rootUser && user != f.Owner {
		return stay(fmt.Sprintf("Permission denied: Cannot modify permissions of %s", name))
	}
	current, err := parseMode(f.Permissions)
	if err != nil {
		return stay(fmt.Sprintf("chmod: %v", err))
	}
	next, err := chmod(current, spec)
	if err != nil {
		return stay(fmt.Sprintf("chmod: %v", err))
	}
	f.Permissions = next.String()
	if f.Name == l.spec.Script {
		st.ScriptExecutable = next.has(classOwner, 'x')
	}
	return stay(fmt.Sprintf("Changed permissions of %s to %s", name, f.Permissions))
}

func (l *Permissions) run(st *game.PermissionState, name string) game.Result {
	f := findFile(st, name)
	if f == nil {
		return stay(fmt.Sprintf("Script %s not found.", name))
	}
	m, err := parseMode(f.Permissions)
	if err != nil || !m.has(classOwner, 'x') {
		return stay(fmt.Sprintf("Permission denied: Cannot execute %s. Make it executable first.", name))
	}
	if name == l.spec.Script {
		st.SudoAvailable = true
		return stay(fmt.Sprintf("Executing %s...\n\nGranting temporary sudo access...\nYou can now use sudo commands!", name))
	}
	return stay(fmt.Sprintf("Executed %s, but nothing happened.", name))
}

func (l *Permissions) sudo(st *game.PermissionState, cmd command) game.Result {
	if !st.SudoAvailable && !st.AccessKeyReadable {
		return stay("sudo: command not found. You need to gain sudo access first.")
	}
	sub := strings.ToLower(cmd.arg(0))
	switch sub {
	case "whoami":
		return stay(rootUser)
	case "ls":
		return stay(strings.Join(fileTable(st.Files), "\n"))
	case "cat":
		name := cmd.arg(1)
		if name == "" {
			break
		}
		f := findFile(st, name)
		if f == nil {
			return stay(fmt.Sprintf("File %s not found.", name))
		}
		res := l.reveal(st, f)
		if !res.Completed {
			res.Message = fmt.Sprintf("File contents of %s displayed with sudo privileges.\n\n%s", name, l.content[name])
		}
		return res
	case "chmod":
		if cmd.arg(2) == "" {
			break
		}
		res := l.chmod(st, cmd.arg(1), cmd.arg(2), rootUser)
		if strings.HasPrefix(res.Message, "Changed permissions") {
			res.Message += " with sudo privileges."
		}
		return res
	default:
		return stay(fmt.Sprintf("sudo: %s: command not supported", sub))
	}
	return stay("Unknown command or invalid syntax.")
}
