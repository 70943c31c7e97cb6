package levels

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/anmitsu/go-shlex"

	"termescape/internal/game"
)

// meta carries the catalog fields every level exposes through game.Level.
type meta struct {
	id          int
	name        string
	description string
	hints       []string
}

func newMeta(spec LevelSpec) meta {
	return meta{
		id:          spec.ID,
		name:        spec.Name,
		description: spec.Description,
		hints:       append([]string(nil), spec.Hints...),
	}
}

func (m meta) ID() int             { return m.id }
func (m meta) Name() string        { return m.name }
func (m meta) Description() string { return m.description }
func (m meta) Hints() []string     { return append([]string(nil), m.hints...) }

type command struct {
	name string
	args []string
	raw  string
}

// parse splits a line the way a shell would. The command name is
// lowercased; arguments keep their case.
func parse(input string) (command, error) {
	raw := strings.TrimSpace(input)
	fields, err := shlex.Split(raw, true)
	if err != nil {
		return command{raw: raw}, err
	}
	if len(fields) == 0 {
		return command{raw: raw}, nil
	}
	return command{
		name: strings.ToLower(fields[0]),
		args: fields[1:],
		raw:  raw,
	}, nil
}

func (c command) arg(i int) string {
	if i < 0 || i >= len(c.args) {
		return ""
	}
	return c.args[i]
}

func stay(msg string) game.Result {
	return game.Result{Message: msg, Next: game.Stay}
}

// unknown builds the fallback reply, suggesting the closest known command
// when the typo is small.
func unknown(base, name string, known []string) game.Result {
	if name == "" {
		return stay(base)
	}
	best, bestDist := "", 3
	for _, k := range known {
		d := levenshtein.ComputeDistance(name, k)
		if d < bestDist {
			best, bestDist = k, d
		}
	}
	if best == "" || best == name {
		return stay(base)
	}
	return stay(fmt.Sprintf("%s Did you mean %q?", base, best))
}

func quoteError(err error) game.Result {
	return stay(fmt.Sprintf("Could not parse command: %v", err))
}
