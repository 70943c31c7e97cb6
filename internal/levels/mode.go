package levels

import (
	"fmt"
	"strings"
)

const (
	classOwner = 0
	classGroup = 1
	classOther = 2
)

// mode is a parsed "rwxr-xr--" permission string. typ holds the leading
// file type character of the 10-character form, or "" for the 9-character
// form, so String round-trips the original width.
type mode struct {
	typ  string
	bits [9]byte
}

func parseMode(s string) (mode, error) {
	var m mode
	switch len(s) {
	case 10:
		if !strings.ContainsRune("-dl", rune(s[0])) {
			return m, fmt.Errorf("invalid file type %q in %q", s[0], s)
		}
		m.typ = s[:1]
		s = s[1:]
	case 9:
	default:
		return m, fmt.Errorf("permission string %q must be 9 or 10 characters", s)
	}
	for i := 0; i < 9; i++ {
		want := "rwx"[i%3]
		if s[i] != want && s[i] != '-' {
			return m, fmt.Errorf("invalid permission character %q at %d", s[i], i)
		}
		m.bits[i] = s[i]
	}
	return m, nil
}

func (m mode) String() string { return m.typ + string(m.bits[:]) }

func permIndex(p byte) int { return strings.IndexByte("rwx", p) }

func (m mode) has(class int, p byte) bool {
	return m.bits[class*3+permIndex(p)] == p
}

func (m *mode) set(class int, p byte, on bool) {
	i := class*3 + permIndex(p)
	if on {
		m.bits[i] = p
	} else {
		m.bits[i] = '-'
	}
}

// chmod applies spec to m. Accepted forms: the shorthands "+x" (owner
// execute) and "+r" (group read), symbolic clauses such as "u+x,g-w" or
// "a=r", three-digit octal, and a full 9 or 10 character permission string.
func chmod(m mode, spec string) (mode, error) {
	switch spec {
	case "+x":
		m.set(classOwner, 'x', true)
		return m, nil
	case "+r":
		m.set(classGroup, 'r', true)
		return m, nil
	}
	if isOctal(spec) {
		for c := 0; c < 3; c++ {
			d := spec[c] - '0'
			m.set(c, 'r', d&4 != 0)
			m.set(c, 'w', d&2 != 0)
			m.set(c, 'x', d&1 != 0)
		}
		return m, nil
	}
	if full, err := parseMode(spec); err == nil {
		if full.typ == "" {
			full.typ = m.typ
		}
		return full, nil
	}
	for _, clause := range strings.Split(spec, ",") {
		next, err := applyClause(m, clause)
		if err != nil {
			return m, fmt.Errorf("invalid mode: %s", spec)
		}
		m = next
	}
	return m, nil
}

func isOctal(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if s[i] < '0' || s[i] > '7' {
			return false
		}
	}
	return true
}

func applyClause(m mode, clause string) (mode, error) {
	op := strings.IndexAny(clause, "+-=")
	if op < 0 {
		return m, fmt.Errorf("missing operator")
	}
	who, perms := clause[:op], clause[op+1:]
	if who == "" {
		who = "a"
	}
	var classes []int
	for _, w := range who {
		switch w {
		case 'u':
			classes = append(classes, classOwner)
		case 'g':
			classes = append(classes, classGroup)
		case 'o':
			classes = append(classes, classOther)
		case 'a':
			classes = append(classes, classOwner, classGroup, classOther)
		default:
			return m, fmt.Errorf("invalid class %q", w)
		}
	}
	for _, p := range perms {
		if p != 'r' && p != 'w' && p != 'x' {
			return m, fmt.Errorf("invalid permission %q", p)
		}
	}
	for _, c := range classes {
		if clause[op] == '=' {
			for _, p := range []byte("rwx") {
				m.set(c, p, false)
			}
		}
		for _, p := range []byte(perms) {
			m.set(c, p, clause[op] != '-')
		}
	}
	return m, nil
}
