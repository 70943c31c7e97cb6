package term

import "strings"

const DefaultHistorySize = 50

// History keeps recently submitted commands, newest first, and walks them
// the way a shell does with the up and down arrows. Entries belong to the
// current owner; Switch parks them and brings back another owner's list.
type History struct {
	max     int
	entries []string
	// pos is -1 while not browsing.
	pos   int
	draft string

	owner  string
	parked map[string][]string
}

func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultHistorySize
	}
	return &History{max: max, pos: -1, parked: map[string][]string{}}
}

// Switch makes owner's entries current. Owners are matched
// case-insensitively, the same way player profiles are.
func (h *History) Switch(owner string) {
	owner = strings.ToLower(strings.TrimSpace(owner))
	if owner == h.owner {
		return
	}
	if h.parked == nil {
		h.parked = map[string][]string{}
	}
	h.parked[h.owner] = h.entries
	h.entries = h.parked[owner]
	delete(h.parked, owner)
	h.owner = owner
	h.pos, h.draft = -1, ""
}

func (h *History) Owner() string { return h.owner }

// Add records line. Blank lines and repeats of the newest entry are
// skipped. Browsing state is reset either way.
func (h *History) Add(line string) {
	h.pos, h.draft = -1, ""
	if strings.TrimSpace(line) == "" {
		return
	}
	if len(h.entries) > 0 && h.entries[0] == line {
		return
	}
	h.entries = append([]string{line}, h.entries...)
	if len(h.entries) > h.max {
		h.entries = h.entries[:h.max]
	}
}

// Prev returns the next older entry. current is remembered when browsing
// starts so Next can restore it.
func (h *History) Prev(current string) string {
	if len(h.entries) == 0 {
		return current
	}
	if h.pos == -1 {
		h.draft = current
	}
	if h.pos < len(h.entries)-1 {
		h.pos++
	}
	return h.entries[h.pos]
}

// Next returns the next newer entry, or the saved draft once past the
// newest.
func (h *History) Next() string {
	if h.pos <= 0 {
		h.pos = -1
		return h.draft
	}
	h.pos--
	return h.entries[h.pos]
}

// Entries returns a copy, newest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}

// Reset clears the current owner's entries.
func (h *History) Reset() {
	h.entries = nil
	h.pos, h.draft = -1, ""
}
