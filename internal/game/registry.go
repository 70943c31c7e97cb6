package game

import "sort"

// Registry maps level ids to levels. It is filled once at startup.
type Registry struct {
	levels map[int]Level
}

func NewRegistry() *Registry {
	return &Registry{levels: map[int]Level{}}
}

// Register inserts l, replacing any level already registered under its id.
func (r *Registry) Register(l Level) {
	if l == nil {
		return
	}
	r.levels[l.ID()] = l
}

func (r *Registry) Get(id int) (Level, bool) {
	l, ok := r.levels[id]
	return l, ok
}

// All returns the registered levels in ascending id order.
func (r *Registry) All() []Level {
	out := make([]Level, 0, len(r.levels))
	for _, l := range r.levels {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (r *Registry) Len() int { return len(r.levels) }

// First returns the lowest registered id, or 0 when empty.
func (r *Registry) First() int {
	all := r.All()
	if len(all) == 0 {
		return 0
	}
	return all[0].ID()
}

// Last returns the highest registered id, or 0 when empty.
func (r *Registry) Last() int {
	all := r.All()
	if len(all) == 0 {
		return 0
	}
	return all[len(all)-1].ID()
}
