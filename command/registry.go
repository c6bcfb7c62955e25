package command

import (
	"fmt"
	"sort"
	"strings"
)

// Registry is the immutable set of commands built at startup.
type Registry struct {
	commands []*Descriptor
	byName   map[string]int
	byAlias  map[string]int
}

// NewRegistry builds a registry, failing on any duplicate name or alias.
func NewRegistry(cmds ...*Descriptor) (*Registry, error) {
	r := &Registry{
		commands: make([]*Descriptor, 0, len(cmds)),
		byName:   make(map[string]int, len(cmds)),
		byAlias:  make(map[string]int),
	}

	taken := func(s string) bool {
		_, n := r.byName[s]
		_, a := r.byAlias[s]
		return n || a
	}

	for _, c := range cmds {
		if c == nil || c.Run == nil {
			return nil, fmt.Errorf("command %v has no handler", c)
		}
		name := strings.ToLower(c.Name)
		if name == "" || strings.ContainsAny(name, " \t\n") {
			return nil, fmt.Errorf("invalid command name %q", c.Name)
		}
		if taken(name) {
			return nil, fmt.Errorf("command name %q is already registered", name)
		}
		idx := len(r.commands)
		r.commands = append(r.commands, c)
		r.byName[name] = idx

		for _, a := range c.Aliases {
			a = strings.ToLower(a)
			if taken(a) {
				return nil, fmt.Errorf("alias %q of %v is already registered", a, name)
			}
			r.byAlias[a] = idx
		}
	}
	return r, nil
}

// MustRegistry is NewRegistry that panics, for wiring at startup.
func MustRegistry(cmds ...*Descriptor) *Registry {
	r, err := NewRegistry(cmds...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup finds a command by canonical name or built-in alias.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	name = strings.ToLower(name)
	if idx, ok := r.byName[name]; ok {
		return r.commands[idx], true
	}
	if idx, ok := r.byAlias[name]; ok {
		return r.commands[idx], true
	}
	return nil, false
}

// Canonical maps a built-in alias to its command name. Canonical names map to themselves.
func (r *Registry) Canonical(name string) (string, bool) {
	c, ok := r.Lookup(name)
	if !ok {
		return "", false
	}
	return strings.ToLower(c.Name), true
}

// Taken reports whether name collides with a command name or built-in alias.
func (r *Registry) Taken(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Commands returns every command sorted by category and name.
func (r *Registry) Commands() []*Descriptor {
	out := make([]*Descriptor, len(r.commands))
	copy(out, r.commands)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (r *Registry) Len() int {
	return len(r.commands)
}
