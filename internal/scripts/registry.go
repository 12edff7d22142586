package scripts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrUnknownTag is returned when a requested tag or dependency names no script.
var ErrUnknownTag = errors.New("unknown tag")

// Script is one deployment procedure.
type Script struct {
	// ID orders scripts by its numeric prefix, e.g. "19_theta_vault_logic_swap".
	ID string
	// Tags select the script from the command line.
	Tags []string
	// Dependencies are tags that must run first.
	Dependencies []string
	Run          func(ctx context.Context, env *Env) error
}

// Registry holds scripts keyed by ID.
type Registry struct {
	scripts []Script
	byTag   map[string][]int
}

// NewRegistry returns a registry over scripts. IDs must be unique.
func NewRegistry(scripts ...Script) (*Registry, error) {
	r := &Registry{byTag: map[string][]int{}}
	r.scripts = append(r.scripts, scripts...)
	sort.Slice(r.scripts, func(i, j int) bool { return lessID(r.scripts[i].ID, r.scripts[j].ID) })
	for i, s := range r.scripts {
		if i > 0 && r.scripts[i-1].ID == s.ID {
			return nil, fmt.Errorf("duplicate script %s", s.ID)
		}
		for _, tag := range s.Tags {
			r.byTag[tag] = append(r.byTag[tag], i)
		}
	}
	return r, nil
}

// lessID orders IDs by their leading number, then by the whole ID. IDs
// without a number sort last.
func lessID(a, b string) bool {
	na, oka := idNumber(a)
	nb, okb := idNumber(b)
	switch {
	case oka && okb && na != nb:
		return na < nb
	case oka != okb:
		return oka
	}
	return a < b
}

func idNumber(id string) (uint64, bool) {
	end := strings.IndexFunc(id, func(r rune) bool { return r < '0' || r > '9' })
	if end < 0 {
		end = len(id)
	}
	n, err := strconv.ParseUint(id[:end], 10, 64)
	return n, err == nil
}

// Default returns the registry of every procedure in this package.
func Default() *Registry {
	r, err := NewRegistry(
		ThetaVaultLogicSwap(),
		SUSDEThetaVaultSwap(),
		EtherfiDepositHelper(),
		EthenaDepositHelper(),
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Scripts returns every script in ID order.
func (r *Registry) Scripts() []Script {
	return append([]Script(nil), r.scripts...)
}

// Resolve returns the scripts selected by tags together with their
// dependencies, each once, dependencies before dependents and otherwise in
// ID order. No tags selects everything.
func (r *Registry) Resolve(tags ...string) ([]Script, error) {
	want := make([]bool, len(r.scripts))
	if len(tags) == 0 {
		for i := range want {
			want[i] = true
		}
	}
	for _, tag := range tags {
		idx, ok := r.byTag[tag]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTag, tag)
		}
		for _, i := range idx {
			want[i] = true
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(r.scripts))
	var order []Script
	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("dependency cycle through %s", r.scripts[i].ID)
		}
		state[i] = visiting
		var deps []int
		for _, tag := range r.scripts[i].Dependencies {
			idx, ok := r.byTag[tag]
			if !ok {
				return fmt.Errorf("%s depends on %w: %s", r.scripts[i].ID, ErrUnknownTag, tag)
			}
			deps = append(deps, idx...)
		}
		sort.Ints(deps)
		for _, d := range deps {
			if err := visit(d); err != nil {
				return err
			}
		}
		state[i] = done
		order = append(order, r.scripts[i])
		return nil
	}
	for i := range r.scripts {
		if want[i] {
			if err := visit(i); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}

// Run resolves tags and runs the scripts in order, stopping at the first
// failure.
func (r *Registry) Run(ctx context.Context, env *Env, tags ...string) error {
	scripts, err := r.Resolve(tags...)
	if err != nil {
		return err
	}
	for _, s := range scripts {
		env.Log.Debug("running script", zap.String("id", s.ID))
		if err := s.Run(ctx, env); err != nil {
			return fmt.Errorf("%s: %w", s.ID, err)
		}
	}
	return nil
}
