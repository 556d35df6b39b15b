// Package registry holds the read-only module and level catalogs.
//
// A Registry is built once at startup and never mutated; accessors return
// copies so callers cannot alter shared state.
package registry

import (
	"slices"
	"sort"

	"github.com/polisai/codeforge/pkg/domain"
)

// Registry is an immutable view of modules and levels keyed by identifier.
type Registry struct {
	modules     map[string]domain.EnhancementModule
	moduleOrder []string
	levels      map[string]domain.EnhancementLevel
	levelOrder  []string
}

// New builds a registry. Registry order of modules follows the slice order; levels
// are ordered by Number. Later duplicates replace earlier entries in place.
func New(modules []domain.EnhancementModule, levels []domain.EnhancementLevel) *Registry {
	r := &Registry{
		modules: make(map[string]domain.EnhancementModule, len(modules)),
		levels:  make(map[string]domain.EnhancementLevel, len(levels)),
	}
	for _, m := range modules {
		if m.ID == "" {
			continue
		}
		if _, exists := r.modules[m.ID]; !exists {
			r.moduleOrder = append(r.moduleOrder, m.ID)
		}
		r.modules[m.ID] = cloneModule(m)
	}
	for _, l := range levels {
		if l.ID == "" {
			continue
		}
		if _, exists := r.levels[l.ID]; !exists {
			r.levelOrder = append(r.levelOrder, l.ID)
		}
		l.ModuleIDs = slices.Clone(l.ModuleIDs)
		r.levels[l.ID] = l
	}
	sort.SliceStable(r.levelOrder, func(i, j int) bool {
		return r.levels[r.levelOrder[i]].Number < r.levels[r.levelOrder[j]].Number
	})
	return r
}

// Module looks up a module by id.
func (r *Registry) Module(id string) (domain.EnhancementModule, bool) {
	m, ok := r.modules[id]
	if !ok {
		return domain.EnhancementModule{}, false
	}
	return cloneModule(m), true
}

// Modules returns all modules in registry order.
func (r *Registry) Modules() []domain.EnhancementModule {
	out := make([]domain.EnhancementModule, 0, len(r.moduleOrder))
	for _, id := range r.moduleOrder {
		out = append(out, cloneModule(r.modules[id]))
	}
	return out
}

// Level looks up a level by id.
func (r *Registry) Level(id string) (domain.EnhancementLevel, bool) {
	l, ok := r.levels[id]
	if !ok {
		return domain.EnhancementLevel{}, false
	}
	l.ModuleIDs = slices.Clone(l.ModuleIDs)
	return l, true
}

// LevelByNumber returns the first level (in Number order) whose Number is n.
func (r *Registry) LevelByNumber(n int) (domain.EnhancementLevel, bool) {
	for _, id := range r.levelOrder {
		if r.levels[id].Number == n {
			return r.Level(id)
		}
	}
	return domain.EnhancementLevel{}, false
}

// Levels returns all levels ordered by Number.
func (r *Registry) Levels() []domain.EnhancementLevel {
	out := make([]domain.EnhancementLevel, 0, len(r.levelOrder))
	for _, id := range r.levelOrder {
		l, _ := r.Level(id)
		out = append(out, l)
	}
	return out
}

func cloneModule(m domain.EnhancementModule) domain.EnhancementModule {
	m.CodePatterns = slices.Clone(m.CodePatterns)
	m.Triggers = slices.Clone(m.Triggers)
	return m
}
