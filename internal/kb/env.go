package kb

import (
	"fmt"
	"sort"
)

// Environment is the merged view over all loaded modules. Declarations are
// unique across the environment; modules are kept in name order so every
// walk over the knowledge base is deterministic.
type Environment struct {
	modules  []*Module
	decls    map[DeclID]*Declaration
	moduleOf map[DeclID]string
}

// NewEnvironment returns an empty environment.
func NewEnvironment() *Environment {
	return &Environment{
		decls:    make(map[DeclID]*Declaration),
		moduleOf: make(map[DeclID]string),
	}
}

// AddModule merges a module into the environment. A declaration exported by
// two snapshots is a load error, as is a second snapshot for the same module.
func (e *Environment) AddModule(m *Module) error {
	for _, existing := range e.modules {
		if existing.Name == m.Name {
			return fmt.Errorf("module %q loaded twice", m.Name)
		}
	}

	for _, d := range m.Declarations {
		if d.Name == "" {
			return fmt.Errorf("module %q contains a declaration without a name", m.Name)
		}
		if other, ok := e.moduleOf[d.Name]; ok {
			return fmt.Errorf("declaration %q exported by both %q and %q", d.Name, other, m.Name)
		}
	}

	for _, d := range m.Declarations {
		e.decls[d.Name] = d
		e.moduleOf[d.Name] = m.Name
	}

	e.modules = append(e.modules, m)
	sort.Slice(e.modules, func(i, j int) bool { return e.modules[i].Name < e.modules[j].Name })
	return nil
}

// Lookup resolves a declaration identifier.
func (e *Environment) Lookup(id DeclID) (*Declaration, bool) {
	d, ok := e.decls[id]
	return d, ok
}

// ModuleOf returns the name of the module that exported the declaration.
func (e *Environment) ModuleOf(id DeclID) (string, bool) {
	m, ok := e.moduleOf[id]
	return m, ok
}

// Modules returns the loaded modules in name order.
func (e *Environment) Modules() []*Module {
	return e.modules
}

// Len returns the number of declarations in the environment.
func (e *Environment) Len() int {
	return len(e.decls)
}
