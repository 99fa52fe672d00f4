package store

import (
	"sort"
	"sync"

	"github.com/hupe1980/colgo/schema"
)

// Registry is the process-scoped map from table name to table data.
//
// It is an explicit object owned by the application's top-level context,
// never ambient global state. Registry operations are safe to call
// concurrently with each other and with table-level reads and writes on
// other tables; the registry lock only covers installing and removing the
// table reference, never a table's own reader-writer lock.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*Data
}

// NewRegistry creates an empty table registry.
func NewRegistry() *Registry {
	return &Registry{
		tables: make(map[string]*Data),
	}
}

// Create builds a schema from cols and atomically installs a new empty table.
// It fails with ErrTableExists if the name is taken.
func (r *Registry) Create(name string, cols []schema.Column) (*Data, error) {
	s, err := schema.New(cols)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.tables[name]; taken {
		return nil, &ErrTableExists{Table: name}
	}

	data := NewData(s)
	r.tables[name] = data
	return data, nil
}

// Get returns the table data for name, or ErrUnknownTable if absent.
func (r *Registry) Get(name string) (*Data, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, ok := r.tables[name]
	if !ok {
		return nil, &ErrUnknownTable{Table: name}
	}
	return data, nil
}

// Exists reports whether a table with the given name is registered.
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.tables[name]
	return ok
}

// Drop atomically removes the table's schema and data.
// It fails with ErrUnknownTable if absent.
func (r *Registry) Drop(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tables[name]; !ok {
		return &ErrUnknownTable{Table: name}
	}
	delete(r.tables, name)
	return nil
}

// Names returns the registered table names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
