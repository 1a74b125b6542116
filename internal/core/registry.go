package core

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// TableInfo contains display information about a mapped table.
type TableInfo struct {
	Key   string // Unique identifier used in URLs: "contacts"
	Group string // Display grouping: "CRM"
	Label string // Display name: "Contacts"
}

// OpenFunc binds a registered model type to its table in c.
type OpenFunc func(c Container, host Host, opts ...Option) (Store, error)

// TableDefinition is a registry entry.
type TableDefinition struct {
	Info TableInfo
	Open OpenFunc
}

// Define builds the registry entry of model type T. The model declaration
// is validated eagerly; an invalid declaration panics at registration.
func Define[T any](info TableInfo) TableDefinition {
	if _, err := specOf[T](); err != nil {
		panic(fmt.Sprintf("define table %s: %v", info.Key, err))
	}
	return TableDefinition{
		Info: info,
		Open: func(c Container, host Host, opts ...Option) (Store, error) {
			tc, err := Open[T](c, host, opts...)
			if err != nil {
				return nil, err
			}
			return Erase(tc), nil
		},
	}
}

var (
	registryMu sync.RWMutex
	registry   = map[string]TableDefinition{}
)

// Register adds a table definition to the registry. Registering the same
// key twice panics.
func Register(def TableDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, dup := registry[def.Info.Key]; dup {
		panic(fmt.Sprintf("table already registered: %s", def.Info.Key))
	}
	registry[def.Info.Key] = def
}

// Get returns a table definition by key.
func Get(key string) (TableDefinition, bool) {
	registryMu.RLock()
	def, ok := registry[key]
	registryMu.RUnlock()
	return def, ok
}

// All returns every registered definition ordered by group, then key.
func All() []TableDefinition {
	defs := snapshot(func(TableDefinition) bool { return true })
	slices.SortFunc(defs, func(a, b TableDefinition) int {
		if c := cmp.Compare(a.Info.Group, b.Info.Group); c != 0 {
			return c
		}
		return cmp.Compare(a.Info.Key, b.Info.Key)
	})
	return defs
}

// ByGroup returns the definitions of one group ordered by key.
func ByGroup(group string) []TableDefinition {
	defs := snapshot(func(d TableDefinition) bool { return d.Info.Group == group })
	slices.SortFunc(defs, func(a, b TableDefinition) int {
		return cmp.Compare(a.Info.Key, b.Info.Key)
	})
	return defs
}

// Groups returns the distinct group names in order.
func Groups() []string {
	var groups []string
	for _, d := range snapshot(func(TableDefinition) bool { return true }) {
		groups = append(groups, d.Info.Group)
	}
	slices.Sort(groups)
	return slices.Compact(groups)
}

// TableCount returns the number of registered tables.
func TableCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear empties the registry. Tests use it to isolate registrations.
func Clear() {
	registryMu.Lock()
	clear(registry)
	registryMu.Unlock()
}

func snapshot(keep func(TableDefinition) bool) []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var out []TableDefinition
	for _, d := range registry {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// OpenAll binds every registered table found in c. Tables missing from the
// workbook are reported in missing rather than failing the whole call.
func OpenAll(c Container, host Host, opts ...Option) (stores map[string]Store, missing []string, err error) {
	stores = make(map[string]Store)
	for _, def := range All() {
		s, err := def.Open(c, host, opts...)
		if err != nil {
			if errors.Is(err, ErrMissingTable) {
				missing = append(missing, def.Info.Key)
				continue
			}
			return nil, nil, fmt.Errorf("open table %s: %w", def.Info.Key, err)
		}
		stores[def.Info.Key] = s
	}
	return stores, missing, nil
}
