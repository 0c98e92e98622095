// Package scoped wraps database access so every read against a tenant-owned
// table carries a tenant predicate derived from the caller's context. Call
// sites never filter by tenant themselves; forgetting to is structurally
// impossible for reads issued through this layer.
package scoped

// Entity declares a persisted table and, when the table is tenant-owned,
// the column holding the owning tenant id. An empty TenantColumn marks a
// shared, platform-global table.
type Entity struct {
	Table        string
	TenantColumn string
}

func (e Entity) tenantOwned() bool { return e.TenantColumn != "" }

// Registry is the entity metadata source: it answers which tables carry a
// tenant-owning column.
type Registry struct {
	entities map[string]Entity
}

func NewRegistry(entities ...Entity) *Registry {
	r := &Registry{entities: make(map[string]Entity, len(entities))}
	for _, e := range entities {
		r.entities[e.Table] = e
	}
	return r
}

// Lookup returns the declared metadata for table.
func (r *Registry) Lookup(table string) (Entity, bool) {
	if r == nil {
		return Entity{}, false
	}
	e, ok := r.entities[table]
	return e, ok
}
