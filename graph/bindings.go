package graph

// Bindings maps keys to the dependants that override their defaults.
// Bindings are applied before graph walking; the built graph is binding-free.
type Bindings map[Key]*Dependant

// Bind registers dep as the provider for key, replacing any previous binding.
func (b Bindings) Bind(key Key, dep *Dependant) {
	b[key] = dep
}

// Lookup returns the bound dependant for key, if any.
func (b Bindings) Lookup(key Key) (*Dependant, bool) {
	d, ok := b[key]
	return d, ok
}

// Clone returns a shallow copy of the binding table. Dependants are immutable
// so sharing them between tables is safe.
func (b Bindings) Clone() Bindings {
	c := make(Bindings, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}
