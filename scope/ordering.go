package scope

// Ordering declares the legal scope nesting, outermost first. A scope may
// only be entered while every scope before it in the ordering is either
// active or skipped; a dependant in one scope may depend only on dependants
// in the same scope or an earlier (longer-lived) one.
type Ordering []string

// Index returns the position of name in the ordering, or -1.
func (o Ordering) Index(name string) int {
	for i, s := range o {
		if s == name {
			return i
		}
	}
	return -1
}

// Declared reports whether name appears in the ordering.
func (o Ordering) Declared(name string) bool {
	return o.Index(name) >= 0
}

// Innermost returns the last (shortest-lived) scope name. Dependants with an
// empty scope tag resolve here.
func (o Ordering) Innermost() string {
	if len(o) == 0 {
		return ""
	}
	return o[len(o)-1]
}

// Outlives reports whether a value in scope a strictly outlives one in scope
// b, i.e. a is an ancestor of b.
func (o Ordering) Outlives(a, b string) bool {
	ia, ib := o.Index(a), o.Index(b)
	return ia >= 0 && ib >= 0 && ia < ib
}
