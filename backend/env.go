package backend

// RuntimeEnv is a persistent name-to-value environment: binding a name
// returns a new RuntimeEnv sharing its parent, the same functional
// style checker.Env uses for permissions, so a closure can safely
// capture the environment at its definition site. Each binding stores
// a pointer to its value rather than the value itself so BindCell can
// tie the knot for mutually-recursive closures: the cell starts out
// empty, the closures are built (capturing this very environment), and
// only then is the cell filled in, which every closure observes
// through the shared pointer.
type RuntimeEnv struct {
	parent *RuntimeEnv
	name   string
	cell   *Value
}

// NewRuntimeEnv returns an empty environment.
func NewRuntimeEnv() *RuntimeEnv { return nil }

// Bind returns a new environment extending e with name bound to v,
// shadowing any earlier binding of the same name.
func (e *RuntimeEnv) Bind(name string, v Value) *RuntimeEnv {
	cell := v
	return &RuntimeEnv{parent: e, name: name, cell: &cell}
}

// BindCell extends e with name bound to an as-yet-unfilled cell,
// returning both the new environment and the cell so the caller can
// fill it in once the value is known.
func (e *RuntimeEnv) BindCell(name string) (*RuntimeEnv, *Value) {
	cell := new(Value)
	return &RuntimeEnv{parent: e, name: name, cell: cell}, cell
}

// Lookup finds the nearest binding of name, searching from the most
// recently bound outward.
func (e *RuntimeEnv) Lookup(name string) (Value, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.name == name {
			return *cur.cell, true
		}
	}
	return nil, false
}
