// Package checker implements components E through C of the checker:
// the persistent environment (E), the fact lattice (F), permission
// subtraction (S), permission addition (A), branch merging (M), and
// the bidirectional expression checker (C) built on top of core's
// locally-nameless representation (T).
package checker

import (
	"fmt"

	"github.com/benbjohnson/immutable"
	"github.com/mezzolang/mezzo/core"
)

// level is the let-polymorphism nesting depth a variable was allocated
// at. It is recorded on each Variable; no generalization step reads it.
type level uint32

// Variable is everything the environment knows about one core.VarID:
// its kind, an optional source name (for diagnostics), the level it
// was opened at, and — for a flexible (unification) variable — its
// current instantiation, if chosen.
type Variable struct {
	ID        core.VarID
	NameHint  string
	Kind      core.Kind
	Level     level
	Flexible  bool
	Repr      core.Type // non-nil once a flexible variable has been instantiated
}

// Env is the persistent, copy-on-write checker environment (component
// E, §4.2). Every mutating-looking method returns a new *Env sharing
// structure with its parent, so a child scope shares everything but
// its own bindings with its parent.
type Env struct {
	vars  *immutable.Map[core.VarID, *Variable] // every bound variable, flexible or rigid
	perms *immutable.Map[core.VarID, []core.Type] // x's permission list, §4.2 "get_permissions"
	floating []core.Type // permissions not anchored on any variable
	facts    *immutable.Map[core.VarID, Fact]    // memoized fact of abstract/applied types, §4.3
	dataDefs *immutable.Map[core.VarID, *core.DataDefinition]
	datacons *immutable.Map[string, core.VarID] // datacon name -> owning group's head
	names    *immutable.Map[string, core.VarID] // source identifier -> bound VarID, for the current lexical scope
	level       level
	fresh       *uint64 // shared counter across every Env derived from the same root
	inconsistent bool
}

// NewEnv returns the empty root environment, with no bound variables.
func NewEnv() *Env {
	counter := uint64(0)
	return &Env{
		vars:     immutable.NewMap[core.VarID, *Variable](nil),
		perms:    immutable.NewMap[core.VarID, []core.Type](nil),
		facts:    immutable.NewMap[core.VarID, Fact](nil),
		dataDefs: immutable.NewMap[core.VarID, *core.DataDefinition](nil),
		datacons: immutable.NewMap[string, core.VarID](nil),
		names:    immutable.NewMap[string, core.VarID](nil),
		fresh:    &counter,
	}
}

// BindName associates a source identifier with a VarID in the current
// lexical scope — the program-variable analogue of DeclareDataDefinition.
func (e *Env) BindName(name string, id core.VarID) *Env {
	next := e.clone()
	next.names = e.names.Set(name, id)
	return next
}

func (e *Env) LookupName(name string) (core.VarID, bool) {
	return e.names.Get(name)
}

// RegisterDatacon indexes a branch name under its defining group's
// head, so pattern matching and construction can find the group from
// just the constructor name written in source.
func (e *Env) RegisterDatacon(datacon string, head core.VarID) *Env {
	next := e.clone()
	next.datacons = e.datacons.Set(datacon, head)
	return next
}

func (e *Env) DataconOwner(datacon string) (core.VarID, bool) {
	return e.datacons.Get(datacon)
}

// DataconTemplate returns the (unapplied, still Forall-abstracted)
// ConcreteType branch for a datacon name, if registered.
func (e *Env) DataconTemplate(datacon string) (core.ConcreteType, bool) {
	head, ok := e.DataconOwner(datacon)
	if !ok {
		return core.ConcreteType{}, false
	}
	def, ok := e.DataDefinition(head)
	if !ok {
		return core.ConcreteType{}, false
	}
	for _, b := range def.Branches {
		if b.Datacon == datacon {
			return b, true
		}
	}
	return core.ConcreteType{}, false
}

// clone returns a shallow copy of e; every method that "modifies" the
// environment calls clone and mutates only the copy's top-level fields,
// leaving every *immutable.Map shared until a Set/Delete call on it
// produces a new persistent version.
func (e *Env) clone() *Env {
	copied := *e
	return &copied
}

// freshID allocates a new VarID unique within this Env's whole family
// (root and every descendant), mirroring Fresher.newTypeVariable.
func (e *Env) freshID() core.VarID {
	*e.fresh++
	return core.VarID(*e.fresh)
}

// BindRigid introduces a new rigid (skolem) variable of the given kind
// — used when opening a Forall under a lambda parameter or a pattern
// match, where the bound name must not unify with anything (§3's
// Flavor=CannotInstantiate, §4.2).
func (e *Env) BindRigid(nameHint string, kind core.Kind) (*Env, core.VarID) {
	id := e.freshID()
	next := e.clone()
	next.vars = e.vars.Set(id, &Variable{ID: id, NameHint: nameHint, Kind: kind, Level: e.level})
	return next, id
}

// BindFlexible introduces a new flexible (unification) variable: one
// that Instantiate may later resolve to a concrete Type, used when
// opening an Exists, or when a call site lets the checker infer a type
// argument (§3's Flavor=CanInstantiate).
func (e *Env) BindFlexible(nameHint string, kind core.Kind) (*Env, core.VarID) {
	id := e.freshID()
	next := e.clone()
	next.vars = e.vars.Set(id, &Variable{ID: id, NameHint: nameHint, Kind: kind, Level: e.level, Flexible: true})
	return next, id
}

// OpenForall opens a ForallType's body by binding its quantifier to a
// fresh variable of the appropriate flavor and substituting it for
// Bound(0) throughout the body (§4.1 "open").
func (e *Env) OpenForall(t core.ForallType) (*Env, core.VarID, core.Type) {
	var next *Env
	var id core.VarID
	if t.Binding.Flavor == core.CanInstantiate {
		next, id = e.BindFlexible(t.Binding.NameHint, t.Binding.Kind)
	} else {
		next, id = e.BindRigid(t.Binding.NameHint, t.Binding.Kind)
	}
	body := core.Subst(t.Body, 0, core.OpenType{Var: id})
	return next, id, body
}

// OpenExists opens an ExistsType's body the same way OpenForall does;
// kept distinct because take/unpack sites need to tell the two apart
// for diagnostics even though the substitution machinery is identical.
func (e *Env) OpenExists(t core.ExistsType) (*Env, core.VarID, core.Type) {
	var next *Env
	var id core.VarID
	if t.Binding.Flavor == core.CanInstantiate {
		next, id = e.BindFlexible(t.Binding.NameHint, t.Binding.Kind)
	} else {
		next, id = e.BindRigid(t.Binding.NameHint, t.Binding.Kind)
	}
	body := core.Subst(t.Body, 0, core.OpenType{Var: id})
	return next, id, body
}

// Variable looks up what the environment knows about a bound VarID.
func (e *Env) Variable(id core.VarID) (*Variable, bool) {
	return e.vars.Get(id)
}

// IsFlexible reports whether id names a variable that may still be
// instantiated (§4.2 "is_flexible").
func (e *Env) IsFlexible(id core.VarID) bool {
	v, ok := e.vars.Get(id)
	return ok && v.Flexible && v.Repr == nil
}

// CanInstantiate reports whether id's binder permits instantiation at
// all — distinct from IsFlexible, which also requires no prior
// instantiation (§3's two Flavors).
func (e *Env) CanInstantiate(id core.VarID) bool {
	v, ok := e.vars.Get(id)
	return ok && v.Flexible
}

// InstantiateFlexible records id's chosen representative, §4.2
// "instantiate_flexible". Returns a new Env; the caller must use the
// new Env's Representative/ModuloFlex from this point on.
func (e *Env) InstantiateFlexible(id core.VarID, repr core.Type) *Env {
	v, ok := e.vars.Get(id)
	if !ok {
		panic(fmt.Sprintf("checker: instantiate of unbound variable %s", id))
	}
	updated := *v
	updated.Repr = repr
	next := e.clone()
	next.vars = e.vars.Set(id, &updated)
	return next
}

// Representative implements core.FlexResolver: chase id to its current
// instantiation, if the environment has recorded one.
func (e *Env) Representative(id core.VarID) (core.Type, bool) {
	v, ok := e.vars.Get(id)
	if !ok || v.Repr == nil {
		return nil, false
	}
	return v.Repr, true
}

// Reflexibilize forgets a flexible variable's chosen instantiation,
// leaving it free to be instantiated again — §4.6's rule for a
// variable a merge finds instantiated in only one branch, or in both
// branches to incompatible representatives.
func (e *Env) Reflexibilize(id core.VarID) *Env {
	v, ok := e.vars.Get(id)
	if !ok || v.Repr == nil {
		return e
	}
	updated := *v
	updated.Repr = nil
	next := e.clone()
	next.vars = e.vars.Set(id, &updated)
	return next
}

// Permissions returns x's current permission list — the conjuncts of
// the Star-flattened permission anchored on x (§4.2 "get_permissions").
func (e *Env) Permissions(x core.VarID) []core.Type {
	ps, _ := e.perms.Get(x)
	return ps
}

// SetPermissions replaces x's permission list wholesale; S/A/M all
// call this after computing the new list rather than mutating in
// place, keeping every intermediate Env reusable for backtracking.
func (e *Env) SetPermissions(x core.VarID, perms []core.Type) *Env {
	next := e.clone()
	next.perms = e.perms.Set(x, perms)
	return next
}

// AddPermission appends one conjunct to x's permission list.
func (e *Env) AddPermission(x core.VarID, perm core.Type) *Env {
	return e.SetPermissions(x, append(append([]core.Type{}, e.Permissions(x)...), perm))
}

// Floating returns the permissions not anchored to any particular
// variable — duplicable facts and bare `and`-less and constraints
// float free in E until S consumes them (§4.2).
func (e *Env) Floating() []core.Type { return e.floating }

func (e *Env) AddFloating(perm core.Type) *Env {
	next := e.clone()
	next.floating = append(append([]core.Type{}, e.floating...), perm)
	return next
}

// Nest increases the let-polymorphism level by one before checking a
// let-bound value; variables allocated while checking it record the
// deeper level. Nothing is generalized when the let is done.
func (e *Env) Nest() *Env {
	next := e.clone()
	next.level = e.level + 1
	return next
}

func (e *Env) Level() level { return e.level }

// MarkInconsistent flags this branch as having derived a
// contradiction (e.g. a Bottom permission); the checker treats every
// subsequent obligation in this Env as trivially satisfied, mirroring
// ex falso (§4.7 note on `fail`).
func (e *Env) MarkInconsistent() *Env {
	next := e.clone()
	next.inconsistent = true
	return next
}

func (e *Env) IsInconsistent() bool { return e.inconsistent }

// DeclareDataDefinition registers a data-type group under its head
// variable, §4.3. Used by the translator once it has opened a fresh
// rigid variable to stand for the group's own name.
func (e *Env) DeclareDataDefinition(head core.VarID, def *core.DataDefinition) *Env {
	next := e.clone()
	next.dataDefs = e.dataDefs.Set(head, def)
	for _, b := range def.Branches {
		next.datacons = next.datacons.Set(b.Datacon, head)
	}
	return next
}

func (e *Env) DataDefinition(head core.VarID) (*core.DataDefinition, bool) {
	return e.dataDefs.Get(head)
}

// stripNonDuplicable returns a copy of e whose permission lists keep
// only duplicable permissions, used by subArrow (§4.4 tie-break notes:
// "a function value only captures duplicable state").
func stripNonDuplicable(e *Env) *Env {
	next := e.clone()
	itr := e.perms.Iterator()
	stripped := immutable.NewMap[core.VarID, []core.Type](nil)
	for !itr.Done() {
		x, perms, _ := itr.Next()
		var kept []core.Type
		for _, p := range perms {
			if IsDuplicable(e, p) {
				kept = append(kept, p)
			}
		}
		stripped = stripped.Set(x, kept)
	}
	next.perms = stripped
	return next
}

// LookupExpanded implements core.DataTypeResolver: instantiate head's
// data definition (if any) at args and report its branches.
func (e *Env) LookupExpanded(head core.VarID, args []core.Type) (core.DataDefinitionView, bool) {
	def, ok := e.dataDefs.Get(head)
	if !ok {
		return core.DataDefinitionView{}, false
	}
	branches := def.Instantiate(args)
	view := core.DataDefinitionView{Branches: make([]core.Type, len(branches))}
	for i, b := range branches {
		view.Branches[i] = b
	}
	return view, true
}
