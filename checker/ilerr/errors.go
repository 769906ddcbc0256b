package ilerr

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/mezzolang/mezzo/frontend/ast"
)

// enableDebugErrorPrinting makes FormatWithCode include the call site
// that raised the error, read off its captured stack trace.
const enableDebugErrorPrinting = true

type ErrCode int

const (
	None ErrCode = iota
	Parse
	UndefinedVariable
	UndefinedDatacon
	UndefinedField
	ArityMismatch
	KindMismatch
	PermissionNotFound
	NonDuplicableUse
	MutationWithoutExclusive
	MergeIncompatible
	NonExhaustiveMatch
	MissingDiscardCase
	AdoptsClauseMissing
	NameRedeclaration
	InterfaceMismatch
	CyclicModuleDependency
	UnresolvedImport
	InconsistentEnvironment
)

// IleError is the closed diagnostic type every checker error
// implements. withStack/getStack are unexported so only ilerr.New can
// attach a trace, keeping construction uniform.
type IleError interface {
	Error() string
	Code() ErrCode
	ast.Positioner

	withStack([]byte) IleError
	getStack() []byte
}

func FormatWithCode(e IleError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		lines := strings.Split(string(e.getStack()), "\n")
		site := ""
		if len(lines) > 6 {
			site = strings.TrimSpace(lines[6])
		}
		return fmt.Sprintf("%s:(E%03d) %s", site, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

// New captures the current stack and returns err ready to accumulate
// into an *Errors.
func New[E IleError](err E) IleError {
	return err.withStack(debug.Stack())
}

type NewParse struct {
	ast.Positioner
	Message string
	stack   []byte
}

func (e NewParse) Error() string           { return e.Message }
func (e NewParse) Code() ErrCode            { return Parse }
func (e NewParse) getStack() []byte         { return e.stack }
func (e NewParse) withStack(s []byte) IleError { e.stack = s; return e }

type NewUndefinedVariable struct {
	ast.Positioner
	Name  string
	stack []byte
}

func (e NewUndefinedVariable) Error() string {
	return fmt.Sprintf("variable '%s' is not defined", e.Name)
}
func (e NewUndefinedVariable) Code() ErrCode    { return UndefinedVariable }
func (e NewUndefinedVariable) getStack() []byte { return e.stack }
func (e NewUndefinedVariable) withStack(s []byte) IleError {
	e.stack = s
	return e
}

type NewUndefinedDatacon struct {
	ast.Positioner
	Name  string
	stack []byte
}

func (e NewUndefinedDatacon) Error() string {
	return fmt.Sprintf("data constructor '%s' is not defined", e.Name)
}
func (e NewUndefinedDatacon) Code() ErrCode    { return UndefinedDatacon }
func (e NewUndefinedDatacon) getStack() []byte { return e.stack }
func (e NewUndefinedDatacon) withStack(s []byte) IleError {
	e.stack = s
	return e
}

type NewUndefinedField struct {
	ast.Positioner
	Datacon, Field string
	stack          []byte
}

func (e NewUndefinedField) Error() string {
	return fmt.Sprintf("'%s' has no field '%s'", e.Datacon, e.Field)
}
func (e NewUndefinedField) Code() ErrCode    { return UndefinedField }
func (e NewUndefinedField) getStack() []byte { return e.stack }
func (e NewUndefinedField) withStack(s []byte) IleError {
	e.stack = s
	return e
}

type NewArityMismatch struct {
	ast.Positioner
	Name     string
	Expected int
	Got      int
	stack    []byte
}

func (e NewArityMismatch) Error() string {
	return fmt.Sprintf("'%s' expects %d type argument(s), got %d", e.Name, e.Expected, e.Got)
}
func (e NewArityMismatch) Code() ErrCode    { return ArityMismatch }
func (e NewArityMismatch) getStack() []byte { return e.stack }
func (e NewArityMismatch) withStack(s []byte) IleError {
	e.stack = s
	return e
}

type NewKindMismatch struct {
	ast.Positioner
	Expected, Got string
	stack         []byte
}

func (e NewKindMismatch) Error() string {
	return fmt.Sprintf("expected kind %s, got %s", e.Expected, e.Got)
}
func (e NewKindMismatch) Code() ErrCode    { return KindMismatch }
func (e NewKindMismatch) getStack() []byte { return e.stack }
func (e NewKindMismatch) withStack(s []byte) IleError {
	e.stack = s
	return e
}

// NewPermissionNotFound is raised by sub_type (S) when no permission in
// scope for the anchored variable can be subtracted against the
// requested type, §4.4.
type NewPermissionNotFound struct {
	ast.Positioner
	Variable   string
	Wanted     string
	Have       string
	Derivation Derivation // zero value renders as nothing; --explain only
	stack      []byte
}

func (e NewPermissionNotFound) Error() string {
	return fmt.Sprintf("could not find permission '%s' for '%s'; have '%s'", e.Wanted, e.Variable, e.Have)
}
func (e NewPermissionNotFound) Code() ErrCode    { return PermissionNotFound }
func (e NewPermissionNotFound) getStack() []byte { return e.stack }
func (e NewPermissionNotFound) withStack(s []byte) IleError {
	e.stack = s
	return e
}
func (e NewPermissionNotFound) DerivationTree() Derivation { return e.Derivation }

// NewNonDuplicableUse is raised when a variable without fact
// Duplicable is referenced a second time without the first use having
// consumed-and-restored its permission (§1, §4.5).
type NewNonDuplicableUse struct {
	ast.Positioner
	Variable string
	stack    []byte
}

func (e NewNonDuplicableUse) Error() string {
	return fmt.Sprintf("'%s' is not duplicable and its permission has already been consumed here", e.Variable)
}
func (e NewNonDuplicableUse) Code() ErrCode    { return NonDuplicableUse }
func (e NewNonDuplicableUse) getStack() []byte { return e.stack }
func (e NewNonDuplicableUse) withStack(s []byte) IleError {
	e.stack = s
	return e
}

type NewMutationWithoutExclusive struct {
	ast.Positioner
	Variable string
	stack    []byte
}

func (e NewMutationWithoutExclusive) Error() string {
	return fmt.Sprintf("cannot mutate '%s' without an exclusive permission to it", e.Variable)
}
func (e NewMutationWithoutExclusive) Code() ErrCode    { return MutationWithoutExclusive }
func (e NewMutationWithoutExclusive) getStack() []byte { return e.stack }
func (e NewMutationWithoutExclusive) withStack(s []byte) IleError {
	e.stack = s
	return e
}

// NewMergeIncompatible is raised when merge (M) cannot find a common
// post-branch environment for an if/match's two arms, §4.6.
type NewMergeIncompatible struct {
	ast.Positioner
	Variable string
	Left     string
	Right    string
	stack    []byte
}

func (e NewMergeIncompatible) Error() string {
	return fmt.Sprintf("branches disagree on the type of '%s': '%s' vs '%s'", e.Variable, e.Left, e.Right)
}
func (e NewMergeIncompatible) Code() ErrCode    { return MergeIncompatible }
func (e NewMergeIncompatible) getStack() []byte { return e.stack }
func (e NewMergeIncompatible) withStack(s []byte) IleError {
	e.stack = s
	return e
}

type NewNonExhaustiveMatch struct {
	ast.Positioner
	Missing []string
	stack   []byte
}

func (e NewNonExhaustiveMatch) Error() string {
	return fmt.Sprintf("non-exhaustive match, missing: %s", strings.Join(e.Missing, ", "))
}
func (e NewNonExhaustiveMatch) Code() ErrCode    { return NonExhaustiveMatch }
func (e NewNonExhaustiveMatch) getStack() []byte { return e.stack }
func (e NewNonExhaustiveMatch) withStack(s []byte) IleError {
	e.stack = s
	return e
}

type NewMissingDiscardCase struct {
	ast.Positioner
	stack []byte
}

func (e NewMissingDiscardCase) Error() string {
	return "last case of match is missing a final discard pattern '_'"
}
func (e NewMissingDiscardCase) Code() ErrCode    { return MissingDiscardCase }
func (e NewMissingDiscardCase) getStack() []byte { return e.stack }
func (e NewMissingDiscardCase) withStack(s []byte) IleError {
	e.stack = s
	return e
}

type NewAdoptsClauseMissing struct {
	ast.Positioner
	Datacon string
	stack   []byte
}

func (e NewAdoptsClauseMissing) Error() string {
	return fmt.Sprintf("'%s' does not declare an adopts clause and cannot adopt", e.Datacon)
}
func (e NewAdoptsClauseMissing) Code() ErrCode    { return AdoptsClauseMissing }
func (e NewAdoptsClauseMissing) getStack() []byte { return e.stack }
func (e NewAdoptsClauseMissing) withStack(s []byte) IleError {
	e.stack = s
	return e
}

type NewNameRedeclaration struct {
	ast.Positioner
	Name  string
	Other ast.Positioner
	stack []byte
}

func (e NewNameRedeclaration) Error() string {
	return fmt.Sprintf("'%s' is already declared", e.Name)
}
func (e NewNameRedeclaration) Code() ErrCode    { return NameRedeclaration }
func (e NewNameRedeclaration) getStack() []byte { return e.stack }
func (e NewNameRedeclaration) withStack(s []byte) IleError {
	e.stack = s
	return e
}

// NewInterfaceMismatch is raised by the driver's post-check that a
// module's implementation satisfies its .mzi interface, §6.
type NewInterfaceMismatch struct {
	ast.Positioner
	Name   string
	Reason string
	stack  []byte
}

func (e NewInterfaceMismatch) Error() string {
	return fmt.Sprintf("'%s' does not satisfy its interface: %s", e.Name, e.Reason)
}
func (e NewInterfaceMismatch) Code() ErrCode    { return InterfaceMismatch }
func (e NewInterfaceMismatch) getStack() []byte { return e.stack }
func (e NewInterfaceMismatch) withStack(s []byte) IleError {
	e.stack = s
	return e
}

type NewCyclicModuleDependency struct {
	ast.Positioner
	Cycle []string
	stack []byte
}

func (e NewCyclicModuleDependency) Error() string {
	return fmt.Sprintf("cyclic module dependency: %s", strings.Join(e.Cycle, " -> "))
}
func (e NewCyclicModuleDependency) Code() ErrCode    { return CyclicModuleDependency }
func (e NewCyclicModuleDependency) getStack() []byte { return e.stack }
func (e NewCyclicModuleDependency) withStack(s []byte) IleError {
	e.stack = s
	return e
}

type NewUnresolvedImport struct {
	ast.Positioner
	ModuleName string
	stack      []byte
}

func (e NewUnresolvedImport) Error() string {
	return fmt.Sprintf("could not resolve module '%s' in any include directory", e.ModuleName)
}
func (e NewUnresolvedImport) Code() ErrCode    { return UnresolvedImport }
func (e NewUnresolvedImport) getStack() []byte { return e.stack }
func (e NewUnresolvedImport) withStack(s []byte) IleError {
	e.stack = s
	return e
}

// NewInconsistentEnvironment marks a checker.Env that has reached a
// permission state the S/A algorithms proved contradictory (bottom);
// it is not a surfaced user error so much as an internal short-circuit,
// but it is still renderable so --explain can show where it was hit.
type NewInconsistentEnvironment struct {
	ast.Positioner
	stack []byte
}

func (e NewInconsistentEnvironment) Error() string {
	return "environment became inconsistent (this branch is unreachable)"
}
func (e NewInconsistentEnvironment) Code() ErrCode    { return InconsistentEnvironment }
func (e NewInconsistentEnvironment) getStack() []byte { return e.stack }
func (e NewInconsistentEnvironment) withStack(s []byte) IleError {
	e.stack = s
	return e
}
