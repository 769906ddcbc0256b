package core

import "github.com/mezzolang/mezzo/frontend/ast"

// Expr is the term the backend evaluates. Check (component C) fuses
// surface-to-core translation directly into checking rather than
// building a second, separately-typed term IR, so there is nothing
// for a core-level expression tree to add over the already-resolved
// surface tree: every name in it has already been checked against an
// Env by the time a val reaches the backend. Expr is an alias, not a
// new type, so an ast.Expr value is usable wherever Expr is expected.
type Expr = ast.Expr
