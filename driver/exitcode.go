package driver

// ExitCode is the process exit status the CLI reports, per spec.md §6:
// 0 on success, 250-255 for distinct failure classes.
type ExitCode int

const (
	ExitOK ExitCode = 0

	// ExitLexError is a lexical error: an unrecognised character or
	// malformed literal while tokenizing.
	ExitLexError ExitCode = 250
	// ExitInvalidCodepoint is source text that is not valid UTF-8.
	ExitInvalidCodepoint ExitCode = 251
	// ExitParseError is a syntax error the parser could not recover
	// from.
	ExitParseError ExitCode = 252
	// ExitKindError covers every diagnostic frontend.KindCheck raises:
	// unbound type names, arity mismatches, malformed quantifier kinds.
	ExitKindError ExitCode = 253
	// ExitTypeError covers every diagnostic the checker itself raises
	// while checking vals, plus a failed interface-compatibility check.
	ExitTypeError ExitCode = 254
	// ExitFileNotFound is a missing source file or an unresolved
	// module dependency.
	ExitFileNotFound ExitCode = 255
)
