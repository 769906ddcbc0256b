package cmd

import (
	"fmt"
	"go/token"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mezzolang/mezzo/driver"
	"github.com/mezzolang/mezzo/internal/log"
)

// LastExitCode is the ExitCode of the most recent RunE invocation.
// cobra's Command.Execute only ever returns a plain error, so main
// reads this back out after Execute returns to decide which of §6's
// 0/250-255 statuses to pass to os.Exit; it is written before RunE
// returns, including on success, so main never sees a stale value
// from an earlier run within the same process.
var LastExitCode driver.ExitCode

var RootCmd = &cobra.Command{
	Use:          "mezzo <file.mz>",
	Short:        "mezzo: a statically-typed language with substructural permissions",
	Args:         cobra.ExactArgs(1),
	RunE:         runCompile,
	SilenceUsage: true,
}

var (
	includeDirs   *[]string
	noAutoInclude *bool
	debugLevel    *int
	explain       *bool
)

func init() {
	includeDirs = RootCmd.Flags().StringArrayP("include", "I", nil, "additional directory to search for module interfaces")
	noAutoInclude = RootCmd.Flags().Bool("no-auto-include", false, "do not auto-include pervasives and core")
	debugLevel = RootCmd.Flags().IntP("debug", "d", int(slog.LevelError), "log level (lower is more verbose)")
	explain = RootCmd.Flags().Bool("explain", false, "render derivation trees under permission errors")
}

func runCompile(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*debugLevel))

	settings := driver.Settings{
		IncludeDirs:   *includeDirs,
		NoAutoInclude: *noAutoInclude,
		DebugLevel:    *debugLevel,
		Explain:       *explain,
	}

	fset := token.NewFileSet()
	cache := driver.NewInterfaceCache()

	env, errs, err := driver.CompileModule(fset, args[0], settings, cache)
	LastExitCode = driver.ExitCodeFor(err, errs)

	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return err
	}
	if errs.HasError() {
		_, _ = fmt.Fprint(os.Stderr, driver.FormatDiagnostics(fset, errs, settings.Explain))
		return fmt.Errorf("compilation failed with %d error(s)", len(errs.Errors()))
	}
	_ = env
	return nil
}
