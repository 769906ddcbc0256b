package driver

import (
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mezzolang/mezzo/checker/ilerr"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(contents), 0o644))
	return p
}

func TestCompileModuleSuccessWithBuiltinsOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.mz", "val x = 1\nval y = true\n")

	fset := token.NewFileSet()
	env, errs, err := CompileModule(fset, path, Settings{}, NewInterfaceCache())
	require.NoError(t, err)
	assert.False(t, errs.HasError(), "%v", errs.Errors())
	require.NotNil(t, env)

	_, bound := env.LookupName("x")
	assert.True(t, bound)
	_, bound = env.LookupName("y")
	assert.True(t, bound)

	assert.Equal(t, ExitOK, ExitCodeFor(err, errs))
}

func TestCompileModuleFileNotFound(t *testing.T) {
	fset := token.NewFileSet()
	_, _, err := CompileModule(fset, filepath.Join(t.TempDir(), "missing.mz"), Settings{}, NewInterfaceCache())
	require.Error(t, err)
	assert.Equal(t, ExitFileNotFound, ExitCodeFor(err, nil))
}

func TestCompileModuleUnresolvedImport(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.mz", "open nosuchmodule\nval x = 1\n")

	fset := token.NewFileSet()
	_, errs, err := CompileModule(fset, path, Settings{NoAutoInclude: true}, NewInterfaceCache())
	require.NoError(t, err)
	require.True(t, errs.HasError())
	assert.Equal(t, ilerr.UnresolvedImport, errs.Errors()[0].Code())
	assert.Equal(t, ExitFileNotFound, ExitCodeFor(err, errs))
}

func TestCompileModuleInterfaceMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.mzi", "interface {\n  val x : unit;\n}\n")
	path := writeFile(t, dir, "main.mz", "data unit = Unit\nval x = 1\n")

	fset := token.NewFileSet()
	_, errs, err := CompileModule(fset, path, Settings{}, NewInterfaceCache())
	require.NoError(t, err)
	require.True(t, errs.HasError())
	found := false
	for _, e := range errs.Errors() {
		if e.Code() == ilerr.InterfaceMismatch {
			found = true
		}
	}
	assert.True(t, found, "%v", errs.Errors())
	assert.Equal(t, ExitTypeError, ExitCodeFor(err, errs))
}

func TestCompileModuleNoAutoIncludeStillCompilesSelfContained(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.mz", "val x = 1\n")

	fset := token.NewFileSet()
	_, errs, err := CompileModule(fset, path, Settings{NoAutoInclude: true}, NewInterfaceCache())
	require.NoError(t, err)
	assert.False(t, errs.HasError(), "%v", errs.Errors())
}
