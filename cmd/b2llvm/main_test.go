package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b2llvm/b2llvm/internal/config"
	ioutilpkg "github.com/b2llvm/b2llvm/internal/ioutil"
	"github.com/b2llvm/b2llvm/internal/target"
)

// compileToIR runs compileOne against path and returns the textual IR it
// wrote, exercising the exact driver code path main() uses — read, parse,
// build, declare, emit, finalize, write — for each of the six scenarios.
func compileToIR(t *testing.T, path string) string {
	t.Helper()
	out := filepath.Join(t.TempDir(), "out.ll")
	opt := config.Options{
		Src:    []string{path},
		Out:    out,
		Emit:   config.EmitIR,
		Target: target.Descriptor{},
	}

	f, err := os.OpenFile(out, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
	require.NoError(t, err)
	defer f.Close()

	// ListenWrite/Close are the same package-level listener main() drives;
	// each subtest starts and tears one down around its own compileOne.
	wg := ioutilpkg.ListenWrite(f)
	require.NoError(t, compileOne(opt, path))
	wg.Wait()
	ioutilpkg.Close()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	return string(data)
}

func TestHelloWorldScenarioCompiles(t *testing.T) {
	ir := compileToIR(t, "../../testdata/hello_world.b")
	assert.Contains(t, ir, "define")
	// hello_world.b's only call target is putchar, extrn'd with no
	// top-level definition in this file: it must resolve to a declared
	// function symbol, not a loaded zero from a data placeholder.
	assert.Contains(t, ir, "declare")
	assert.Contains(t, ir, "@b.putchar")
	assert.NotContains(t, ir, "@b.putchar = ")
}

func TestCountdownScenarioCompilesTheCompoundSubtractAmbiguity(t *testing.T) {
	ir := compileToIR(t, "../../testdata/countdown.b")
	assert.Contains(t, ir, "sub")
}

func TestForwardGotoScenarioResolvesItsHook(t *testing.T) {
	ir := compileToIR(t, "../../testdata/forward_goto.b")
	assert.Contains(t, ir, "br label")
}

func TestFallthroughSwitchScenarioCompiles(t *testing.T) {
	ir := compileToIR(t, "../../testdata/fallthrough_switch.b")
	assert.Contains(t, ir, "icmp")
}

func TestForwardExternScenarioSharesTheTopLevelGlobal(t *testing.T) {
	ir := compileToIR(t, "../../testdata/forward_extern.b")
	assert.Contains(t, ir, "b.a")
}

func TestPointerSwapScenarioCompiles(t *testing.T) {
	ir := compileToIR(t, "../../testdata/pointer_swap.b")
	assert.Contains(t, ir, "define")
}
