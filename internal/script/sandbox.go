package script

import (
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/tessera/internal/logging"
)

// newState creates a Lua state with only the safe standard libraries.
func newState(logger *logging.Logger) *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true, // We'll open selectively
	})

	// Base library (type, pairs, ipairs, tostring, ...) and the pure
	// libraries. io, os, debug and package are intentionally not opened.
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Remove functions that load code from outside the scene.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}

	installPrint(L, logger)
	return L
}

// installPrint routes print to the logger; a scene draws on the terminal,
// so stdout is not available to it.
func installPrint(L *lua.LState, logger *logging.Logger) {
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		logger.Info("%s", strings.Join(parts, "\t"))
		return 0
	}))
}
