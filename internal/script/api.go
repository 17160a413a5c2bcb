package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/displaylist"
)

// installAPI creates the global ui table.
func (r *Runner) installAPI() {
	L := r.L
	ui := L.NewTable()

	fns := map[string]lua.LGFunction{
		"clip":    r.luaClip,
		"layer":   r.luaLayer,
		"pop":     r.luaPop,
		"rect":    r.luaRect,
		"border":  r.luaBorder,
		"text":    r.luaText,
		"rgb":     luaRGB,
		"blend":   luaBlend,
		"lighten": luaLighten,
		"darken":  luaDarken,
		"measure": r.luaMeasure,
	}
	for name, fn := range fns {
		L.SetField(ui, name, L.NewFunction(fn))
	}

	L.SetGlobal("ui", ui)
	r.ui = ui
}

// record appends op, enforcing the op limit.
func (r *Runner) record(L *lua.LState, op displaylist.Op) {
	r.ops++
	if r.opts.MaxOps > 0 && r.ops > r.opts.MaxOps {
		r.overOps = true
		L.RaiseError("operation limit %d exceeded", r.opts.MaxOps)
		return
	}
	r.builder.Append(op)
}

// ui.clip(x, y, w, h)
func (r *Runner) luaClip(L *lua.LState) int {
	r.record(L, displaylist.ClipPush{Rect: checkRect(L, 1)})
	return 0
}

// ui.layer()
func (r *Runner) luaLayer(L *lua.LState) int {
	r.record(L, displaylist.LayerPush{})
	return 0
}

// ui.pop()
func (r *Runner) luaPop(L *lua.LState) int {
	r.record(L, displaylist.Pop{})
	return 0
}

// ui.rect(x, y, w, h, color)
func (r *Runner) luaRect(L *lua.LState) int {
	rect := checkRect(L, 1)
	r.record(L, displaylist.Rect{Rect: rect, Fill: checkColor(L, 5)})
	return 0
}

// ui.border(x, y, w, h [, style [, color]])
func (r *Runner) luaBorder(L *lua.LState) int {
	rect := checkRect(L, 1)
	style := L.OptString(5, "single")
	color := core.ColorWhite
	if c, ok := optColor(L, 6); ok {
		color = c
	}
	r.record(L, displaylist.Border{Rect: rect, Style: style, Color: color})
	return 0
}

// ui.text(x, y, s, fg [, bg [, attrs]])
func (r *Runner) luaText(L *lua.LState) int {
	op := displaylist.TextRun{
		X:    L.CheckInt(1),
		Y:    L.CheckInt(2),
		Text: L.CheckString(3),
		Fg:   checkColor(L, 4),
	}
	if bg, ok := optColor(L, 5); ok {
		op.Bg = &bg
	}
	op.Attrs = optAttrs(L, 6)
	r.record(L, op)
	return 0
}

// ui.measure(s) returns the display width of s.
func (r *Runner) luaMeasure(L *lua.LState) int {
	L.Push(lua.LNumber(core.StringWidth(L.CheckString(1), r.opts.Width)))
	return 1
}

// ui.rgb(r, g, b) returns a color value. Components are clamped to 0..255.
func luaRGB(L *lua.LState) int {
	c := core.RGB(checkByte(L, 1), checkByte(L, 2), checkByte(L, 3))
	L.Push(colorValue(c))
	return 1
}

// ui.blend(a, b, t) mixes a toward b; t is clamped to 0..1.
func luaBlend(L *lua.LState) int {
	a, b := checkColor(L, 1), checkColor(L, 2)
	L.Push(colorValue(a.Blend(b, float64(L.CheckNumber(3)))))
	return 1
}

// ui.lighten(c, t)
func luaLighten(L *lua.LState) int {
	L.Push(colorValue(checkColor(L, 1).Lighten(float64(L.CheckNumber(2)))))
	return 1
}

// ui.darken(c, t)
func luaDarken(L *lua.LState) int {
	L.Push(colorValue(checkColor(L, 1).Darken(float64(L.CheckNumber(2)))))
	return 1
}

func checkRect(L *lua.LState, first int) core.Rect {
	return core.NewRect(L.CheckInt(first), L.CheckInt(first+1), L.CheckInt(first+2), L.CheckInt(first+3))
}

func checkByte(L *lua.LState, n int) uint8 {
	return uint8(max(0, min(255, L.CheckInt(n))))
}

// colorValue encodes c as the number 0xRRGGBB.
func colorValue(c core.Color) lua.LNumber {
	return lua.LNumber(int(c.R)<<16 | int(c.G)<<8 | int(c.B))
}

func checkColor(L *lua.LState, n int) core.Color {
	c, ok := optColor(L, n)
	if !ok {
		L.ArgError(n, "color expected")
	}
	return c
}

// optColor reads a hex string or 0xRRGGBB number. nil or absent yields
// false.
func optColor(L *lua.LState, n int) (core.Color, bool) {
	switch v := L.Get(n).(type) {
	case *lua.LNilType:
		return core.Color{}, false
	case lua.LString:
		c, err := core.ParseHex(string(v))
		if err != nil {
			L.ArgError(n, err.Error())
		}
		return c, true
	case lua.LNumber:
		i := int64(v)
		if i < 0 || i > 0xFFFFFF {
			L.ArgError(n, "color out of range")
		}
		return core.RGB(uint8(i>>16), uint8(i>>8), uint8(i)), true
	default:
		L.ArgError(n, "color expected, got "+v.Type().String())
		return core.Color{}, false
	}
}

func optAttrs(L *lua.LState, n int) core.Attribute {
	switch v := L.Get(n).(type) {
	case *lua.LNilType:
		return core.AttrNone
	case lua.LString:
		attrs, err := core.ParseAttributes(string(v))
		if err != nil {
			L.ArgError(n, err.Error())
		}
		return attrs
	case lua.LNumber:
		return core.Attribute(int(v))
	default:
		L.ArgError(n, "attributes expected, got "+v.Type().String())
		return core.AttrNone
	}
}
