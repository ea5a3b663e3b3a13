package labels

import (
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	glua "github.com/yuin/gopher-lua"
)

const labelCacheSize = 1024

type axis int

const (
	axisX axis = iota
	axisY
)

type cacheKey struct {
	axis axis
	v    float64
}

// Lua formats labels with functions from a user script:
//
//	function x_label(v) return v .. " sat/vB" end
//	function y_label(v) return (v * 100) .. " kB" end
//
// Either function may be omitted. A missing function, a Lua error or a
// non-string result falls back to the wrapped formatter.
type Lua struct {
	mu       sync.Mutex // gopher-lua states are not goroutine safe
	L        *glua.LState
	fallback Formatter
	cache    *lru.Cache[cacheKey, string]
	logger   *slog.Logger
}

// LoadLua runs the script at path and returns a formatter backed by it.
func LoadLua(path string, fallback Formatter, logger *slog.Logger) (*Lua, error) {
	L := glua.NewState()
	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, fmt.Errorf("label script %s: %w", path, err)
	}
	return newLua(L, fallback, logger), nil
}

// LoadLuaString is LoadLua for inline code.
func LoadLuaString(name, code string, fallback Formatter, logger *slog.Logger) (*Lua, error) {
	L := glua.NewState()
	fn, err := L.LoadString(code)
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("label script %s: %w", name, err)
	}
	L.Push(fn)
	if err := L.PCall(0, 0, nil); err != nil {
		L.Close()
		return nil, fmt.Errorf("label script %s: %w", name, err)
	}
	return newLua(L, fallback, logger), nil
}

func newLua(L *glua.LState, fallback Formatter, logger *slog.Logger) *Lua {
	if fallback == nil {
		fallback = NewDefault(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	cache, _ := lru.New[cacheKey, string](labelCacheSize)
	return &Lua{L: L, fallback: fallback, cache: cache, logger: logger}
}

func (l *Lua) X(v float64) string {
	return l.label(axisX, "x_label", v, l.fallback.X)
}

func (l *Lua) Y(v float64) string {
	return l.label(axisY, "y_label", v, l.fallback.Y)
}

// Close releases the Lua state.
func (l *Lua) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.L != nil {
		l.L.Close()
		l.L = nil
	}
}

func (l *Lua) label(a axis, name string, v float64, fallback func(float64) string) string {
	key := cacheKey{axis: a, v: v}
	if s, ok := l.cache.Get(key); ok {
		return s
	}

	s, ok := l.call(name, v)
	if !ok {
		s = fallback(v)
	}
	l.cache.Add(key, s)
	return s
}

// call runs a global label function. ok is false when the function is
// missing, fails, or returns something other than a string or number.
func (l *Lua) call(name string, v float64) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.L == nil {
		return "", false
	}

	fn, isFn := l.L.GetGlobal(name).(*glua.LFunction)
	if !isFn {
		return "", false
	}

	if err := l.L.CallByParam(glua.P{Fn: fn, NRet: 1, Protect: true}, glua.LNumber(v)); err != nil {
		l.logger.Debug("label function failed", "fn", name, "value", v, "error", err)
		return "", false
	}
	ret := l.L.Get(-1)
	l.L.Pop(1)

	switch ret.Type() {
	case glua.LTString, glua.LTNumber:
		return ret.String(), true
	}
	return "", false
}
