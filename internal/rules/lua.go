package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/Shopify/go-lua"
	"github.com/san-kum/stockflow/internal/stockflow"
)

const ruleGlobal = "__rule"

var (
	ErrBadName   = errors.New("rules: invalid argument name")
	ErrNotNumber = errors.New("rules: expression did not return a number")

	identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

var luaKeywords = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true, "end": true,
	"false": true, "for": true, "function": true, "goto": true, "if": true, "in": true,
	"local": true, "nil": true, "not": true, "or": true, "repeat": true, "return": true,
	"then": true, "true": true, "until": true, "while": true,
}

// Rules must be pure: only base, math, string and table are loaded, without
// file loading or randomness.
var (
	sandboxLibs = []lua.RegistryFunction{
		{Name: "_G", Function: lua.BaseOpen},
		{Name: "math", Function: lua.MathOpen},
		{Name: "string", Function: lua.StringOpen},
		{Name: "table", Function: lua.TableOpen},
	}
	blockedGlobals = []string{"dofile", "loadfile", "load", "loadstring", "require", "print", "collectgarbage"}
	blockedMath    = []string{"random", "randomseed"}
)

func openSandbox(l *lua.State) {
	for _, lib := range sandboxLibs {
		lua.Require(l, lib.Name, lib.Function, true)
		l.Pop(1)
	}
	for _, name := range blockedGlobals {
		l.PushNil()
		l.SetGlobal(name)
	}
	l.Global("math")
	for _, name := range blockedMath {
		l.PushNil()
		l.SetField(-2, name)
	}
	l.Pop(1)
}

// luaRule owns one interpreter. Clones share rules, so calls are serialized.
type luaRule struct {
	mu    sync.Mutex
	state *lua.State
	expr  string
	arity int
}

// Lua compiles expr as the body of a function whose parameters are names, in
// dependency order. The standard Lua libraries are available (math.exp, ...).
//
//	rules.Lua("beta * S * I / n", "S", "I", "beta", "n")
func Lua(expr string, names ...string) (stockflow.Rule, error) {
	for _, n := range names {
		if !identRe.MatchString(n) || luaKeywords[n] {
			return nil, fmt.Errorf("%w: %q", ErrBadName, n)
		}
	}

	l := lua.NewState()
	openSandbox(l)

	src := fmt.Sprintf("return function(%s) return (%s) end", strings.Join(names, ", "), expr)
	if err := lua.DoString(l, src); err != nil {
		return nil, fmt.Errorf("rules: compile %q: %w", expr, err)
	}
	l.SetGlobal(ruleGlobal)

	r := &luaRule{state: l, expr: expr, arity: len(names)}
	return r.call, nil
}

func (r *luaRule) call(args ...float64) (float64, error) {
	if err := arity(r.arity, len(args)); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	l := r.state
	top := l.Top()
	defer l.SetTop(top)

	l.Global(ruleGlobal)
	for _, a := range args {
		l.PushNumber(a)
	}
	if err := l.ProtectedCall(len(args), 1, 0); err != nil {
		return 0, fmt.Errorf("rules: eval %q: %w", r.expr, err)
	}
	if l.TypeOf(-1) != lua.TypeNumber {
		return 0, fmt.Errorf("%w: %q", ErrNotNumber, r.expr)
	}
	v, _ := l.ToNumber(-1)
	return v, nil
}
