package scripting

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// Fields is the flat record a predicate sees as its `item` argument.
// Supported value types are string, int, bool and []string.
type Fields map[string]any

// Predicate is a compiled Lua boolean function of one table argument.
//
// Predicate is safe for concurrent use; evaluations are serialized on the
// underlying LState.
type Predicate struct {
	mu     sync.Mutex
	state  *lua.LState
	fn     *lua.LFunction
	source string
	limit  int
}

// CompilePredicate compiles src into a Predicate.
//
// src is either a bare expression ("item.type == 'Trophy'") or a function body
// containing at least one return statement.
//
// Precondition: limit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: Returns a ready Predicate or a non-nil error; the caller must
// Close the Predicate.
func CompilePredicate(src string, limit int) (*Predicate, error) {
	body := strings.TrimSpace(src)
	if body == "" {
		return nil, fmt.Errorf("scripting: empty predicate")
	}
	if !strings.Contains(body, "return") {
		body = "return (" + body + ")"
	}
	chunk := "return function(item)\n" + body + "\nend"

	L := NewSandboxedState()
	err := WithBudget(L, limit, func() error { return L.DoString(chunk) })
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("scripting: compiling predicate %q: %w", src, err)
	}
	fn, ok := L.Get(-1).(*lua.LFunction)
	L.Pop(1)
	if !ok {
		L.Close()
		return nil, fmt.Errorf("scripting: predicate %q did not produce a function", src)
	}
	return &Predicate{state: L, fn: fn, source: src, limit: limit}, nil
}

// Source returns the predicate text as written.
func (p *Predicate) Source() string {
	return p.source
}

// Eval calls the predicate with f converted to a Lua table and returns the
// truthiness of its result.
//
// Postcondition: Returns an error on a Lua runtime error or an exhausted
// instruction budget; the result is false in that case.
func (p *Predicate) Eval(f Fields) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	L := p.state
	arg := toTable(L, f)
	var ret lua.LValue = lua.LNil
	err := WithBudget(L, p.limit, func() error {
		if err := L.CallByParam(lua.P{Fn: p.fn, NRet: 1, Protect: true}, arg); err != nil {
			return err
		}
		ret = L.Get(-1)
		L.Pop(1)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("scripting: evaluating predicate %q: %w", p.source, err)
	}
	return lua.LVAsBool(ret), nil
}

// Close releases the underlying LState.
func (p *Predicate) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Close()
}

func toTable(L *lua.LState, f Fields) *lua.LTable {
	t := L.NewTable()
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := f[k].(type) {
		case string:
			t.RawSetString(k, lua.LString(v))
		case int:
			t.RawSetString(k, lua.LNumber(v))
		case bool:
			t.RawSetString(k, lua.LBool(v))
		case []string:
			list := L.NewTable()
			for _, s := range v {
				list.Append(lua.LString(s))
			}
			t.RawSetString(k, list)
		}
	}
	return t
}
