package condition

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Op is a normalized operator name as it appears in the serialized tree.
type Op string

const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpIn  Op = "in"
	OpLt  Op = "lt"
	OpLe  Op = "le"
	OpGt  Op = "gt"
	OpGe  Op = "ge"
	OpAnd Op = "and"
	OpOr  Op = "or"
)

// Condition is one node of the compiled tree. Leaves carry Var/Val,
// composites carry Conditions; the two sets of fields are mutually
// exclusive.
type Condition struct {
	Op         Op
	Var        string
	Val        any
	Conditions []*Condition
}

// IsComposite reports whether the node is an and/or composite.
func (c *Condition) IsComposite() bool {
	return c.Op == OpAnd || c.Op == OpOr
}

// leafJSON and compositeJSON pin the serialized field order.
type leafJSON struct {
	Var string `json:"var"`
	Op  Op     `json:"op"`
	Val any    `json:"val"`
}

type compositeJSON struct {
	Op         Op           `json:"op"`
	Conditions []*Condition `json:"conditions"`
}

// MarshalJSON serializes the node in the schema consumed by the runtime
// evaluator: {var, op, val} for leaves, {op, conditions} for composites.
func (c *Condition) MarshalJSON() ([]byte, error) {
	if c.IsComposite() {
		return json.Marshal(compositeJSON{Op: c.Op, Conditions: c.Conditions})
	}
	return json.Marshal(leafJSON{Var: c.Var, Op: c.Op, Val: c.Val})
}

// UnmarshalJSON accepts both node shapes, so compiled conditions
// round-trip exactly.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var probe struct {
		Op         Op              `json:"op"`
		Var        string          `json:"var"`
		Val        json.RawMessage `json:"val"`
		Conditions []*Condition    `json:"conditions"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	c.Op = probe.Op
	c.Var = probe.Var
	c.Conditions = probe.Conditions
	if len(probe.Val) > 0 && !bytes.Equal(probe.Val, []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(probe.Val))
		dec.UseNumber()
		if err := dec.Decode(&c.Val); err != nil {
			return err
		}
		c.Val = normalizeVal(c.Val)
	}
	return nil
}

// normalizeVal converts json.Number back to float64 so a round-tripped
// tree compares equal to a freshly compiled one.
func normalizeVal(v any) any {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case []any:
		for i, e := range t {
			t[i] = normalizeVal(e)
		}
		return t
	default:
		return v
	}
}

// Compile parses and normalizes a visibility expression.
func Compile(expr string) (*Condition, error) {
	p := newParser(expr)
	cond, err := p.parse()
	if err != nil {
		return nil, err
	}
	return cond, nil
}

// CompileJSON compiles an expression straight to its serialized form.
func CompileJSON(expr string) ([]byte, error) {
	cond, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	return json.Marshal(cond)
}

// UnsupportedOperatorError reports an operator outside the supported set.
// There is no silent fallback: the whole expression fails to compile.
type UnsupportedOperatorError struct {
	Operator string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("unsupported operator %q in visibility expression", e.Operator)
}
