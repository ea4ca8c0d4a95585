// Package condition compiles the boolean visibility DSL into a normalized
// condition tree and its JSON wire form.
//
// The DSL is evaluated against symbolic variable names, never against
// data: compilation here only normalizes the expression. The serialized
// tree is handed to an external runtime evaluator that matches it against
// live input-control state.
//
// Supported operators are ==, !=, in, <, <=, >, >= on leaves, composed
// with & and | (&& and || are accepted as synonyms). Chains of the same
// logical operator flatten into a single N-ary node; mixed chains nest by
// precedence (& binds tighter than |). Anything else is rejected with an
// *UnsupportedOperatorError naming the offending operator.
package condition
