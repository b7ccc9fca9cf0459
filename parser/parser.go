// Package parser lowers a host-constructed predicate/projection tree
// (package query's Node, built through query's Field/Val/Eq/... helpers)
// into the canonical algebra spec.md §4.1 names, constant-folding
// subtrees that do not reference the implicit input row.
//
// Grounded on the teacher's datalog/parser/parser.go (single Parse entry
// point walking a syntax tree into typed clauses) and function_parser.go
// (validating a function call's name against the registry at parse time,
// so an unknown function fails before planning rather than during
// evaluation). Arity is not checked here; the evaluator enforces each
// function's arity when it runs.
package parser

import (
	"github.com/nimbusdb/nimbusdb/errs"
	"github.com/nimbusdb/nimbusdb/eval"
	"github.com/nimbusdb/nimbusdb/query"
)

// numericConversions maps a numeric-conversion method-call name to the
// Unary(Convert, ..., target) it lowers to (spec.md §4.1).
var numericConversions = map[string]query.Kind{
	"ToInt32":   query.KindInt32,
	"ToInt64":   query.KindInt64,
	"ToDouble":  query.KindFloat64,
	"ToDecimal": query.KindDecimal,
	"ToStr":     query.KindString,
}

// Parse lowers expr into the canonical algebra. A nil input returns nil,
// nil — the executor interprets a nil predicate as "no predicate, scan
// everything" (spec.md §4.1).
func Parse(expr *query.Node) (*query.Node, error) {
	if expr == nil {
		return nil, nil
	}
	return parseNode(expr)
}

func parseNode(n *query.Node) (*query.Node, error) {
	if n == nil {
		return nil, nil
	}

	// Conditional with a parameter-dependent test is unsupported
	// regardless of whether the node as a whole could otherwise be
	// folded (spec.md §4.1).
	if n.Kind == query.KindConditional && query.DependsOnParameter(n.Test) {
		return nil, errs.NotSupportedf("conditional with parameter-dependent test")
	}

	if !query.DependsOnParameter(n) {
		v, err := eval.EvaluateValue(n, eval.Document(nil))
		if err != nil {
			return nil, err
		}
		return query.Constant(v), nil
	}

	switch n.Kind {
	case query.KindConstant, query.KindParameter:
		return n, nil

	case query.KindMember:
		target, err := parseNode(n.Target)
		if err != nil {
			return nil, err
		}
		return query.Member(n.MemberName, target), nil

	case query.KindBinary:
		return parseBinary(n)

	case query.KindUnary:
		if n.UnOp == query.OpNegate {
			operand, err := parseNode(n.Operand)
			if err != nil {
				return nil, err
			}
			return query.Binary(query.OpSub, query.Constant(int64(0)), operand), nil
		}
		operand, err := parseNode(n.Operand)
		if err != nil {
			return nil, err
		}
		return query.Unary(n.UnOp, operand, n.ResultType), nil

	case query.KindFunction:
		return parseFunction(n)

	case query.KindConstructor:
		args, err := parseAll(n.CtorArgs)
		if err != nil {
			return nil, err
		}
		return query.Constructor(n.TypeTag, args...), nil

	case query.KindMemberInit:
		bindings := make(map[string]*query.Node, len(n.Bindings))
		for name, v := range n.Bindings {
			parsed, err := parseNode(v)
			if err != nil {
				return nil, err
			}
			bindings[name] = parsed
		}
		return query.MemberInit(n.TypeTag, bindings), nil

	case query.KindConditional:
		ifTrue, err := parseNode(n.IfTrue)
		if err != nil {
			return nil, err
		}
		ifFalse, err := parseNode(n.IfFalse)
		if err != nil {
			return nil, err
		}
		// n.Test does not depend on the parameter (checked above), so
		// this recursive call folds it to a Constant.
		test, err := parseNode(n.Test)
		if err != nil {
			return nil, err
		}
		return query.Conditional(test, ifTrue, ifFalse), nil

	default:
		return nil, errs.NotSupportedf("unrecognized node kind %v", n.Kind)
	}
}

func parseBinary(n *query.Node) (*query.Node, error) {
	left, err := parseNode(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := parseNode(n.Right)
	if err != nil {
		return nil, err
	}
	return query.Binary(n.BinOp, left, right), nil
}

func parseAll(nodes []*query.Node) ([]*query.Node, error) {
	out := make([]*query.Node, len(nodes))
	for i, a := range nodes {
		parsed, err := parseNode(a)
		if err != nil {
			return nil, err
		}
		out[i] = parsed
	}
	return out, nil
}

func parseFunction(n *query.Node) (*query.Node, error) {
	// Equals(a, b) lowers to Binary(Eq, a, b) regardless of registry
	// membership (spec.md §4.1).
	if n.FuncName == "Equals" && n.Receiver == nil && len(n.Args) == 2 {
		left, err := parseNode(n.Args[0])
		if err != nil {
			return nil, err
		}
		right, err := parseNode(n.Args[1])
		if err != nil {
			return nil, err
		}
		return query.Binary(query.OpEq, left, right), nil
	}

	if target, ok := numericConversions[n.FuncName]; ok && len(n.Args) == 0 {
		operand, err := parseNode(n.Receiver)
		if err != nil {
			return nil, err
		}
		return query.Unary(query.OpConvert, operand, target), nil
	}

	if _, ok := query.DefaultRegistry.Lookup(n.FuncName); !ok {
		return nil, errs.NotSupportedf("unsupported function %q", n.FuncName)
	}

	receiver, err := parseNode(n.Receiver)
	if err != nil {
		return nil, err
	}
	args, err := parseAll(n.Args)
	if err != nil {
		return nil, err
	}
	return query.Func(n.FuncName, receiver, args...), nil
}
