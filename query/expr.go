package query

// NodeKind tags the variant a Node holds. Mirrors the teacher's
// datalog/query/types.go tagged-variant style (PatternElement/Pattern
// interfaces implemented by small marker-method structs) adapted to the
// nine node shapes spec.md §3 names.
type NodeKind int

const (
	KindConstant NodeKind = iota
	KindParameter
	KindMember
	KindBinary
	KindUnary
	KindFunction
	KindConstructor
	KindMemberInit
	KindConditional
)

// BinaryOp enumerates the comparison/logical/arithmetic operators a
// Binary node can carry (spec.md §3).
type BinaryOp int

const (
	OpEq BinaryOp = iota
	OpNotEq
	OpLt
	OpLe
	OpGt
	OpGe
	OpAndAlso
	OpOrElse
	OpAdd
	OpSub
	OpMul
	OpDiv
)

// IsComparison reports whether an op is one of the six comparison kinds
// the optimizer recognizes for IndexScanKey construction (spec.md §4.4).
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpEq, OpNotEq, OpLt, OpLe, OpGt, OpGe:
		return true
	default:
		return false
	}
}

// UnaryOp enumerates the unary operators (spec.md §3).
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNegate
	OpConvert
	OpArrayLength
)

// Node is the neutral expression tree the parser produces and the
// evaluator/optimizer consume. It is a closed set: a Node's Kind
// determines which of its fields are meaningful, following the teacher's
// practice of one concrete type per logical variant but flattened here
// into a single struct (spec.md's "tagged variants" are modeled as one
// struct with a Kind discriminant rather than nine separate Go types,
// which keeps the parser's post-order rewrite a single function instead
// of nine near-identical ones).
//
// Expression trees are immutable once built (spec.md §3 Lifecycles); no
// field is ever mutated after NewX construction.
type Node struct {
	Kind NodeKind

	// KindConstant
	ConstValue Value

	// KindMember
	MemberName string
	Target     *Node // nil => implicit parameter row

	// KindBinary
	BinOp       BinaryOp
	Left, Right *Node

	// KindUnary
	UnOp       UnaryOp
	Operand    *Node
	ResultType Kind // only meaningful for Convert

	// KindFunction
	FuncName string
	Receiver *Node // nil when the function has no receiver
	Args     []*Node

	// KindConstructor
	TypeTag string
	CtorArgs []*Node

	// KindMemberInit
	Bindings map[string]*Node

	// KindConditional
	Test, IfTrue, IfFalse *Node
}

// Constant builds a Constant(value) node.
func Constant(v Value) *Node { return &Node{Kind: KindConstant, ConstValue: v} }

// Parameter builds the single implicit input row reference.
func Parameter() *Node { return &Node{Kind: KindParameter} }

// Member builds a Member(name, target) node. target == nil references
// the implicit parameter row.
func Member(name string, target *Node) *Node {
	return &Node{Kind: KindMember, MemberName: name, Target: target}
}

// Binary builds a Binary(op, left, right) node.
func Binary(op BinaryOp, left, right *Node) *Node {
	return &Node{Kind: KindBinary, BinOp: op, Left: left, Right: right}
}

// Unary builds a Unary(op, operand, resultType) node.
func Unary(op UnaryOp, operand *Node, resultType Kind) *Node {
	return &Node{Kind: KindUnary, UnOp: op, Operand: operand, ResultType: resultType}
}

// Func builds a Function(name, target, args) node.
func Func(name string, receiver *Node, args ...*Node) *Node {
	return &Node{Kind: KindFunction, FuncName: name, Receiver: receiver, Args: args}
}

// Constructor builds a Constructor(typeTag, args) node.
func Constructor(typeTag string, args ...*Node) *Node {
	return &Node{Kind: KindConstructor, TypeTag: typeTag, CtorArgs: args}
}

// MemberInit builds a MemberInit(typeTag, bindings) node.
func MemberInit(typeTag string, bindings map[string]*Node) *Node {
	return &Node{Kind: KindMemberInit, TypeTag: typeTag, Bindings: bindings}
}

// Conditional builds a Conditional(test, ifTrue, ifFalse) node.
func Conditional(test, ifTrue, ifFalse *Node) *Node {
	return &Node{Kind: KindConditional, Test: test, IfTrue: ifTrue, IfFalse: ifFalse}
}

// DependsOnParameter reports whether any subtree of n references the
// implicit parameter row. The parser uses this to decide whether a
// subtree can be constant-folded (spec.md §4.1, invariant 1).
func DependsOnParameter(n *Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case KindParameter:
		return true
	case KindConstant:
		return false
	case KindMember:
		// An absent Target references the implicit row directly.
		return n.Target == nil || DependsOnParameter(n.Target)
	case KindBinary:
		return DependsOnParameter(n.Left) || DependsOnParameter(n.Right)
	case KindUnary:
		return DependsOnParameter(n.Operand)
	case KindFunction:
		if DependsOnParameter(n.Receiver) {
			return true
		}
		for _, a := range n.Args {
			if DependsOnParameter(a) {
				return true
			}
		}
		return false
	case KindConstructor:
		for _, a := range n.CtorArgs {
			if DependsOnParameter(a) {
				return true
			}
		}
		return false
	case KindMemberInit:
		for _, v := range n.Bindings {
			if DependsOnParameter(v) {
				return true
			}
		}
		return false
	case KindConditional:
		return DependsOnParameter(n.Test) || DependsOnParameter(n.IfTrue) || DependsOnParameter(n.IfFalse)
	default:
		return false
	}
}
