package query

// Builder helpers construct predicate/projection trees. Go has no native
// lambda-to-expression-tree compilation, so nimbusdb's callers build the
// tree directly via these small constructors instead of through host
// reflection — the Go-idiomatic analogue of the fluent query builders the
// rest of the pack uses (e.g. field/value/comparison chains), rather than
// a runtime-reflective adapter (Design Notes §9 explicitly steers away
// from "a dynamic-code escape hatch").

// Field references a member of the implicit input row.
func Field(name string) *Node { return Member(name, nil) }

// FieldOf references a member of an arbitrary sub-expression.
func FieldOf(target *Node, name string) *Node { return Member(name, target) }

// Val wraps a literal host value as a Constant node.
func Val(v Value) *Node { return Constant(v) }

func Eq(l, r *Node) *Node    { return Binary(OpEq, l, r) }
func NotEq(l, r *Node) *Node { return Binary(OpNotEq, l, r) }
func Lt(l, r *Node) *Node    { return Binary(OpLt, l, r) }
func Le(l, r *Node) *Node    { return Binary(OpLe, l, r) }
func Gt(l, r *Node) *Node    { return Binary(OpGt, l, r) }
func Ge(l, r *Node) *Node    { return Binary(OpGe, l, r) }
func Add(l, r *Node) *Node   { return Binary(OpAdd, l, r) }
func Sub(l, r *Node) *Node   { return Binary(OpSub, l, r) }
func Mul(l, r *Node) *Node   { return Binary(OpMul, l, r) }
func Div(l, r *Node) *Node   { return Binary(OpDiv, l, r) }

// And folds a variadic list of predicates into a right-nested AndAlso
// chain, so the optimizer's AndAlso-flattening walk (spec.md §4.4 step 2)
// sees every leaf.
func And(exprs ...*Node) *Node {
	return foldBinary(OpAndAlso, exprs)
}

// Or folds a variadic list of predicates into an OrElse chain.
func Or(exprs ...*Node) *Node {
	return foldBinary(OpOrElse, exprs)
}

func foldBinary(op BinaryOp, exprs []*Node) *Node {
	if len(exprs) == 0 {
		return nil
	}
	result := exprs[len(exprs)-1]
	for i := len(exprs) - 2; i >= 0; i-- {
		result = Binary(op, exprs[i], result)
	}
	return result
}

// Not negates a predicate.
func Not(n *Node) *Node { return Unary(OpNot, n, KindBool) }

// Negate builds the arithmetic negation spec.md §4.1 says lowers to
// Binary(Sub, Constant(0), x); exposed here for callers that want it
// pre-lowered, though the parser also performs this rewrite itself.
func Negate(n *Node) *Node { return Binary(OpSub, Constant(int64(0)), n) }

// Convert builds a Unary(Convert, x, target) node.
func Convert(n *Node, target Kind) *Node { return Unary(OpConvert, n, target) }

// ArrayLength builds a Unary(ArrayLength, x, _) node.
func ArrayLength(n *Node) *Node { return Unary(OpArrayLength, n, KindInt64) }

// Call builds a Function(name, receiver, args) node.
func Call(name string, receiver *Node, args ...*Node) *Node {
	return Func(name, receiver, args...)
}

// If builds a Conditional(test, ifTrue, ifFalse) node.
func If(test, ifTrue, ifFalse *Node) *Node { return Conditional(test, ifTrue, ifFalse) }
