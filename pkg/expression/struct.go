package expression

import "github.com/expr-lang/expr/vm"

type CompiledExpression struct {
	Program *vm.Program
	Text    string
}

type Expressions struct {
	Ignores []CompiledExpression
}
