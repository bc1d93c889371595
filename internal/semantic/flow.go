package semantic

import (
	"sort"

	"github.com/alecthomas/participle/v2/lexer"

	"tsevm/internal/errors"
	"tsevm/internal/ir"
)

// FlowAnalyzer reports control flow problems that do not stop compilation:
// code after a return or throw, non-void methods that can fall off the end,
// and locals that are never read.
type FlowAnalyzer struct {
	warnings     []errors.CompilerError
	usedVars     map[string]bool
	declaredVars map[string]*ir.VariableDeclaration
}

func NewFlowAnalyzer() *FlowAnalyzer {
	return &FlowAnalyzer{}
}

// AnalyzeContract runs flow analysis over the constructor and every method
// of c. Run it before flattening so inherited methods are not reported twice.
// Warnings are returned per method in declaration order.
func (fa *FlowAnalyzer) AnalyzeContract(c *ir.Contract) []errors.CompilerError {
	var all []errors.CompilerError
	if c.Constructor != nil {
		all = append(all, fa.analyzeBody(c.Constructor.Body, nil, c.Constructor.Pos)...)
	}
	for _, m := range c.Methods {
		all = append(all, fa.AnalyzeMethod(m)...)
	}
	return all
}

// AnalyzeMethod performs flow analysis on a single method.
func (fa *FlowAnalyzer) AnalyzeMethod(m *ir.Method) []errors.CompilerError {
	return fa.analyzeBody(m.Body, m.Return, m.Pos)
}

func (fa *FlowAnalyzer) analyzeBody(body []ir.Statement, ret ir.Type, pos lexer.Position) []errors.CompilerError {
	fa.warnings = nil
	fa.usedVars = map[string]bool{}
	fa.declaredVars = map[string]*ir.VariableDeclaration{}

	terminates := fa.analyzeBlock(body)
	if ret != nil && !ir.IsVoid(ret) && !terminates {
		fa.warnings = append(fa.warnings, errors.NewSemanticWarning(errors.WarningMissingReturn,
			"not all paths return a value", pos).
			WithHelp("add a return statement or throw at the end of the method").
			Build())
	}
	fa.checkUnusedVariables()
	return fa.warnings
}

// analyzeBlock returns true when every path through stmts ends in a return or throw.
func (fa *FlowAnalyzer) analyzeBlock(stmts []ir.Statement) bool {
	for i, stmt := range stmts {
		fa.trackUsage(stmt)
		if !fa.analyzeStatement(stmt) {
			continue
		}
		if i < len(stmts)-1 {
			fa.warnings = append(fa.warnings, errors.NewSemanticWarning(errors.WarningUnreachableCode,
				"unreachable code", stmts[i+1].Position()).Build())
		}
		return true
	}
	return false
}

func (fa *FlowAnalyzer) analyzeStatement(stmt ir.Statement) bool {
	switch s := stmt.(type) {
	case *ir.Return, *ir.Throw:
		return true
	case *ir.VariableDeclaration:
		fa.declaredVars[s.Name] = s
	case *ir.If:
		thenEnds := fa.analyzeBlock(s.Then)
		elseEnds := fa.analyzeBlock(s.Else)
		return thenEnds && elseEnds && len(s.Else) > 0
	}
	return false
}

func (fa *FlowAnalyzer) trackUsage(stmt ir.Statement) {
	for _, e := range ir.Operands(stmt) {
		ir.InspectExpression(e, func(e ir.Expression) bool {
			if v, ok := e.(*ir.Variable); ok {
				fa.usedVars[v.Name] = true
			}
			return true
		})
	}
}

func (fa *FlowAnalyzer) checkUnusedVariables() {
	names := make([]string, 0, len(fa.declaredVars))
	for name := range fa.declaredVars {
		if !fa.usedVars[name] {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return fa.declaredVars[names[i]].Pos.Offset < fa.declaredVars[names[j]].Pos.Offset
	})
	for _, name := range names {
		fa.warnings = append(fa.warnings, errors.NewSemanticWarning(errors.WarningUnusedVariable,
			"variable '"+name+"' is never read", fa.declaredVars[name].Pos).
			WithSuggestion("remove the declaration").
			Build())
	}
}
