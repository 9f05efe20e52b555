package analyzer

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// pythonBuiltins are names students commonly clobber.
var pythonBuiltins = map[string]bool{
	"list": true, "dict": true, "set": true, "str": true, "int": true,
	"sum": true, "max": true, "min": true, "len": true, "range": true,
	"input": true, "type": true, "id": true, "print": true,
}

// checkAssignmentInCondition scans source lines for a single `=` inside an
// if/while header. The Python grammar rejects this form, so it never
// appears as a well-formed tree node; the line heuristic recovers it.
func checkAssignmentInCondition(lines []string, result *Analysis) {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "if ") && !strings.HasPrefix(trimmed, "while ") {
			continue
		}
		if !strings.Contains(trimmed, "=") {
			continue
		}
		if strings.Contains(trimmed, "==") || strings.Contains(trimmed, "!=") ||
			strings.Contains(trimmed, "<=") || strings.Contains(trimmed, ">=") ||
			strings.Contains(trimmed, ":=") {
			continue
		}
		result.SyntaxIssues = append(result.SyntaxIssues, Finding{
			Code:    CodeAssignmentInCondition,
			Message: fmt.Sprintf("Line %d: possible assignment (=) where a comparison (==) was intended", i+1),
			Line:    i + 1,
			Snippet: trimmed,
		})
	}
}

// detectMissingReturn flags functions that never return a value.
// Nested function definitions are pruned: a return inside an inner
// function does not satisfy the outer one.
func detectMissingReturn(root *sitter.Node, source []byte, result *Analysis) {
	walk(root, func(n *sitter.Node) bool {
		if n.Type() != "function_definition" {
			return true
		}

		nameNode := n.ChildByFieldName("name")
		body := n.ChildByFieldName("body")
		if nameNode == nil || body == nil {
			return true
		}
		name := nodeText(nameNode, source)
		if name == "__init__" {
			return true
		}

		hasReturn := false
		walk(body, func(inner *sitter.Node) bool {
			if inner.Type() == "function_definition" {
				return false
			}
			if inner.Type() == "return_statement" || inner.Type() == "yield" {
				hasReturn = true
				return false
			}
			return true
		})

		if !hasReturn {
			result.Misconceptions = append(result.Misconceptions, Finding{
				Code:    CodeMissingReturn,
				Message: fmt.Sprintf("Function %q computes values but never returns one", name),
				Line:    int(n.StartPoint().Row) + 1,
				Snippet: nodeText(nameNode, source),
			})
		}
		return true
	})
}

// detectMutableDefaultArg flags list/dict/set literals used as parameter
// defaults, the classic shared-default trap.
func detectMutableDefaultArg(root *sitter.Node, source []byte, lines []string, result *Analysis) {
	walk(root, func(n *sitter.Node) bool {
		if n.Type() != "default_parameter" && n.Type() != "typed_default_parameter" {
			return true
		}
		value := n.ChildByFieldName("value")
		if value == nil {
			return true
		}
		switch value.Type() {
		case "list", "dictionary", "set":
			line := int(n.StartPoint().Row) + 1
			result.Misconceptions = append(result.Misconceptions, Finding{
				Code:    CodeMutableDefaultArg,
				Message: fmt.Sprintf("Line %d: mutable default argument is shared across calls", line),
				Line:    line,
				Snippet: nodeText(n, source),
			})
		}
		return true
	})
}

// detectIsLiteralComparison flags `is` / `is not` against literals, where
// identity was almost certainly confused with equality.
func detectIsLiteralComparison(root *sitter.Node, source []byte, lines []string, result *Analysis) {
	literalTypes := map[string]bool{
		"integer": true, "float": true, "string": true,
		"true": true, "false": true,
	}

	walk(root, func(n *sitter.Node) bool {
		if n.Type() != "comparison_operator" {
			return true
		}

		usesIs := false
		hasLiteral := false
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if child.Type() == "is" {
				usesIs = true
			}
			if literalTypes[child.Type()] {
				hasLiteral = true
			}
		}

		if usesIs && hasLiteral {
			line := int(n.StartPoint().Row) + 1
			result.Misconceptions = append(result.Misconceptions, Finding{
				Code:    CodeIsLiteralComparison,
				Message: fmt.Sprintf("Line %d: 'is' compares identity, not value; use == for literals", line),
				Line:    line,
				Snippet: nodeText(n, source),
			})
		}
		return true
	})
}

// detectRangeLenIteration flags `for i in range(len(xs))`, the C-style
// index loop over a directly iterable sequence.
func detectRangeLenIteration(root *sitter.Node, source []byte, lines []string, result *Analysis) {
	walk(root, func(n *sitter.Node) bool {
		if n.Type() != "for_statement" {
			return true
		}
		right := n.ChildByFieldName("right")
		if right == nil || right.Type() != "call" {
			return true
		}
		fn := right.ChildByFieldName("function")
		if fn == nil || nodeText(fn, source) != "range" {
			return true
		}
		args := right.ChildByFieldName("arguments")
		if args == nil || args.NamedChildCount() != 1 {
			return true
		}
		arg := args.NamedChild(0)
		if arg.Type() != "call" {
			return true
		}
		argFn := arg.ChildByFieldName("function")
		if argFn == nil || nodeText(argFn, source) != "len" {
			return true
		}

		line := int(n.StartPoint().Row) + 1
		result.LogicalIssues = append(result.LogicalIssues, Finding{
			Code:    CodeRangeLenIteration,
			Message: fmt.Sprintf("Line %d: iterating indices via range(len(...)); Python iterates sequences directly", line),
			Line:    line,
			Snippet: snippet(lines, line),
		})
		return true
	})
}

// detectBareExcept flags `except:` clauses that swallow every exception.
func detectBareExcept(root *sitter.Node, lines []string, result *Analysis) {
	walk(root, func(n *sitter.Node) bool {
		if n.Type() != "except_clause" {
			return true
		}
		// A bare except has only the handler block as a named child;
		// a typed one also carries the exception expression.
		if n.NamedChildCount() == 1 {
			line := int(n.StartPoint().Row) + 1
			result.Misconceptions = append(result.Misconceptions, Finding{
				Code:    CodeBareExcept,
				Message: fmt.Sprintf("Line %d: bare except catches every exception, including typos", line),
				Line:    line,
				Snippet: snippet(lines, line),
			})
		}
		return true
	})
}

// detectShadowedBuiltin flags assignments to builtin names.
func detectShadowedBuiltin(root *sitter.Node, source []byte, lines []string, result *Analysis) {
	walk(root, func(n *sitter.Node) bool {
		if n.Type() != "assignment" {
			return true
		}
		left := n.ChildByFieldName("left")
		if left == nil || left.Type() != "identifier" {
			return true
		}
		name := nodeText(left, source)
		if !pythonBuiltins[name] {
			return true
		}

		line := int(n.StartPoint().Row) + 1
		result.Misconceptions = append(result.Misconceptions, Finding{
			Code:    CodeShadowedBuiltin,
			Message: fmt.Sprintf("Line %d: assigning to %q shadows the builtin of the same name", line, name),
			Line:    line,
			Snippet: snippet(lines, line),
		})
		return true
	})
}

// detectUnreachableAfterReturn flags statements that follow a return in
// the same block.
func detectUnreachableAfterReturn(root *sitter.Node, lines []string, result *Analysis) {
	walk(root, func(n *sitter.Node) bool {
		if n.Type() != "block" {
			return true
		}
		returned := false
		for i := 0; i < int(n.NamedChildCount()); i++ {
			stmt := n.NamedChild(i)
			if returned {
				line := int(stmt.StartPoint().Row) + 1
				result.LogicalIssues = append(result.LogicalIssues, Finding{
					Code:    CodeUnreachableCode,
					Message: fmt.Sprintf("Line %d: statement can never run; the block already returned", line),
					Line:    line,
					Snippet: snippet(lines, line),
				})
				break
			}
			if stmt.Type() == "return_statement" {
				returned = true
			}
		}
		return true
	})
}

// detectRecursionNoBaseCase flags self-recursive functions with no
// conditional at all, the shape that recurses forever.
func detectRecursionNoBaseCase(root *sitter.Node, source []byte, result *Analysis) {
	walk(root, func(n *sitter.Node) bool {
		if n.Type() != "function_definition" {
			return true
		}
		nameNode := n.ChildByFieldName("name")
		body := n.ChildByFieldName("body")
		if nameNode == nil || body == nil {
			return true
		}
		name := nodeText(nameNode, source)

		selfCall := false
		hasBranch := false
		walk(body, func(inner *sitter.Node) bool {
			switch inner.Type() {
			case "function_definition":
				return false
			case "if_statement", "conditional_expression":
				hasBranch = true
			case "call":
				fn := inner.ChildByFieldName("function")
				if fn != nil && nodeText(fn, source) == name {
					selfCall = true
				}
			}
			return true
		})

		if selfCall && !hasBranch {
			result.Misconceptions = append(result.Misconceptions, Finding{
				Code:    CodeRecursionNoBaseCase,
				Message: fmt.Sprintf("Function %q calls itself with no conditional base case", name),
				Line:    int(n.StartPoint().Row) + 1,
				Snippet: name,
			})
		}
		return true
	})
}
