// Package analyzer parses student Python code and detects common
// misconceptions. It uses Tree-sitter for accurate AST parsing, so
// analysis keeps working on files that CPython would reject outright:
// broken regions surface as ERROR nodes while the rest of the tree
// stays inspectable.
package analyzer

import (
	"context"
	"strings"
	"time"

	"compass/internal/logging"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// PythonAnalyzer analyzes Python source for misconceptions.
type PythonAnalyzer struct {
	parser *sitter.Parser
}

// New creates a new Python analyzer.
func New() *PythonAnalyzer {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return &PythonAnalyzer{parser: parser}
}

// Analyze runs all detectors over the given source.
// Analysis is total: a file that fails to parse cleanly still yields an
// Analysis with syntax findings populated and confidence lowered.
func (a *PythonAnalyzer) Analyze(ctx context.Context, source []byte) (*Analysis, error) {
	start := time.Now()

	tree, err := a.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		logging.Get(logging.CategoryAnalyzer).Error("parse failed: %v", err)
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	lines := strings.Split(string(source), "\n")

	result := &Analysis{Confidence: 0.8}

	// Structural stats drive the complexity score.
	a.collectStats(root, result)
	result.Complexity = complexityScore(result)

	// Syntax-level findings: ERROR nodes plus the line heuristic for
	// assignment-in-condition (which Python's grammar rejects, so it
	// only ever shows up as an ERROR region).
	hadErrors := a.collectSyntaxErrors(root, lines, result)
	checkAssignmentInCondition(lines, result)
	if hadErrors {
		result.Confidence = 0.5
	}

	// Tree-based detectors only make sense on parseable regions.
	detectMissingReturn(root, source, result)
	detectMutableDefaultArg(root, source, lines, result)
	detectIsLiteralComparison(root, source, lines, result)
	detectRangeLenIteration(root, source, lines, result)
	detectBareExcept(root, lines, result)
	detectShadowedBuiltin(root, source, lines, result)
	detectUnreachableAfterReturn(root, lines, result)
	detectRecursionNoBaseCase(root, source, result)

	logging.AnalyzerDebug("analyzed %d bytes: %d findings, complexity %.2f in %v",
		len(source), result.TotalFindings(), result.Complexity, time.Since(start))

	return result, nil
}

// collectStats counts functions, branches and loops. elif clauses count
// as branches in their own right: Python's ast represents each elif as a
// nested If, and the complexity score follows that.
func (a *PythonAnalyzer) collectStats(root *sitter.Node, result *Analysis) {
	walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "function_definition":
			result.FunctionCount++
		case "if_statement", "elif_clause":
			result.BranchCount++
		case "for_statement", "while_statement":
			result.LoopCount++
		}
		return true
	})
}

// complexityScore normalizes structural counts to [0,1]:
// branches and loops weigh 1, function definitions weigh 2.
func complexityScore(result *Analysis) float64 {
	raw := float64(result.BranchCount+result.LoopCount) + 2.0*float64(result.FunctionCount)
	score := raw / 10.0
	if score > 1.0 {
		return 1.0
	}
	return score
}

// collectSyntaxErrors records one finding per ERROR region and reports
// whether any were present.
func (a *PythonAnalyzer) collectSyntaxErrors(root *sitter.Node, lines []string, result *Analysis) bool {
	found := false
	walk(root, func(n *sitter.Node) bool {
		if n.Type() == "ERROR" || n.IsMissing() {
			found = true
			line := int(n.StartPoint().Row) + 1
			result.SyntaxIssues = append(result.SyntaxIssues, Finding{
				Code:    CodeSyntaxError,
				Message: "Syntax error: Python could not parse this region",
				Line:    line,
				Snippet: snippet(lines, line),
			})
			// Do not descend into error regions; nested ERROR nodes
			// describe the same breakage.
			return false
		}
		return true
	})
	return found
}

// walk visits nodes depth-first. The visitor returns false to prune the
// subtree.
func walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), visit)
	}
}

// nodeText returns the source text of a node.
func nodeText(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	return string(source[n.StartByte():n.EndByte()])
}

// snippet returns the trimmed source line, 1-based.
func snippet(lines []string, line int) string {
	if line < 1 || line > len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[line-1])
}
