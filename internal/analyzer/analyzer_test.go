package analyzer

import (
	"context"
	"testing"
)

func analyze(t *testing.T, code string) *Analysis {
	t.Helper()
	a := New()
	result, err := a.Analyze(context.Background(), []byte(code))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	return result
}

// TestAnalyze_CleanCode verifies a correct program yields no findings.
func TestAnalyze_CleanCode(t *testing.T) {
	result := analyze(t, `def fibonacci(n):
    if n <= 1:
        return n
    else:
        return fibonacci(n-1) + fibonacci(n-2)
`)

	if result.TotalFindings() != 0 {
		t.Errorf("Expected no findings, got %d: %v", result.TotalFindings(), result.Codes())
	}
	if result.Confidence != 0.8 {
		t.Errorf("Expected confidence 0.8, got %.2f", result.Confidence)
	}
	// 1 function (2) + 1 branch (1) = 3 -> 0.3
	if result.Complexity != 0.3 {
		t.Errorf("Expected complexity 0.3, got %.2f", result.Complexity)
	}
}

// TestAnalyze_AssignmentInCondition covers the broken-parse path: the
// file cannot parse, but both the syntax error and the heuristic finding
// must surface, with lowered confidence.
func TestAnalyze_AssignmentInCondition(t *testing.T) {
	result := analyze(t, `def check_number(x):
    if x = 5:
        return "equal"
    else:
        return "not equal"
`)

	if !result.HasCode(CodeAssignmentInCondition) {
		t.Errorf("Expected %s, got %v", CodeAssignmentInCondition, result.Codes())
	}
	if !result.HasCode(CodeSyntaxError) {
		t.Errorf("Expected %s, got %v", CodeSyntaxError, result.Codes())
	}
	if result.Confidence != 0.5 {
		t.Errorf("Expected confidence 0.5 on broken parse, got %.2f", result.Confidence)
	}
}

// TestAnalyze_MissingReturn verifies the accumulate-without-return shape.
func TestAnalyze_MissingReturn(t *testing.T) {
	result := analyze(t, `def calculate_sum(numbers):
    total = 0
    for num in numbers:
        total += num
`)

	if !result.HasCode(CodeMissingReturn) {
		t.Errorf("Expected %s, got %v", CodeMissingReturn, result.Codes())
	}
}

// TestAnalyze_MissingReturn_InitExempt verifies __init__ is not flagged.
func TestAnalyze_MissingReturn_InitExempt(t *testing.T) {
	result := analyze(t, `class Point:
    def __init__(self, x, y):
        self.x = x
        self.y = y
`)

	if result.HasCode(CodeMissingReturn) {
		t.Errorf("__init__ should not be flagged: %v", result.Misconceptions)
	}
}

// TestAnalyze_MissingReturn_NestedNotCounted verifies a return inside a
// nested function does not satisfy the outer one.
func TestAnalyze_MissingReturn_NestedNotCounted(t *testing.T) {
	result := analyze(t, `def outer(x):
    def inner(y):
        return y * 2
    print(inner(x))
`)

	found := 0
	for _, f := range result.Misconceptions {
		if f.Code == CodeMissingReturn {
			found++
		}
	}
	if found != 1 {
		t.Errorf("Expected exactly 1 missing-return (outer), got %d", found)
	}
}

func TestAnalyze_MutableDefaultArg(t *testing.T) {
	result := analyze(t, `def append_item(item, items=[]):
    items.append(item)
    return items
`)

	if !result.HasCode(CodeMutableDefaultArg) {
		t.Errorf("Expected %s, got %v", CodeMutableDefaultArg, result.Codes())
	}
}

func TestAnalyze_IsLiteralComparison(t *testing.T) {
	result := analyze(t, `def check(x):
    if x is 5:
        return True
    return False
`)

	if !result.HasCode(CodeIsLiteralComparison) {
		t.Errorf("Expected %s, got %v", CodeIsLiteralComparison, result.Codes())
	}
}

func TestAnalyze_IsNone_NotFlagged(t *testing.T) {
	result := analyze(t, `def check(x):
    if x is None:
        return True
    return False
`)

	if result.HasCode(CodeIsLiteralComparison) {
		t.Errorf("'is None' is idiomatic and should not be flagged: %v", result.Misconceptions)
	}
}

func TestAnalyze_RangeLenIteration(t *testing.T) {
	result := analyze(t, `def total(xs):
    s = 0
    for i in range(len(xs)):
        s += xs[i]
    return s
`)

	if !result.HasCode(CodeRangeLenIteration) {
		t.Errorf("Expected %s, got %v", CodeRangeLenIteration, result.Codes())
	}
}

func TestAnalyze_RangeWithBound_NotFlagged(t *testing.T) {
	result := analyze(t, `def countdown(n):
    for i in range(n):
        print(i)
    return n
`)

	if result.HasCode(CodeRangeLenIteration) {
		t.Errorf("range(n) should not be flagged: %v", result.LogicalIssues)
	}
}

func TestAnalyze_BareExcept(t *testing.T) {
	result := analyze(t, `def parse(s):
    try:
        return int(s)
    except:
        return 0
`)

	if !result.HasCode(CodeBareExcept) {
		t.Errorf("Expected %s, got %v", CodeBareExcept, result.Codes())
	}
}

func TestAnalyze_TypedExcept_NotFlagged(t *testing.T) {
	result := analyze(t, `def parse(s):
    try:
        return int(s)
    except ValueError:
        return 0
`)

	if result.HasCode(CodeBareExcept) {
		t.Errorf("typed except should not be flagged: %v", result.Misconceptions)
	}
}

func TestAnalyze_ShadowedBuiltin(t *testing.T) {
	result := analyze(t, `list = [1, 2, 3]
print(list)
`)

	if !result.HasCode(CodeShadowedBuiltin) {
		t.Errorf("Expected %s, got %v", CodeShadowedBuiltin, result.Codes())
	}
}

func TestAnalyze_UnreachableAfterReturn(t *testing.T) {
	result := analyze(t, `def greet(name):
    return "hello " + name
    print("never runs")
`)

	if !result.HasCode(CodeUnreachableCode) {
		t.Errorf("Expected %s, got %v", CodeUnreachableCode, result.Codes())
	}
}

func TestAnalyze_RecursionNoBaseCase(t *testing.T) {
	result := analyze(t, `def countdown(n):
    print(n)
    return countdown(n - 1)
`)

	if !result.HasCode(CodeRecursionNoBaseCase) {
		t.Errorf("Expected %s, got %v", CodeRecursionNoBaseCase, result.Codes())
	}
}

func TestAnalyze_RecursionWithBaseCase_NotFlagged(t *testing.T) {
	result := analyze(t, `def factorial(n):
    if n <= 1:
        return 1
    return n * factorial(n - 1)
`)

	if result.HasCode(CodeRecursionNoBaseCase) {
		t.Errorf("recursion with a branch should not be flagged: %v", result.Misconceptions)
	}
}

// TestAnalyze_ElifBranchesCounted verifies each elif clause counts as a
// branch, matching the nested If nodes Python's own ast produces.
func TestAnalyze_ElifBranchesCounted(t *testing.T) {
	result := analyze(t, `def grade(x):
    if x >= 90:
        return "A"
    elif x >= 80:
        return "B"
    elif x >= 70:
        return "C"
    elif x >= 60:
        return "D"
    else:
        return "F"
`)

	if result.BranchCount != 4 {
		t.Errorf("Expected 4 branches (if + 3 elifs), got %d", result.BranchCount)
	}
	// 1 function (2) + 4 branches (4) = 6 -> 0.6
	if result.Complexity != 0.6 {
		t.Errorf("Expected complexity 0.6, got %.2f", result.Complexity)
	}
}

// TestAnalyze_ComplexityCapped verifies the score never exceeds 1.0.
func TestAnalyze_ComplexityCapped(t *testing.T) {
	code := ""
	for i := 0; i < 10; i++ {
		code += "def f" + string(rune('a'+i)) + "(x):\n    if x:\n        return x\n    return 0\n\n"
	}
	result := analyze(t, code)

	if result.Complexity != 1.0 {
		t.Errorf("Expected capped complexity 1.0, got %.2f", result.Complexity)
	}
	if result.FunctionCount != 10 {
		t.Errorf("Expected 10 functions, got %d", result.FunctionCount)
	}
}

// TestAnalyze_EmptyInput verifies analysis is total on empty input.
func TestAnalyze_EmptyInput(t *testing.T) {
	result := analyze(t, "")

	if result.TotalFindings() != 0 {
		t.Errorf("Expected no findings on empty input, got %v", result.Codes())
	}
	if result.Complexity != 0 {
		t.Errorf("Expected zero complexity, got %.2f", result.Complexity)
	}
}

func TestAnalysis_Codes_Deduplicated(t *testing.T) {
	a := &Analysis{
		SyntaxIssues: []Finding{
			{Code: CodeSyntaxError, Line: 1},
			{Code: CodeSyntaxError, Line: 5},
		},
		Misconceptions: []Finding{{Code: CodeMissingReturn, Line: 2}},
	}

	codes := a.Codes()
	if len(codes) != 2 {
		t.Errorf("Expected 2 distinct codes, got %v", codes)
	}
}
