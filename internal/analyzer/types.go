package analyzer

// Finding codes emitted by the detectors. Dataset labels and prompt rules
// reference these codes, so they are part of the stable surface.
const (
	CodeSyntaxError           = "syntax-error"
	CodeAssignmentInCondition = "assignment-in-condition"
	CodeMissingReturn         = "missing-return"
	CodeMutableDefaultArg     = "mutable-default-arg"
	CodeIsLiteralComparison   = "is-literal-comparison"
	CodeRangeLenIteration     = "range-len-iteration"
	CodeBareExcept            = "bare-except"
	CodeShadowedBuiltin       = "shadowed-builtin"
	CodeUnreachableCode       = "unreachable-after-return"
	CodeRecursionNoBaseCase   = "recursion-no-base-case"
)

// Finding is a single issue detected in student code.
type Finding struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line"`
	Snippet string `json:"snippet,omitempty"`
}

// Analysis is the result of analyzing one piece of student code.
type Analysis struct {
	SyntaxIssues   []Finding `json:"syntax_issues"`
	LogicalIssues  []Finding `json:"logical_issues"`
	Misconceptions []Finding `json:"misconceptions"`

	// Complexity is a normalized structural score in [0,1]:
	// +1 per branch or loop, +2 per function definition, /10, capped.
	Complexity float64 `json:"complexity"`

	// Confidence reflects parse quality: 0.8 for a clean tree,
	// 0.5 when the tree contains ERROR nodes.
	Confidence float64 `json:"confidence"`

	FunctionCount int `json:"function_count"`
	BranchCount   int `json:"branch_count"`
	LoopCount     int `json:"loop_count"`
}

// Codes returns the set of distinct finding codes across all buckets.
func (a *Analysis) Codes() []string {
	seen := make(map[string]bool)
	var codes []string
	for _, bucket := range [][]Finding{a.SyntaxIssues, a.LogicalIssues, a.Misconceptions} {
		for _, f := range bucket {
			if !seen[f.Code] {
				seen[f.Code] = true
				codes = append(codes, f.Code)
			}
		}
	}
	return codes
}

// HasCode reports whether any finding carries the given code.
func (a *Analysis) HasCode(code string) bool {
	for _, c := range a.Codes() {
		if c == code {
			return true
		}
	}
	return false
}

// TotalFindings returns the count of findings across all buckets.
func (a *Analysis) TotalFindings() int {
	return len(a.SyntaxIssues) + len(a.LogicalIssues) + len(a.Misconceptions)
}
