package tutor

import (
	"context"
	"fmt"
	"testing"

	"compass/internal/analyzer"

	"github.com/stretchr/testify/require"
)

// fakeClient returns a canned response without touching the network.
type fakeClient struct {
	response string
	err      error
	lastUser string
}

func (c *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

func (c *fakeClient) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	c.lastUser = user
	return c.response, c.err
}

func (c *fakeClient) Model() string {
	return "fake-model"
}

func TestModelGenerator_ParsesResponse(t *testing.T) {
	client := &fakeClient{response: `[
		{"text": "What does the = operator do inside an if?", "category": "conceptual", "difficulty": 3, "objective": "Distinguish assignment from comparison"}
	]`}
	g := NewModelGenerator(client)

	a := &analyzer.Analysis{
		SyntaxIssues: []analyzer.Finding{{Code: analyzer.CodeAssignmentInCondition, Message: "assignment in condition", Line: 2}},
		Complexity:   0.3,
	}

	prompts, err := g.Generate(context.Background(), "if x = 5:", a)
	require.NoError(t, err)
	require.Len(t, prompts, 1)
	require.Equal(t, CategoryConceptual, prompts[0].Category)

	require.Contains(t, client.lastUser, "if x = 5:")
	require.Contains(t, client.lastUser, "assignment-in-condition")
}

func TestModelGenerator_DropsInvalidEntries(t *testing.T) {
	client := &fakeClient{response: `[
		{"text": "ok", "category": "debugging", "difficulty": 2, "objective": "o"},
		{"text": "bad category", "category": "trivia", "difficulty": 2, "objective": "o"},
		{"text": "bad difficulty", "category": "debugging", "difficulty": 9, "objective": "o"}
	]`}
	g := NewModelGenerator(client)

	prompts, err := g.Generate(context.Background(), "", &analyzer.Analysis{})
	require.NoError(t, err)
	require.Len(t, prompts, 1)
	require.Equal(t, "ok", prompts[0].Text)
}

func TestModelGenerator_ClientError(t *testing.T) {
	client := &fakeClient{err: fmt.Errorf("boom")}
	g := NewModelGenerator(client)

	_, err := g.Generate(context.Background(), "", &analyzer.Analysis{})
	require.Error(t, err)
}

func TestModelGenerator_Name(t *testing.T) {
	g := NewModelGenerator(&fakeClient{})
	require.Equal(t, "model:fake-model", g.Name())
}

func TestExtractJSONArray(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare array", `[{"a":1}]`, `[{"a":1}]`},
		{"fenced", "```json\n[1,2]\n```", "[1,2]"},
		{"fenced no lang", "```\n[1]\n```", "[1]"},
		{"surrounding prose", `Here you go: [1,2] hope that helps`, "[1,2]"},
		{"no array", "sorry, cannot help", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, extractJSONArray(tc.in))
		})
	}
}

func TestParsePrompts_NoArray(t *testing.T) {
	_, err := parsePrompts("the model refused")
	require.Error(t, err)
}

func TestParsePrompts_InvalidJSON(t *testing.T) {
	_, err := parsePrompts(`[{"text": }]`)
	require.Error(t, err)
}

func TestBuildUserPrompt_CleanCode(t *testing.T) {
	s := buildUserPrompt("def f():\n    return 1\n", &analyzer.Analysis{Complexity: 0.2})
	require.Contains(t, s, "none; the code appears correct")
	require.Contains(t, s, "0.20")
}
