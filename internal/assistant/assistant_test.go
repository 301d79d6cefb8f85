package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"revisehub/internal/model"
)

// MockGenerator is a mock of the Generator interface.
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	args := m.Called(ctx, prompt, opts)
	return args.String(0), args.Error(1)
}

func newTestAssistant(gen Generator) *Assistant {
	return New(gen, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const testDiff = `diff --git a/main.go b/main.go
@@ -1,3 +1,4 @@
+	fmt.Println(password)
`

func TestAssistant_ReviewCode(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name        string
		reply       string
		expected    []model.CodeSuggestion
		expectedErr error
	}{
		{
			name:  "plain json array",
			reply: `[{"category":"BUG","severity":"HIGH","description":"Secret is logged.","suggestion":"log.Println(\"redacted\")"}]`,
			expected: []model.CodeSuggestion{
				{Category: model.CategoryBug, Severity: model.SeverityHigh, Description: "Secret is logged.", Suggestion: `log.Println("redacted")`},
			},
		},
		{
			name:  "fenced with lowercase enums",
			reply: "```json\n[{\"category\":\"style\",\"severity\":\"low\",\"description\":\"d\",\"suggestion\":\"s\"}]\n```",
			expected: []model.CodeSuggestion{
				{Category: model.CategoryStyle, Severity: model.SeverityLow, Description: "d", Suggestion: "s"},
			},
		},
		{
			name:     "no findings",
			reply:    "[]",
			expected: []model.CodeSuggestion{},
		},
		{
			name:        "prose instead of json",
			reply:       "Looks good to me!",
			expectedErr: ErrMalformedResponse,
		},
		{
			name:        "unknown category",
			reply:       `[{"category":"SECURITY","severity":"HIGH","description":"d","suggestion":"s"}]`,
			expectedErr: ErrMalformedResponse,
		},
		{
			name:        "unknown severity",
			reply:       `[{"category":"BUG","severity":"CRITICAL","description":"d","suggestion":"s"}]`,
			expectedErr: ErrMalformedResponse,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gen := new(MockGenerator)
			gen.On("Generate", ctx, mock.MatchedBy(func(p string) bool {
				return strings.Contains(p, testDiff) && strings.Contains(p, "OPTIMIZATION")
			}), mock.MatchedBy(func(o GenerateOptions) bool {
				return o.ResponseMIMEType == "application/json" && o.ResponseSchema != nil
			})).Return(tc.reply, nil).Once()

			suggestions, err := newTestAssistant(gen).ReviewCode(ctx, testDiff)

			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Nil(t, suggestions)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expected, suggestions)
			}
			gen.AssertExpectations(t)
		})
	}
}

func TestAssistant_ReviewCode_EmptyDiff(t *testing.T) {
	gen := new(MockGenerator)

	_, err := newTestAssistant(gen).ReviewCode(context.Background(), "  \n")

	assert.ErrorIs(t, err, ErrEmptyInput)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssistant_ReviewCode_GeneratorError(t *testing.T) {
	ctx := context.Background()
	gen := new(MockGenerator)
	genErr := errors.New("quota exceeded")
	gen.On("Generate", ctx, mock.Anything, mock.Anything).Return("", genErr)

	_, err := newTestAssistant(gen).ReviewCode(ctx, testDiff)

	assert.ErrorIs(t, err, genErr)
}

func TestAssistant_AnalyzeProject(t *testing.T) {
	ctx := context.Background()
	merged := time.Date(2024, 6, 27, 9, 0, 0, 0, time.UTC)
	pulls := []model.PullRequest{
		{Number: 101, Title: "feat: add login", Author: "alice", State: "closed", MergedAt: &merged, Additions: 250, Deletions: 45},
	}
	data := &model.DashboardData{
		Contributors: []model.ContributorStat{{Name: "alice", Commits: 58, Additions: 250, Deletions: 45}},
		PRVelocity:   []model.PRVelocityPoint{{Name: "Week 4", Opened: 1, Merged: 1}},
		CodeChurn:    []model.CodeChurnPoint{{Name: "Week 4", Additions: 250, Deletions: 45}},
	}

	gen := new(MockGenerator)
	gen.On("Generate", ctx, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, `#101 "feat: add login" by alice`) &&
			strings.Contains(p, "+250/-45, merged") &&
			strings.Contains(p, `"name":"alice"`)
	}), GenerateOptions{Temperature: analysisTemperature}).Return("## Healthy", nil).Once()

	analysis, err := newTestAssistant(gen).AnalyzeProject(ctx, pulls, data)

	require.NoError(t, err)
	assert.Equal(t, "## Healthy", analysis)
	gen.AssertExpectations(t)
}

func TestAssistant_AnalyzeProject_NilData(t *testing.T) {
	gen := new(MockGenerator)

	_, err := newTestAssistant(gen).AnalyzeProject(context.Background(), nil, nil)

	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestAssistant_Chat(t *testing.T) {
	ctx := context.Background()
	tree := []*model.TreeNode{
		{Name: "src", Type: model.NodeFolder, Path: "src", Children: []*model.TreeNode{
			{Name: "main.go", Type: model.NodeFile, Path: "src/main.go"},
		}},
		{Name: "go.mod", Type: model.NodeFile, Path: "go.mod"},
	}

	gen := new(MockGenerator)
	gen.On("Generate", ctx, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "src/\n  main.go\ngo.mod\n") && strings.HasSuffix(p, "Question: Where is the entrypoint?")
	}), GenerateOptions{Temperature: chatTemperature}).Return("In src/main.go.", nil).Once()

	reply, err := newTestAssistant(gen).Chat(ctx, tree, "  Where is the entrypoint? ")

	require.NoError(t, err)
	assert.Equal(t, "In src/main.go.", reply)
	gen.AssertExpectations(t)

	_, err = newTestAssistant(gen).Chat(ctx, tree, " ")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestRenderTree(t *testing.T) {
	nodes := []*model.TreeNode{
		{Name: "a", Type: model.NodeFolder, Children: []*model.TreeNode{{Name: "b.txt", Type: model.NodeFile}}},
		{Name: "c.txt", Type: model.NodeFile},
		{Name: "d.txt", Type: model.NodeFile},
	}

	assert.Equal(t, "a/\n  b.txt\nc.txt\nd.txt\n", renderTree(nodes, 10))
	assert.Equal(t, "a/\n  b.txt\n... 2 more entries\n", renderTree(nodes, 2))
	assert.Equal(t, "(empty repository)\n", renderTree(nil, 10))
}

func TestGemini_Generate(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"hello there"}]}}]}`))
	}))
	defer server.Close()

	ctx := context.Background()
	gen, err := NewGemini(ctx, "test-key", "", server.URL)
	require.NoError(t, err)

	reply, err := gen.Generate(ctx, "hi", GenerateOptions{Temperature: 0.1})

	require.NoError(t, err)
	assert.Equal(t, "hello there", reply)
	assert.True(t, strings.HasSuffix(gotPath, "/models/"+DefaultModel+":generateContent"), gotPath)
}
