// Package assistant builds prompts for the generative model and parses its replies:
// code review suggestions, project health analysis and repository chat.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"revisehub/internal/dashboard"
	"revisehub/internal/model"
)

var (
	// ErrEmptyInput is returned before any model call when there is nothing to send.
	ErrEmptyInput = errors.New("assistant: empty input")
	// ErrMalformedResponse is returned when the model reply does not match the expected shape.
	ErrMalformedResponse = errors.New("assistant: malformed response")
)

const (
	reviewTemperature   = 0.2
	analysisTemperature = 0.5
	chatTemperature     = 0.4
	maxTreeLines        = 400
)

var (
	suggestionCategories = model.SuggestionCategories
	suggestionSeverities = model.SuggestionSeverities
)

type Assistant struct {
	gen    Generator
	logger *slog.Logger
}

func New(gen Generator, logger *slog.Logger) *Assistant {
	return &Assistant{
		gen:    gen,
		logger: logger,
	}
}

// ReviewCode asks the model for review suggestions on a unified diff.
func (a *Assistant) ReviewCode(ctx context.Context, diff string) ([]model.CodeSuggestion, error) {
	if strings.TrimSpace(diff) == "" {
		return nil, ErrEmptyInput
	}

	prompt := fmt.Sprintf("%s\n\nCode Diff:\n```diff\n%s\n```", reviewPrompt(), diff)
	reply, err := a.gen.Generate(ctx, prompt, GenerateOptions{
		Temperature:      reviewTemperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   suggestionSchema(),
	})
	if err != nil {
		return nil, err
	}

	suggestions, err := parseSuggestions(reply)
	if err != nil {
		a.logger.Warn("Discarding unparsable review reply", "error", err, "reply_bytes", len(reply))
		return nil, err
	}
	a.logger.Debug("Code review complete", "suggestions", len(suggestions))
	return suggestions, nil
}

// AnalyzeProject asks the model for a short markdown analysis of the project's health.
func (a *Assistant) AnalyzeProject(ctx context.Context, pulls []model.PullRequest, data *model.DashboardData) (string, error) {
	if data == nil {
		return "", ErrEmptyInput
	}

	prompt, err := analysisPrompt(pulls, data)
	if err != nil {
		return "", err
	}
	return a.gen.Generate(ctx, prompt, GenerateOptions{Temperature: analysisTemperature})
}

// Chat answers a question about the repository, grounded on its file structure.
func (a *Assistant) Chat(ctx context.Context, tree []*model.TreeNode, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyInput
	}

	var b strings.Builder
	b.WriteString("You are an assistant that answers questions about a software repository.\n")
	b.WriteString("Use the file structure below to ground your answer. If the structure does not contain\n")
	b.WriteString("enough information, say so instead of guessing. Keep the answer short.\n\n")
	b.WriteString("File structure:\n")
	b.WriteString(renderTree(tree, maxTreeLines))
	b.WriteString("\nQuestion: ")
	b.WriteString(question)

	return a.gen.Generate(ctx, b.String(), GenerateOptions{Temperature: chatTemperature})
}

func reviewPrompt() string {
	categories := make([]string, 0, len(suggestionCategories))
	for _, c := range suggestionCategories {
		categories = append(categories, string(c))
	}
	severities := make([]string, 0, len(suggestionSeverities))
	for _, s := range suggestionSeverities {
		severities = append(severities, string(s))
	}

	return fmt.Sprintf(`You are a senior software engineer reviewing a pull request.
Review the diff below and list concrete improvements. For every finding give:
1. a category, one of: %s
2. a severity, one of: %s
3. a one or two sentence description of the problem
4. a code snippet showing the fix

Look for bugs first, then readability, performance and missing documentation.
Skip purely cosmetic preferences. Reply with a JSON array of findings and nothing else.`,
		strings.Join(categories, ", "), strings.Join(severities, ", "))
}

func analysisPrompt(pulls []model.PullRequest, data *model.DashboardData) (string, error) {
	contributors, err := json.Marshal(data.Contributors)
	if err != nil {
		return "", err
	}
	churn, err := json.Marshal(data.CodeChurn)
	if err != nil {
		return "", err
	}
	velocity, err := json.Marshal(data.PRVelocity)
	if err != nil {
		return "", err
	}
	summary, err := json.Marshal(dashboard.Summarize(data))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`You are a principal engineer assessing the health of a software project.
From the data below write a short analysis of two or three paragraphs in markdown.
Point out healthy trends and risks, and end with practical advice for the team.

Recent pull requests:
%s
Contributor statistics: %s
Weekly code churn: %s
Weekly pull request velocity: %s
Summary statistics: %s`,
		summarizePulls(pulls), contributors, churn, velocity, summary), nil
}

// summarizePulls renders one line per pull request.
func summarizePulls(pulls []model.PullRequest) string {
	if len(pulls) == 0 {
		return "(none)\n"
	}
	var b strings.Builder
	for _, pr := range pulls {
		fmt.Fprintf(&b, "- #%d %q by %s, state %s", pr.Number, pr.Title, pr.Author, pr.State)
		if pr.Additions > 0 || pr.Deletions > 0 {
			fmt.Fprintf(&b, ", +%d/-%d", pr.Additions, pr.Deletions)
		}
		if pr.MergedAt != nil {
			b.WriteString(", merged")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderTree prints the tree as an indented list, folders suffixed with "/".
func renderTree(nodes []*model.TreeNode, limit int) string {
	var b strings.Builder
	lines := 0
	omitted := 0

	var walk func(nodes []*model.TreeNode, depth int)
	walk = func(nodes []*model.TreeNode, depth int) {
		for _, n := range nodes {
			if lines >= limit {
				omitted++
			} else {
				b.WriteString(strings.Repeat("  ", depth))
				b.WriteString(n.Name)
				if n.Type == model.NodeFolder {
					b.WriteString("/")
				}
				b.WriteString("\n")
				lines++
			}
			walk(n.Children, depth+1)
		}
	}
	walk(nodes, 0)

	if lines == 0 {
		return "(empty repository)\n"
	}
	if omitted > 0 {
		fmt.Fprintf(&b, "... %d more entries\n", omitted)
	}
	return b.String()
}

type rawSuggestion struct {
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

// parseSuggestions decodes a JSON array of suggestions, tolerating a surrounding
// markdown code fence. Unknown categories or severities are rejected.
func parseSuggestions(reply string) ([]model.CodeSuggestion, error) {
	var raw []rawSuggestion
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	out := make([]model.CodeSuggestion, 0, len(raw))
	for i, r := range raw {
		category := model.SuggestionCategory(strings.ToUpper(strings.TrimSpace(r.Category)))
		if !knownCategory(category) {
			return nil, fmt.Errorf("%w: suggestion %d has unknown category %q", ErrMalformedResponse, i, r.Category)
		}
		severity := model.SuggestionSeverity(strings.ToUpper(strings.TrimSpace(r.Severity)))
		if !knownSeverity(severity) {
			return nil, fmt.Errorf("%w: suggestion %d has unknown severity %q", ErrMalformedResponse, i, r.Severity)
		}
		out = append(out, model.CodeSuggestion{
			Category:    category,
			Severity:    severity,
			Description: r.Description,
			Suggestion:  r.Suggestion,
		})
	}
	return out, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

func knownCategory(c model.SuggestionCategory) bool {
	for _, known := range suggestionCategories {
		if c == known {
			return true
		}
	}
	return false
}

func knownSeverity(s model.SuggestionSeverity) bool {
	for _, known := range suggestionSeverities {
		if s == known {
			return true
		}
	}
	return false
}
