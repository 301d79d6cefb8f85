// Package report renders dashboards, pull requests and review suggestions for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"revisehub/internal/dashboard"
	"revisehub/internal/model"
)

const maxTitleWidth = 60

var (
	headingColor  = color.New(color.FgCyan, color.Bold)
	highColor     = color.New(color.FgRed, color.Bold)
	mediumColor   = color.New(color.FgYellow)
	lowColor      = color.New(color.FgHiBlack)
	mergedColor   = color.New(color.FgMagenta)
	openColor     = color.New(color.FgGreen)
	additionColor = color.New(color.FgGreen).SprintFunc()
	deletionColor = color.New(color.FgRed).SprintFunc()
)

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// WriteDashboard prints the repository header, the contributor and weekly activity tables,
// then summary statistics. repo may be nil.
func WriteDashboard(w io.Writer, ref model.RepositoryRef, repo *model.Repository, data *model.DashboardData) error {
	headingColor.Fprintf(w, "Dashboard for %s\n", ref)
	if repo != nil {
		if d := repo.Description; d != nil && *d != "" {
			fmt.Fprintln(w, *d)
		}
		if repo.URL != "" {
			fmt.Fprintln(w, repo.URL)
		}
		fmt.Fprintf(w, "Stars: %d  Forks: %d  Open issues: %d  Default branch: %s\n",
			repo.Stars, repo.Forks, repo.OpenIssues, repo.DefaultBranch)
	}

	fmt.Fprintln(w, "\nContributors")
	var contributors [][]string
	for _, c := range data.Contributors {
		contributors = append(contributors, []string{
			c.Name,
			strconv.Itoa(c.Commits),
			additionColor("+" + strconv.Itoa(c.Additions)),
			deletionColor("-" + strconv.Itoa(c.Deletions)),
		})
	}
	if err := writeTable(w, []string{"Contributor", "Commits", "Additions", "Deletions"}, contributors); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nWeekly activity")
	var weeks [][]string
	for i, v := range data.PRVelocity {
		row := []string{v.Name, strconv.Itoa(v.Opened), strconv.Itoa(v.Merged), "", ""}
		if i < len(data.CodeChurn) {
			row[3] = additionColor("+" + strconv.Itoa(data.CodeChurn[i].Additions))
			row[4] = deletionColor("-" + strconv.Itoa(data.CodeChurn[i].Deletions))
		}
		weeks = append(weeks, row)
	}
	if err := writeTable(w, []string{"Week", "PRs Opened", "PRs Merged", "Additions", "Deletions"}, weeks); err != nil {
		return err
	}

	s := dashboard.Summarize(data)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total churn:        +%d / -%d\n", s.TotalAdditions, s.TotalDeletions)
	fmt.Fprintf(w, "Weekly churn:       mean %.2f, median %.2f\n", s.MeanWeeklyChurn, s.MedianWeeklyChurn)
	fmt.Fprintf(w, "Pull requests:      %d opened, %d merged (ratio %.2f)\n", s.TotalOpened, s.TotalMerged, s.MergeRatio)
	if s.TopContributor != "" {
		fmt.Fprintf(w, "Top contributor:    %s\n", s.TopContributor)
	}
	return nil
}

// WritePullRequests prints one row per pull request.
func WritePullRequests(w io.Writer, pulls []model.PullRequest) error {
	if len(pulls) == 0 {
		fmt.Fprintln(w, "No pull requests found.")
		return nil
	}

	var data [][]string
	for _, pr := range pulls {
		data = append(data, []string{
			"#" + strconv.Itoa(pr.Number),
			truncate(pr.Title, maxTitleWidth),
			pr.Author,
			stateLabel(pr),
			pr.CreatedAt.Format("2006-01-02"),
		})
	}
	return writeTable(w, []string{"Number", "Title", "Author", "State", "Created"}, data)
}

// WriteSuggestions prints review suggestions, most severe first as returned by the model.
func WriteSuggestions(w io.Writer, suggestions []model.CodeSuggestion) error {
	if len(suggestions) == 0 {
		fmt.Fprintln(w, "No suggestions. The diff looks good.")
		return nil
	}

	for i, s := range suggestions {
		fmt.Fprintf(w, "%d. [%s] %s\n", i+1, severityLabel(s.Severity), s.Category)
		fmt.Fprintf(w, "   %s\n", s.Description)
		if s.Suggestion != "" {
			fmt.Fprintln(w, "   Suggested change:")
			fmt.Fprintln(w, indent(s.Suggestion, "     "))
		}
		fmt.Fprintln(w)
	}
	return nil
}

func writeTable(w io.Writer, headers []string, data [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func severityLabel(s model.SuggestionSeverity) string {
	switch s {
	case model.SeverityHigh:
		return highColor.Sprint(s)
	case model.SeverityMedium:
		return mediumColor.Sprint(s)
	default:
		return lowColor.Sprint(s)
	}
}

func stateLabel(pr model.PullRequest) string {
	switch {
	case pr.MergedAt != nil:
		return mergedColor.Sprint("merged")
	case pr.State == "open":
		return openColor.Sprint("open")
	default:
		return pr.State
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}
