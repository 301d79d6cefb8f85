// internal/model/models.go
package model

import (
	"fmt"
	"time"
)

// RepositoryRef identifies a repository by its owner and name.
type RepositoryRef struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

func (r RepositoryRef) String() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}

// Repository represents the metadata of a GitHub repository.
type Repository struct {
	Owner         string  `json:"owner"`
	Name          string  `json:"name"`
	DefaultBranch string  `json:"default_branch"`
	Description   *string `json:"description,omitempty"`
	URL           string  `json:"url"`
	Stars         int     `json:"stars"`
	Forks         int     `json:"forks"`
	OpenIssues    int     `json:"open_issues"`
}

// Contributor is one entry of the upstream contributor listing.
type Contributor struct {
	Login         string
	Contributions int
	AvatarURL     string
}

// CommitSummary is one entry of the recent-commit listing. It carries no line stats;
// those require a per-commit detail read.
type CommitSummary struct {
	SHA         string
	AuthorLogin string
	AuthorName  string
	CommittedAt time.Time
}

// CommitRecord is a commit with its attributed line stats.
type CommitRecord struct {
	SHA         string
	AuthorLogin string
	AuthorName  string
	CommittedAt time.Time
	Additions   int
	Deletions   int
}

// Author returns the key the commit is attributed to: the login when known,
// the raw author name otherwise.
func (c CommitRecord) Author() string {
	if c.AuthorLogin != "" {
		return c.AuthorLogin
	}
	return c.AuthorName
}

type PullRequest struct {
	Number       int        `json:"id"`
	Title        string     `json:"title"`
	Author       string     `json:"author"`
	AuthorAvatar string     `json:"authorAvatar"`
	Branch       string     `json:"branch"`
	State        string     `json:"state"`
	URL          string     `json:"url"`
	CreatedAt    time.Time  `json:"createdAt"`
	MergedAt     *time.Time `json:"mergedAt,omitempty"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	ChangedFiles int        `json:"changedFiles"`
}

type CodeDiff struct {
	Diff string `json:"diff"`
}

// ContributorStat aggregates the activity of one author.
type ContributorStat struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Commits   int    `json:"commits"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// WeekBucket is a 7-day window [Start, End).
type WeekBucket struct {
	Label string
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls in the bucket.
func (b WeekBucket) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

type PRVelocityPoint struct {
	Name   string `json:"name"`
	Opened int    `json:"opened"`
	Merged int    `json:"merged"`
}

type CodeChurnPoint struct {
	Name      string `json:"name"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// DashboardData is the result of one metrics aggregation.
type DashboardData struct {
	Contributors []ContributorStat `json:"contributors"`
	PRVelocity   []PRVelocityPoint `json:"prVelocity"`
	CodeChurn    []CodeChurnPoint  `json:"codeChurn"`
}

// DashboardSummary holds descriptive statistics derived from a DashboardData.
type DashboardSummary struct {
	TotalAdditions    int     `json:"totalAdditions"`
	TotalDeletions    int     `json:"totalDeletions"`
	MeanWeeklyChurn   float64 `json:"meanWeeklyChurn"`
	MedianWeeklyChurn float64 `json:"medianWeeklyChurn"`
	TotalOpened       int     `json:"totalOpened"`
	TotalMerged       int     `json:"totalMerged"`
	MeanWeeklyOpened  float64 `json:"meanWeeklyOpened"`
	MergeRatio        float64 `json:"mergeRatio"`
	TopContributor    string  `json:"topContributor,omitempty"`
}

const (
	NodeFile   = "file"
	NodeFolder = "folder"
)

// TreeNode is one file or folder of a repository tree.
type TreeNode struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Path     string      `json:"path"`
	SHA      string      `json:"sha,omitempty"`
	Size     int         `json:"size,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

// TreeEntry is one flat entry of a recursive git tree listing.
type TreeEntry struct {
	Path string
	Type string // "blob", "tree" or "commit"
	SHA  string
	Size int
}

type SuggestionCategory string

const (
	CategoryBug           SuggestionCategory = "BUG"
	CategoryStyle         SuggestionCategory = "STYLE"
	CategoryDocumentation SuggestionCategory = "DOCUMENTATION"
	CategoryOptimization  SuggestionCategory = "OPTIMIZATION"
	CategoryComplexity    SuggestionCategory = "COMPLEXITY"
)

// SuggestionCategories lists every valid category in display order.
var SuggestionCategories = []SuggestionCategory{
	CategoryBug, CategoryStyle, CategoryDocumentation, CategoryOptimization, CategoryComplexity,
}

type SuggestionSeverity string

const (
	SeverityLow    SuggestionSeverity = "LOW"
	SeverityMedium SuggestionSeverity = "MEDIUM"
	SeverityHigh   SuggestionSeverity = "HIGH"
)

var SuggestionSeverities = []SuggestionSeverity{SeverityLow, SeverityMedium, SeverityHigh}

// CodeSuggestion is one AI review finding.
type CodeSuggestion struct {
	Category    SuggestionCategory `json:"category"`
	Severity    SuggestionSeverity `json:"severity"`
	Description string             `json:"description"`
	Suggestion  string             `json:"suggestion"`
}

const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// ChatMessage is one turn of a repository chat.
type ChatMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}
