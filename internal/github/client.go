// internal/github/client.go
package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	custom_errors "revisehub/internal/errors"
	"revisehub/internal/model"
)

// Client is a wrapper around the go-github client.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance.
// A non-empty token is attached as a bearer token to every request; an empty token
// leaves the client unauthenticated. baseURL overrides the API endpoint when set.
func NewClient(token, baseURL string, logger *slog.Logger) (*Client, error) {
	httpClient := http.DefaultClient
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	gh := github.NewClient(httpClient)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", baseURL, err)
		}
		gh.BaseURL = u
	}

	return &Client{
		gh:     gh,
		logger: logger,
	}, nil
}

// GetRepository fetches repository details and translates them to our internal model.
func (c *Client) GetRepository(ctx context.Context, ref model.RepositoryRef) (*model.Repository, error) {
	repo, resp, err := c.gh.Repositories.Get(ctx, ref.Owner, ref.Name)
	if err != nil {
		return nil, upstreamError("get repository", resp, err)
	}
	return toInternalRepository(repo), nil
}

// ListContributors fetches a single page of at most limit contributors.
func (c *Client) ListContributors(ctx context.Context, ref model.RepositoryRef, limit int) ([]model.Contributor, error) {
	c.logger.Debug("Fetching contributors", "owner", ref.Owner, "repo", ref.Name, "limit", limit)

	contributors, resp, err := c.gh.Repositories.ListContributors(ctx, ref.Owner, ref.Name, &github.ListContributorsOptions{
		ListOptions: github.ListOptions{PerPage: limit},
	})
	if err != nil {
		return nil, upstreamError("list contributors", resp, err)
	}

	out := make([]model.Contributor, 0, len(contributors))
	for _, contributor := range contributors {
		out = append(out, toInternalContributor(contributor))
	}
	return out, nil
}

// ListCommits fetches a single page of at most limit recent commits.
// The upstream API may clamp the page size below limit.
func (c *Client) ListCommits(ctx context.Context, ref model.RepositoryRef, limit int) ([]model.CommitSummary, error) {
	c.logger.Debug("Fetching commits", "owner", ref.Owner, "repo", ref.Name, "limit", limit)

	commits, resp, err := c.gh.Repositories.ListCommits(ctx, ref.Owner, ref.Name, &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: limit},
	})
	if err != nil {
		return nil, upstreamError("list commits", resp, err)
	}

	out := make([]model.CommitSummary, 0, len(commits))
	for _, commit := range commits {
		out = append(out, toInternalCommitSummary(commit))
	}
	return out, nil
}

// GetCommit fetches one commit with its line stats.
func (c *Client) GetCommit(ctx context.Context, ref model.RepositoryRef, sha string) (*model.CommitRecord, error) {
	commit, resp, err := c.gh.Repositories.GetCommit(ctx, ref.Owner, ref.Name, sha, nil)
	if err != nil {
		return nil, upstreamError("get commit "+sha, resp, err)
	}
	record := toInternalCommitRecord(commit)
	return &record, nil
}

// ListPullRequests fetches a single page of at most limit pull requests in the given state.
func (c *Client) ListPullRequests(ctx context.Context, ref model.RepositoryRef, state string, limit int) ([]model.PullRequest, error) {
	c.logger.Debug("Fetching pull requests", "owner", ref.Owner, "repo", ref.Name, "state", state, "limit", limit)

	pulls, resp, err := c.gh.PullRequests.List(ctx, ref.Owner, ref.Name, &github.PullRequestListOptions{
		State:       state,
		ListOptions: github.ListOptions{PerPage: limit},
	})
	if err != nil {
		return nil, upstreamError("list pull requests", resp, err)
	}

	out := make([]model.PullRequest, 0, len(pulls))
	for _, pr := range pulls {
		out = append(out, toInternalPullRequest(pr))
	}
	return out, nil
}

// GetPullRequest fetches one pull request including its line stats.
func (c *Client) GetPullRequest(ctx context.Context, ref model.RepositoryRef, number int) (*model.PullRequest, error) {
	pr, resp, err := c.gh.PullRequests.Get(ctx, ref.Owner, ref.Name, number)
	if err != nil {
		return nil, upstreamError(fmt.Sprintf("get pull request #%d", number), resp, err)
	}
	out := toInternalPullRequest(pr)
	return &out, nil
}

// GetPullRequestDiff fetches the unified diff of a pull request.
func (c *Client) GetPullRequestDiff(ctx context.Context, ref model.RepositoryRef, number int) (*model.CodeDiff, error) {
	diff, resp, err := c.gh.PullRequests.GetRaw(ctx, ref.Owner, ref.Name, number, github.RawOptions{Type: github.Diff})
	if err != nil {
		return nil, upstreamError(fmt.Sprintf("get pull request #%d diff", number), resp, err)
	}
	return &model.CodeDiff{Diff: diff}, nil
}

// GetTree lists the git tree at sha, which may be a branch name.
func (c *Client) GetTree(ctx context.Context, ref model.RepositoryRef, sha string, recursive bool) ([]model.TreeEntry, error) {
	tree, resp, err := c.gh.Git.GetTree(ctx, ref.Owner, ref.Name, sha, recursive)
	if err != nil {
		return nil, upstreamError("get tree", resp, err)
	}
	if tree.GetTruncated() {
		c.logger.Warn("Tree listing truncated by upstream", "owner", ref.Owner, "repo", ref.Name, "entries", len(tree.Entries))
	}

	out := make([]model.TreeEntry, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		out = append(out, model.TreeEntry{
			Path: entry.GetPath(),
			Type: entry.GetType(),
			SHA:  entry.GetSHA(),
			Size: entry.GetSize(),
		})
	}
	return out, nil
}

// GetBlob fetches a blob and returns its decoded content.
func (c *Client) GetBlob(ctx context.Context, ref model.RepositoryRef, sha string) ([]byte, error) {
	blob, resp, err := c.gh.Git.GetBlob(ctx, ref.Owner, ref.Name, sha)
	if err != nil {
		return nil, upstreamError("get blob "+sha, resp, err)
	}

	switch blob.GetEncoding() {
	case "base64":
		// The API wraps base64 content at 60 columns.
		content, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(blob.GetContent(), "\n", ""))
		if err != nil {
			return nil, fmt.Errorf("decode blob %s: %w", sha, err)
		}
		return content, nil
	default:
		return []byte(blob.GetContent()), nil
	}
}

// upstreamError wraps a go-github failure with the operation name and HTTP status.
func upstreamError(op string, resp *github.Response, err error) error {
	fetchErr := &custom_errors.ErrUpstreamFetch{Op: op, Err: err}
	if resp != nil && resp.Response != nil {
		fetchErr.Status = resp.StatusCode
	}
	return fetchErr
}

// toInternalRepository translates a github.Repository object to our internal model.Repository.
func toInternalRepository(r *github.Repository) *model.Repository {
	return &model.Repository{
		Owner:         r.GetOwner().GetLogin(),
		Name:          r.GetName(),
		DefaultBranch: r.GetDefaultBranch(),
		Description:   r.Description,
		URL:           r.GetHTMLURL(),
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		OpenIssues:    r.GetOpenIssuesCount(),
	}
}

func toInternalContributor(c *github.Contributor) model.Contributor {
	return model.Contributor{
		Login:         c.GetLogin(),
		Contributions: c.GetContributions(),
		AvatarURL:     c.GetAvatarURL(),
	}
}

func toInternalCommitSummary(c *github.RepositoryCommit) model.CommitSummary {
	return model.CommitSummary{
		SHA:         c.GetSHA(),
		AuthorLogin: c.GetAuthor().GetLogin(),
		AuthorName:  c.GetCommit().GetAuthor().GetName(),
		CommittedAt: c.GetCommit().GetAuthor().GetDate().Time,
	}
}

// toInternalCommitRecord translates a commit detail response, stats included.
func toInternalCommitRecord(c *github.RepositoryCommit) model.CommitRecord {
	return model.CommitRecord{
		SHA:         c.GetSHA(),
		AuthorLogin: c.GetAuthor().GetLogin(),
		AuthorName:  c.GetCommit().GetAuthor().GetName(),
		CommittedAt: c.GetCommit().GetAuthor().GetDate().Time,
		Additions:   c.GetStats().GetAdditions(),
		Deletions:   c.GetStats().GetDeletions(),
	}
}

func toInternalPullRequest(pr *github.PullRequest) model.PullRequest {
	out := model.PullRequest{
		Number:       pr.GetNumber(),
		Title:        pr.GetTitle(),
		Author:       pr.GetUser().GetLogin(),
		AuthorAvatar: pr.GetUser().GetAvatarURL(),
		Branch:       pr.GetHead().GetRef(),
		State:        pr.GetState(),
		URL:          pr.GetHTMLURL(),
		CreatedAt:    pr.GetCreatedAt().Time,
		Additions:    pr.GetAdditions(),
		Deletions:    pr.GetDeletions(),
		ChangedFiles: pr.GetChangedFiles(),
	}
	if pr.MergedAt != nil {
		mergedAt := pr.MergedAt.Time
		out.MergedAt = &mergedAt
	}
	return out
}
