// Package explorer serves the read-only repository views: pull requests, diffs,
// the file tree and file contents.
package explorer

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	custom_errors "revisehub/internal/errors"
	"revisehub/internal/model"
)

const DefaultPullLimit = 100

// Source is the subset of the source-control API the explorer reads from.
type Source interface {
	GetRepository(ctx context.Context, ref model.RepositoryRef) (*model.Repository, error)
	ListPullRequests(ctx context.Context, ref model.RepositoryRef, state string, limit int) ([]model.PullRequest, error)
	GetPullRequest(ctx context.Context, ref model.RepositoryRef, number int) (*model.PullRequest, error)
	GetPullRequestDiff(ctx context.Context, ref model.RepositoryRef, number int) (*model.CodeDiff, error)
	GetTree(ctx context.Context, ref model.RepositoryRef, sha string, recursive bool) ([]model.TreeEntry, error)
	GetBlob(ctx context.Context, ref model.RepositoryRef, sha string) ([]byte, error)
}

// Explorer is the container for the browsing dependencies.
type Explorer struct {
	source    Source
	logger    *slog.Logger
	pullLimit int
}

func NewExplorer(source Source, logger *slog.Logger, pullLimit int) *Explorer {
	if pullLimit <= 0 {
		pullLimit = DefaultPullLimit
	}
	return &Explorer{
		source:    source,
		logger:    logger,
		pullLimit: pullLimit,
	}
}

// Repository returns the repository metadata.
func (e *Explorer) Repository(ctx context.Context, ref model.RepositoryRef) (*model.Repository, error) {
	return e.source.GetRepository(ctx, ref)
}

// ValidState reports whether state is a pull request state filter the API accepts.
func ValidState(state string) bool {
	switch state {
	case "open", "closed", "all":
		return true
	}
	return false
}

// PullRequests lists a single page of pull requests. An empty state means open.
func (e *Explorer) PullRequests(ctx context.Context, ref model.RepositoryRef, state string) ([]model.PullRequest, error) {
	if state == "" {
		state = "open"
	}
	if !ValidState(state) {
		return nil, fmt.Errorf("invalid pull request state %q", state)
	}
	return e.source.ListPullRequests(ctx, ref, state, e.pullLimit)
}

func (e *Explorer) PullRequest(ctx context.Context, ref model.RepositoryRef, number int) (*model.PullRequest, error) {
	return e.source.GetPullRequest(ctx, ref, number)
}

func (e *Explorer) PullRequestDiff(ctx context.Context, ref model.RepositoryRef, number int) (*model.CodeDiff, error) {
	return e.source.GetPullRequestDiff(ctx, ref, number)
}

// FileTree returns the nested file tree of the default branch.
func (e *Explorer) FileTree(ctx context.Context, ref model.RepositoryRef) ([]*model.TreeNode, error) {
	entries, err := e.treeEntries(ctx, ref)
	if err != nil {
		return nil, err
	}
	return BuildTree(entries), nil
}

// FileContent returns the content of the file at filePath on the default branch.
func (e *Explorer) FileContent(ctx context.Context, ref model.RepositoryRef, filePath string) (string, error) {
	filePath = strings.Trim(filePath, "/")
	entries, err := e.treeEntries(ctx, ref)
	if err != nil {
		return "", err
	}

	for _, entry := range entries {
		if entry.Path != filePath {
			continue
		}
		if entry.Type != "blob" {
			return "", fmt.Errorf("%s: %w", filePath, custom_errors.ErrNotAFile)
		}
		content, err := e.source.GetBlob(ctx, ref, entry.SHA)
		if err != nil {
			return "", err
		}
		return string(content), nil
	}
	return "", fmt.Errorf("%s: %w", filePath, custom_errors.ErrNotFound)
}

func (e *Explorer) treeEntries(ctx context.Context, ref model.RepositoryRef) ([]model.TreeEntry, error) {
	repo, err := e.source.GetRepository(ctx, ref)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Listing tree", "owner", ref.Owner, "repo", ref.Name, "branch", repo.DefaultBranch)
	return e.source.GetTree(ctx, ref, repo.DefaultBranch, true)
}

// BuildTree folds flat tree entries into nested nodes. Folders missing from the listing
// are created from their children's paths. Submodules are listed as files.
func BuildTree(entries []model.TreeEntry) []*model.TreeNode {
	root := &model.TreeNode{Type: model.NodeFolder}
	folders := map[string]*model.TreeNode{"": root}

	var folderFor func(p string) *model.TreeNode
	folderFor = func(p string) *model.TreeNode {
		if node, ok := folders[p]; ok {
			return node
		}
		parent := folderFor(parentDir(p))
		node := &model.TreeNode{Name: path.Base(p), Type: model.NodeFolder, Path: p}
		parent.Children = append(parent.Children, node)
		folders[p] = node
		return node
	}

	for _, entry := range entries {
		p := strings.Trim(entry.Path, "/")
		if p == "" {
			continue
		}
		if entry.Type == "tree" {
			folderFor(p).SHA = entry.SHA
			continue
		}
		parent := folderFor(parentDir(p))
		parent.Children = append(parent.Children, &model.TreeNode{
			Name: path.Base(p),
			Type: model.NodeFile,
			Path: p,
			SHA:  entry.SHA,
			Size: entry.Size,
		})
	}

	if root.Children == nil {
		return []*model.TreeNode{}
	}
	sortTree(root.Children)
	return root.Children
}

func parentDir(p string) string {
	dir := path.Dir(p)
	if dir == "." {
		return ""
	}
	return dir
}

// sortTree orders folders before files, then case-insensitively by name, at every level.
func sortTree(nodes []*model.TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Type != nodes[j].Type {
			return nodes[i].Type == model.NodeFolder
		}
		a, b := strings.ToLower(nodes[i].Name), strings.ToLower(nodes[j].Name)
		if a != b {
			return a < b
		}
		return nodes[i].Name < nodes[j].Name
	})
	for _, n := range nodes {
		if len(n.Children) > 0 {
			sortTree(n.Children)
		}
	}
}
