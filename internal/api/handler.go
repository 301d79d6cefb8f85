// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"revisehub/internal/assistant"
	"revisehub/internal/dashboard"
	custom_errors "revisehub/internal/errors"
	"revisehub/internal/explorer"
	"revisehub/internal/model"
	"revisehub/internal/reporef"
)

// statusClientClosedRequest is written when the caller went away before the response was ready.
const statusClientClosedRequest = 499

// DashboardService aggregates repository metrics.
type DashboardService interface {
	GetDashboardData(ctx context.Context, repositoryURL string) (*model.DashboardData, error)
	Aggregate(ctx context.Context, ref model.RepositoryRef) (*model.DashboardData, error)
}

// ExplorerService serves the read-only repository views.
type ExplorerService interface {
	Repository(ctx context.Context, ref model.RepositoryRef) (*model.Repository, error)
	PullRequests(ctx context.Context, ref model.RepositoryRef, state string) ([]model.PullRequest, error)
	PullRequest(ctx context.Context, ref model.RepositoryRef, number int) (*model.PullRequest, error)
	PullRequestDiff(ctx context.Context, ref model.RepositoryRef, number int) (*model.CodeDiff, error)
	FileTree(ctx context.Context, ref model.RepositoryRef) ([]*model.TreeNode, error)
	FileContent(ctx context.Context, ref model.RepositoryRef, path string) (string, error)
}

// AssistantService generates review suggestions, project analyses and chat replies.
type AssistantService interface {
	ReviewCode(ctx context.Context, diff string) ([]model.CodeSuggestion, error)
	AnalyzeProject(ctx context.Context, pulls []model.PullRequest, data *model.DashboardData) (string, error)
	Chat(ctx context.Context, tree []*model.TreeNode, question string) (string, error)
}

// Options tunes the router timeouts.
type Options struct {
	RequestTimeout   time.Duration
	DashboardTimeout time.Duration
}

// Handler is the container for API dependencies.
type Handler struct {
	dashboard        DashboardService
	explorer         ExplorerService
	assistant        AssistantService
	logger           *slog.Logger
	dashboardTimeout time.Duration
}

// NewRouter creates and configures a new chi router with all API routes.
// A nil assistant disables the AI endpoints, which then answer 503.
func NewRouter(dash DashboardService, exp ExplorerService, asst AssistantService, logger *slog.Logger, opts Options) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 90 * time.Second
	}
	if opts.DashboardTimeout <= 0 {
		opts.DashboardTimeout = 60 * time.Second
	}

	h := &Handler{
		dashboard:        dash,
		explorer:         exp,
		assistant:        asst,
		logger:           logger,
		dashboardTimeout: opts.DashboardTimeout,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))

	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/dashboard", h.postDashboard)
		r.Route("/repos/{owner}/{name}", func(r chi.Router) {
			r.Get("/", h.getRepository)
			r.Get("/dashboard", h.getDashboard)
			r.Get("/dashboard/summary", h.getDashboardSummary)
			r.Get("/pulls", h.getPullRequests)
			r.Get("/pulls/{number}", h.getPullRequest)
			r.Get("/pulls/{number}/diff", h.getPullRequestDiff)
			r.Post("/pulls/{number}/review", h.reviewPullRequest)
			r.Get("/tree", h.getTree)
			r.Get("/contents/*", h.getContents)
			r.Post("/analysis", h.analyzeProject)
			r.Post("/chat", h.chat)
		})
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type dashboardRequest struct {
	RepositoryURL string `json:"repositoryUrl"`
}

// postDashboard aggregates metrics for a repository URL.
// POST /v1/dashboard
func (h *Handler) postDashboard(w http.ResponseWriter, r *http.Request) {
	var req dashboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.dashboardTimeout)
	defer cancel()

	data, err := h.dashboard.GetDashboardData(ctx, req.RepositoryURL)
	if err != nil {
		h.handleError(w, "Failed to build dashboard", err)
		return
	}
	respondWithJSON(w, http.StatusOK, data)
}

// getDashboard aggregates metrics for the repository in the path.
// GET /v1/repos/{owner}/{name}/dashboard
func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.repoRef(w, r)
	if !ok {
		return
	}
	data, ok := h.aggregate(w, r, ref)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, data)
}

// GET /v1/repos/{owner}/{name}/dashboard/summary
func (h *Handler) getDashboardSummary(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.repoRef(w, r)
	if !ok {
		return
	}
	data, ok := h.aggregate(w, r, ref)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, dashboard.Summarize(data))
}

// aggregate runs the metrics aggregation under the dashboard timeout.
func (h *Handler) aggregate(w http.ResponseWriter, r *http.Request, ref model.RepositoryRef) (*model.DashboardData, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), h.dashboardTimeout)
	defer cancel()

	data, err := h.dashboard.Aggregate(ctx, ref)
	if err != nil {
		h.handleError(w, "Failed to build dashboard", err)
		return nil, false
	}
	return data, true
}

// GET /v1/repos/{owner}/{name}
func (h *Handler) getRepository(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.repoRef(w, r)
	if !ok {
		return
	}

	repo, err := h.explorer.Repository(r.Context(), ref)
	if err != nil {
		h.handleError(w, "Failed to get repository", err)
		return
	}
	respondWithJSON(w, http.StatusOK, repo)
}

// getPullRequests lists a single page of pull requests.
// GET /v1/repos/{owner}/{name}/pulls?state=open|closed|all
func (h *Handler) getPullRequests(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.repoRef(w, r)
	if !ok {
		return
	}

	state := r.URL.Query().Get("state")
	if state != "" && !explorer.ValidState(state) {
		respondWithError(w, http.StatusBadRequest, "Invalid 'state' parameter. Must be one of open, closed, all.")
		return
	}

	pulls, err := h.explorer.PullRequests(r.Context(), ref, state)
	if err != nil {
		h.handleError(w, "Failed to list pull requests", err)
		return
	}
	respondWithJSON(w, http.StatusOK, pulls)
}

// GET /v1/repos/{owner}/{name}/pulls/{number}
func (h *Handler) getPullRequest(w http.ResponseWriter, r *http.Request) {
	ref, number, ok := h.pullRef(w, r)
	if !ok {
		return
	}

	pr, err := h.explorer.PullRequest(r.Context(), ref, number)
	if err != nil {
		h.handleError(w, "Failed to get pull request", err)
		return
	}
	respondWithJSON(w, http.StatusOK, pr)
}

// GET /v1/repos/{owner}/{name}/pulls/{number}/diff
func (h *Handler) getPullRequestDiff(w http.ResponseWriter, r *http.Request) {
	ref, number, ok := h.pullRef(w, r)
	if !ok {
		return
	}

	diff, err := h.explorer.PullRequestDiff(r.Context(), ref, number)
	if err != nil {
		h.handleError(w, "Failed to get pull request diff", err)
		return
	}
	respondWithJSON(w, http.StatusOK, diff)
}

// reviewPullRequest asks the assistant to review the diff of a pull request.
// POST /v1/repos/{owner}/{name}/pulls/{number}/review
func (h *Handler) reviewPullRequest(w http.ResponseWriter, r *http.Request) {
	if !h.assistantEnabled(w) {
		return
	}
	ref, number, ok := h.pullRef(w, r)
	if !ok {
		return
	}

	diff, err := h.explorer.PullRequestDiff(r.Context(), ref, number)
	if err != nil {
		h.handleError(w, "Failed to get pull request diff", err)
		return
	}

	suggestions, err := h.assistant.ReviewCode(r.Context(), diff.Diff)
	if err != nil {
		h.handleAssistantError(w, "Failed to review pull request", err)
		return
	}
	respondWithJSON(w, http.StatusOK, suggestions)
}

// GET /v1/repos/{owner}/{name}/tree
func (h *Handler) getTree(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.repoRef(w, r)
	if !ok {
		return
	}

	tree, err := h.explorer.FileTree(r.Context(), ref)
	if err != nil {
		h.handleError(w, "Failed to get file tree", err)
		return
	}
	respondWithJSON(w, http.StatusOK, tree)
}

type contentResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// GET /v1/repos/{owner}/{name}/contents/*
func (h *Handler) getContents(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.repoRef(w, r)
	if !ok {
		return
	}

	path := strings.Trim(chi.URLParam(r, "*"), "/")
	if path == "" {
		respondWithError(w, http.StatusBadRequest, "A file path is required")
		return
	}

	content, err := h.explorer.FileContent(r.Context(), ref, path)
	if err != nil {
		h.handleError(w, "Failed to get file content", err)
		return
	}
	respondWithJSON(w, http.StatusOK, contentResponse{Path: path, Content: content})
}

// analyzeProject asks the assistant for a narrative health analysis.
// POST /v1/repos/{owner}/{name}/analysis
func (h *Handler) analyzeProject(w http.ResponseWriter, r *http.Request) {
	if !h.assistantEnabled(w) {
		return
	}
	ref, ok := h.repoRef(w, r)
	if !ok {
		return
	}
	data, ok := h.aggregate(w, r, ref)
	if !ok {
		return
	}

	pulls, err := h.explorer.PullRequests(r.Context(), ref, "all")
	if err != nil {
		h.handleError(w, "Failed to list pull requests", err)
		return
	}

	analysis, err := h.assistant.AnalyzeProject(r.Context(), pulls, data)
	if err != nil {
		h.handleAssistantError(w, "Failed to analyze project", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"analysis": analysis})
}

type chatRequest struct {
	Message string `json:"message"`
}

// chat answers a question about the repository's file structure.
// POST /v1/repos/{owner}/{name}/chat
func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	if !h.assistantEnabled(w) {
		return
	}
	ref, ok := h.repoRef(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondWithError(w, http.StatusBadRequest, "A message is required")
		return
	}

	tree, err := h.explorer.FileTree(r.Context(), ref)
	if err != nil {
		h.handleError(w, "Failed to get file tree", err)
		return
	}

	reply, err := h.assistant.Chat(r.Context(), tree, req.Message)
	if err != nil {
		h.handleAssistantError(w, "Failed to answer chat message", err)
		return
	}
	respondWithJSON(w, http.StatusOK, model.ChatMessage{Sender: model.SenderAI, Text: reply})
}

func (h *Handler) repoRef(w http.ResponseWriter, r *http.Request) (model.RepositoryRef, bool) {
	ref, err := reporef.FromParts(chi.URLParam(r, "owner"), chi.URLParam(r, "name"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return model.RepositoryRef{}, false
	}
	return ref, true
}

func (h *Handler) pullRef(w http.ResponseWriter, r *http.Request) (model.RepositoryRef, int, bool) {
	ref, ok := h.repoRef(w, r)
	if !ok {
		return ref, 0, false
	}
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid pull request number. Must be a positive integer.")
		return ref, 0, false
	}
	return ref, number, true
}

func (h *Handler) assistantEnabled(w http.ResponseWriter) bool {
	if h.assistant == nil {
		respondWithError(w, http.StatusServiceUnavailable, "AI assistant is not configured")
		return false
	}
	return true
}

// handleError maps domain and upstream errors to status codes.
func (h *Handler) handleError(w http.ResponseWriter, msg string, err error) {
	var invalidRef *custom_errors.ErrInvalidReference
	var upstream *custom_errors.ErrUpstreamFetch

	switch {
	case errors.As(err, &invalidRef):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn(msg, "error", err)
		respondWithError(w, http.StatusGatewayTimeout, "Upstream request timed out")
	case errors.Is(err, context.Canceled):
		h.logger.Debug(msg, "error", err)
		respondWithError(w, statusClientClosedRequest, "Request canceled")
	case errors.Is(err, custom_errors.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, custom_errors.ErrNotAFile):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &upstream):
		if upstream.Status == http.StatusNotFound {
			respondWithError(w, http.StatusNotFound, "Repository or resource not found")
			return
		}
		h.logger.Error(msg, "error", err)
		respondWithError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error(msg, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) handleAssistantError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, assistant.ErrEmptyInput):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn(msg, "error", err)
		respondWithError(w, http.StatusGatewayTimeout, "AI assistant timed out")
	case errors.Is(err, context.Canceled):
		h.logger.Debug(msg, "error", err)
		respondWithError(w, statusClientClosedRequest, "Request canceled")
	default:
		h.logger.Error(msg, "error", err)
		respondWithError(w, http.StatusBadGateway, "AI assistant request failed")
	}
}
