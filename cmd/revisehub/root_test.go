package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revisehub/internal/model"
)

func setupFakeGitHub(t *testing.T) {
	t.Helper()
	created := time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/repos/acme/widgets":
			fmt.Fprint(w, `{"name":"widgets","owner":{"login":"acme"},"default_branch":"main","description":"Widgets for everyone","html_url":"https://github.com/acme/widgets","stargazers_count":120,"forks_count":8,"open_issues_count":3}`)
		case "/repos/acme/widgets/contributors":
			fmt.Fprint(w, `[{"login":"alice","contributions":12,"avatar_url":"https://avatars.example/alice"}]`)
		case "/repos/acme/widgets/commits":
			fmt.Fprintf(w, `[{"sha":"c1","author":{"login":"alice"},"commit":{"author":{"name":"Alice","date":%q}}}]`, created)
		case "/repos/acme/widgets/commits/c1":
			fmt.Fprintf(w, `{"sha":"c1","author":{"login":"alice"},"commit":{"author":{"name":"Alice","date":%q}},"stats":{"additions":7,"deletions":2}}`, created)
		case "/repos/acme/widgets/pulls":
			fmt.Fprintf(w, `[{"number":42,"title":"feat: faster widgets","state":%q,"user":{"login":"alice"},"created_at":%q}]`, r.URL.Query().Get("state"), created)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
		}
	}))
	t.Cleanup(server.Close)

	t.Setenv("GITHUB_API_URL", server.URL)
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GEMINI_API_KEY", "")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDashboardCmd_JSON(t *testing.T) {
	setupFakeGitHub(t)

	out, err := execute(t, "dashboard", "https://github.com/acme/widgets", "--output", "json")
	require.NoError(t, err)

	var data model.DashboardData
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	assert.Equal(t, []model.ContributorStat{
		{Name: "alice", AvatarURL: "https://avatars.example/alice", Commits: 12, Additions: 7, Deletions: 2},
	}, data.Contributors)
	assert.Equal(t, model.CodeChurnPoint{Name: "Week 4", Additions: 7, Deletions: 2}, data.CodeChurn[3])
	assert.Equal(t, model.PRVelocityPoint{Name: "Week 4", Opened: 1}, data.PRVelocity[3])
}

func TestDashboardCmd_Table(t *testing.T) {
	color.NoColor = true
	setupFakeGitHub(t)

	out, err := execute(t, "dashboard", "git@github.com:acme/widgets.git")
	require.NoError(t, err)

	assert.Contains(t, out, "Dashboard for acme/widgets")
	assert.Contains(t, out, "Widgets for everyone")
	assert.Contains(t, out, "Stars: 120  Forks: 8  Open issues: 3  Default branch: main")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "Top contributor:    alice")
}

func TestDashboardCmd_Errors(t *testing.T) {
	setupFakeGitHub(t)

	testCases := []struct {
		name        string
		args        []string
		expectedErr string
	}{
		{"invalid reference", []string{"dashboard", "not-a-url"}, "invalid repository reference"},
		{"invalid output", []string{"dashboard", "https://github.com/acme/widgets", "-o", "xml"}, "invalid --output"},
		{"unknown repository", []string{"dashboard", "https://github.com/acme/missing"}, "status 404"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := execute(t, tc.args...)
			assert.ErrorContains(t, err, tc.expectedErr)
		})
	}
}

func TestPullsCmd(t *testing.T) {
	color.NoColor = true
	setupFakeGitHub(t)

	out, err := execute(t, "pulls", "https://github.com/acme/widgets", "--state", "all")
	require.NoError(t, err)

	assert.Contains(t, out, "#42")
	assert.Contains(t, out, "feat: faster widgets")
	assert.Contains(t, out, "all")
}

func TestReviewCmd_RequiresAssistant(t *testing.T) {
	setupFakeGitHub(t)

	_, err := execute(t, "review", "https://github.com/acme/widgets", "42")
	assert.ErrorContains(t, err, "GEMINI_API_KEY is not set")

	_, err = execute(t, "review", "https://github.com/acme/widgets", "abc")
	assert.ErrorContains(t, err, "invalid pull request number")
}
