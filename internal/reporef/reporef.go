// internal/reporef/reporef.go
package reporef

import (
	"regexp"
	"strings"

	custom_errors "revisehub/internal/errors"
	"revisehub/internal/model"
)

// refPattern matches "<host>/<owner>/<name>" anywhere in the input. The host is a dotted
// domain or localhost with an optional port; SCP-style "host:owner/name" is accepted too.
var refPattern = regexp.MustCompile(`(?:(?:[A-Za-z0-9-]+\.)+[A-Za-z0-9-]+|localhost)(?::\d+)?[/:]([\w-]+)/([\w.-]+)`)

// Parse extracts the owner and name of a repository from a URL-like string.
func Parse(input string) (model.RepositoryRef, error) {
	m := refPattern.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return model.RepositoryRef{}, &custom_errors.ErrInvalidReference{Input: input}
	}

	owner := m[1]
	name := strings.TrimSuffix(m[2], ".git")
	if name == "" || strings.Trim(name, ".") == "" {
		return model.RepositoryRef{}, &custom_errors.ErrInvalidReference{Input: input}
	}

	return model.RepositoryRef{Owner: owner, Name: name}, nil
}

// FromParts validates an already split owner/name pair, as received in API paths.
func FromParts(owner, name string) (model.RepositoryRef, error) {
	ref, err := Parse("github.com/" + owner + "/" + name)
	if err != nil || ref.Owner != owner || ref.Name != strings.TrimSuffix(name, ".git") {
		return model.RepositoryRef{}, &custom_errors.ErrInvalidReference{Input: owner + "/" + name}
	}
	return ref, nil
}
