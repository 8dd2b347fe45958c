// Package git runs the few git commands code2fodt needs: a cleanliness
// check, HEAD metadata and the list of tracked files.
package git

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"regexp"
	"strings"

	"github.com/georgy7/code2fodt/internal/output"
)

// significantChange matches porcelain v1 status lines for modified, added,
// renamed, copied, deleted or unmerged entries. Untracked files ("??") do
// not make a repository unclean.
var significantChange = regexp.MustCompile(`^\s*[MARCDU]`)

// Repo runs git in Dir, or in the working directory when Dir is empty.
type Repo struct {
	Dir string
}

// Head describes the commit being printed.
type Head struct {
	Hash        string
	AuthorName  string
	AuthorEmail string
	// Date is the author date in strict ISO 8601.
	Date string
}

// RunContext executes git with args and returns trimmed stdout.
func (r Repo) RunContext(ctx context.Context, args ...string) (string, error) {
	out, err := r.run(ctx, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (r Repo) run(ctx context.Context, args ...string) (string, error) {
	if r.Dir != "" {
		args = append([]string{"-C", r.Dir}, args...)
	}
	cmd := exec.CommandContext(ctx, "git", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", output.NewSystemErrorWithCause("git not found: ensure git is installed and in PATH", err)
		}
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = err.Error()
		}
		return "", output.NewSystemErrorWithCause("git command failed: "+errMsg, err)
	}
	return stdout.String(), nil
}

// IsClean reports whether the working tree has no significant changes.
func (r Repo) IsClean(ctx context.Context) (bool, error) {
	status, err := r.run(ctx, "status", "--porcelain=v1")
	if err != nil {
		return false, err
	}
	return !hasSignificantChange(status), nil
}

func hasSignificantChange(status string) bool {
	for _, line := range strings.Split(status, "\n") {
		if significantChange.MatchString(line) {
			return true
		}
	}
	return false
}

// Head returns metadata of the checked-out commit.
func (r Repo) Head(ctx context.Context) (Head, error) {
	out, err := r.RunContext(ctx, "show", "-s", "--format=%H%x00%aN%x00%aE%x00%aI")
	if err != nil {
		return Head{}, err
	}
	return parseHead(out)
}

func parseHead(out string) (Head, error) {
	fields := strings.Split(out, "\x00")
	if len(fields) != 4 {
		return Head{}, output.NewSystemErrorWithCause("unexpected git show output", errors.New(out))
	}
	return Head{
		Hash:        fields[0],
		AuthorName:  fields[1],
		AuthorEmail: fields[2],
		Date:        fields[3],
	}, nil
}

// ListFiles returns the tracked files in index order, relative to the
// repository directory.
func (r Repo) ListFiles(ctx context.Context) ([]string, error) {
	out, err := r.run(ctx, "ls-files", "-z")
	if err != nil {
		return nil, err
	}
	return splitNul(out), nil
}

func splitNul(s string) []string {
	var files []string
	for _, f := range strings.Split(s, "\x00") {
		if f != "" {
			files = append(files, f)
		}
	}
	return files
}
