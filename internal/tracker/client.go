// Package tracker wraps the gh CLI as an issue-tracker collaborator. The
// CLI may be entirely absent; every failure is classified so callers can
// distinguish "tracker not installed" from "issue does not exist" and
// degrade instead of crashing.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/forgeworks/foreman/internal/errors"
	"github.com/forgeworks/foreman/internal/logging"
)

// listLimit bounds how many open issues one list call fetches.
const listLimit = 100

// Label is one issue label as returned by the gh CLI.
type Label struct {
	Name string `json:"name"`
}

// Issue is one tracker issue.
type Issue struct {
	Number int     `json:"number"`
	Title  string  `json:"title"`
	Body   string  `json:"body"`
	Labels []Label `json:"labels"`
}

// HasLabel reports whether the issue carries the named label.
func (i Issue) HasLabel(name string) bool {
	for _, l := range i.Labels {
		if l.Name == name {
			return true
		}
	}
	return false
}

// CommandExecutor runs one external command and returns its combined
// output. Injected so tests can fake the gh CLI.
type CommandExecutor func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultExecutor(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Client talks to the issue tracker through the gh CLI.
type Client struct {
	exec   CommandExecutor
	logger *logging.Logger
}

// NewClient creates a Client using the real gh CLI.
func NewClient(logger *logging.Logger) *Client {
	return NewClientWithExecutor(logger, defaultExecutor)
}

// NewClientWithExecutor creates a Client with a custom command executor.
func NewClientWithExecutor(logger *logging.Logger, executor CommandExecutor) *Client {
	return &Client{exec: executor, logger: logger}
}

// ListOpen returns open issues, optionally filtered by label. An empty
// label lists everything.
func (c *Client) ListOpen(ctx context.Context, label string) ([]Issue, error) {
	args := []string{
		"issue", "list",
		"--state", "open",
		"--json", "number,title,body,labels",
		"--limit", strconv.Itoa(listLimit),
	}
	if label != "" {
		args = append(args, "--label", label)
	}

	output, err := c.exec(ctx, "gh", args...)
	if err != nil {
		return nil, c.classify("list issues", output, err)
	}

	var issues []Issue
	if err := json.Unmarshal(output, &issues); err != nil {
		return nil, errors.NewTrackerError("parse issue list", err).
			WithOperation("list").WithOutput(string(output))
	}
	return issues, nil
}

// issueURLRe extracts the issue number from the URL gh prints on create.
var issueURLRe = regexp.MustCompile(`/issues/(\d+)\s*$`)

// Create opens a new issue and returns its number.
func (c *Client) Create(ctx context.Context, title, body string, labels []string) (int, error) {
	args := []string{"issue", "create", "--title", title, "--body", body}
	for _, l := range labels {
		args = append(args, "--label", l)
	}

	output, err := c.exec(ctx, "gh", args...)
	if err != nil {
		return 0, c.classify("create issue", output, err)
	}

	m := issueURLRe.FindStringSubmatch(strings.TrimSpace(string(output)))
	if m == nil {
		return 0, errors.NewTrackerError("parse created issue number", nil).
			WithOperation("create").WithOutput(string(output))
	}
	number, _ := strconv.Atoi(m[1])

	c.logger.Info("issue created", "issue", number, "title", title)
	return number, nil
}

// Close closes an issue, optionally with a final comment.
func (c *Client) Close(ctx context.Context, number int, comment string) error {
	args := []string{"issue", "close", strconv.Itoa(number)}
	if comment != "" {
		args = append(args, "--comment", comment)
	}

	output, err := c.exec(ctx, "gh", args...)
	if err != nil {
		return c.classify(fmt.Sprintf("close issue #%d", number), output, err)
	}

	c.logger.Info("issue closed", "issue", number)
	return nil
}

// Comment adds a comment to an issue.
func (c *Client) Comment(ctx context.Context, number int, body string) error {
	output, err := c.exec(ctx, "gh", "issue", "comment", strconv.Itoa(number), "--body", body)
	if err != nil {
		return c.classify(fmt.Sprintf("comment on issue #%d", number), output, err)
	}
	return nil
}

// inProgressComment is posted when an issue is handed to an agent.
const inProgressComment = "Foreman agent started working on this issue."

// MarkInProgress labels an issue as being worked on and leaves a comment.
// A failed comment is logged, not returned; the label is what matters.
func (c *Client) MarkInProgress(ctx context.Context, number int, label string) error {
	output, err := c.exec(ctx, "gh", "issue", "edit", strconv.Itoa(number), "--add-label", label)
	if err != nil {
		return c.classify(fmt.Sprintf("label issue #%d", number), output, err)
	}

	if err := c.Comment(ctx, number, inProgressComment); err != nil {
		c.logger.Warn("could not comment on issue", "issue", number, "error", err)
	}

	c.logger.Info("issue marked in progress", "issue", number, "label", label)
	return nil
}

// classify turns a gh CLI failure into a typed tracker error.
func (c *Client) classify(operation string, output []byte, err error) error {
	text := strings.ToLower(string(output))

	switch {
	case errors.Is(err, exec.ErrNotFound),
		strings.Contains(err.Error(), "executable file not found"):
		return errors.NewTrackerError(operation, errors.ErrTrackerUnavailable).
			WithOperation(operation)

	case strings.Contains(text, "gh auth login"),
		strings.Contains(text, "authentication"),
		strings.Contains(text, "must authenticate"):
		return errors.NewTrackerError(operation, errors.ErrTrackerAuth).
			WithOperation(operation).WithOutput(string(output))

	case strings.Contains(text, "could not resolve"),
		strings.Contains(text, "no issue found"),
		strings.Contains(text, "not found"):
		return errors.NewTrackerError(operation, errors.ErrIssueNotFound).
			WithOperation(operation).WithOutput(string(output))

	default:
		return errors.NewTrackerError(operation, err).
			WithOperation(operation).WithOutput(string(output))
	}
}
