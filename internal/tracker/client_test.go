package tracker

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/forgeworks/foreman/internal/errors"
	"github.com/forgeworks/foreman/internal/logging"
)

// fakeExecutor records invocations and plays back scripted responses.
type fakeExecutor struct {
	calls  [][]string
	output []byte
	err    error
}

func (f *fakeExecutor) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.output, f.err
}

func newTestClient(output []byte, err error) (*Client, *fakeExecutor) {
	fake := &fakeExecutor{output: output, err: err}
	return NewClientWithExecutor(logging.Nop(), fake.run), fake
}

func TestListOpen(t *testing.T) {
	payload := `[
		{"number": 12, "title": "Fix parser", "body": "details", "labels": [{"name": "foreman"}]},
		{"number": 15, "title": "Add docs", "body": "", "labels": []}
	]`
	client, fake := newTestClient([]byte(payload), nil)

	issues, err := client.ListOpen(context.Background(), "foreman")
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("len(issues) = %d, want 2", len(issues))
	}
	if issues[0].Number != 12 || issues[0].Title != "Fix parser" {
		t.Errorf("issues[0] = %+v", issues[0])
	}
	if !issues[0].HasLabel("foreman") {
		t.Error("HasLabel(foreman) = false, want true")
	}
	if issues[1].HasLabel("foreman") {
		t.Error("HasLabel on unlabeled issue = true, want false")
	}

	call := strings.Join(fake.calls[0], " ")
	if !strings.Contains(call, "--label foreman") {
		t.Errorf("label filter not passed: %s", call)
	}
	if !strings.Contains(call, "--state open") {
		t.Errorf("state filter not passed: %s", call)
	}
}

func TestListOpenWithoutLabel(t *testing.T) {
	client, fake := newTestClient([]byte(`[]`), nil)

	if _, err := client.ListOpen(context.Background(), ""); err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	call := strings.Join(fake.calls[0], " ")
	if strings.Contains(call, "--label") {
		t.Errorf("empty label must not add a filter: %s", call)
	}
}

func TestCreateParsesIssueNumber(t *testing.T) {
	client, fake := newTestClient([]byte("https://github.com/forgeworks/foreman/issues/27\n"), nil)

	number, err := client.Create(context.Background(), "New task", "body", []string{"foreman"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if number != 27 {
		t.Errorf("number = %d, want 27", number)
	}

	call := strings.Join(fake.calls[0], " ")
	for _, want := range []string{"issue create", "--title New task", "--label foreman"} {
		if !strings.Contains(call, want) {
			t.Errorf("call missing %q: %s", want, call)
		}
	}
}

func TestCloseWithComment(t *testing.T) {
	client, fake := newTestClient(nil, nil)

	if err := client.Close(context.Background(), 9, "Completed by Foreman agent."); err != nil {
		t.Fatalf("Close: %v", err)
	}
	call := strings.Join(fake.calls[0], " ")
	if !strings.Contains(call, "issue close 9") {
		t.Errorf("close call wrong: %s", call)
	}
	if !strings.Contains(call, "--comment Completed by Foreman agent.") {
		t.Errorf("comment not passed: %s", call)
	}
}

func TestMarkInProgress(t *testing.T) {
	client, fake := newTestClient(nil, nil)

	if err := client.MarkInProgress(context.Background(), 4, "in-progress"); err != nil {
		t.Fatalf("MarkInProgress: %v", err)
	}
	if len(fake.calls) != 2 {
		t.Fatalf("calls = %d, want label + comment", len(fake.calls))
	}
	if call := strings.Join(fake.calls[0], " "); !strings.Contains(call, "issue edit 4 --add-label in-progress") {
		t.Errorf("edit call wrong: %s", call)
	}
	if call := strings.Join(fake.calls[1], " "); !strings.Contains(call, "issue comment 4") {
		t.Errorf("comment call wrong: %s", call)
	}
}

func TestClassifyUnavailable(t *testing.T) {
	client, _ := newTestClient(nil, &exec.Error{Name: "gh", Err: exec.ErrNotFound})

	_, err := client.ListOpen(context.Background(), "")
	if !errors.Is(err, errors.ErrTrackerUnavailable) {
		t.Errorf("error = %v, want ErrTrackerUnavailable", err)
	}
	if !errors.IsRetryable(err) {
		t.Error("tracker error not retryable")
	}
}

func TestClassifyAuth(t *testing.T) {
	client, _ := newTestClient(
		[]byte("To get started with GitHub CLI, please run: gh auth login"),
		errors.New("exit status 4"))

	_, err := client.ListOpen(context.Background(), "")
	if !errors.Is(err, errors.ErrTrackerAuth) {
		t.Errorf("error = %v, want ErrTrackerAuth", err)
	}
}

func TestClassifyIssueNotFound(t *testing.T) {
	client, _ := newTestClient(
		[]byte("GraphQL: Could not resolve to an Issue with the number of 999."),
		errors.New("exit status 1"))

	err := client.Close(context.Background(), 999, "")
	if !errors.Is(err, errors.ErrIssueNotFound) {
		t.Errorf("error = %v, want ErrIssueNotFound", err)
	}
}

func TestCreateUnparseableOutput(t *testing.T) {
	client, _ := newTestClient([]byte("something unexpected"), nil)

	if _, err := client.Create(context.Background(), "t", "b", nil); err == nil {
		t.Error("Create with unparseable output succeeded, want error")
	}
}
