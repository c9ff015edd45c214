package plan

import (
	"os"

	"github.com/forgeworks/foreman/internal/errors"
	"github.com/forgeworks/foreman/internal/markup"
)

// IsApproved reports whether the plan document at path carries the
// approval stamp. A missing or unreadable file is simply not approved.
func IsApproved(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return markup.IsApproved(string(data))
}

// ApprovePlan stamps the plan document at path as approved. Stamping is
// idempotent, and a missing file is a no-op.
func ApprovePlan(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	lock := NewFileLock(path)
	if err := lock.Lock(); err != nil {
		return errors.NewPlanError("lock plan document",
			errors.Join(errors.ErrPlanLocked, err)).WithPath(path)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewPlanError("read plan document", err).WithPath(path)
	}

	doc := string(data)
	stamped := markup.Approve(doc)
	if stamped == doc {
		return nil
	}

	if err := os.WriteFile(path, []byte(stamped), 0644); err != nil {
		return errors.NewPlanError("write plan document", err).WithPath(path)
	}
	return nil
}
