package Lifecycle

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Error taxonomy surfaced to callers. Everything is wrapped with
// enough context (site, day, instance) to log and display.
var (
	// ErrNotFound: the referenced instance, user, or day record does
	// not exist. Not retryable.
	ErrNotFound = errors.New("not found")

	// ErrPreconditionFailed: completing a day whose tasks are not all
	// complete. Distinct from ErrNotFound so the UI can explain
	// "tasks remaining" rather than "day missing".
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrTemplateSourceUnavailable: the generator could not read the
	// catalog. Generation fails closed, nothing is written.
	ErrTemplateSourceUnavailable = errors.New("template source unavailable")

	// ErrTransientStore: a read/write against the store failed.
	// Generate, toggle, comment and complete-day are all safe to
	// retry after this.
	ErrTransientStore = errors.New("transient store error")
)

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// sqlite and mysql report constraint violations differently
	return strings.Contains(err.Error(), "UNIQUE constraint") ||
		strings.Contains(err.Error(), "Duplicate entry")
}
