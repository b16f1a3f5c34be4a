package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/docsite/internal/config"
	"github.com/nao1215/docsite/internal/model"
)

// LinkIntegrityError is returned when broken references are found under
// the fail policy. Links holds every one of them, not just the first.
type LinkIntegrityError struct {
	Links []model.BrokenLink
}

// Error implements error.
func (e *LinkIntegrityError) Error() string {
	switch len(e.Links) {
	case 0:
		return "broken links found"
	case 1:
		return e.Links[0].String()
	default:
		return fmt.Sprintf("%d broken links found, first: %s", len(e.Links), e.Links[0])
	}
}

// EnforceStep applies the link policies to the broken references recorded
// by earlier steps:
//   - ignore: dropped without a log line, only counted
//   - warn: one warning per link, added to the report
//   - fail: added to the report and returned as a *LinkIntegrityError
type EnforceStep struct {
	logger *slog.Logger
}

// NewEnforceStep creates the enforcement step. Warnings go to logger.
func NewEnforceStep(logger *slog.Logger) *EnforceStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnforceStep{logger: logger}
}

// Name returns the step name.
func (s *EnforceStep) Name() string {
	return StepEnforce
}

// Do enforces the policies.
func (s *EnforceStep) Do(_ context.Context, b *Build) error {
	var failed []model.BrokenLink
	for _, l := range b.Pending() {
		switch l.Policy {
		case config.PolicyIgnore:
			b.Report.Ignored++
		case config.PolicyWarn:
			s.logger.Warn("broken link",
				"kind", string(l.Kind),
				"source", l.Location(),
				"target", l.Target,
			)
			b.Report.AddBrokenLink(l)
		default:
			b.Report.AddBrokenLink(l)
			failed = append(failed, l)
		}
	}
	b.Report.SortBrokenLinks()

	if len(failed) > 0 {
		return &LinkIntegrityError{Links: failed}
	}
	return nil
}
