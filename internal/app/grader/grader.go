// Package grader scores challenge submissions.
package grader

import (
	"codecollab/internal/domain/model"
	"codecollab/internal/platform/config"
	"context"
	"fmt"
	"net/http"
	"strings"
)

const (
	ModeRandom   = "random"
	ModeExecutor = "executor"
)

// Grader returns a raw score for submission. Callers clamp it to [0, challenge.Points].
type Grader interface {
	Grade(ctx context.Context, challenge *model.Challenge, submission string) (int, error)
}

// FromConfig builds the grader selected by GRADER_MODE.
func FromConfig(cfg *config.Config) (Grader, error) {
	switch strings.ToLower(cfg.GraderMode) {
	case "", ModeRandom:
		return NewRandomGrader(nil), nil
	case ModeExecutor:
		if cfg.GraderExecutorURL == "" {
			return nil, fmt.Errorf("GRADER_EXECUTOR_URL is required when GRADER_MODE=%s", ModeExecutor)
		}
		return NewExecutorGrader(cfg.GraderExecutorURL, &http.Client{Timeout: cfg.GraderTimeout}), nil
	}
	return nil, fmt.Errorf("unknown grader mode %q", cfg.GraderMode)
}
