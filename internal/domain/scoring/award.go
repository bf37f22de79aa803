package scoring

import (
	"fmt"
	"strings"
)

// AwardPolicy decides how many points a graded submission credits to its user.
// previouslyAwarded is the total already credited through the same (challenge, user) pair.
type AwardPolicy interface {
	Name() string
	Award(score int, completed bool, previouslyAwarded int) int
}

const (
	PolicyCumulative = "cumulative"
	PolicyBest       = "best"
)

// Cumulative credits the full score on every completed submission, so resubmitting a
// passing solution keeps adding points.
type Cumulative struct{}

func (Cumulative) Name() string { return PolicyCumulative }

func (Cumulative) Award(score int, completed bool, _ int) int {
	if !completed || score <= 0 {
		return 0
	}
	return score
}

// Best credits only the improvement over what the pair has already earned. A user's
// total from one challenge never exceeds their best score on it.
type Best struct{}

func (Best) Name() string { return PolicyBest }

func (Best) Award(score int, completed bool, previouslyAwarded int) int {
	if !completed {
		return 0
	}
	if diff := score - previouslyAwarded; diff > 0 {
		return diff
	}
	return 0
}

func PolicyFromName(name string) (AwardPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyCumulative:
		return Cumulative{}, nil
	case PolicyBest:
		return Best{}, nil
	}
	return nil, fmt.Errorf("unknown award policy %q", name)
}

// ClampScore bounds a grader's raw score to [0, max].
func ClampScore(score, max int) int {
	if score < 0 {
		return 0
	}
	if score > max {
		return max
	}
	return score
}
