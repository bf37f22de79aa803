package grader

import (
	"bytes"
	"codecollab/internal/common"
	"codecollab/internal/domain/model"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ExecutorRequest is the payload sent to the external sandboxed executor.
type ExecutorRequest struct {
	ChallengeID string `json:"challenge_id"`
	StarterCode string `json:"starter_code"`
	TestCode    string `json:"test_code"`
	Submission  string `json:"submission"`
	MaxScore    int    `json:"max_score"`
}

type ExecutorResponse struct {
	Score int `json:"score"`
}

// ExecutorGrader delegates grading to an HTTP executor service.
type ExecutorGrader struct {
	url    string
	client *http.Client
}

func NewExecutorGrader(url string, client *http.Client) *ExecutorGrader {
	if client == nil {
		client = http.DefaultClient
	}
	return &ExecutorGrader{url: url, client: client}
}

func (g *ExecutorGrader) Grade(ctx context.Context, challenge *model.Challenge, submission string) (int, error) {
	payload, err := json.Marshal(ExecutorRequest{
		ChallengeID: challenge.ID,
		StarterCode: challenge.StarterCode,
		TestCode:    challenge.TestCode,
		Submission:  submission,
		MaxScore:    challenge.Points,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal executor request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to build executor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("executor unreachable: %v: %w", err, common.ErrServiceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("executor returned status %d: %s: %w", resp.StatusCode, bytes.TrimSpace(body), common.ErrServiceUnavailable)
	}

	var result ExecutorResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("invalid executor response: %v: %w", err, common.ErrServiceUnavailable)
	}
	return result.Score, nil
}
