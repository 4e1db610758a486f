package quest

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// StatusError is returned when the quest service answers with a non-2xx
// status. Callers must treat it differently from an incorrect verdict.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("quest service: unexpected status %s", e.Status)
}

// Client issues requests against the remote quest service. It performs no
// automatic retries; callers surface failures and offer manual retry.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "htf-collide/1.0")
	return &Client{http: c}
}

// FetchSummaries returns the summary of every problem on the quest board.
func (c *Client) FetchSummaries(ctx context.Context) ([]ProblemSummary, error) {
	var out []ProblemSummary
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/quest")
	if err != nil {
		return nil, fmt.Errorf("fetch summaries: %w", err)
	}
	if resp.IsError() {
		return nil, &StatusError{StatusCode: resp.StatusCode(), Status: resp.Status()}
	}
	return out, nil
}

// FetchProblem returns one problem's detail, including its missions.
func (c *Client) FetchProblem(ctx context.Context, id ProblemID) (Problem, error) {
	var out Problem
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/api/problem/%d", id))
	if err != nil {
		return Problem{}, fmt.Errorf("fetch problem %d: %w", id, err)
	}
	if resp.IsError() {
		return Problem{}, &StatusError{StatusCode: resp.StatusCode(), Status: resp.Status()}
	}
	return out, nil
}

// VerifyAnswer submits an answer and returns the service's verdict. An error
// return means the verification itself failed, not that the answer was wrong.
func (c *Client) VerifyAnswer(ctx context.Context, req VerifyRequest) (bool, error) {
	var verdict bool
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&verdict).
		Post("/api/problem/verify")
	if err != nil {
		return false, fmt.Errorf("verify answer: %w", err)
	}
	if resp.IsError() {
		return false, &StatusError{StatusCode: resp.StatusCode(), Status: resp.Status()}
	}
	return verdict, nil
}
