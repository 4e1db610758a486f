package quest

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skelligg/htf-collide/internal/query"
)

// ErrInvalidProblemID is returned for non-positive problem ids; the detail
// query is only enabled for valid ids.
var ErrInvalidProblemID = errors.New("quest: invalid problem id")

// SummariesKey is the cache key for the problem summary list.
const SummariesKey = "summaries"

// ProblemKey is the cache key for one problem's detail.
func ProblemKey(id ProblemID) string { return fmt.Sprintf("problem/%d", id) }

// Service wraps the client with the process-wide query cache. Reads are
// cached per key; verification is an uncached mutation that invalidates the
// summary list on success so solved/locked state can refresh.
type Service struct {
	client *Client
	cache  *query.Cache
}

func NewService(client *Client, cache *query.Cache) *Service {
	if cache == nil {
		cache = query.New()
	}
	return &Service{client: client, cache: cache}
}

func (s *Service) Summaries(ctx context.Context) ([]ProblemSummary, error) {
	return query.Fetch(ctx, s.cache, SummariesKey, s.client.FetchSummaries)
}

func (s *Service) Problem(ctx context.Context, id ProblemID) (Problem, error) {
	if id <= 0 {
		return Problem{}, ErrInvalidProblemID
	}
	return query.Fetch(ctx, s.cache, ProblemKey(id), func(ctx context.Context) (Problem, error) {
		return s.client.FetchProblem(ctx, id)
	})
}

func (s *Service) Verify(ctx context.Context, req VerifyRequest) (bool, error) {
	verdict, err := s.client.VerifyAnswer(ctx, req)
	if err != nil {
		return false, err
	}
	s.cache.Invalidate(SummariesKey)
	return verdict, nil
}

// InvalidateProblem drops one problem's cached detail, forcing a refetch on
// the next read. Used by the manual retry action.
func (s *Service) InvalidateProblem(id ProblemID) {
	s.cache.Invalidate(ProblemKey(id))
}

// InvalidateSummaries drops the cached summary list.
func (s *Service) InvalidateSummaries() {
	s.cache.Invalidate(SummariesKey)
}
