package quest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestService(t *testing.T, handler http.Handler) (*Service, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewService(NewClient(srv.URL, 5*time.Second), nil), &hits
}

func TestFetchSummaries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/quest", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]ProblemSummary{
			{ProblemID: 1, Name: "Aqua Topia", Description: "Dive in."},
			{ProblemID: 2, Name: "The Vault", Description: "Locked tight."},
		})
	})
	svc, _ := newTestService(t, mux)

	got, err := svc.Summaries(context.Background())
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	if len(got) != 2 || got[0].ProblemID != 1 || got[1].Name != "The Vault" {
		t.Fatalf("unexpected summaries: %+v", got)
	}
}

func TestFetchSummariesEmptyList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/quest", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	})
	svc, _ := newTestService(t, mux)

	got, err := svc.Summaries(context.Background())
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %+v", got)
	}
}

func TestProblemDetailIsCached(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/problem/3", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Problem{
			Name: "Brute Depths",
			Missions: []Mission{
				{ID: 31, Name: "Find the number", Effect: EffectBrute},
			},
		})
	})
	svc, hits := newTestService(t, mux)
	ctx := context.Background()

	first, err := svc.Problem(ctx, 3)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := svc.Problem(ctx, 3)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one network call, got %d", hits.Load())
	}
	if first.Name != second.Name || !second.Missions[0].HasSandbox() {
		t.Fatalf("unexpected detail: %+v", second)
	}

	svc.InvalidateProblem(3)
	if _, err := svc.Problem(ctx, 3); err != nil {
		t.Fatalf("fetch after invalidate: %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected refetch after invalidate, got %d calls", hits.Load())
	}
}

func TestProblemRejectsInvalidID(t *testing.T) {
	svc, hits := newTestService(t, http.NewServeMux())
	for _, id := range []ProblemID{0, -4} {
		if _, err := svc.Problem(context.Background(), id); !errors.Is(err, ErrInvalidProblemID) {
			t.Fatalf("id %d: expected ErrInvalidProblemID, got %v", id, err)
		}
	}
	if hits.Load() != 0 {
		t.Fatalf("expected no network calls for invalid ids")
	}
}

func TestVerifyAnswerVerdictAndInvalidation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/quest", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	})
	mux.HandleFunc("POST /api/problem/verify", func(w http.ResponseWriter, r *http.Request) {
		var req VerifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode verify request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(req.Answer == "55")
	})
	svc, hits := newTestService(t, mux)
	ctx := context.Background()

	if _, err := svc.Summaries(ctx); err != nil {
		t.Fatalf("prime summaries: %v", err)
	}
	base := hits.Load()

	ok, err := svc.Verify(ctx, VerifyRequest{ProblemID: 1, MissionID: 11, Answer: "55"})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected correct verdict")
	}

	wrong, err := svc.Verify(ctx, VerifyRequest{ProblemID: 1, MissionID: 11, Answer: "56"})
	if err != nil {
		t.Fatalf("verify wrong: %v", err)
	}
	if wrong {
		t.Fatalf("expected incorrect verdict")
	}

	// Successful mutation invalidated the summary cache.
	if _, err := svc.Summaries(ctx); err != nil {
		t.Fatalf("summaries after verify: %v", err)
	}
	if hits.Load() != base+3 {
		t.Fatalf("expected summaries refetch after verification, got %d calls", hits.Load())
	}
}

func TestVerifyTransportErrorIsNotAVerdict(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/problem/verify", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	})
	svc, _ := newTestService(t, mux)

	_, err := svc.Verify(context.Background(), VerifyRequest{ProblemID: 1, MissionID: 11, Answer: "x"})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status code %d", statusErr.StatusCode)
	}
}

func TestFetchProblemHTTPError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/problem/9", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	svc, _ := newTestService(t, mux)

	_, err := svc.Problem(context.Background(), 9)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status code %d", statusErr.StatusCode)
	}
}
