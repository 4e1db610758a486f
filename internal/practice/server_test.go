package practice

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Skelligg/htf-collide/internal/packs"
	"github.com/Skelligg/htf-collide/internal/quest"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	return New(packs.Builtin(), WithSecret(55))
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func verify(t *testing.T, s *Server, problemID, missionID int64, answer string) bool {
	t.Helper()
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/problem/verify", quest.VerifyRequest{
		ProblemID: quest.ProblemID(problemID),
		MissionID: quest.MissionID(missionID),
		Answer:    answer,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status %d: %s", rec.Code, rec.Body.String())
	}
	var verdict bool
	if err := json.Unmarshal(rec.Body.Bytes(), &verdict); err != nil {
		t.Fatalf("decode verdict: %v", err)
	}
	return verdict
}

func TestQuestListsAllProblems(t *testing.T) {
	s := testServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/quest", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var out []quest.ProblemSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 3 || out[0].ProblemID != 1 || out[2].Name != "Brute Depths" {
		t.Fatalf("unexpected summaries: %+v", out)
	}
}

func TestProblemDetailAndUnknowns(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/problem/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var prob quest.Problem
	if err := json.Unmarshal(rec.Body.Bytes(), &prob); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if prob.Name != "Sunken Archive" || len(prob.Missions) != 2 || prob.Solved {
		t.Fatalf("unexpected problem: %+v", prob)
	}
	if prob.Missions[0].RemainingAttempts != "5" {
		t.Fatalf("unexpected attempts label: %q", prob.Missions[0].RemainingAttempts)
	}

	if rec := doJSON(t, s.Handler(), http.MethodGet, "/api/problem/99", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown problem, got %d", rec.Code)
	}
	if rec := doJSON(t, s.Handler(), http.MethodGet, "/api/problem/zero", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestVerifyMatchModes(t *testing.T) {
	s := testServer(t)

	// iexact
	if !verify(t, s, 1, 11, "ANCHOR") {
		t.Fatalf("iexact match should accept ANCHOR")
	}
	// numeric
	if !verify(t, s, 1, 12, " 1729 ") {
		t.Fatalf("numeric match should accept padded 1729")
	}
	if verify(t, s, 1, 12, "1730") {
		t.Fatalf("numeric match should reject 1730")
	}
	// regex
	if !verify(t, s, 2, 21, "3-1-4-1") {
		t.Fatalf("regex match should accept 3-1-4-1")
	}
	if verify(t, s, 2, 21, "3-1-5") {
		t.Fatalf("regex match should reject 3-1-5")
	}
}

func TestVerifyBruteMissionUsesSecret(t *testing.T) {
	s := testServer(t)
	if !verify(t, s, 3, 31, "55") {
		t.Fatalf("secret should verify")
	}
	if verify(t, s, 3, 31, "56") {
		t.Fatalf("non-secret should not verify")
	}
	if verify(t, s, 3, 31, "abc") {
		t.Fatalf("non-numeric should not verify")
	}
}

func TestVerifyMarksSolvedAndCountsAttempts(t *testing.T) {
	s := testServer(t)

	if verify(t, s, 1, 11, "wrong") {
		t.Fatalf("wrong answer accepted")
	}
	if !verify(t, s, 1, 11, "anchor") {
		t.Fatalf("right answer rejected")
	}

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/problem/1", nil)
	var prob quest.Problem
	if err := json.Unmarshal(rec.Body.Bytes(), &prob); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !prob.Missions[0].Solved {
		t.Fatalf("mission should be solved: %+v", prob.Missions[0])
	}
	if prob.Missions[0].RemainingAttempts != "3" {
		t.Fatalf("expected 3 attempts left, got %q", prob.Missions[0].RemainingAttempts)
	}
	if prob.Solved {
		t.Fatalf("problem not fully solved yet")
	}
}

func TestVerifyExhaustedAttemptsAlwaysWrong(t *testing.T) {
	pack := packs.Pack{
		Kind:          packs.PackKind,
		SchemaVersion: packs.SupportedSchemaVersion,
		Name:          "Tiny",
		Problems: []packs.Problem{{
			ProblemID: 1,
			Name:      "One",
			Missions: []packs.Mission{{
				MissionID:   11,
				Name:        "Only",
				Objective:   "Answer once.",
				Difficulty:  1,
				MaxAttempts: 2,
				Answer:      packs.Answer{Value: "yes"},
			}},
		}},
	}
	s := New(pack)

	verify(t, s, 1, 11, "no")
	verify(t, s, 1, 11, "nope")
	// Attempts used up: even the right answer reads as wrong now.
	if verify(t, s, 1, 11, "yes") {
		t.Fatalf("expected exhausted mission to reject the right answer")
	}
}

func TestVerifyUnknownMission(t *testing.T) {
	s := testServer(t)
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/problem/verify", quest.VerifyRequest{
		ProblemID: 1, MissionID: 999, Answer: "x",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
