package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/divide21x/divide21x-go/internal/audit"
	"github.com/divide21x/divide21x-go/internal/challenge"
	"github.com/divide21x/divide21x-go/internal/grade"
	"github.com/divide21x/divide21x-go/internal/inspect"
	"github.com/divide21x/divide21x-go/internal/schema"
	"github.com/divide21x/divide21x-go/internal/store"
)

// ChallengeResponse wraps an artifact with its identity and tamper token.
type ChallengeResponse struct {
	ID          string              `json:"id"`
	ContentHash string              `json:"content_hash"`
	Created     bool                `json:"created"`
	Artifact    *challenge.Artifact `json:"artifact"`
}

// GradeRequest is one grading call. Action and State carry untrusted
// submitter output; State may be a JSON object or a string of
// JSON-looking text that still needs cleanup.
type GradeRequest struct {
	Bucket string          `json:"bucket"`
	Model  string          `json:"model,omitempty"`
	Action json.RawMessage `json:"action,omitempty"`
	State  json.RawMessage `json:"state,omitempty"`
}

// GradeResponse is the grading outcome plus itemized inspection issues.
type GradeResponse struct {
	ID           string          `json:"id"`
	Bucket       string          `json:"bucket"`
	ActionGrade  float64         `json:"action_grade"`
	StateGrade   float64         `json:"state_grade"`
	OverallGrade float64         `json:"overall_grade"`
	Score        int             `json:"score"`
	ActionIssues []inspect.Issue `json:"action_issues,omitempty"`
	StateIssues  []inspect.Issue `json:"state_issues,omitempty"`
}

func (s *Server) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	if !s.challenges.Exists(bucket) {
		s.writeError(w, http.StatusNotFound, "no challenge materialized for bucket "+bucket)
		return
	}
	artifact, _, hash, err := s.challenges.Read(bucket)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, ChallengeResponse{ID: bucket, ContentHash: hash, Artifact: artifact})
}

func (s *Server) handleEnsureChallenge(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	alog := audit.New()
	artifact, hash, created, err := s.challenges.Ensure(bucket, alog)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, ChallengeResponse{ID: bucket, ContentHash: hash, Created: created, Artifact: artifact})
}

func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	var req GradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Bucket == "" {
		s.writeError(w, http.StatusBadRequest, "bucket is required")
		return
	}
	if !s.challenges.Exists(req.Bucket) {
		s.writeError(w, http.StatusNotFound, "no challenge materialized for bucket "+req.Bucket)
		return
	}
	artifact, _, hash, err := s.challenges.Read(req.Bucket)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	initial, err := schema.DecodeState(artifact.Challenge.InitialState)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "corrupt challenge state: "+err.Error())
		return
	}
	gtAction, err := schema.DecodeAction(artifact.Challenge.Action)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "corrupt challenge action: "+err.Error())
		return
	}
	truth, err := grade.TruthFromChallenge(initial, gtAction)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// A submission with no action of its own is graded against the
	// challenge action: the benchmark asks for the final state.
	submittedAction := untrusted(req.Action)
	if submittedAction == nil && req.Action == nil {
		submittedAction = schema.EncodeAction(gtAction, schema.Verbose)
	}

	alog := audit.New()
	result := grade.Grade(grade.Submission{
		Initial:    initial,
		Action:     submittedAction,
		FinalState: untrusted(req.State),
	}, truth, alog)

	sub := &store.Submission{
		Bucket:       req.Bucket,
		Model:        req.Model,
		ActionGrade:  result.ActionGrade,
		StateGrade:   result.StateGrade,
		OverallGrade: result.OverallGrade,
		Score:        result.Score,
		ContentHash:  hash,
	}
	if err := s.db.SaveSubmission(sub); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Printf("graded bucket=%s model=%s overall=%.2f score=%d", req.Bucket, req.Model, result.OverallGrade, result.Score)

	s.writeJSON(w, http.StatusOK, GradeResponse{
		ID:           sub.ID,
		Bucket:       req.Bucket,
		ActionGrade:  result.ActionGrade,
		StateGrade:   result.StateGrade,
		OverallGrade: result.OverallGrade,
		Score:        result.Score,
		ActionIssues: result.Inspection.ActionIssues,
		StateIssues:  result.Inspection.StateIssues,
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	prefix := chi.URLParam(r, "prefix")
	rows, err := s.db.Leaderboard(prefix)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"leaderboard": rows})
}

// untrusted turns a raw JSON fragment into inspector input. Strings get
// the full cleanup treatment (fences, noise, double encoding); objects
// are normalized; anything else is passed through for the inspector to
// flag.
func untrusted(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return schema.ParseUntrusted(string(raw))
	}
	switch t := v.(type) {
	case string:
		return schema.ParseUntrusted(t)
	case map[string]any:
		return schema.NormalizeStateMap(schema.NormalizeActionMap(t))
	default:
		return v
	}
}
