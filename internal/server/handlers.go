package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/job-agent/internal/apperrors"
	"github.com/jonathan/job-agent/internal/pipeline"
	"github.com/jonathan/job-agent/internal/profiles"
	"github.com/jonathan/job-agent/internal/server/middleware"
	"github.com/jonathan/job-agent/internal/session"
	"github.com/jonathan/job-agent/internal/types"
	"go.uber.org/zap"
)

type sessionResponse struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// jobRequest carries a posting URL or its pasted text.
type jobRequest struct {
	Job string `json:"job"`
}

type jobResponse struct {
	JobSummary *types.JobSummary `json:"job_summary"`
}

// generateRequest names the job by URL or text, or as an already extracted
// summary. With neither, the session's last fetched job is used.
type generateRequest struct {
	Job        string            `json:"job,omitempty"`
	JobSummary *types.JobSummary `json:"job_summary,omitempty"`
	Question   string            `json:"question,omitempty"`
}

// modifyRequest selects suggestions to apply to the session's current
// content. OriginalContent defaults to that content.
type modifyRequest struct {
	OriginalContent  *types.GeneratedContent `json:"original_content,omitempty"`
	SelectedFeedback []types.FeedbackItem    `json:"selected_feedback"`
	ContentType      types.ContentType       `json:"content_type,omitempty"`
}

type modifyResponse struct {
	Revised           *types.RevisedContent `json:"revised"`
	RemainingFeedback []types.FeedbackItem  `json:"remaining_feedback"`
	TurnID            string                `json:"turn_id"`
	State             pipeline.State        `json:"state"`
}

type generation string

const (
	genCoverLetter generation = "cover_letter"
	genAnswer      generation = "answer"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := session.NewID()
	token, expiresAt, err := s.jwt.GenerateToken(id)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if err := s.deps.Sessions.Put(r.Context(), &session.Entry{SessionID: id}); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.logger.Info("session created", zap.String("session_id", id))
	s.jsonResponse(w, http.StatusCreated, sessionResponse{SessionID: id, Token: token, ExpiresAt: expiresAt})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	entry, err := s.deps.Sessions.Get(r.Context(), sessionID(r))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, entry)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.Profiles.LoadProfile(r.Context(), sessionID(r))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rec)
}

// handlePutProfile accepts {"name", "is_default", "profile"} or a bare
// profile document in any supported shape.
func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var envelope map[string]json.RawMessage
	raw, err := readBody(w, r)
	if err == nil {
		err = json.Unmarshal(raw, &envelope)
	}
	if err != nil {
		s.errorResponse(w, r, badRequest("request body is not a JSON object", err))
		return
	}

	rec := &profiles.Record{SessionID: sessionID(r)}
	doc := raw
	if p, ok := envelope["profile"]; ok {
		doc = p
		if err := decodeField(envelope, "name", &rec.Name); err != nil {
			s.errorResponse(w, r, err)
			return
		}
		if err := decodeField(envelope, "is_default", &rec.IsDefault); err != nil {
			s.errorResponse(w, r, err)
			return
		}
	}

	profile, err := profiles.Normalize(doc)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	rec.Profile = profile
	if err := s.deps.Profiles.SaveProfile(r.Context(), rec); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rec)
}

// decodeField decodes envelope[key] into v when the key is present.
func decodeField(envelope map[string]json.RawMessage, key string, v any) error {
	raw, ok := envelope[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return badRequest(key+" has the wrong type", err)
	}
	return nil
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if err := s.deps.Profiles.DeleteProfile(r.Context(), sessionID(r), name); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFetchJob(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if strings.TrimSpace(req.Job) == "" {
		s.errorResponse(w, r, badRequest("job must be a posting URL or its text", nil))
		return
	}

	sid := sessionID(r)
	unlock, err := s.lockSession(r.Context(), sid)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	defer unlock()

	job, err := s.deps.Jobs.FetchJobDescription(r.Context(), req.Job)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	entry, err := s.entry(r.Context(), sid)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	entry.JobSummary = job
	if err := s.deps.Sessions.Put(r.Context(), entry); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, jobResponse{JobSummary: job})
}

func (s *Server) handleGenerateCoverLetter(w http.ResponseWriter, r *http.Request) {
	s.handleGenerate(w, r, genCoverLetter)
}

func (s *Server) handleGenerateAnswer(w http.ResponseWriter, r *http.Request) {
	s.handleGenerate(w, r, genAnswer)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request, kind generation) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	sid := sessionID(r)
	unlock, err := s.lockSession(r.Context(), sid)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	defer unlock()

	job, profile, err := s.prepareGeneration(r.Context(), sid, req)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	result, err := s.runGeneration(r.Context(), s.deps.Orchestrator, sid, kind, job, profile, req.Question)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleGenerateCoverLetterStream reports stage progress as SSE "progress"
// events and ends with a "result" or "error" event.
func (s *Server) handleGenerateCoverLetterStream(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	sid := sessionID(r)
	unlock, err := s.lockSession(r.Context(), sid)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	defer unlock()

	job, profile, err := s.prepareGeneration(r.Context(), sid, req)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	orch := s.deps.Orchestrator.WithProgress(func(ev pipeline.ProgressEvent) {
		if err := sse.WriteEvent(eventProgress, ev); err != nil {
			s.logger.Debug("progress event dropped", zap.Error(err))
		}
	})

	result, err := s.runGeneration(r.Context(), orch, sid, genCoverLetter, job, profile, "")
	if err != nil {
		_ = sse.WriteError(err)
		return
	}
	_ = sse.WriteEvent(eventResult, result)
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	var req modifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	sid := sessionID(r)
	unlock, err := s.lockSession(r.Context(), sid)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	defer unlock()

	entry, err := s.deps.Sessions.Get(r.Context(), sid)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if entry.Turn == nil {
		s.errorResponse(w, r, session.ErrNotFound)
		return
	}

	original := entry.Turn.Content
	if req.OriginalContent != nil {
		original = *req.OriginalContent
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = original.Type
	}

	revised, err := s.deps.Orchestrator.ApplyFeedback(r.Context(), entry.Turn, original, req.SelectedFeedback, contentType)
	if err == nil || entry.Turn.State == pipeline.StateFailed {
		// The turn advanced or failed for good; persist it even if the caller
		// left. A transient revision failure leaves the stored turn as it was.
		if putErr := s.deps.Sessions.Put(context.WithoutCancel(r.Context()), entry); putErr != nil && err == nil {
			err = putErr
		}
	}
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, modifyResponse{
		Revised:           revised,
		RemainingFeedback: entry.Turn.Suggestions,
		TurnID:            entry.Turn.ID,
		State:             entry.Turn.State,
	})
}

// prepareGeneration resolves the job and loads the session's profile.
func (s *Server) prepareGeneration(ctx context.Context, sid string, req generateRequest) (*types.JobSummary, *types.Profile, error) {
	var job *types.JobSummary
	switch {
	case req.JobSummary != nil:
		job = req.JobSummary
	case strings.TrimSpace(req.Job) != "":
		fetched, err := s.deps.Jobs.FetchJobDescription(ctx, req.Job)
		if err != nil {
			return nil, nil, err
		}
		job = fetched
	default:
		entry, err := s.deps.Sessions.Get(ctx, sid)
		if err != nil && !errors.Is(err, session.ErrNotFound) {
			return nil, nil, err
		}
		if entry == nil || entry.JobSummary == nil {
			return nil, nil, apperrors.NewInputError(apperrors.StageInput, "no job description: send job or job_summary, or fetch a job first", nil)
		}
		job = entry.JobSummary
	}

	rec, err := s.deps.Profiles.LoadProfile(ctx, sid)
	if err != nil {
		return nil, nil, err
	}
	return job, rec.Profile, nil
}

// runGeneration runs the pipeline and stores the resulting turn in the session.
func (s *Server) runGeneration(ctx context.Context, orch *pipeline.Orchestrator, sid string, kind generation, job *types.JobSummary, profile *types.Profile, question string) (*pipeline.Result, error) {
	var (
		result *pipeline.Result
		err    error
	)
	switch kind {
	case genAnswer:
		result, err = orch.GenerateAnswer(ctx, job, profile, question)
	default:
		result, err = orch.GenerateCoverLetter(ctx, job, profile)
	}
	if err != nil {
		return nil, err
	}

	entry := &session.Entry{
		SessionID:       sid,
		JobSummary:      result.JobSummary,
		FilteredProfile: result.FilteredProfile,
		Turn:            result.Turn,
	}
	if err := s.deps.Sessions.Put(context.WithoutCancel(ctx), entry); err != nil {
		return nil, err
	}
	return result, nil
}

// entry returns the session's cached entry, or a fresh one.
func (s *Server) entry(ctx context.Context, sid string) (*session.Entry, error) {
	entry, err := s.deps.Sessions.Get(ctx, sid)
	if errors.Is(err, session.ErrNotFound) {
		return &session.Entry{SessionID: sid}, nil
	}
	return entry, err
}

// sessionID returns the id RequireSession stored; routes using it are
// always wrapped.
func sessionID(r *http.Request) string {
	id, _ := middleware.SessionID(r.Context())
	return id
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, badRequest("request body is too large", nil)
		}
		return nil, badRequest("failed to read request body", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, badRequest("request body is empty", nil)
	}
	return data, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	data, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return badRequest("request body is not valid JSON", err)
	}
	return nil
}
