package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tably-service/internal/app"
	"tably-service/internal/domain"
	"tably-service/internal/logger"
	"tably-service/internal/quiz"
	"tably-service/internal/report"
)

// Handler serves the REST API over QuizService.
type Handler struct {
	service *app.QuizService
}

func NewHandler(service *app.QuizService) *Handler {
	return &Handler{service: service}
}

// Register mounts the REST routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /api/users", h.register)
	mux.HandleFunc("POST /api/sessions", h.login)
	mux.HandleFunc("GET /api/users/{id}", h.profile)
	mux.HandleFunc("PATCH /api/users/{id}", h.updateProfile)
	mux.HandleFunc("PUT /api/users/{id}/config", h.saveConfiguration)
	mux.HandleFunc("GET /api/users/{id}/history", h.history)
	mux.HandleFunc("GET /api/users/{id}/dashboard", h.dashboard)
	mux.HandleFunc("GET /api/users/{id}/report", h.report)
	mux.HandleFunc("GET /api/users/{id}/session", h.session)
	mux.HandleFunc("POST /api/users/{id}/session/answers", h.answer)
	mux.HandleFunc("DELETE /api/users/{id}/session", h.endSession)
	mux.HandleFunc("GET /api/leaderboard", h.leaderboard)
}

type envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req app.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	profile, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: profile})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req app.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	profile, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: profile})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var upd app.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	profile, err := h.service.UpdateProfile(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: profile})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Profile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: profile})
}

func (h *Handler) saveConfiguration(w http.ResponseWriter, r *http.Request) {
	var cfg domain.TestConfiguration
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	saved, err := h.service.SaveConfiguration(r.Context(), r.PathValue("id"), cfg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: saved})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.History(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if results == nil {
		results = []domain.StoredResult{}
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: results})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: d})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	rep, err := h.service.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := report.RenderText(w, rep); err != nil {
			logger.Warn("render report for %s: %v", rep.UserID, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: rep})
}

// sessionView is the polling snapshot of a live session.
type sessionView struct {
	Index     int                  `json:"index"`
	Total     int                  `json:"total"`
	Remaining int                  `json:"remaining"`
	Phase     string               `json:"phase"`
	Prompt    *app.Prompt          `json:"prompt,omitempty"`
	Last      *domain.AnswerRecord `json:"last,omitempty"`
}

func newSessionView(state quiz.State) sessionView {
	v := sessionView{
		Index:     state.Index,
		Total:     len(state.Questions),
		Remaining: state.Remaining,
		Phase:     state.Phase.String(),
	}
	if state.Phase == quiz.PhaseAwaitingInput {
		q := state.Current()
		v.Prompt = &app.Prompt{FactorA: q.FactorA, FactorB: q.FactorB}
	}
	if rec, ok := state.LastRecord(); ok {
		v.Last = &rec
	}
	return v
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	session, err := h.service.Session(userID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		if active, aerr := h.service.SessionActive(r.Context(), userID); aerr == nil && active {
			err = domain.ErrSessionElsewhere
		}
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: newSessionView(session.State())})
}

func (h *Handler) answer(w http.ResponseWriter, r *http.Request) {
	var payload answerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	userID := r.PathValue("id")
	if err := h.service.Submit(r.Context(), userID, payload.Answer); err != nil {
		writeServiceError(w, err)
		return
	}
	session, err := h.service.Session(userID)
	if err != nil {
		// finished between the submit and the snapshot
		writeJSON(w, http.StatusAccepted, envelope{Success: true})
		return
	}
	writeJSON(w, http.StatusAccepted, envelope{Success: true, Data: newSessionView(session.State())})
}

func (h *Handler) endSession(w http.ResponseWriter, r *http.Request) {
	h.service.EndSession(r.PathValue("id"))
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Leaderboard(r.Context(), r.URL.Query().Get("tieBreak"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: entries})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

func writeServiceError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	var cerr *domain.ConfigurationError
	switch {
	case errors.Is(err, domain.ErrDuplicateRegistration):
		writeJSON(w, http.StatusConflict, envelope{Success: false, Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, domain.ErrInvalidCredentials.Error())
	case errors.Is(err, domain.ErrInvalidAnswer):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotAcceptingInput), errors.Is(err, domain.ErrSessionFinished),
		errors.Is(err, domain.ErrSessionElsewhere):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Error: err.Error(), Fields: verr.Fields})
	case errors.As(err, &cerr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrProfileNotFound), errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		logger.Error("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
