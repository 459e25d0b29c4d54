package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/2beens/formcheck/internal/formcheck"
	"github.com/2beens/formcheck/internal/middleware"
	"github.com/2beens/formcheck/internal/telemetry/metrics"
	"github.com/2beens/formcheck/internal/telemetry/tracing"
	"github.com/2beens/formcheck/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=sessions_test

const (
	RouteSessionStart  = "session-start"
	RouteSessionFrame  = "session-frame"
	RouteSessionFinish = "session-finish"

	maxPageSize = 100
)

type service interface {
	Start(ctx context.Context, exercise string) (StartedSession, error)
	ProcessFrame(ctx context.Context, id string, frame formcheck.Frame) (formcheck.FrameResult, error)
	Finish(ctx context.Context, id string) (FinishResult, error)
	Summary(ctx context.Context, id string) (*StoredSummary, error)
	List(ctx context.Context, page, size int) ([]*StoredSummary, int, error)
}

var _ service = (*Service)(nil)

type Handler struct {
	service service
}

func NewHandler(service service) *Handler {
	return &Handler{
		service: service,
	}
}

// ProtectedRoutes are the routes that require the per-session token.
func ProtectedRoutes() []string {
	return []string{RouteSessionFrame, RouteSessionFinish}
}

func (h *Handler) SetupRoutes(
	r *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	metricsManager *metrics.Manager,
	startAllowedPerMin int,
) {
	startLimited := middleware.RateLimit(rateLimiter, RouteSessionStart, startAllowedPerMin, metricsManager)
	r.Handle("/sessions", startLimited(http.HandlerFunc(h.HandleStart))).Methods("POST", "OPTIONS").Name(RouteSessionStart)
	r.HandleFunc("/sessions/list/page/{page}/size/{size}", h.HandleList).Methods("GET", "OPTIONS").Name("session-list")
	r.HandleFunc("/sessions/{id}/frames", h.HandleFrame).Methods("POST", "OPTIONS").Name(RouteSessionFrame)
	r.HandleFunc("/sessions/{id}/finish", h.HandleFinish).Methods("POST", "OPTIONS").Name(RouteSessionFinish)
	r.HandleFunc("/sessions/{id}/summary", h.HandleSummary).Methods("GET", "OPTIONS").Name("session-summary")
	r.HandleFunc("/exercises", h.HandleExercises).Methods("GET", "OPTIONS").Name("exercises")
	r.HandleFunc("/exercises/{type}/guidelines", h.HandleGuidelines).Methods("GET", "OPTIONS").Name("exercise-guidelines")
}

type startRequest struct {
	Exercise string `json:"exercise"`
}

func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.start")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debugf("start session, unmarshal json params: %s", err)
		http.Error(w, "invalid start session request", http.StatusBadRequest)
		return
	}

	started, err := h.service.Start(ctx, req.Exercise)
	if err != nil {
		if errors.Is(err, ErrInvalidExercise) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Errorf("start session: %s", err)
		http.Error(w, "start session failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, started, http.StatusCreated)
}

func (h *Handler) HandleFrame(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.frame")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var frame formcheck.Frame
	if err := json.NewDecoder(r.Body).Decode(&frame); err != nil {
		log.Debugf("session frame, unmarshal json: %s", err)
		http.Error(w, "invalid frame", http.StatusBadRequest)
		return
	}

	id := mux.Vars(r)["id"]
	res, err := h.service.ProcessFrame(ctx, id, frame)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, formcheck.ErrSessionBusy),
			errors.Is(err, formcheck.ErrFrameOutOfOrder),
			errors.Is(err, formcheck.ErrSessionFinished):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			log.Errorf("session %s, process frame: %s", id, err)
			http.Error(w, "process frame failed", http.StatusInternalServerError)
		}
		return
	}

	status := http.StatusOK
	if !res.Analyzed {
		status = http.StatusUnprocessableEntity
	}
	pkg.WriteJSON(w, res, status)
}

func (h *Handler) HandleFinish(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.finish")
	defer span.End()

	id := mux.Vars(r)["id"]
	res, err := h.service.Finish(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Errorf("finish session %s: %s", id, err)
		http.Error(w, "finish session failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, res, http.StatusOK)
}

func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.summary")
	defer span.End()

	id := mux.Vars(r)["id"]
	summary, err := h.service.Summary(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSummaryNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Errorf("get summary %s: %s", id, err)
		http.Error(w, "get summary failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, summary, http.StatusOK)
}

type listResponse struct {
	Summaries []*StoredSummary `json:"summaries"`
	Total     int              `json:"total"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.list")
	defer span.End()

	vars := mux.Vars(r)
	page, err := strconv.Atoi(vars["page"])
	if err != nil || page < 1 {
		http.Error(w, "invalid page", http.StatusBadRequest)
		return
	}
	size, err := strconv.Atoi(vars["size"])
	if err != nil || size < 1 || size > maxPageSize {
		http.Error(w, "invalid size", http.StatusBadRequest)
		return
	}

	summaries, total, err := h.service.List(ctx, page, size)
	if err != nil {
		log.Errorf("list summaries: %s", err)
		http.Error(w, "list summaries failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, listResponse{
		Summaries: summaries,
		Total:     total,
	}, http.StatusOK)
}

type exerciseInfo struct {
	Type      formcheck.ExerciseType `json:"type"`
	HasRules  bool                   `json:"hasRules"`
	HasPhases bool                   `json:"hasPhases"`
}

func (h *Handler) HandleExercises(w http.ResponseWriter, _ *http.Request) {
	exercises := make([]exerciseInfo, 0, len(formcheck.AllExerciseTypes))
	for _, et := range formcheck.AllExerciseTypes {
		exercises = append(exercises, exerciseInfo{
			Type:      et,
			HasRules:  et.HasRules(),
			HasPhases: et.HasPhases(),
		})
	}
	pkg.WriteJSON(w, exercises, http.StatusOK)
}

func (h *Handler) HandleGuidelines(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.guidelines")
	defer span.End()

	et, err := formcheck.ParseExerciseType(mux.Vars(r)["type"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	guidelines, err := formcheck.GetGuidelines(et)
	if err != nil {
		log.Errorf("get guidelines %s: %s", et, err)
		http.Error(w, "get guidelines failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, guidelines, http.StatusOK)
}
