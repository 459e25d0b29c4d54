package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/2beens/formcheck/internal/coach"
	"github.com/2beens/formcheck/internal/formcheck"
	"github.com/2beens/formcheck/internal/telemetry/metrics"
	"github.com/2beens/formcheck/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=sessions_test

type summaryRepo interface {
	Add(ctx context.Context, s StoredSummary) error
	Get(ctx context.Context, sessionID string) (*StoredSummary, error)
	List(ctx context.Context, page, size int) ([]*StoredSummary, error)
	Count(ctx context.Context) (int, error)
}

type tokenIssuer interface {
	Issue(ctx context.Context, sessionID string) (string, error)
	Revoke(ctx context.Context, sessionID string) error
}

type coachClient interface {
	Coach(ctx context.Context, req coach.Request) (coach.Response, error)
}

const summaryCacheKeyPrefix = "summary::"

type ServiceParams struct {
	Engine         *formcheck.Engine
	Repo           summaryRepo
	Tokens         tokenIssuer
	Coach          coachClient
	MetricsManager *metrics.Manager
	IdleTimeout    time.Duration
	CacheSizeMB    int
	CacheTTL       time.Duration
	// Now is overridden in tests
	Now func() time.Time
}

type Service struct {
	engine         *formcheck.Engine
	registry       *Registry
	repo           summaryRepo
	tokens         tokenIssuer
	coach          coachClient
	metricsManager *metrics.Manager
	idleTimeout    time.Duration
	cache          *freecache.Cache
	cacheTTL       time.Duration
	now            func() time.Time
}

func NewService(params ServiceParams) *Service {
	megabyte := 1024 * 1024
	cacheSizeMB := params.CacheSizeMB
	if cacheSizeMB <= 0 {
		cacheSizeMB = 10
	}
	coachCl := params.Coach
	if coachCl == nil {
		coachCl = coach.NoopClient{}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	idleTimeout := params.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = 10 * time.Minute
	}

	return &Service{
		engine:         params.Engine,
		registry:       NewRegistry(),
		repo:           params.Repo,
		tokens:         params.Tokens,
		coach:          coachCl,
		metricsManager: params.MetricsManager,
		idleTimeout:    idleTimeout,
		cache:          freecache.NewCache(cacheSizeMB * megabyte),
		cacheTTL:       params.CacheTTL,
		now:            now,
	}
}

func (s *Service) ActiveSessions() int {
	return s.registry.Len()
}

func (s *Service) Start(ctx context.Context, exercise string) (_ StartedSession, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.sessions.start")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("exercise", exercise))

	et, err := formcheck.ParseExerciseType(exercise)
	if err != nil {
		return StartedSession{}, fmt.Errorf("%w: %w", ErrInvalidExercise, err)
	}

	id := uuid.NewString()
	token, err := s.tokens.Issue(ctx, id)
	if err != nil {
		return StartedSession{}, fmt.Errorf("issue session token: %w", err)
	}

	startedAt := s.now().UTC()
	s.registry.Add(s.engine.NewSession(id, et, startedAt))
	s.metricsManager.GaugeActiveSessions.Set(float64(s.registry.Len()))

	if !et.HasRules() {
		log.Warnf("session %s: exercise %s has no form rules, frames will be scored %d", id, et, formcheck.MaxFormScore)
	}
	log.Debugf("session %s started: %s", id, et)

	return StartedSession{
		ID:        id,
		Token:     token,
		Exercise:  et,
		StartedAt: startedAt,
	}, nil
}

func (s *Service) ProcessFrame(ctx context.Context, id string, frame formcheck.Frame) (_ formcheck.FrameResult, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "service.sessions.frame")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("session", id))

	sess, ok := s.registry.Get(id)
	if !ok {
		return formcheck.FrameResult{}, ErrSessionNotFound
	}

	// frames from sources without a clock are stamped on arrival
	if frame.Timestamp.IsZero() {
		frame.Timestamp = s.now().UTC()
	}
	if dropped := frame.Sanitize(); dropped > 0 {
		log.Tracef("session %s: dropped %d unknown landmarks", id, dropped)
	}

	begin := time.Now()
	res, err := sess.Process(frame, s.now())
	if err != nil {
		if errors.Is(err, formcheck.ErrSessionBusy) {
			s.metricsManager.CounterBusyRejections.Inc()
		}
		return formcheck.FrameResult{}, err
	}
	s.metricsManager.HistFrameAnalysisTime.Observe(time.Since(begin).Seconds())

	exercise := sess.Exercise().String()
	if !res.Analyzed {
		s.metricsManager.CounterFramesRejected.WithLabelValues(exercise).Inc()
		log.Tracef("session %s: frame %s not analyzed: %s", id, res.Timestamp, res.Reason)
		return res, nil
	}

	s.metricsManager.CounterFramesAnalyzed.WithLabelValues(exercise).Inc()
	s.metricsManager.HistFormScore.WithLabelValues(exercise).Observe(float64(res.FormScore))
	if res.RepCompleted {
		s.metricsManager.CounterRepsCounted.WithLabelValues(exercise).Inc()
		log.Debugf("session %s: rep %d completed", id, res.RepNumber)
	}

	return res, nil
}

// Finish ends a live session, stores its summary and asks the coach for a message.
// A failing coach or store is logged and does not hide the summary from the caller.
func (s *Service) Finish(ctx context.Context, id string) (_ FinishResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.sessions.finish")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("session", id))

	sess, ok := s.registry.Remove(id)
	if !ok {
		return FinishResult{}, ErrSessionNotFound
	}

	stored := s.finalize(ctx, sess, false)
	return FinishResult{
		Summary:  stored.Summary,
		Coaching: stored.Coaching,
	}, nil
}

func (s *Service) finalize(ctx context.Context, sess *formcheck.Session, abandoned bool) StoredSummary {
	summary := sess.Finish(s.now().UTC(), abandoned)
	stored := StoredSummary{Summary: summary}

	s.metricsManager.GaugeActiveSessions.Set(float64(s.registry.Len()))
	s.metricsManager.CounterSessionsFinished.WithLabelValues(
		summary.Exercise.String(),
		strconv.FormatBool(abandoned),
	).Inc()

	if !abandoned && summary.TotalFrames > 0 {
		coachResp, err := s.coach.Coach(ctx, coach.NewRequest(summary))
		if err != nil {
			log.Warnf("session %s: coach: %s", summary.SessionID, err)
		} else {
			stored.Coaching = coachResp.Message
		}
	}

	if err := s.repo.Add(ctx, stored); err != nil {
		log.WithError(err).WithField("session", summary.SessionID).Error("store session summary")
	}
	s.cacheSummary(stored)

	if err := s.tokens.Revoke(ctx, summary.SessionID); err != nil {
		log.Errorf("session %s: revoke token: %s", summary.SessionID, err)
	}

	log.Debugf(
		"session %s finished (abandoned: %t): reps=%d accuracy=%d avg=%.2f",
		summary.SessionID, abandoned, summary.TotalReps, summary.FormAccuracy, summary.AverageScore,
	)
	return stored
}

func (s *Service) cacheSummary(stored StoredSummary) {
	summaryBytes, err := json.Marshal(stored)
	if err != nil {
		log.Errorf("marshal summary %s for cache: %s", stored.SessionID, err)
		return
	}
	key := []byte(summaryCacheKeyPrefix + stored.SessionID)
	if err := s.cache.Set(key, summaryBytes, int(s.cacheTTL.Seconds())); err != nil {
		log.Errorf("cache summary %s: %s", stored.SessionID, err)
	}
}

func (s *Service) Summary(ctx context.Context, id string) (_ *StoredSummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.sessions.summary")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("session", id))

	if summaryBytes, err := s.cache.Get([]byte(summaryCacheKeyPrefix + id)); err == nil {
		cached := &StoredSummary{}
		if err := json.Unmarshal(summaryBytes, cached); err == nil {
			log.Tracef("summary %s found in cache", id)
			return cached, nil
		}
		log.Errorf("unmarshal cached summary %s: %s", id, err)
	}

	stored, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSummaryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get summary: %w", err)
	}
	s.cacheSummary(*stored)

	return stored, nil
}

func (s *Service) List(ctx context.Context, page, size int) (_ []*StoredSummary, _ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.sessions.list")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	summaries, err := s.repo.List(ctx, page, size)
	if err != nil {
		return nil, 0, fmt.Errorf("list summaries: %w", err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count summaries: %w", err)
	}
	return summaries, total, nil
}

// ReapIdle finishes, as abandoned, every session that has not received a
// frame for longer than the idle timeout. It returns how many were reaped.
func (s *Service) ReapIdle(ctx context.Context, now time.Time) int {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.sessions.reap")
	defer span.End()

	reaped := 0
	for _, sess := range s.registry.Snapshot() {
		if now.Sub(sess.IdleSince()) <= s.idleTimeout {
			continue
		}
		// a concurrent Finish may have won the race
		if _, ok := s.registry.Remove(sess.ID()); !ok {
			continue
		}
		s.finalize(ctx, sess, true)
		reaped++
	}

	span.SetAttributes(attribute.Int("reaped", reaped))
	if reaped > 0 {
		log.Infof("reaped %d idle sessions", reaped)
	}
	return reaped
}

// AbandonAll finishes every live session as abandoned; used on shutdown.
func (s *Service) AbandonAll(ctx context.Context) int {
	abandoned := 0
	for _, sess := range s.registry.Snapshot() {
		if _, ok := s.registry.Remove(sess.ID()); !ok {
			continue
		}
		s.finalize(ctx, sess, true)
		abandoned++
	}
	return abandoned
}
