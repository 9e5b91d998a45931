// Package service provides the core match service used by the HTTP and
// WebSocket transports. Every mutation of a court goes through it.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/courtside/internal/adapters/mq/broadcast"
	"github.com/okian/courtside/internal/adapters/mq/worker"
	"github.com/okian/courtside/internal/adapters/repository"
	"github.com/okian/courtside/internal/domain/court"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/types"
	"github.com/okian/courtside/pkg/logger"
	"github.com/okian/courtside/pkg/metrics"
)

const stopTimeout = 5 * time.Second

// Service owns the court registry and the broadcast hub.
type Service struct {
	mu sync.RWMutex

	// Core components
	courts repository.Store
	hub    *broadcast.Hub

	// Configuration
	shardCount       int
	maxReferees      int
	dedupeSize       int
	subscriberBuffer int

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithShardCount sets the number of registry shards.
func WithShardCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithMaxReferees caps the panel size of new courts. n <= 0 removes the cap.
func WithMaxReferees(n int) Option {
	return func(s *Service) {
		s.maxReferees = n
	}
}

// WithDedupeSize sets how many submission ids each court remembers.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithSubscriberBuffer sets the per-subscriber queue capacity.
func WithSubscriberBuffer(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.subscriberBuffer = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with an empty registry.
func New(opts ...Option) *Service {
	s := &Service{
		shardCount:       8,
		maxReferees:      3,
		dedupeSize:       256,
		subscriberBuffer: 64,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.courts = repository.NewShardedStore(repository.WithShardCount(s.shardCount))
	s.hub = broadcast.NewHub(
		broadcast.WithBufferSize(s.subscriberBuffer),
		broadcast.WithLogger(s.logger.Named("broadcast")),
	)
	return s
}

// Start marks the service as serving.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.started = true
	s.startedAt = time.Now()

	s.logger.Info(ctx, "scoreboard service started",
		logger.Int("shards", s.shardCount),
		logger.Int("maxReferees", s.maxReferees),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("subscriberBuffer", s.subscriberBuffer),
	)
	return nil
}

// Stop detaches every subscriber. Courts stay readable.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping scoreboard service...")
	if err := s.hub.Close(ctx); err != nil {
		s.logger.Warn(ctx, "subscribers did not stop in time", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "scoreboard service stopped")
}

// CreateCourt registers a new court. A blank secret is replaced with a
// generated one, returned to the caller.
func (s *Service) CreateCourt(ctx context.Context, courtID, secret string, referees []string) (types.CourtCreated, error) {
	if strings.TrimSpace(secret) == "" {
		secret = uuid.NewString()
	}

	c, err := court.New(courtID, secret, referees,
		court.WithMaxReferees(s.maxReferees),
		court.WithDedupeSize(s.dedupeSize),
	)
	if err != nil {
		return types.CourtCreated{}, err
	}
	if err := s.courts.Create(ctx, c); err != nil {
		s.logger.Debug(ctx, "court creation rejected",
			logger.String("court", courtID),
			logger.Error(err),
		)
		return types.CourtCreated{}, err
	}

	s.logger.Info(ctx, "court created",
		logger.String("court", courtID),
		logger.Int("referees", len(referees)),
	)

	panel := make([]string, len(referees))
	copy(panel, referees)
	return types.CourtCreated{
		CourtID:  courtID,
		Secret:   secret,
		Referees: panel,
		Snapshot: c.Snapshot(),
	}, nil
}

// JoinAsReferee admits a referee holding the court secret. When sink is not
// nil it is subscribed to the court's updates.
func (s *Service) JoinAsReferee(ctx context.Context, referee, courtID, secret string, sink worker.Sink) (model.Binding, *broadcast.Subscription, error) {
	c, err := s.courts.Get(ctx, courtID)
	if err != nil {
		return model.Binding{}, nil, fmt.Errorf("%w: court %q", model.ErrInvalidCredential, courtID)
	}
	if !c.Authorize(secret) {
		s.logger.Warn(ctx, "referee presented a wrong secret",
			logger.String("court", courtID),
			logger.String("referee", referee),
		)
		return model.Binding{}, nil, fmt.Errorf("%w: court %q", model.ErrInvalidCredential, courtID)
	}
	if !c.HasReferee(referee) {
		s.logger.Debug(ctx, "admitted referee is not on the panel",
			logger.String("court", courtID),
			logger.String("referee", referee),
		)
	}

	var sub *broadcast.Subscription
	if sink != nil {
		sub = s.hub.Subscribe(ctx, courtID, sink)
	}

	s.logger.Info(ctx, "referee joined",
		logger.String("court", courtID),
		logger.String("referee", referee),
	)
	return model.Binding{Referee: referee, Court: courtID}, sub, nil
}

// JoinAsViewer returns the current snapshot with no decision. When sink is
// not nil it is subscribed and receives that snapshot first.
func (s *Service) JoinAsViewer(ctx context.Context, courtID string, sink worker.Sink) (model.Snapshot, *broadcast.Subscription, error) {
	c, err := s.courts.Get(ctx, courtID)
	if err != nil {
		return model.Snapshot{}, nil, err
	}

	var sub *broadcast.Subscription
	snap := c.Attach(func(snap model.Snapshot) {
		if sink == nil {
			return
		}
		sub = s.hub.Subscribe(ctx, courtID, sink)
		s.hub.Deliver(context.WithoutCancel(ctx), sub, snap)
	})

	s.logger.Debug(ctx, "viewer joined",
		logger.String("court", courtID),
		logger.Bool("subscribed", sub != nil),
	)
	return snap, sub, nil
}

// SubmitScore records a vote and publishes the resulting snapshot to the
// court's subscribers. For a replayed submission id the current snapshot is
// returned with an error wrapping model.ErrDuplicateSubmission.
func (s *Service) SubmitScore(ctx context.Context, sub model.Submission) (model.Snapshot, error) {
	c, err := s.courts.Get(ctx, sub.CourtID)
	if err != nil {
		metrics.RecordVoteRejected(rejectReason(err))
		return model.Snapshot{}, err
	}

	publishCtx := context.WithoutCancel(ctx)
	res, err := c.Submit(ctx, sub, func(snap model.Snapshot) {
		s.hub.Publish(publishCtx, sub.CourtID, snap)
	})
	if err != nil {
		if res.Duplicate {
			metrics.RecordDuplicateSubmission()
			s.logger.Debug(ctx, "duplicate submission ignored",
				logger.String("court", sub.CourtID),
				logger.String("submission", sub.SubmissionID),
			)
			return res.Snapshot, err
		}
		metrics.RecordVoteRejected(rejectReason(err))
		s.logger.Debug(ctx, "vote rejected",
			logger.String("court", sub.CourtID),
			logger.String("referee", sub.Referee),
			logger.Error(err),
		)
		return model.Snapshot{}, err
	}

	metrics.RecordVoteSubmitted()
	switch {
	case res.Outcome.Winner != nil:
		metrics.RecordDecision(string(*res.Outcome.Winner))
		s.logger.Info(ctx, "round decision",
			logger.String("court", sub.CourtID),
			logger.String("winner", string(*res.Outcome.Winner)),
			logger.Int64("seq", res.Event.Seq),
		)
	case res.Outcome.Ambiguous:
		metrics.RecordAmbiguousDecision()
		s.logger.Warn(ctx, "both competitors reached the threshold, no decision",
			logger.String("court", sub.CourtID),
			logger.Int64("seq", res.Event.Seq),
		)
	}
	if res.Outcome.Released {
		s.logger.Debug(ctx, "held decision released",
			logger.String("court", sub.CourtID),
			logger.Int64("seq", res.Event.Seq),
		)
	}
	return res.Snapshot, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, model.ErrUnknownCourt):
		return "unknown_court"
	case errors.Is(err, model.ErrUnknownReferee):
		return "unknown_referee"
	case errors.Is(err, model.ErrInvalidPlayer):
		return "invalid_player"
	default:
		return "other"
	}
}

// GetCourt returns the full court view.
func (s *Service) GetCourt(ctx context.Context, courtID string) (types.CourtView, error) {
	c, err := s.courts.Get(ctx, courtID)
	if err != nil {
		return types.CourtView{}, err
	}
	return c.View(), nil
}

// ListCourts returns every court ordered by id.
func (s *Service) ListCourts(ctx context.Context) []types.CourtView {
	courts := s.courts.List(ctx)
	views := make([]types.CourtView, 0, len(courts))
	for _, c := range courts {
		views = append(views, c.View())
	}
	return views
}

// Leave detaches a subscription obtained from a join.
func (s *Service) Leave(ctx context.Context, sub *broadcast.Subscription) {
	if sub == nil {
		return
	}
	s.hub.Unsubscribe(sub)
	s.logger.Debug(ctx, "subscriber left",
		logger.String("court", sub.CourtID),
		logger.String("subscription", sub.ID),
	)
}

// Subscribers returns the number of subscribers watching courtID.
func (s *Service) Subscribers(courtID string) int {
	return s.hub.Count(courtID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":          s.started,
		"shardCount":       s.shardCount,
		"maxReferees":      s.maxReferees,
		"dedupeSize":       s.dedupeSize,
		"subscriberBuffer": s.subscriberBuffer,
		"courts":           s.courts.Count(ctx),
		"subscribers":      s.hub.Total(),
	}
	if s.started {
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	}
	return stats
}
