package waitlist

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/akeren/klyr-waitlist/internal/log"
	"github.com/akeren/klyr-waitlist/internal/validation"
	"github.com/akeren/klyr-waitlist/pkg/circuitbreaker"
	apperrors "github.com/akeren/klyr-waitlist/pkg/errors"
	"github.com/akeren/klyr-waitlist/pkg/notify"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const countCacheKey = "waitlist:count"

type WaitlistService interface {
	// Submit stores one accepted submission and triggers the confirmation email.
	Submit(ctx context.Context, submission validation.Submission) (*WaitlistSubmissionResponse, error)

	// Count returns the number of submissions, served from cache when fresh.
	Count(ctx context.Context) (*WaitlistCountResponse, error)
}

// Cache is the subset of the application cache used for the count.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type ServiceOptions struct {
	Cache         Cache
	CountCacheTTL time.Duration
	Notifier      notify.Notifier
	Breaker       circuitbreaker.CircuitBreaker
	Metrics       *Metrics
}

type waitlistService struct {
	logger     *log.Logger
	repository WaitlistRepository
	cache      Cache
	countTTL   time.Duration
	notifier   notify.Notifier
	breaker    circuitbreaker.CircuitBreaker
	metrics    *Metrics
	tracer     trace.Tracer
}

func NewWaitlistService(logger *log.Logger, repository WaitlistRepository, opts ServiceOptions) WaitlistService {
	if opts.Notifier == nil {
		opts.Notifier = notify.Noop{}
	}
	if opts.Breaker == nil {
		opts.Breaker = circuitbreaker.NewCircuitBreaker(nil)
	}
	return &waitlistService{
		logger:     logger,
		repository: repository,
		cache:      opts.Cache,
		countTTL:   opts.CountCacheTTL,
		notifier:   opts.Notifier,
		breaker:    opts.Breaker,
		metrics:    opts.Metrics,
		tracer:     otel.Tracer("github.com/akeren/klyr-waitlist/domain/waitlist"),
	}
}

func (s *waitlistService) Submit(ctx context.Context, submission validation.Submission) (*WaitlistSubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "waitlist.Submit", trace.WithAttributes(
		attribute.String("waitlist.source", submission.Source()),
	))
	defer span.End()

	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if submission.Email() == "" {
		logger.Error("Submit received a zero-value submission")
		return nil, apperrors.NewInvalidRequestError("Invalid input", nil).
			WithDetails([]apperrors.ValidationErrorResponse{{Field: "email", Message: "Email is required"}})
	}

	stored, err := s.repository.Insert(ctx, submission.Model())
	if err != nil {
		logger.Error("Failed to insert waitlist submission", "source", submission.Source(), "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		s.metrics.observeSubmission(submission.Source(), "failed")
		return nil, err
	}

	s.metrics.observeSubmission(submission.Source(), "stored")
	logger.Info("Waitlist submission stored", "id", stored.ID, "source", stored.Source)

	s.invalidateCount(ctx, logger)

	if err := s.notifier.SignupConfirmed(ctx, notify.Signup{Email: stored.Email, Source: stored.Source}); err != nil {
		logger.Warn("Signup confirmation could not be queued", "id", stored.ID, "error", err)
	}

	response := ToWaitlistSubmissionResponse(stored)
	return &response, nil
}

func (s *waitlistService) Count(ctx context.Context) (*WaitlistCountResponse, error) {
	ctx, span := s.tracer.Start(ctx, "waitlist.Count")
	defer span.End()

	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if count, ok := s.cachedCount(ctx, logger); ok {
		span.SetAttributes(attribute.Bool("waitlist.count_cached", true))
		response := ToWaitlistCountResponse(count)
		return &response, nil
	}

	var count int64
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		count, err = s.repository.Count(ctx)
		return err
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		logger.Warn("Waitlist count skipped; circuit open")
		span.SetStatus(codes.Error, "circuit open")
		return nil, apperrors.NewServiceUnavailableError(msgCountUnavailable, err)
	}
	if err != nil {
		logger.Error("Failed to count waitlist submissions", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
		return nil, err
	}

	s.metrics.SetSignups(count)
	s.storeCount(ctx, count, logger)

	span.SetAttributes(attribute.Int64("waitlist.count", count))
	response := ToWaitlistCountResponse(count)
	return &response, nil
}

func (s *waitlistService) cachedCount(ctx context.Context, logger *log.Logger) (int64, bool) {
	if s.cache == nil || s.countTTL <= 0 {
		return 0, false
	}

	raw, err := s.cache.Get(ctx, countCacheKey)
	if err != nil {
		logger.Warn("Count cache read failed", "error", err)
		s.metrics.observeCountCache("error")
		return 0, false
	}
	if raw == "" {
		s.metrics.observeCountCache("miss")
		return 0, false
	}

	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		logger.Warn("Discarding malformed cached count", "value", raw)
		s.metrics.observeCountCache("error")
		return 0, false
	}
	s.metrics.observeCountCache("hit")
	return count, true
}

func (s *waitlistService) storeCount(ctx context.Context, count int64, logger *log.Logger) {
	if s.cache == nil || s.countTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, countCacheKey, strconv.FormatInt(count, 10), s.countTTL); err != nil {
		logger.Warn("Count cache write failed", "error", err)
	}
}

func (s *waitlistService) invalidateCount(ctx context.Context, logger *log.Logger) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, countCacheKey); err != nil {
		logger.Warn("Count cache invalidation failed", "error", err)
	}
}
