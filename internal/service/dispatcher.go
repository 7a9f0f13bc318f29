package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/pushrelay/push-relay/internal/auth"
	"github.com/pushrelay/push-relay/internal/domain"
	"github.com/pushrelay/push-relay/internal/observability"
	"github.com/pushrelay/push-relay/internal/provider"
	"github.com/pushrelay/push-relay/internal/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	minDispatchConcurrency = 1
	defaultMaxSendAttempts = 3
	baseRetryDelay         = 500 * time.Millisecond
	maxRetryDelay          = 5 * time.Second
	maxRetryJitterMillis   = 250

	rateLimitScope = "push"
)

// Dispatcher fans one logical notification out to many device tokens,
// isolating failures per recipient. A dispatch call acquires a bearer token
// once, then attempts every recipient exactly once (transient provider
// errors are retried in place with bounded backoff).
type Dispatcher struct {
	tokens      auth.TokenSource
	provider    provider.Provider
	rateLimiter ratelimit.RateLimiter
	logger      *zap.Logger
	metrics     *observability.Metrics
	concurrency int
	maxAttempts int
	now         func() time.Time
	randIntn    func(n int) int
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewDispatcher(
	tokens auth.TokenSource,
	pushProvider provider.Provider,
	rateLimiter ratelimit.RateLimiter,
	concurrency int,
	maxAttempts int,
	logger *zap.Logger,
) (*Dispatcher, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}
	if pushProvider == nil {
		return nil, fmt.Errorf("push provider is required")
	}
	if concurrency < minDispatchConcurrency {
		concurrency = minDispatchConcurrency
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxSendAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		tokens:      tokens,
		provider:    pushProvider,
		rateLimiter: rateLimiter,
		logger:      logger,
		concurrency: concurrency,
		maxAttempts: maxAttempts,
		now:         time.Now,
		randIntn:    rand.Intn,
		sleep:       sleepWithContext,
	}, nil
}

func (d *Dispatcher) SetMetrics(metrics *observability.Metrics) {
	if d == nil {
		return
	}
	d.metrics = metrics
}

// Send validates the request, acquires a bearer token, and delivers to every
// recipient. The returned result always carries exactly one outcome per input
// token once sending has begun; a token-acquisition failure terminates the
// dispatch before any delivery is attempted.
func (d *Dispatcher) Send(ctx context.Context, req *domain.NotificationRequest) (*domain.DispatchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.CorrelationID == "" {
		req.CorrelationID = uuid.NewString()
	}

	logger := observability.WithContextLogger(d.logger, ctx).With(
		zap.String("correlationId", req.CorrelationID),
	)

	result := &domain.DispatchResult{
		CorrelationID: req.CorrelationID,
		State:         domain.DispatchPending,
	}

	token, err := d.tokens.Token(ctx)
	if err != nil {
		result.State = domain.DispatchFailed
		if d.metrics != nil {
			d.metrics.IncDispatchFailed(domain.ReasonAuthExchange.String())
		}
		logger.Error("dispatch aborted: token acquisition failed", zap.Error(err))
		return result, fmt.Errorf("failed to acquire access token: %w", err)
	}

	result.State = domain.DispatchSending
	logger.Info("dispatch started", zap.Int("recipients", len(req.Tokens)))

	outcomes := make([]domain.DeliveryOutcome, len(req.Tokens))

	g := new(errgroup.Group)
	g.SetLimit(d.concurrency)
	for i, recipient := range req.Tokens {
		msg := domain.PushMessage{
			Token: recipient,
			Title: req.Title,
			Body:  req.Body,
			Data:  req.Data,
		}
		g.Go(func() error {
			outcomes[i] = d.deliverOne(ctx, logger, token.Value, msg)
			return nil
		})
	}
	// Workers never return errors; per-recipient failures live in outcomes.
	_ = g.Wait()

	result.Outcomes = outcomes
	result.State = domain.DispatchCompleted

	logger.Info("dispatch completed",
		zap.Int("delivered", result.Delivered()),
		zap.Int("failed", result.Failed()),
	)

	return result, nil
}

func (d *Dispatcher) deliverOne(ctx context.Context, logger *zap.Logger, accessToken string, msg domain.PushMessage) domain.DeliveryOutcome {
	if d.metrics != nil {
		d.metrics.IncDeliveryInFlight()
		defer d.metrics.DecDeliveryInFlight()
	}

	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if d.rateLimiter != nil {
			if err := d.rateLimiter.Wait(ctx, rateLimitScope); err != nil {
				lastErr = fmt.Errorf("rate limiter wait failed: %w", err)
				break
			}
		}

		sendStart := d.now()
		resp, err := d.provider.Send(ctx, accessToken, msg)
		if d.metrics != nil {
			d.metrics.ObserveDeliveryDuration(d.now().Sub(sendStart))
		}

		if err == nil {
			if d.metrics != nil {
				d.metrics.IncDeliverySent()
			}
			logger.Debug("delivery accepted",
				zap.String("token", msg.Token),
				zap.String("messageId", messageID(resp)),
			)
			return domain.DeliveryOutcome{Token: msg.Token, Success: true}
		}

		lastErr = err
		if !provider.IsTransient(err) || attempt == d.maxAttempts {
			break
		}
		if sleepErr := d.sleep(ctx, d.computeRetryDelay(attempt)); sleepErr != nil {
			break
		}
	}

	reason := provider.FailureReason(lastErr)
	if d.metrics != nil {
		d.metrics.IncDeliveryFailed(reason.String())
	}
	logger.Warn("delivery failed",
		zap.String("token", msg.Token),
		zap.String("reason", reason.String()),
		zap.Error(lastErr),
	)

	return domain.DeliveryOutcome{
		Token:       msg.Token,
		Success:     false,
		ErrorDetail: lastErr.Error(),
	}
}

func (d *Dispatcher) computeRetryDelay(attemptNumber int) time.Duration {
	if attemptNumber < 1 {
		attemptNumber = 1
	}

	delay := baseRetryDelay
	for i := 1; i < attemptNumber; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			delay = maxRetryDelay
			break
		}
	}

	jitterMillis := 0
	if d.randIntn != nil && maxRetryJitterMillis > 0 {
		jitterMillis = d.randIntn(maxRetryJitterMillis + 1)
	}

	return delay + time.Duration(jitterMillis)*time.Millisecond
}

func messageID(resp *provider.ProviderResponse) string {
	if resp == nil {
		return ""
	}
	return resp.MessageID
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
