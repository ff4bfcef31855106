package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dev-jujucollins/ebay-tracker/scraper/ebay"
	"github.com/dev-jujucollins/ebay-tracker/utils"
)

// Fetcher retrieves the raw markup of a single page. Implementations must be
// safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FailKind classifies why a fetch gave up.
type FailKind int

const (
	// KindTransient covers timeouts, connection resets, HTTP 429/5xx and
	// bot-protection challenge pages. Worth retrying.
	KindTransient FailKind = iota
	// KindFatal covers malformed URLs and HTTP 4xx other than 429. Retrying
	// cannot help.
	KindFatal
	// KindRetriesExhausted means every attempt failed transiently.
	KindRetriesExhausted
)

func (k FailKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	case KindRetriesExhausted:
		return "retries exhausted"
	default:
		return "unknown"
	}
}

// FetchError is the terminal failure of a fetch, including retries. Attempts
// counts how many attempts were actually made.
type FetchError struct {
	Kind     FailKind
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed (%s) after %d attempt(s): %v", e.Kind, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusError reports a non-success HTTP response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.Code)
}

// ErrBadURL marks a URL the fetcher refuses to request.
var ErrBadURL = errors.New("malformed url")

// ErrChallengePage marks a response that was a bot-protection interstitial
// instead of a results page.
var ErrChallengePage = errors.New("bot-protection challenge page served")

// classify decides whether a failed attempt is worth retrying. Unrecognised
// transport errors (timeouts, resets, DNS blips) count as transient.
func classify(err error) FailKind {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500 {
			return KindTransient
		}
		return KindFatal
	}
	if errors.Is(err, ErrBadURL) {
		return KindFatal
	}
	return KindTransient
}

// SleepFunc waits for the given duration or until the context is done.
// Injected so retry timing is testable without real delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryFetcher wraps a Fetcher with exponential back-off retry and failure
// classification. The first attempt starts immediately; each transient
// failure is followed by a doubling delay (2s, 4s, 8s with the defaults)
// before the next attempt. Fatal failures short-circuit remaining retries.
// Attempts are independent: no state carries over between them. Cancellation
// is honored only between attempts: an attempt already in flight runs to
// completion, and shutdown during back-off stops further attempts.
type RetryFetcher struct {
	fetcher    Fetcher
	maxRetries int
	baseDelay  time.Duration
	sleep      SleepFunc
	logger     *utils.Logger
}

// NewRetryFetcher creates a RetryFetcher allowing maxRetries backed-off
// retries after the initial attempt.
func NewRetryFetcher(f Fetcher, maxRetries int, baseDelay time.Duration, logger *utils.Logger) *RetryFetcher {
	return &RetryFetcher{
		fetcher:    f,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		sleep:      sleepContext,
		logger:     logger,
	}
}

// Fetch runs the wrapped fetcher under the retry policy. The error, when
// non-nil, is always a *FetchError.
func (r *RetryFetcher) Fetch(ctx context.Context, url string) (string, error) {
	delay := r.baseDelay
	attempts := 0

	for retry := 0; ; retry++ {
		attempts++
		body, err := r.fetcher.Fetch(ctx, url)
		if err == nil && ebay.IsChallengePage(body) {
			err = ErrChallengePage
		}
		if err == nil {
			return body, nil
		}

		if kind := classify(err); kind == KindFatal {
			return "", &FetchError{Kind: KindFatal, Attempts: attempts, Err: err}
		}
		if retry == r.maxRetries {
			return "", &FetchError{Kind: KindRetriesExhausted, Attempts: attempts, Err: err}
		}

		r.logger.Warn("[fetch] attempt %d/%d for %s failed: %v, retrying in %v",
			attempts, r.maxRetries+1, url, err, delay)
		if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
			// shutdown during back-off: report what we had, start nothing new
			return "", &FetchError{Kind: KindTransient, Attempts: attempts, Err: sleepErr}
		}
		delay *= 2
	}
}
