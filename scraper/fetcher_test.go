package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dev-jujucollins/ebay-tracker/utils"
)

// scriptedFetcher returns its responses in order, repeating the last one.
type scriptedFetcher struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedFetcher) Fetch(ctx context.Context, url string) (string, error) {
	i := s.calls
	if i >= len(s.errs) {
		i = len(s.errs) - 1
	}
	s.calls++
	return s.responses[i], s.errs[i]
}

// newRecordingRetryFetcher swaps the real sleep for one that records delays.
func newRecordingRetryFetcher(f Fetcher, maxRetries int, delays *[]time.Duration) *RetryFetcher {
	r := NewRetryFetcher(f, maxRetries, 2*time.Second, utils.NewLogger())
	r.sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return r
}

const goodPage = "<html><body><ul class=\"srp-results\"></ul></body></html>"

func TestRetryBackoffSequence(t *testing.T) {
	f := &scriptedFetcher{
		responses: []string{""},
		errs:      []error{&StatusError{Code: 503}},
	}
	var delays []time.Duration
	r := newRecordingRetryFetcher(f, 3, &delays)

	_, err := r.Fetch(context.Background(), "https://example.com")

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fe.Kind != KindRetriesExhausted {
		t.Errorf("Kind = %v; want retries exhausted", fe.Kind)
	}
	if fe.Attempts != 4 {
		t.Errorf("Attempts = %d; want 4 (initial + 3 retries)", fe.Attempts)
	}

	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("recorded %d delays (%v); want %v", len(delays), delays, want)
	}
	for i, d := range want {
		if delays[i] != d {
			t.Errorf("delays[%d] = %v; want %v", i, delays[i], d)
		}
	}
}

func TestRetryFatalShortCircuits(t *testing.T) {
	f := &scriptedFetcher{
		responses: []string{""},
		errs:      []error{&StatusError{Code: 404}},
	}
	var delays []time.Duration
	r := newRecordingRetryFetcher(f, 3, &delays)

	_, err := r.Fetch(context.Background(), "https://example.com")

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fe.Kind != KindFatal {
		t.Errorf("Kind = %v; want fatal", fe.Kind)
	}
	if fe.Attempts != 1 {
		t.Errorf("Attempts = %d; want 1", fe.Attempts)
	}
	if len(delays) != 0 {
		t.Errorf("fatal failure must not back off, slept %v", delays)
	}
	if f.calls != 1 {
		t.Errorf("underlying fetcher called %d times; want 1", f.calls)
	}
}

func TestRetryRecoversAfterTransient(t *testing.T) {
	f := &scriptedFetcher{
		responses: []string{"", goodPage},
		errs:      []error{&StatusError{Code: 429}, nil},
	}
	var delays []time.Duration
	r := newRecordingRetryFetcher(f, 3, &delays)

	body, err := r.Fetch(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != goodPage {
		t.Errorf("unexpected body %q", body)
	}
	if len(delays) != 1 || delays[0] != 2*time.Second {
		t.Errorf("expected a single 2s delay, got %v", delays)
	}
}

func TestRetryTreatsChallengePageAsTransient(t *testing.T) {
	challenge := "<html><body><h1>Pardon Our Interruption</h1></body></html>"
	f := &scriptedFetcher{
		responses: []string{challenge, goodPage},
		errs:      []error{nil, nil},
	}
	var delays []time.Duration
	r := newRecordingRetryFetcher(f, 3, &delays)

	body, err := r.Fetch(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("challenge page should be retried, got %v", err)
	}
	if body != goodPage {
		t.Errorf("unexpected body %q", body)
	}
	if f.calls != 2 {
		t.Errorf("underlying fetcher called %d times; want 2", f.calls)
	}
}

func TestRetryStopsOnCanceledBackoff(t *testing.T) {
	f := &scriptedFetcher{
		responses: []string{""},
		errs:      []error{&StatusError{Code: 500}},
	}
	r := NewRetryFetcher(f, 3, 2*time.Second, utils.NewLogger())
	r.sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	_, err := r.Fetch(context.Background(), "https://example.com")

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fe.Attempts != 1 {
		t.Errorf("Attempts = %d; want 1 (no new attempt after shutdown)", fe.Attempts)
	}
	if f.calls != 1 {
		t.Errorf("underlying fetcher called %d times; want 1", f.calls)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailKind
	}{
		{"429", &StatusError{Code: 429}, KindTransient},
		{"500", &StatusError{Code: 500}, KindTransient},
		{"503", &StatusError{Code: 503}, KindTransient},
		{"404", &StatusError{Code: 404}, KindFatal},
		{"403", &StatusError{Code: 403}, KindFatal},
		{"bad url", ErrBadURL, KindFatal},
		{"challenge", ErrChallengePage, KindTransient},
		{"timeout", errors.New("context deadline exceeded"), KindTransient},
	}
	for _, tt := range tests {
		if got := classify(tt.err); got != tt.want {
			t.Errorf("classify(%s) = %v; want %v", tt.name, got, tt.want)
		}
	}
}

func TestHTTPFetcher(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/blocked" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(goodPage))
	}))
	defer ts.Close()

	f := NewHTTPFetcher(5*time.Second, 1000)

	body, err := f.Fetch(context.Background(), ts.URL+"/results")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != goodPage {
		t.Errorf("unexpected body %q", body)
	}

	_, err = f.Fetch(context.Background(), ts.URL+"/blocked")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Errorf("expected StatusError 503, got %v", err)
	}

	_, err = f.Fetch(context.Background(), "not a url")
	if !errors.Is(err, ErrBadURL) {
		t.Errorf("expected ErrBadURL, got %v", err)
	}
}

func TestInFlightAttemptFinishesAfterShutdown(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(150 * time.Millisecond)
		w.Write([]byte(goodPage))
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		time.Sleep(25 * time.Millisecond)
		cancel()
	}()

	r := NewRetryFetcher(NewHTTPFetcher(5*time.Second, 1000), 3, 2*time.Second, utils.NewLogger())

	body, err := r.Fetch(ctx, ts.URL)
	if err != nil {
		t.Fatalf("attempt already in flight must finish after shutdown, got %v", err)
	}
	if body != goodPage {
		t.Errorf("unexpected body %q", body)
	}
}

func TestHTTPFetcherCanceledBeforeStart(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request must be issued on a canceled context")
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewHTTPFetcher(5*time.Second, 1000).Fetch(ctx, ts.URL); err == nil {
		t.Fatal("expected an error before the attempt starts")
	}
}
