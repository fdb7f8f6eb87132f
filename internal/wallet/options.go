package wallet

import (
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultCallTimeout bounds a single gateway call.
	DefaultCallTimeout = 15 * time.Second
	// DefaultDedupeWindow is how long an identical faucet request is answered from the previous result.
	DefaultDedupeWindow = time.Minute
)

// Options collects the optional parameters shared by the wallet components.
type Options struct {
	CallTimeout  time.Duration
	DedupeWindow time.Duration
	Clock        func() time.Time
	NewID        func() string
	Journal      FundingJournal
}

// Option is a function that configures Options.
type Option func(options *Options)

// WithCallTimeout sets the timeout applied to every gateway call. Zero disables it.
func WithCallTimeout(timeout time.Duration) Option {
	return func(options *Options) {
		options.CallTimeout = timeout
	}
}

// WithDedupeWindow sets the faucet request deduplication window. Zero disables deduplication.
func WithDedupeWindow(window time.Duration) Option {
	return func(options *Options) {
		options.DedupeWindow = window
	}
}

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(options *Options) {
		options.Clock = clock
	}
}

// WithIDGenerator replaces the generator of local transaction ids.
func WithIDGenerator(newID func() string) Option {
	return func(options *Options) {
		options.NewID = newID
	}
}

// WithFundingJournal keeps faucet results in j so the dedupe window also covers requests made by
// an earlier process.
func WithFundingJournal(j FundingJournal) Option {
	return func(options *Options) {
		options.Journal = j
	}
}

func buildOptions(opts ...Option) *Options {
	result := &Options{
		CallTimeout:  DefaultCallTimeout,
		DedupeWindow: DefaultDedupeWindow,
		Clock:        time.Now,
		NewID:        func() string { return "local-" + uuid.NewString() },
	}
	for _, option := range opts {
		option(result)
	}
	return result
}
