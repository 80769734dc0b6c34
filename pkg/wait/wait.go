package wait

import (
	"fmt"
	"time"
)

const (
	// DefaultRetries is the retry budget to use if one is not provided.
	// A budget of N retries allows N+1 evaluations of the condition in total.
	DefaultRetries = 20
	// DefaultDelay is the fixed delay between attempts to use if one is not provided
	DefaultDelay = 15 * time.Second
)

// WaitCondition is a function performing a condition check for if we need to keep waiting
type WaitCondition func() (done bool, err error)

// TimeoutError is returned when a condition did not converge within its retry budget
type TimeoutError struct {
	Description string
	Attempts    int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout waiting for %s after %d attempts", e.Description, e.Attempts)
}

// Options are the options available when waiting
type Options struct {
	Description string
	Retries     int
	Delay       time.Duration
}

// Option is a function that can be optionally provided to override default options of a wait condition
type Option func(*Options)

// WithRetries overrides the default retry budget when waiting
func WithRetries(retries int) Option {
	return func(options *Options) {
		options.Retries = retries
	}
}

// WithDelay overrides the default delay between attempts when waiting
func WithDelay(delay time.Duration) Option {
	return func(options *Options) {
		options.Delay = delay
	}
}

// WithDescription sets a human-readable description of the condition being waited on,
// used in the TimeoutError when the budget is exhausted
func WithDescription(description string) Option {
	return func(options *Options) {
		options.Description = description
	}
}

// For repeatedly polls the provided WaitCondition function until either the retry budget
// is exhausted or the function returns as done.
//
// The condition is evaluated once up front plus once per retry, sleeping the fixed delay
// between attempts, so a budget of N retries results in at most N+1 evaluations. An error
// returned from the condition aborts the wait immediately.
func For(fn WaitCondition, opts ...Option) error {
	options := &Options{
		Description: "condition",
		Retries:     DefaultRetries,
		Delay:       DefaultDelay,
	}
	for _, optFn := range opts {
		optFn(options)
	}

	attempts := 0
	for {
		attempts++

		done, err := fn()
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		if attempts > options.Retries {
			return &TimeoutError{Description: options.Description, Attempts: attempts}
		}

		time.Sleep(options.Delay)
	}
}
