// Package asset loads values on worker goroutines and hands them to a World
// through its command queue. Loaders never touch live entity state; the main
// loop applies the results with World.Flush.
package asset

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/edwinsyarief/borrowecs"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Job produces a command to run on the main line. A nil command is allowed
// and simply skipped.
type Job struct {
	Name string
	Load func(ctx context.Context) (borrowecs.Command, error)
}

// Component builds a job that loads a T value and inserts it on target.
func Component[T any](name string, target borrowecs.EntityID, load func(ctx context.Context) (T, error)) Job {
	return Job{
		Name: name,
		Load: func(ctx context.Context) (borrowecs.Command, error) {
			v, err := load(ctx)
			if err != nil {
				return nil, err
			}
			return borrowecs.InsertCommand(target, v), nil
		},
	}
}

// Resource builds a job that loads a T value and stores it as a resource.
func Resource[T any](name string, load func(ctx context.Context) (T, error)) Job {
	return Job{
		Name: name,
		Load: func(ctx context.Context) (borrowecs.Command, error) {
			v, err := load(ctx)
			if err != nil {
				return nil, err
			}
			return borrowecs.SetResourceCommand(v), nil
		},
	}
}

// File builds a job that reads path, decodes it and inserts the result on
// target.
func File[T any](target borrowecs.EntityID, path string, decode func([]byte) (T, error)) Job {
	return Component(path, target, func(ctx context.Context) (T, error) {
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return zero, fmt.Errorf("read %s: %w", path, err)
		}
		v, err := decode(data)
		if err != nil {
			return zero, fmt.Errorf("decode %s: %w", path, err)
		}
		return v, nil
	})
}

// Loader runs jobs with bounded concurrency.
type Loader struct {
	commands *borrowecs.Commands
	logger   zerolog.Logger
	limit    int
}

// Option configures a Loader.
type Option func(*Loader)

// WithConcurrency caps the number of jobs running at once. Values below one
// are ignored.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.limit = n
		}
	}
}

// WithLogger sets the logger used to report job outcomes.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader creates a Loader feeding commands. By default it runs up to
// GOMAXPROCS jobs at once and logs through the world's logger.
func NewLoader(w *borrowecs.World, opts ...Option) *Loader {
	l := &Loader{
		commands: w.Commands(),
		logger:   *w.Logger(),
		limit:    runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load runs jobs and queues their commands as each one finishes. It returns
// the first error; the remaining jobs see a cancelled context. Commands from
// jobs that succeeded stay queued.
func (l *Loader) Load(ctx context.Context, jobs ...Job) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.limit)
	for _, job := range jobs {
		g.Go(func() error {
			cmd, err := job.Load(ctx)
			if err != nil {
				l.logger.Warn().Err(err).Str("job", job.Name).Msg("asset load failed")
				return fmt.Errorf("load %s: %w", job.Name, err)
			}
			if cmd != nil {
				l.commands.Push(cmd)
			}
			l.logger.Debug().Str("job", job.Name).Msg("asset loaded")
			return nil
		})
	}
	return g.Wait()
}
