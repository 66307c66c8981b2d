package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	applogger "ApexPick/pkg/logger"
)

// Component is a long-running part of the application: the HTTP server,
// the Kafka consumer, the prewarm scheduler.
type Component interface {
	Start() error
	Stop(ctx context.Context) error
}

// Named pairs a component with the name used in logs.
type Named struct {
	Name      string
	Component Component
}

// Resource is closed after every component has stopped.
type Resource struct {
	Name   string
	Closer io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	log             *applogger.Logger
	components      []Named
	resources       []Resource
	errs            <-chan error
	shutdownTimeout time.Duration
}

// Option configures App.
type Option func(*App)

// WithComponent appends a component. Components start in the order given and
// stop in reverse.
func WithComponent(name string, c Component) Option {
	return func(a *App) {
		if c != nil {
			a.components = append(a.components, Named{Name: name, Component: c})
		}
	}
}

// WithResource appends a resource to close on shutdown, in order.
func WithResource(name string, c io.Closer) Option {
	return func(a *App) {
		if c != nil {
			a.resources = append(a.resources, Resource{Name: name, Closer: c})
		}
	}
}

// WithFatalErrors stops the app when errs yields, e.g. a listener failure.
func WithFatalErrors(errs <-chan error) Option {
	return func(a *App) { a.errs = errs }
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(a *App) { a.shutdownTimeout = d }
}

// New creates a new App instance with all dependencies.
func New(l *applogger.Logger, opts ...Option) *App {
	if l == nil {
		l = applogger.Nop()
	}
	a := &App{log: l, shutdownTimeout: 10 * time.Second}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and blocks until ctx is done or a fatal
// error arrives. A component that fails to start stops the ones already
// running.
func (a *App) RunContext(ctx context.Context) error {
	started := 0
	var runErr error
	for _, n := range a.components {
		if err := n.Component.Start(); err != nil {
			runErr = fmt.Errorf("start %s: %w", n.Name, err)
			a.log.Error("component start error", applogger.String("component", n.Name), applogger.Error(err))
			break
		}
		a.log.Info("component started", applogger.String("component", n.Name))
		started++
	}

	if runErr == nil {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
		case err := <-a.errs:
			runErr = err
			a.log.Error("fatal component error", applogger.Error(err))
		}
	}

	if err := a.shutdown(started); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// shutdown stops the first n components in reverse order and then closes
// resources.
func (a *App) shutdown(n int) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	a.log.Info("shutting down...")
	var errs []error
	for i := n - 1; i >= 0; i-- {
		c := a.components[i]
		if err := c.Component.Stop(ctx); err != nil {
			a.log.Warn("component stop error", applogger.String("component", c.Name), applogger.Error(err))
			errs = append(errs, fmt.Errorf("stop %s: %w", c.Name, err))
		}
	}
	for _, r := range a.resources {
		if err := r.Closer.Close(); err != nil {
			a.log.Warn("resource close error", applogger.String("resource", r.Name), applogger.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", r.Name, err))
		}
	}
	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
