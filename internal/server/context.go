package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"google.golang.org/api/option"

	"github.com/servar-dev/servar/internal/classroom"
	"github.com/servar-dev/servar/internal/config"
	"github.com/servar-dev/servar/internal/docs"
	"github.com/servar-dev/servar/internal/drive"
	"github.com/servar-dev/servar/internal/gmail"
	"github.com/servar-dev/servar/internal/google"
	"github.com/servar-dev/servar/internal/instrumentation"
	"github.com/servar-dev/servar/internal/logging"
)

// ErrShutdown is returned by client accessors after Shutdown.
var ErrShutdown = errors.New("server context is shut down")

// ClientOptionsFunc returns the Google API client options for a provider,
// normally an authorized HTTP client.
type ClientOptionsFunc func(ctx context.Context, provider google.Provider) ([]option.ClientOption, error)

// ServerContext holds the memoized provider clients shared by all tool handlers.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	config config.Config
	logger *slog.Logger

	clientOptions ClientOptionsFunc
	handshaker    google.Handshaker
	metrics       *instrumentation.Metrics
	auditLogger   *instrumentation.AuditLogger

	mail    lazyClient[*gmail.Client]
	storage lazyClient[*drive.Client]
	courses lazyClient[*classroom.Client]

	mu       sync.RWMutex
	shutdown bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(sc *ServerContext) {
		if l != nil {
			sc.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder used by clients and tool handlers.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) {
		sc.metrics = m
	}
}

// WithAuditLogger sets the audit logger used by tool handlers.
func WithAuditLogger(a *instrumentation.AuditLogger) Option {
	return func(sc *ServerContext) {
		sc.auditLogger = a
	}
}

// WithHandshaker sets the consent flow run when a token file is missing.
// Nil disables interactive authorization.
func WithHandshaker(h google.Handshaker) Option {
	return func(sc *ServerContext) {
		sc.handshaker = h
	}
}

// WithClientOptions replaces credential acquisition. Tests use it to point
// clients at fake servers.
func WithClientOptions(f ClientOptionsFunc) Option {
	return func(sc *ServerContext) {
		sc.clientOptions = f
	}
}

// NewServerContext creates a server context. No credentials are loaded until
// a client is first requested or Warm is called.
func NewServerContext(ctx context.Context, cfg config.Config, opts ...Option) (*ServerContext, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		config: cfg,
		logger: slog.Default(),
	}
	sc.handshaker = &google.LocalServerHandshake{
		OpenBrowser: google.OpenBrowser,
		Timeout:     cfg.HandshakeTimeout,
	}

	for _, opt := range opts {
		opt(sc)
	}
	if lsh, ok := sc.handshaker.(*google.LocalServerHandshake); ok && lsh.Logger == nil {
		lsh.Logger = sc.logger
	}
	if sc.clientOptions == nil {
		sc.clientOptions = sc.acquireClientOptions
	}

	return sc, nil
}

// Context returns the server context, cancelled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the configuration the context was created with.
func (sc *ServerContext) Config() config.Config {
	return sc.config
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder, possibly nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, possibly nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// MailClient returns the Gmail client, building it on first use.
func (sc *ServerContext) MailClient(ctx context.Context) (*gmail.Client, error) {
	if sc.IsShutdown() {
		return nil, ErrShutdown
	}
	return sc.mail.get(func() (*gmail.Client, error) {
		opts, err := sc.providerOptions(ctx, google.ProviderMail)
		if err != nil {
			return nil, err
		}
		return gmail.NewClient(sc.ctx, sc.metrics, opts...)
	})
}

// StorageClient returns the Drive client, building it on first use.
func (sc *ServerContext) StorageClient(ctx context.Context) (*drive.Client, error) {
	if sc.IsShutdown() {
		return nil, ErrShutdown
	}
	return sc.storage.get(func() (*drive.Client, error) {
		opts, err := sc.providerOptions(ctx, google.ProviderStorage)
		if err != nil {
			return nil, err
		}
		return drive.NewClient(sc.ctx, drive.ClientConfig{
			MaxContentBytes: sc.config.MaxContentBytes,
			Extractor:       docs.NewPDFExtractor(),
			Metrics:         sc.metrics,
		}, opts...)
	})
}

// CourseClient returns the Classroom client, building it on first use.
func (sc *ServerContext) CourseClient(ctx context.Context) (*classroom.Client, error) {
	if sc.IsShutdown() {
		return nil, ErrShutdown
	}
	return sc.courses.get(func() (*classroom.Client, error) {
		opts, err := sc.providerOptions(ctx, google.ProviderCourses)
		if err != nil {
			return nil, err
		}
		return classroom.NewClient(sc.ctx, sc.metrics, opts...)
	})
}

// SetMailClient replaces the Gmail client.
func (sc *ServerContext) SetMailClient(c *gmail.Client) {
	sc.mail.set(c)
}

// SetStorageClient replaces the Drive client.
func (sc *ServerContext) SetStorageClient(c *drive.Client) {
	sc.storage.set(c)
}

// SetCourseClient replaces the Classroom client.
func (sc *ServerContext) SetCourseClient(c *classroom.Client) {
	sc.courses.set(c)
}

// Warm builds every provider client so that consent flows run before serving.
// It returns the joined construction errors; successful clients stay cached.
func (sc *ServerContext) Warm(ctx context.Context) error {
	var errs []error
	if _, err := sc.MailClient(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := sc.StorageClient(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := sc.CourseClient(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ProviderStatus reports which provider clients have been built.
func (sc *ServerContext) ProviderStatus() map[google.Provider]bool {
	return map[google.Provider]bool{
		google.ProviderMail:    sc.mail.isBuilt(),
		google.ProviderStorage: sc.storage.isBuilt(),
		google.ProviderCourses: sc.courses.isBuilt(),
	}
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context. It is safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}

// providerOptions resolves client options, tagging failures as AuthError.
func (sc *ServerContext) providerOptions(ctx context.Context, provider google.Provider) ([]option.ClientOption, error) {
	logger := logging.WithProvider(sc.logger, provider.String())

	opts, err := sc.clientOptions(ctx, provider)
	if err != nil {
		logger.Warn("failed to build provider client", logging.Err(err))
		var authErr *google.AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
		return nil, &google.AuthError{Provider: provider, Err: err}
	}

	logger.Debug("provider client ready")
	return opts, nil
}

func (sc *ServerContext) acquireClientOptions(ctx context.Context, provider google.Provider) ([]option.ClientOption, error) {
	credsPath, tokenPath, err := sc.config.Paths(provider.String())
	if err != nil {
		return nil, err
	}

	cred, err := google.Acquire(ctx, provider, credsPath, tokenPath,
		google.WithHandshaker(sc.handshaker),
		google.WithMetrics(sc.metrics),
		google.WithLogger(sc.logger),
	)
	if err != nil {
		return nil, err
	}

	// Refreshes run on the server context so they outlive the first tool call.
	return []option.ClientOption{
		option.WithHTTPClient(cred.HTTPClient(sc.ctx, sc.config.APITimeout)),
	}, nil
}

// lazyClient memoizes one client. Construction is serialized and a failed
// construction is retried on the next call.
type lazyClient[T any] struct {
	mu     sync.Mutex
	client T
	built  atomic.Bool
}

func (l *lazyClient[T]) get(build func() (T, error)) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.built.Load() {
		return l.client, nil
	}

	c, err := build()
	if err != nil {
		var zero T
		return zero, err
	}
	l.client = c
	l.built.Store(true)
	return c, nil
}

func (l *lazyClient[T]) set(c T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.client = c
	l.built.Store(true)
}

// isBuilt does not wait for a construction in progress.
func (l *lazyClient[T]) isBuilt() bool {
	return l.built.Load()
}
