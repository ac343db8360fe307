package builder

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/RIZZZIOM/TinyFlaw/catalog"
	"github.com/RIZZZIOM/TinyFlaw/config"
	"github.com/RIZZZIOM/TinyFlaw/dataset"
	"github.com/RIZZZIOM/TinyFlaw/logger"
	"github.com/RIZZZIOM/TinyFlaw/metrics"
	"github.com/RIZZZIOM/TinyFlaw/modules"
	"github.com/RIZZZIOM/TinyFlaw/server"
	"github.com/RIZZZIOM/TinyFlaw/sinks"
)

// Builder constructs the server from configuration
type Builder struct {
	config  *config.Config
	logger  *logger.Logger
	sinks   *SinkManager
	dataset *dataset.Dataset
	metrics *metrics.Metrics
}

// SinkManager holds all initialized sinks
type SinkManager struct {
	sqlite     *sinks.SQLite
	filesystem *sinks.Filesystem
	command    *sinks.Command
	httpSink   *sinks.HTTP
	script     *sinks.Script

	opened []openedSink
}

type openedSink struct {
	kind sinks.SinkType
	sink sinks.Sink
}

// New creates a new builder for the given configuration
func New(cfg *config.Config, log *logger.Logger) *Builder {
	if log == nil {
		log = logger.NewNop()
	}

	return &Builder{
		config: cfg,
		logger: log,
		sinks:  &SinkManager{},
	}
}

// Build initializes all sinks, seeds the store and returns a configured server
func (b *Builder) Build() (*server.Server, error) {
	if err := b.initializeSinks(); err != nil {
		return nil, fmt.Errorf("failed to initialize sinks: %w", err)
	}

	ds, err := dataset.Load(b.config.Data.UsersFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	b.dataset = ds

	if err := b.sinks.sqlite.SeedUsers(ds.Users()); err != nil {
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}
	b.logger.Debug("seeded users table", zap.Int("rows", len(ds.Users())))

	routes, err := modules.DefaultRoutes()
	if err != nil {
		return nil, err
	}
	paths := modules.PathRoutes()

	sinkCtx := b.createSinkContext()
	if err := checkSinks(modules.List(), sinkCtx); err != nil {
		return nil, err
	}

	if b.config.Metrics.Enabled {
		b.metrics = metrics.NewMetrics()
	}

	page := modules.NewPage(b.config.App.Name, b.config.App.Version)
	cat := catalog.New(b.BaseURL())

	router := server.NewRouter(server.RouterConfig{
		Routes:   routes,
		Paths:    paths,
		Composer: server.NewComposer(page, cat, b.config.Features.XML),
		Page:     page,
		Dataset:  ds,
		Sinks:    sinkCtx,
		Options: modules.Options{
			XML:           b.config.Features.XML,
			LookupCommand: b.config.Sinks.LookupCommand,
		},
		Logger:  b.logger,
		Metrics: b.metrics,
	})

	b.logger.Info("registered handlers",
		zap.Strings("keys", routes.Keys()),
		zap.Int("paths", len(paths)),
		zap.Bool("xml", b.config.Features.XML),
	)

	return server.New(b.config.App.Host, b.config.App.Port, router, b.logger), nil
}

// BaseURL returns the address the service is reachable at
func (b *Builder) BaseURL() string {
	return "http://" + net.JoinHostPort(b.config.App.Host, fmt.Sprint(b.config.App.Port))
}

// MetricsServer returns the HTTP server exposing /metrics, or nil when metrics are disabled.
// It must be called after Build.
func (b *Builder) MetricsServer() *http.Server {
	if b.metrics == nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", b.metrics.Handler())

	return &http.Server{
		Addr:              b.config.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: server.ReadHeaderTimeout,
	}
}

// Dataset returns the loaded seed data, nil before Build
func (b *Builder) Dataset() *dataset.Dataset {
	return b.dataset
}

// initializeSinks creates every sink; all handlers are always registered
func (b *Builder) initializeSinks() error {
	var err error

	b.sinks.sqlite, err = sinks.NewSQLite()
	if err != nil {
		return fmt.Errorf("failed to create SQLite sink: %w", err)
	}
	b.track(sinks.SinkTypeSQLite, b.sinks.sqlite, zap.String("database", ":memory:"))

	if b.config.App.DocumentRoot != "" {
		b.sinks.filesystem, err = sinks.NewFilesystemWithPath(b.config.App.DocumentRoot)
	} else {
		b.sinks.filesystem, err = sinks.NewFilesystem()
	}
	if err != nil {
		return fmt.Errorf("failed to create filesystem sink: %w", err)
	}
	b.track(sinks.SinkTypeFilesystem, b.sinks.filesystem, zap.String("document_root", b.sinks.filesystem.BasePath()))

	b.sinks.command = sinks.NewCommandWithShell(b.config.Sinks.Shell)
	b.track(sinks.SinkTypeCommand, b.sinks.command, zap.String("shell", b.sinks.command.Shell()))

	b.sinks.httpSink = sinks.NewHTTP()
	b.sinks.httpSink.SetUserAgent(b.config.Sinks.UserAgent)
	b.track(sinks.SinkTypeHTTP, b.sinks.httpSink)

	b.sinks.script = sinks.NewScript(b.sinks.command)
	b.track(sinks.SinkTypeScript, b.sinks.script)

	return nil
}

// track records an opened sink for Close and logs it
func (b *Builder) track(kind sinks.SinkType, sink sinks.Sink, fields ...zap.Field) {
	b.sinks.opened = append(b.sinks.opened, openedSink{kind: kind, sink: sink})
	b.logger.Debug("initialized sink", append([]zap.Field{zap.String("sink", string(kind))}, fields...)...)
}

// createSinkContext creates the sink context for modules
func (b *Builder) createSinkContext() *modules.SinkContext {
	ctx := &modules.SinkContext{}

	if b.sinks.sqlite != nil {
		ctx.SQLite = &sqliteSinkAdapter{b.sinks.sqlite}
	}

	if b.sinks.filesystem != nil {
		ctx.Filesystem = b.sinks.filesystem
	}

	if b.sinks.command != nil {
		ctx.Command = b.sinks.command
	}

	if b.sinks.httpSink != nil {
		ctx.HTTP = &httpSinkAdapter{b.sinks.httpSink}
	}

	if b.sinks.script != nil {
		ctx.Script = b.sinks.script
	}

	return ctx
}

// checkSinks verifies that every module's required sink is available
func checkSinks(infos []modules.ModuleInfo, ctx *modules.SinkContext) error {
	available := map[sinks.SinkType]bool{
		sinks.SinkTypeSQLite:     ctx.SQLite != nil,
		sinks.SinkTypeFilesystem: ctx.Filesystem != nil,
		sinks.SinkTypeCommand:    ctx.Command != nil,
		sinks.SinkTypeHTTP:       ctx.HTTP != nil,
		sinks.SinkTypeScript:     ctx.Script != nil,
	}

	for _, info := range infos {
		if info.RequiresSink == "" {
			continue
		}
		if !available[sinks.SinkType(info.RequiresSink)] {
			return fmt.Errorf("module '%s' requires the %s sink", info.Name, info.RequiresSink)
		}
	}
	return nil
}

// Close releases all sink resources
func (b *Builder) Close() error {
	var errs []string

	for _, s := range b.sinks.opened {
		if err := s.sink.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", s.kind, err))
		}
	}
	b.sinks.opened = nil

	if len(errs) > 0 {
		return errors.New("errors closing sinks: " + strings.Join(errs, "; "))
	}

	return nil
}

// Sink adapters to implement the module interfaces

type sqliteSinkAdapter struct {
	sink *sinks.SQLite
}

func (a *sqliteSinkAdapter) Query(query string) (*modules.Rows, error) {
	rows, err := a.sink.Query(query)
	if err != nil {
		return nil, err
	}
	return &modules.Rows{Columns: rows.Columns, Values: rows.Values}, nil
}

func (a *sqliteSinkAdapter) Exec(statement string) error {
	return a.sink.Exec(statement)
}

type httpSinkAdapter struct {
	sink *sinks.HTTP
}

func (a *httpSinkAdapter) Fetch(url string) (*modules.HTTPResponse, error) {
	resp, err := a.sink.Fetch(url)
	if err != nil {
		return nil, err
	}
	return &modules.HTTPResponse{
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
	}, nil
}
