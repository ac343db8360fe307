package logger

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // "json" or "console"

	// RequestLog is a JSON lines file receiving one entry per request (empty disables it)
	RequestLog string

	// Output receives application logs (defaults to stderr)
	Output io.Writer
}

// Request describes a finished request for the request log
type Request struct {
	ID            string
	Handler       string
	StatusCode    int
	Duration      time.Duration
	ContentLength int64
	// Params are the query parameters as the router decoded them
	Params map[string]string
}

// Logger is the application logger plus an optional request log file
type Logger struct {
	*zap.Logger
	requests *zap.Logger
	file     *os.File
	filePath string
}

// New creates a logger from configuration.
// If the request log directory doesn't exist, it will be created.
func New(cfg Config) (*Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level '%s': %w", cfg.Level, err)
		}
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	l := &Logger{
		Logger:   zap.New(zapcore.NewCore(encoder, zapcore.AddSync(output), level)),
		requests: zap.NewNop(),
	}

	if cfg.RequestLog != "" {
		if err := l.openRequestLog(cfg.RequestLog); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// NewNop creates a logger that discards everything
func NewNop() *Logger {
	return &Logger{
		Logger:   zap.NewNop(),
		requests: zap.NewNop(),
	}
}

func (l *Logger) openRequestLog(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		MessageKey:     zapcore.OmitKey,
		LevelKey:       zapcore.OmitKey,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.Lock(file), zapcore.InfoLevel)

	l.requests = zap.New(core)
	l.file = file
	l.filePath = path
	return nil
}

// LogRequest writes an access log line and, when enabled, a request log entry
func (l *Logger) LogRequest(r *http.Request, req Request) {
	l.Info("request",
		zap.String("request_id", req.ID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("handler", req.Handler),
		zap.Int("status", req.StatusCode),
		zap.Duration("duration", req.Duration),
		zap.Int64("bytes", req.ContentLength),
	)

	queryParams := req.Params
	if queryParams == nil {
		queryParams = map[string]string{}
	}

	headers := make(map[string]string)
	for key, values := range r.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	l.requests.Info("",
		zap.String("request_id", req.ID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Any("query_params", queryParams),
		zap.Any("headers", headers),
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("handler", req.Handler),
		zap.Int("status_code", req.StatusCode),
		zap.Duration("response_time", req.Duration),
		zap.Int64("content_length", req.ContentLength),
	)
}

// Close flushes the loggers and closes the request log file
func (l *Logger) Close() error {
	_ = l.Logger.Sync()
	if l.file == nil {
		return nil
	}
	_ = l.requests.Sync()
	return l.file.Close()
}

// FilePath returns the path to the request log file
func (l *Logger) FilePath() string {
	return l.filePath
}
