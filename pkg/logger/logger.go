package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log = zap.NewNop()

type options struct {
	encoding string
	service  string
	outputs  []string
}

type Option func(*options)

// WithConsoleEncoding switches to zap's human readable encoder, used by the
// command line tools.
func WithConsoleEncoding() Option {
	return func(o *options) { o.encoding = "console" }
}

func WithService(name string) Option {
	return func(o *options) { o.service = name }
}

func WithOutputPaths(paths ...string) Option {
	return func(o *options) { o.outputs = paths }
}

func Initialize(logLevel string, opts ...Option) error {
	zLevel, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return err
	}

	o := options{
		encoding: "json",
		service:  "openclique-quests",
		outputs:  []string{"stderr"},
	}
	for _, opt := range opts {
		opt(&o)
	}

	config := zap.Config{
		Encoding:         o.encoding,
		Level:            zap.NewAtomicLevelAt(zLevel),
		OutputPaths:      o.outputs,
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:   "message",
			LevelKey:     "level",
			TimeKey:      "time",
			NameKey:      "logger",
			CallerKey:    "caller",
			EncodeLevel:  zapcore.LowercaseLevelEncoder,
			EncodeTime:   zapcore.ISO8601TimeEncoder,
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}

	built, err := config.Build(zap.Fields(zap.String("service", o.service)))
	if err != nil {
		return err
	}
	log = built

	return nil
}

// Logger returns the process logger. Before Initialize it is a no-op logger.
func Logger() *zap.Logger {
	return log
}

func Sync() error {
	return log.Sync()
}
