package log

import (
	"io"
	stdlog "log"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration.
type Config struct {
	Level       string `mapstructure:"level"`
	Pretty      bool   `mapstructure:"pretty"`
	ServiceName string `mapstructure:"service_name"`

	// File additionally writes JSON lines to a rotated file when Path is set.
	File FileConfig `mapstructure:"file"`

	// Output overrides stdout. Left nil outside of tests.
	Output io.Writer `mapstructure:"-"`
}

// FileConfig controls log file rotation.
type FileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

var (
	mu      sync.RWMutex
	global  = zerolog.New(os.Stdout).With().Timestamp().Logger()
	once    sync.Once
	logFile io.Closer
)

// New creates a configured zerolog.Logger.
func New(cfg Config) zerolog.Logger {
	l, _ := build(cfg)
	return l
}

func build(cfg Config) (zerolog.Logger, io.Closer) {
	var out io.Writer = cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	var closer io.Closer
	if cfg.File.Path != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		}
		out = zerolog.MultiLevelWriter(out, file)
		closer = file
	}

	ctx := zerolog.New(out).Level(ParseLevel(cfg.Level)).With().Timestamp()
	if cfg.ServiceName != "" {
		ctx = ctx.Str(FieldService, cfg.ServiceName)
	}
	return ctx.Logger(), closer
}

// Init initialises the global logger once per process and routes the
// standard library logger (used by gorm and net/http) through it.
func Init(cfg Config) {
	once.Do(func() {
		l, closer := build(cfg)

		mu.Lock()
		global = l
		logFile = closer
		mu.Unlock()

		stdlog.SetFlags(0)
		stdlog.SetOutput(l.With().Str("source", "stdlog").Logger())
	})
}

// Close releases the log file opened by Init, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// L returns the global logger.
func L() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
