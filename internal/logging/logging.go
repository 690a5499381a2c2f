package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"arcade-seats/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	writerMu sync.RWMutex
	writer   io.Writer = os.Stdout
	file     *sizeLimitedWriter
)

// Init configures the global zerolog logger. When cfg.File is set, output is
// teed into a size-capped file next to stdout.
func Init(cfg config.LogConfig) {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var out io.Writer = os.Stdout
	var fileErr error
	var fw *sizeLimitedWriter
	if path := strings.TrimSpace(cfg.File); path != "" {
		fw, fileErr = newSizeLimitedWriter(path, cfg.MaxMB)
		if fileErr == nil {
			out = io.MultiWriter(os.Stdout, fw)
		}
	}
	swapWriter(out, fw)

	var console io.Writer = out
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{Out: out}
	}

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(console).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
	if fileErr != nil {
		log.Warn().Err(fileErr).Str("path", cfg.File).Msg("log file unavailable; logging to stdout only")
	}
}

// Writer returns the raw sink the global logger writes to.
func Writer() io.Writer {
	writerMu.RLock()
	defer writerMu.RUnlock()
	return writer
}

// Close releases the log file, if any.
func Close() error {
	writerMu.Lock()
	defer writerMu.Unlock()
	writer = os.Stdout
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

func swapWriter(out io.Writer, fw *sizeLimitedWriter) {
	writerMu.Lock()
	defer writerMu.Unlock()
	if file != nil && file != fw {
		_ = file.Close()
	}
	writer = out
	file = fw
}
