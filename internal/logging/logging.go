// Package logging builds the application logger. The terminal UI owns
// stdout, so log lines go to a JSON file.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rebeliceyang/lazyreport/internal/config"
	"github.com/sirupsen/logrus"
)

// New opens cfg.Path for appending and returns a JSON logger writing to it.
// A relative path is resolved against dir. The returned closer closes the file.
func New(cfg config.LogConfig, dir string) (*logrus.Logger, io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "log level %q", cfg.Level)
	}

	path := cfg.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, errors.Wrap(err, "create log directory")
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open log file")
	}

	log := logrus.New()
	log.SetOutput(file)
	log.SetLevel(level)
	log.SetFormatter(&logrus.JSONFormatter{})
	return log, file, nil
}

// Discard returns a logger that drops everything, for tests and fallbacks
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return log
}
