package config

import (
	"fmt"
	"io"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
)

// ParseLevel parses a log level name.
func ParseLevel(s string) (log.Level, error) {
	l, err := log.ParseLevel(s)
	if err != nil {
		return log.InvalidLevel, fmt.Errorf("log.level %q: %w", s, err)
	}
	return l, nil
}

// NewLogger returns a logger writing to w in the configured format and level.
func (c LogConfig) NewLogger(w io.Writer) (*log.Logger, error) {
	level, err := ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}

	var h log.Handler
	switch c.Format {
	case "", "text":
		h = text.New(w)
	case "json":
		h = json.New(w)
	default:
		return nil, fmt.Errorf("log.format %q must be text or json", c.Format)
	}

	return &log.Logger{Handler: h, Level: level}, nil
}

// Install makes the configured handler and level the package-level default of
// apex/log.
func (c LogConfig) Install(w io.Writer) error {
	l, err := c.NewLogger(w)
	if err != nil {
		return err
	}
	log.SetHandler(l.Handler)
	log.SetLevel(l.Level)
	return nil
}
