package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// ComponentAwareLogger can derive a child logger scoped to a component.
// All entries from the child carry the component name.
type ComponentAwareLogger interface {
	Logger
	WithComponent(component string) Logger
}

type logLevel int

const (
	levelDebug logLevel = iota
	levelInfo
	levelWarn
	levelError
)

func parseLevel(s string) logLevel {
	switch strings.ToLower(s) {
	case "debug":
		return levelDebug
	case "warn", "warning":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// ProductionLogger writes structured log entries in JSON (default) or
// human-readable text. Safe for concurrent use.
type ProductionLogger struct {
	mu          sync.Mutex
	out         io.Writer
	level       logLevel
	format      string
	timeFormat  string
	serviceName string
	component   string
}

// NewProductionLogger creates a logger from logging and development config.
// Development mode with pretty logs switches to text output and debug level.
func NewProductionLogger(cfg LoggingConfig, dev DevelopmentConfig, serviceName string) Logger {
	level := parseLevel(cfg.Level)
	format := cfg.Format
	if format == "" {
		format = "json"
	}
	if dev.Enabled {
		if dev.DebugLogging {
			level = levelDebug
		}
		if dev.PrettyLogs {
			format = "text"
		}
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	var out io.Writer = os.Stdout
	if cfg.Output == "stderr" {
		out = os.Stderr
	}

	return &ProductionLogger{
		out:         out,
		level:       level,
		format:      format,
		timeFormat:  timeFormat,
		serviceName: serviceName,
	}
}

// SetOutput redirects log output. Intended for tests.
func (l *ProductionLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

// WithComponent returns a new logger whose entries carry the component name.
// Configuration is shared with the parent.
func (l *ProductionLogger) WithComponent(component string) Logger {
	return &ProductionLogger{
		out:         l.out,
		level:       l.level,
		format:      l.format,
		timeFormat:  l.timeFormat,
		serviceName: l.serviceName,
		component:   component,
	}
}

func (l *ProductionLogger) Debug(msg string, fields map[string]interface{}) {
	l.log(levelDebug, "DEBUG", msg, fields)
}

func (l *ProductionLogger) Info(msg string, fields map[string]interface{}) {
	l.log(levelInfo, "INFO", msg, fields)
}

func (l *ProductionLogger) Warn(msg string, fields map[string]interface{}) {
	l.log(levelWarn, "WARN", msg, fields)
}

func (l *ProductionLogger) Error(msg string, fields map[string]interface{}) {
	l.log(levelError, "ERROR", msg, fields)
}

func (l *ProductionLogger) log(level logLevel, levelName, msg string, fields map[string]interface{}) {
	if level < l.level {
		return
	}

	now := time.Now().Format(l.timeFormat)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.format == "text" {
		var b strings.Builder
		fmt.Fprintf(&b, "%s %-5s %s", now, levelName, msg)
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
		fmt.Fprintln(l.out, b.String())
		return
	}

	entry := make(map[string]interface{}, len(fields)+5)
	for k, v := range fields {
		entry[k] = v
	}
	entry["timestamp"] = now
	entry["level"] = levelName
	entry["message"] = msg
	if l.serviceName != "" {
		entry["service"] = l.serviceName
	}
	if l.component != "" {
		entry["component"] = l.component
	}

	data, err := json.Marshal(entry)
	if err != nil {
		// Fields with unmarshalable values fall back to the message alone
		data, _ = json.Marshal(map[string]interface{}{
			"timestamp": now,
			"level":     levelName,
			"message":   msg,
		})
	}
	fmt.Fprintln(l.out, string(data))
}
