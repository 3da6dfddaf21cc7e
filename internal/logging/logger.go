package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// moduleLogger is the registry entry behind GetLogger. The logger pointer
// never changes; Initialize retargets handler and sets level.
type moduleLogger struct {
	logger  *slog.Logger
	level   *slog.LevelVar
	handler *swapHandler
}

var (
	modules        = make(map[string]*moduleLogger)
	globalConfig   Config
	globalLevelVar = &slog.LevelVar{}
	isInitialized  bool
	mutex          sync.RWMutex
)

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`

	// Output receives console logs. Nil means stdout. Subcommands that
	// print results on stdout point this at stderr.
	Output io.Writer `toml:"-"`
}

func (c Config) output() io.Writer {
	if c.Output == nil {
		return os.Stdout
	}
	return c.Output
}

// levelFor resolves the effective level of a module: its own override if
// valid, else the global level, else info.
func (c Config) levelFor(module string) slog.Level {
	if s, ok := c.Modules[module]; ok {
		if l, valid := parseLevel(s); valid {
			return l
		}
	}
	if l, valid := parseLevel(c.Level); valid {
		return l
	}
	return slog.LevelInfo
}

// Initialize sets up the logging system. Loggers handed out earlier keep
// their identity and switch to the new levels, format and outputs.
func Initialize(config Config) {
	mutex.Lock()
	defer mutex.Unlock()

	globalConfig = config
	isInitialized = true
	globalLevelVar.Set(config.levelFor(""))

	for name, m := range modules {
		m.level.Set(config.levelFor(name))
		m.handler.swap(createHandler(config, m.level))
	}

	slog.SetDefault(slog.New(createHandler(config, globalLevelVar)))
}

// SetModuleLevel changes the level of a module logger at runtime.
// Returns false if the level string is not recognized.
func SetModuleLevel(module, level string) bool {
	parsed, ok := parseLevel(level)
	if !ok {
		return false
	}

	mutex.Lock()
	defer mutex.Unlock()

	if globalConfig.Modules == nil {
		globalConfig.Modules = make(map[string]string)
	}
	globalConfig.Modules[module] = level
	if m, exists := modules[module]; exists {
		m.level.Set(parsed)
	}
	return true
}

// GetLogger returns a logger for the specified module, creating it if needed.
// The same pointer is returned for the life of the process.
func GetLogger(module string) *slog.Logger {
	mutex.RLock()
	m, exists := modules[module]
	mutex.RUnlock()
	if exists {
		return m.logger
	}

	mutex.Lock()
	defer mutex.Unlock()

	// Another goroutine may have won the race
	if m, exists := modules[module]; exists {
		return m.logger
	}

	cfg := globalConfig
	if !isInitialized {
		cfg = Config{Format: "text"}
	}

	level := &slog.LevelVar{}
	level.Set(cfg.levelFor(module))
	handler := newSwapHandler(createHandler(cfg, level))

	m = &moduleLogger{
		logger:  slog.New(handler).With("module", module),
		level:   level,
		handler: handler,
	}
	modules[module] = m
	return m.logger
}

// createHandler builds the console handler for cfg and adds the journal
// when it is reachable. The console is dropped only when it goes nowhere
// and the journal can take over.
func createHandler(cfg Config, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	out := cfg.output()

	var console slog.Handler
	if cfg.Format == "json" {
		console = slog.NewJSONHandler(out, opts)
	} else {
		console = slog.NewTextHandler(out, opts)
	}

	if !IsJournalAvailable() {
		return console
	}
	journal := NewJournalHandler(level)
	if !isWriterAvailable(out) {
		return journal
	}
	return NewMultiHandler(console, journal)
}

// isWriterAvailable reports whether w reaches a terminal, pipe, socket or
// file. Writers that are not files always count as available.
func isWriterAvailable(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return true
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return (mode&os.ModeCharDevice) != 0 || (mode&os.ModeNamedPipe) != 0 || (mode&os.ModeSocket) != 0 || mode.IsRegular()
}

// parseLevel converts a level name to slog.Level.
func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}
