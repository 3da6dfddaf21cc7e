// Package logging provides slog loggers with a level per module.
//
// Call [Initialize] once the configuration is known, then ask for loggers
// by module name:
//
//	logging.Initialize(logging.Config{
//		Level:   "info",
//		Format:  "text",
//		Modules: map[string]string{"led": "debug", "nats": "warn"},
//	})
//	logger := logging.GetLogger("led").With("device", "/dev/spidev0.1")
//	logger.Info("Strip opened", "leds", 11)
//
// Loggers may be taken before Initialize (package-level vars do this).
// They start at info on stdout and follow later configuration without
// being replaced. [SetModuleLevel] changes one module at runtime and is
// what the config watcher calls on reload.
//
// Modules used by stripnode: main, led, ws2812, nats, config, metrics.
//
// # Output
//
// Records go to the console writer ([Config.Output], stdout when nil) and
// to the systemd journal when [journal.Enabled] reports it reachable.
// With both present a [MultiHandler] fans out to each. The journal handler
// upper-cases attribute keys so structured fields can be filtered:
//
//	journalctl -t stripnode -f
//	journalctl -t stripnode MODULE=led -p warning
//	journalctl -t stripnode DEVICE=/dev/spidev0.1
//
// # Configuration
//
// The [logging] table of the config file holds the global level and
// format; every other key is a module level:
//
//	[logging]
//	level = "info"
//	format = "json"
//	led = "debug"
//	nats = "warn"
//
// Levels are debug, info, warn (or warning) and error, case-insensitive.
// An unknown module level falls back to the global one.
//
// [journal.Enabled]: https://pkg.go.dev/github.com/coreos/go-systemd/v22/journal#Enabled
package logging
