// Package logger provides structured logging for the language server.
//
// The server speaks LSP over stdio: stdout is the JSON-RPC message stream
// and must never carry a stray log line. All logging here goes to stderr
// (or wherever the host process redirects it), and a separate sink lets the
// server façade mirror WARN+ records to the client via window/logMessage.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sink receives log records that should also reach the editor via
// window/logMessage. The server façade implements this once it has a
// live client connection; until then records are dropped.
type Sink interface {
	LogMessage(level zapcore.Level, message string)
}

var (
	// Logger is the process-wide structured logger. Safe to use before
	// Initialize: it starts as a no-op so early package init code never
	// panics on a nil logger.
	Logger *zap.SugaredLogger

	clientSink Sink
)

func init() {
	Logger = zap.NewNop().Sugar()
}

// Initialize sets up the global logger. jsonOutput selects structured JSON
// records (suitable for log aggregation) over single-line console records
// (suitable for a developer tailing the server's stderr).
func Initialize(jsonOutput bool) error {
	var core zapcore.Core

	enc := consoleEncoder()
	if jsonOutput {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	core = zapcore.NewCore(enc, zapcore.Lock(os.Stderr), zap.InfoLevel)
	core = &sinkCore{Core: core}

	Logger = zap.New(core, zap.AddCaller()).Sugar()
	return nil
}

// SetClientSink installs the window/logMessage forwarder. Called once the
// server façade has completed the initialize handshake.
func SetClientSink(sink Sink) {
	clientSink = sink
}

func consoleEncoder() zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

// sinkCore wraps a zapcore.Core and mirrors WARN-and-above entries to the
// LSP client sink, when one is installed.
type sinkCore struct {
	zapcore.Core
}

func (c *sinkCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

func (c *sinkCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if err := c.Core.Write(entry, fields); err != nil {
		return err
	}
	if clientSink != nil && entry.Level >= zapcore.WarnLevel {
		clientSink.LogMessage(entry.Level, entry.Message)
	}
	return nil
}

// With returns a child logger tagged with the given component name, the
// idiom used throughout the server to scope log lines to a subsystem
// (e.g. "grammar", "injection", "bridge").
func With(component string) *zap.SugaredLogger {
	return Logger.With(FieldComponent, component)
}
