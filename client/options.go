package client

import (
	"crypto/tls"
	"time"

	"github.com/rs/zerolog"
)

// Option is a functional option for configuring the client.
type Option func(*Options)

// Options holds all client configuration.
type Options struct {
	// TLSConfig is the TLS configuration for TLS connections.
	TLSConfig *tls.Config

	// Logger is the structured logger every engine instance traces
	// through. The greeting, each command line sent by execute and each
	// response line read by the reader are logged at zerolog.DebugLevel
	// whatever DebugLog is set to; state transitions are not logged.
	Logger zerolog.Logger

	// ReadTimeout holds a read timeout; the client does not apply it to
	// the connection.
	ReadTimeout time.Duration

	// WriteTimeout holds a write timeout; the client does not apply it to
	// the connection.
	WriteTimeout time.Duration

	// IdleTimeout holds an IDLE timeout; the client does not apply it to
	// IDLE commands.
	IdleTimeout time.Duration

	// UnilateralDataHandler handles unsolicited server responses.
	UnilateralDataHandler *UnilateralDataHandler

	// DebugLog is recorded but not read by the client; wire lines are
	// logged at debug level either way.
	DebugLog bool
}

// UnilateralDataHandler handles unsolicited server data.
type UnilateralDataHandler struct {
	Expunge func(seqNum uint32)
	Exists  func(count uint32)
	Recent  func(count uint32)
	Fetch   func(seqNum uint32, flags []string)
	// Vanished handles QRESYNC VANISHED untagged responses delivered
	// outside of a command's own response collection (e.g. during IDLE).
	Vanished func(uids string, earlier bool)
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() *Options {
	return &Options{
		Logger:       zerolog.Nop(),
		ReadTimeout:  30 * time.Minute,
		WriteTimeout: 1 * time.Minute,
		IdleTimeout:  30 * time.Minute,
	}
}

// WithTLSConfig sets the TLS configuration.
func WithTLSConfig(config *tls.Config) Option {
	return func(o *Options) {
		o.TLSConfig = config
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithReadTimeout sets the read timeout.
func WithReadTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ReadTimeout = d
	}
}

// WithWriteTimeout sets the write timeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.WriteTimeout = d
	}
}

// WithIdleTimeout sets the IDLE timeout.
func WithIdleTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.IdleTimeout = d
	}
}

// WithUnilateralDataHandler sets the handler for unsolicited data.
func WithUnilateralDataHandler(h *UnilateralDataHandler) Option {
	return func(o *Options) {
		o.UnilateralDataHandler = h
	}
}

// WithDebugLog sets Options.DebugLog.
func WithDebugLog(enable bool) Option {
	return func(o *Options) {
		o.DebugLog = enable
	}
}
