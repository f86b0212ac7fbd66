package audit

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var (
	enabled atomic.Bool

	mu     sync.RWMutex
	logger = zerolog.New(os.Stderr).With().Timestamp().Str("component", "audit").Logger()
)

func init() {
	RefreshFromEnv()
}

// Set toggles audit logging.
func Set(on bool) {
	enabled.Store(on)
}

// Enabled reports whether audit logging is active.
func Enabled() bool {
	return enabled.Load()
}

// RefreshFromEnv re-reads XMPP_DEBUG.
func RefreshFromEnv() {
	Set(os.Getenv("XMPP_DEBUG") == "1")
}

// SetOutput redirects the audit trail.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = logger.Output(w)
}

// Log records an audit message if XMPP_DEBUG=1 is set.
func Log(format string, args ...any) {
	if !Enabled() {
		return
	}
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.Debug().Msgf(format, args...)
}
