package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

const defaultHostname = "localhost"

var (
	defaultStartArgs = []string{"gateway"}
	defaultSendArgs  = []string{"message", "send", "--channel", "xmpp", "--target", "{target}", "--message", "{message}"}
)

// Config is the resolved configuration for one command invocation.
type Config struct {
	GatewayBin        string
	GatewayStartArgs  []string
	GatewaySendArgs   []string
	GatewayReadyDelay time.Duration
	GatewayHealthURL  string

	DefaultNick string
	Debug       bool

	QueueMaxAge        time.Duration
	QueueProcessedTTL  time.Duration
	QueueMaxEntries    int
	QueueSweepInterval time.Duration
}

// Load reads configuration from the environment, loading a .env file
// from the working directory first when one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		GatewayBin:        String("XMPP_GATEWAY_BIN", "clawdbot"),
		GatewayStartArgs:  Fields("XMPP_GATEWAY_START_ARGS", defaultStartArgs),
		GatewaySendArgs:   Fields("XMPP_GATEWAY_SEND_ARGS", defaultSendArgs),
		GatewayReadyDelay: Duration("XMPP_GATEWAY_READY_DELAY", 3*time.Second),
		GatewayHealthURL:  String("XMPP_GATEWAY_HEALTH_URL", ""),

		DefaultNick: String("XMPP_DEFAULT_NICK", "xmppctl"),
		Debug:       os.Getenv("XMPP_DEBUG") == "1",

		QueueMaxAge:        QueueMaxAge(),
		QueueProcessedTTL:  QueueProcessedTTL(),
		QueueMaxEntries:    QueueMaxEntries(),
		QueueSweepInterval: QueueSweepInterval(),
	}
}

// Hostname returns the name this host identifies as.
// Preference order: XMPP_HOSTNAME env var, system hostname, fallback.
func Hostname() string {
	if env := os.Getenv("XMPP_HOSTNAME"); env != "" {
		return env
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return defaultHostname
}
