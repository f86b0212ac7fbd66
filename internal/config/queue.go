package config

import "time"

const (
	defaultQueueMaxAge        = 24 * time.Hour
	defaultQueueProcessedTTL  = time.Hour
	defaultQueueMaxEntries    = 1000
	defaultQueueSweepInterval = time.Minute
)

// QueueMaxAge is the age after which any queued message is evicted.
func QueueMaxAge() time.Duration {
	return Duration("XMPP_QUEUE_MAX_AGE", defaultQueueMaxAge)
}

// QueueProcessedTTL is how long a processed message survives eviction.
func QueueProcessedTTL() time.Duration {
	return Duration("XMPP_QUEUE_PROCESSED_TTL", defaultQueueProcessedTTL)
}

// QueueMaxEntries caps the queue length enforced on every sweep.
func QueueMaxEntries() int {
	return Int("XMPP_QUEUE_MAX_ENTRIES", defaultQueueMaxEntries)
}

// QueueSweepInterval is the janitor period for long-lived hosts.
func QueueSweepInterval() time.Duration {
	d := Duration("XMPP_QUEUE_SWEEP_INTERVAL", defaultQueueSweepInterval)
	if d == 0 {
		return defaultQueueSweepInterval
	}
	return d
}
