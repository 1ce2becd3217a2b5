package constants

import "time"

const (
	DefaultTimeout        = 10 * time.Second
	DefaultRequestTimeout = 30 * time.Second

	DatabaseSSLMode         = "disable"
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
)

// Color slot resolver tuning. The cache TTL bounds how stale a lock-free
// read may be; the lock wait bounds how long an allocating caller blocks;
// the lease bounds how long a crashed holder can wedge allocation.
const (
	RowCacheTTL   = 5 * time.Minute
	LockWait      = 30 * time.Second
	LockLease     = 60 * time.Second
	LockRetryWait = 250 * time.Millisecond
)

const (
	RedisKeyRowCachePrefix  = "colorslot:rows:"
	RedisKeyAllocLockPrefix = "colorslot:alloc:"
)

const (
	TaskProcessWebhookEvent = "webhook:process_event"
	TaskMaxRetry            = 5
)

const (
	ContextTokenData = "token_data"
)
