package domain

import "time"

// Debounce constants
const (
	// DefaultDebounceDelay is how long the scheduler waits for a quiet period
	DefaultDebounceDelay = 300 * time.Millisecond
	// MinDebounceDelayMS is the lowest accepted debounce delay
	MinDebounceDelayMS = 50
	// MaxDebounceDelayMS is the highest accepted debounce delay
	MaxDebounceDelayMS = 5000
)

// Cache constants
const (
	// DefaultCacheTTL is how long cached suggestions stay fresh
	DefaultCacheTTL = 5 * time.Minute
	// DefaultMaxCacheEntries is the maximum number of cache entries
	DefaultMaxCacheEntries = 1000
	// MaxCacheEntriesCeiling is the highest accepted max_entries value
	MaxCacheEntriesCeiling = 100000
	// DefaultSweepInterval is how often the background sweep removes expired entries
	DefaultSweepInterval = time.Minute
)

// Retry constants
const (
	// DefaultRetryCount is the number of retries after the first attempt
	DefaultRetryCount = 2
	// MaxRetryCount is the highest accepted retry count
	MaxRetryCount = 10
	// DefaultRetryBaseDelay is the wait between recovery attempts
	DefaultRetryBaseDelay = 500 * time.Millisecond
	// MaxRetryDelayMS is the highest accepted retry delay
	MaxRetryDelayMS = 30000
)

// History constants
const (
	// DefaultHistoryDepth is the bounded position history size
	DefaultHistoryDepth = 100
	// MaxHistoryDepth is the highest accepted history depth
	MaxHistoryDepth = 10000
)

// Sanitizer constants
const (
	// DefaultMaxRequestSizeKB is the outbound context byte budget
	DefaultMaxRequestSizeKB = 64
	// MaxRequestSizeCeilingKB is the highest accepted byte budget
	MaxRequestSizeCeilingKB = 1024
)

// Health constants
const (
	// MemoryCeilingBytes is the advisory process memory threshold for doctor checks
	MemoryCeilingBytes = 500 << 20
	// DefaultHTTPClientTimeout is the timeout for backend HTTP requests
	DefaultHTTPClientTimeout = 60 * time.Second
)
