package cache

import "time"

// Policy bounds how long tool results may live in the cache. The zero value
// disables caching, since a zero DefaultTTL means nothing gets stored.
type Policy struct {
	// DefaultTTL applies when the caller does not supply a TTL.
	// Zero disables caching.
	DefaultTTL time.Duration

	// MaxTTL caps every TTL, overrides included. Zero means uncapped.
	MaxTTL time.Duration

	// AllowUnsafe caches results even for tools tagged with side effects.
	AllowUnsafe bool
}

// DefaultPolicy caches for five minutes, caps TTLs at one hour, and never
// caches unsafe tools.
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: 5 * time.Minute,
		MaxTTL:     time.Hour,
	}
}

// NoCachePolicy disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache reports whether this policy stores anything at all.
func (p Policy) ShouldCache() bool {
	return p.DefaultTTL > 0
}

// EffectiveTTL resolves a caller override against the policy. A non-positive
// override falls back to DefaultTTL, and the result is clamped to MaxTTL
// when one is set.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}
