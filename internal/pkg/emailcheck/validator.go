// Package emailcheck validates email addresses by syntax and by the
// existence of MX records for the address domain. Results are cached in a
// bounded TTL cache so repeated checks do not hammer DNS. The validator
// never returns an error: any ambiguity degrades to "not a real email".
package emailcheck

import (
	"context"
	"errors"
	"net"
	"net/mail"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog"
)

// MXResolver performs MX record lookups. *net.Resolver satisfies it.
type MXResolver interface {
	LookupMX(ctx context.Context, host string) ([]*net.MX, error)
}

// Config holds validator tuning knobs
type Config struct {
	// CacheCapacity bounds the number of cached results (oldest evicted when full)
	CacheCapacity uint64
	// SlidingTTL extends an entry's life on every cache hit
	SlidingTTL time.Duration
	// AbsoluteTTL caps an entry's life regardless of hits
	AbsoluteTTL time.Duration
	// LookupTimeout bounds a single validation's DNS work
	LookupTimeout time.Duration
	// Retries is the number of additional lookup attempts after a transient failure
	Retries int
}

// DefaultConfig returns the production cache and lookup policy
func DefaultConfig() Config {
	return Config{
		CacheCapacity: 1000,
		SlidingTTL:    1 * time.Hour,
		AbsoluteTTL:   6 * time.Hour,
		LookupTimeout: 5 * time.Second,
		Retries:       2,
	}
}

// entry records the cached verdict and when it was stored, so the absolute
// expiry can be enforced on top of the cache's sliding TTL.
type entry struct {
	valid    bool
	storedAt time.Time
}

// Validator checks whether an email address is plausibly real
type Validator struct {
	resolver MXResolver
	cache    *ttlcache.Cache[string, entry]
	config   Config
	logger   zerolog.Logger
}

// NewValidator creates a Validator with an explicitly owned cache.
// Passing a nil resolver uses net.DefaultResolver.
func NewValidator(config Config, resolver MXResolver, logger zerolog.Logger) *Validator {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	cache := ttlcache.New[string, entry](
		ttlcache.WithTTL[string, entry](config.SlidingTTL),
		ttlcache.WithCapacity[string, entry](config.CacheCapacity),
	)
	go cache.Start()

	return &Validator{
		resolver: resolver,
		cache:    cache,
		config:   config,
		logger:   logger,
	}
}

// Close stops the cache's background expiration loop
func (v *Validator) Close() {
	v.cache.Stop()
}

// CacheLen returns the number of cached entries
func (v *Validator) CacheLen() int {
	return v.cache.Len()
}

// IsValidFormat reports whether the address is syntactically valid.
// The parsed canonical form must equal the trimmed input, which rejects
// addresses the parser silently repairs (display names, comments).
func (v *Validator) IsValidFormat(address string) bool {
	if strings.TrimSpace(address) == "" {
		return false
	}

	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return false
	}

	return parsed.Address == strings.TrimSpace(address)
}

// HasMXRecords reports whether the address domain has at least one MX record.
// Verdicts are cached per domain; lookups are bounded by the configured
// timeout and retries. Any lookup failure yields false.
func (v *Validator) HasMXRecords(ctx context.Context, address string) bool {
	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return false
	}
	domain := strings.ToLower(address[at+1:])

	cacheKey := "mx_" + domain
	if valid, ok := v.cacheGet(cacheKey); ok {
		return valid
	}

	hasMX := v.lookupMX(ctx, domain)
	v.cache.Set(cacheKey, entry{valid: hasMX, storedAt: time.Now()}, ttlcache.DefaultTTL)

	return hasMX
}

// IsReal reports whether the address is syntactically valid and its domain
// can receive mail. Malformed addresses are rejected without any network
// call. Full-address verdicts are cached separately from domain verdicts.
func (v *Validator) IsReal(ctx context.Context, address string) bool {
	if !v.IsValidFormat(address) {
		v.logger.Debug().Str("email", address).Msg("Email failed format validation")
		return false
	}

	cacheKey := "email_valid_" + strings.ToLower(address)
	if valid, ok := v.cacheGet(cacheKey); ok {
		return valid
	}

	valid := v.HasMXRecords(ctx, address)
	v.cache.Set(cacheKey, entry{valid: valid, storedAt: time.Now()}, ttlcache.DefaultTTL)

	v.logger.Debug().Str("email", address).Bool("valid", valid).Msg("Email MX validation completed")
	return valid
}

// cacheGet returns the cached verdict for key, enforcing the absolute TTL
// on top of the cache's sliding expiry.
func (v *Validator) cacheGet(key string) (bool, bool) {
	item := v.cache.Get(key)
	if item == nil {
		return false, false
	}

	e := item.Value()
	if time.Since(e.storedAt) >= v.config.AbsoluteTTL {
		v.cache.Delete(key)
		return false, false
	}

	return e.valid, true
}

// lookupMX queries MX records for domain with retries inside a single
// timeout window. True iff at least one record is returned.
func (v *Validator) lookupMX(ctx context.Context, domain string) bool {
	ctx, cancel := context.WithTimeout(ctx, v.config.LookupTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= v.config.Retries; attempt++ {
		records, err := v.resolver.LookupMX(ctx, domain)
		if err == nil {
			return len(records) > 0
		}
		lastErr = err

		// NXDOMAIN and the like are definitive, only transient failures retry
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && !dnsErr.IsTemporary && !dnsErr.IsTimeout {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	v.logger.Debug().Err(lastErr).Str("domain", domain).Msg("MX lookup failed")
	return false
}
