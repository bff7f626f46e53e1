package emailcheck

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeResolver counts lookups and serves canned answers per domain.
type fakeResolver struct {
	mu      sync.Mutex
	calls   int
	records map[string][]*net.MX
	err     error
}

func (r *fakeResolver) LookupMX(ctx context.Context, host string) ([]*net.MX, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.records[host], nil
}

func (r *fakeResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func newTestValidator(t *testing.T, resolver MXResolver) *Validator {
	t.Helper()
	v := NewValidator(DefaultConfig(), resolver, zerolog.Nop())
	t.Cleanup(v.Close)
	return v
}

func TestIsValidFormat(t *testing.T) {
	v := newTestValidator(t, &fakeResolver{})

	valid := []string{
		"user@example.com",
		"first.last@sub.example.org",
		"user+tag@example.com",
	}
	for _, addr := range valid {
		if !v.IsValidFormat(addr) {
			t.Errorf("IsValidFormat(%q) = false, want true", addr)
		}
	}

	invalid := []string{
		"",
		"   ",
		"plainaddress",
		"@example.com",
		"user@",
		"Display Name <user@example.com>",
		"user@example.com (comment)",
	}
	for _, addr := range invalid {
		if v.IsValidFormat(addr) {
			t.Errorf("IsValidFormat(%q) = true, want false", addr)
		}
	}
}

func TestIsRealRejectsMalformedWithoutLookup(t *testing.T) {
	resolver := &fakeResolver{}
	v := newTestValidator(t, resolver)

	if v.IsReal(context.Background(), "not-an-email") {
		t.Error("IsReal accepted a malformed address")
	}
	if got := resolver.callCount(); got != 0 {
		t.Errorf("resolver called %d times for malformed address, want 0", got)
	}
}

func TestIsRealWithMXRecords(t *testing.T) {
	resolver := &fakeResolver{records: map[string][]*net.MX{
		"example.com": {{Host: "mx1.example.com", Pref: 10}},
	}}
	v := newTestValidator(t, resolver)

	if !v.IsReal(context.Background(), "user@example.com") {
		t.Error("IsReal rejected an address with MX records")
	}
	if v.IsReal(context.Background(), "user@nomx.example") {
		t.Error("IsReal accepted a domain without MX records")
	}
}

func TestIsRealCachesVerdict(t *testing.T) {
	resolver := &fakeResolver{records: map[string][]*net.MX{
		"example.com": {{Host: "mx1.example.com", Pref: 10}},
	}}
	v := newTestValidator(t, resolver)

	for i := 0; i < 5; i++ {
		if !v.IsReal(context.Background(), "user@example.com") {
			t.Fatalf("IsReal returned false on call %d", i+1)
		}
	}

	if got := resolver.callCount(); got != 1 {
		t.Errorf("resolver called %d times for repeated address, want 1", got)
	}
}

func TestHasMXRecordsSharesDomainCache(t *testing.T) {
	resolver := &fakeResolver{records: map[string][]*net.MX{
		"example.com": {{Host: "mx1.example.com", Pref: 10}},
	}}
	v := newTestValidator(t, resolver)

	// Different mailboxes on one domain share the MX verdict
	if !v.HasMXRecords(context.Background(), "alice@example.com") {
		t.Fatal("HasMXRecords returned false for alice@example.com")
	}
	if !v.HasMXRecords(context.Background(), "bob@EXAMPLE.COM") {
		t.Fatal("HasMXRecords returned false for bob@EXAMPLE.COM")
	}

	if got := resolver.callCount(); got != 1 {
		t.Errorf("resolver called %d times for one domain, want 1", got)
	}
}

func TestIsRealFailsClosedOnDNSError(t *testing.T) {
	resolver := &fakeResolver{err: &net.DNSError{Err: "no such host", IsNotFound: true}}
	v := newTestValidator(t, resolver)

	if v.IsReal(context.Background(), "user@unresolvable.example") {
		t.Error("IsReal accepted an address whose domain lookup failed")
	}
	// NXDOMAIN is definitive so no retries should happen
	if got := resolver.callCount(); got != 1 {
		t.Errorf("resolver called %d times on NXDOMAIN, want 1", got)
	}
}

func TestLookupRetriesOnTransientError(t *testing.T) {
	resolver := &fakeResolver{err: &net.DNSError{Err: "server misbehaving", IsTemporary: true}}
	cfg := DefaultConfig()
	cfg.Retries = 2
	v := NewValidator(cfg, resolver, zerolog.Nop())
	defer v.Close()

	if v.IsReal(context.Background(), "user@flaky.example") {
		t.Error("IsReal accepted an address despite lookup failures")
	}
	if got := resolver.callCount(); got != 3 {
		t.Errorf("resolver called %d times on transient errors, want 3 (1 + 2 retries)", got)
	}
}

func TestCacheGetEnforcesAbsoluteTTL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AbsoluteTTL = 50 * time.Millisecond
	resolver := &fakeResolver{records: map[string][]*net.MX{
		"example.com": {{Host: "mx1.example.com", Pref: 10}},
	}}
	v := NewValidator(cfg, resolver, zerolog.Nop())
	defer v.Close()

	if !v.IsReal(context.Background(), "user@example.com") {
		t.Fatal("first IsReal call returned false")
	}

	time.Sleep(60 * time.Millisecond)

	if !v.IsReal(context.Background(), "user@example.com") {
		t.Fatal("IsReal returned false after cache expiry")
	}
	if got := resolver.callCount(); got != 2 {
		t.Errorf("resolver called %d times across absolute TTL expiry, want 2", got)
	}
}
