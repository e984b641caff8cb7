package redis

import "testing"

func TestKeys(t *testing.T) {
	idem := NewIdempotencyStore(nil)
	if got := idem.key("order", "abc"); got != "idem:order:abc" {
		t.Fatalf("unexpected idempotency key %q", got)
	}

	rev := NewTokenRevoker(nil)
	if got := rev.key("jti-1"); got != "revoked:jti-1" {
		t.Fatalf("unexpected revocation key %q", got)
	}
}
