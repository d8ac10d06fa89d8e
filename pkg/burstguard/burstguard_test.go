package burstguard

import (
	"testing"
	"time"
)

func TestGuard_AllowsUpToBurst(t *testing.T) {
	g := New(5, time.Minute)

	for i := 0; i < 5; i++ {
		if !g.Allow() {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if g.Allow() {
		t.Error("attempt past burst should be denied")
	}
}

func TestGuard_ResetRefills(t *testing.T) {
	g := New(2, time.Minute)

	g.Allow()
	g.Allow()
	if g.Allow() {
		t.Fatal("third attempt should be denied")
	}

	g.Reset()
	if !g.Allow() {
		t.Error("attempt after reset should be allowed")
	}
}

func TestGuard_ClampsBadInput(t *testing.T) {
	g := New(0, 0)
	if !g.Allow() {
		t.Error("first attempt should always be allowed")
	}
}
