package validation

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestNumericChecks(t *testing.T) {
	tests := []struct {
		name        string
		check       func() error
		wantErr     error
		errContains string
	}{
		{"finite ok", func() error { return Finite("x", 1.5) }, nil, ""},
		{"finite nan", func() error { return Finite("x", math.NaN()) }, ErrNotFinite, "x"},
		{"finite inf", func() error { return Finite("x", math.Inf(1)) }, ErrNotFinite, "x"},
		{"pair ok", func() error { return FinitePair("start", 1, 2) }, nil, ""},
		{"pair bad y", func() error { return FinitePair("start", 1, math.Inf(-1)) }, ErrNotFinite, "start.y"},
		{"probability ok", func() error { return Probability("p", 0.999) }, nil, ""},
		{"probability edges", func() error { return Probability("p", 1) }, nil, ""},
		{"probability negative", func() error { return Probability("p", -0.1) }, ErrOutOfRange, "within [0, 1]"},
		{"probability above one", func() error { return Probability("p", 1.1) }, ErrOutOfRange, "p"},
		{"positive ok", func() error { return Positive("mass", 0.3) }, nil, ""},
		{"positive zero", func() error { return Positive("mass", 0) }, ErrOutOfRange, "mass"},
		{"non-negative zero", func() error { return NonNegative("radius", 0) }, nil, ""},
		{"non-negative below", func() error { return NonNegative("radius", -1) }, ErrOutOfRange, "radius"},
		{"fraction ok", func() error { return Fraction("air", 0.995) }, nil, ""},
		{"fraction zero", func() error { return Fraction("air", 0) }, ErrOutOfRange, "air"},
		{"positive int", func() error { return PositiveInt("n", 1) }, nil, ""},
		{"positive int zero", func() error { return PositiveInt("n", 0) }, ErrOutOfRange, "n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.errContains)
			}
		})
	}
}

func TestRateLimiter_AllowsUpToLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Close()

	for i := 0; i < 3; i++ {
		if !rl.Allow("client") {
			t.Fatalf("request %d rejected", i)
		}
	}
	if rl.Allow("client") {
		t.Error("request beyond limit allowed")
	}
	if !rl.Allow("other") {
		t.Error("independent client rejected")
	}
	if rl.Clients() != 2 {
		t.Errorf("Clients() = %d, expected 2", rl.Clients())
	}
}

func TestRateLimiter_Refills(t *testing.T) {
	rl := NewRateLimiter(2, 50*time.Millisecond)
	defer rl.Close()

	rl.Allow("c")
	rl.Allow("c")
	if rl.Allow("c") {
		t.Fatal("expected bucket to be empty")
	}
	time.Sleep(60 * time.Millisecond)
	if !rl.Allow("c") {
		t.Error("expected bucket to refill after a window")
	}
}

func TestRateLimiter_RemovesInactiveClients(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	defer rl.Close()

	rl.Allow("idle")
	rl.removeInactiveClients(time.Now().Add(3 * time.Hour))
	if rl.Clients() != 0 {
		t.Errorf("Clients() = %d after cleanup, expected 0", rl.Clients())
	}
}

func TestRateLimiter_CloseTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Second)
	rl.Close()
	rl.Close()
}
