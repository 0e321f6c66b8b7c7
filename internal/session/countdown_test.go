package session

import "testing"

func TestCountdownTicksToZeroAndFiresOnce(t *testing.T) {
	fired := 0
	c := NewCountdown(5, func() { fired++ })

	for i := 0; i < 5; i++ {
		c.Tick()
	}

	if c.Remaining() != 0 {
		t.Errorf("remaining = %d, want 0", c.Remaining())
	}
	if c.Running() {
		t.Error("countdown must stop at zero")
	}
	if fired != 1 {
		t.Errorf("onExpire fired %d times, want exactly 1", fired)
	}

	// Extra ticks after expiry are no-ops.
	c.Tick()
	c.Tick()
	if fired != 1 || c.Remaining() != 0 {
		t.Errorf("post-expiry ticks changed state: fired=%d remaining=%d", fired, c.Remaining())
	}
}

func TestCountdownLastSecond(t *testing.T) {
	fired := 0
	c := NewCountdown(1, func() { fired++ })

	c.Tick()

	if c.Remaining() != 0 || fired != 1 {
		t.Errorf("remaining=%d fired=%d, want 0 and 1", c.Remaining(), fired)
	}
}

func TestCountdownStopPreventsExpiry(t *testing.T) {
	fired := 0
	c := NewCountdown(3, func() { fired++ })

	c.Stop()
	c.Tick()

	if fired != 0 {
		t.Error("onExpire must not fire after Stop")
	}
	if c.Remaining() != 3 {
		t.Errorf("remaining = %d, want 3 (no tick after stop)", c.Remaining())
	}
}

func TestFormatRemaining(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{75, "1:15"},
		{0, "0:00"},
		{9, "0:09"},
		{60, "1:00"},
		{600, "10:00"},
		{3599, "59:59"},
		{-5, "0:00"},
	}

	for _, tc := range cases {
		if got := FormatRemaining(tc.seconds); got != tc.want {
			t.Errorf("FormatRemaining(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
