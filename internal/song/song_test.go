package song

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{42 * time.Second, "0:42"},
		{3*time.Minute + 7*time.Second, "3:07"},
		{61 * time.Minute, "1:01:00"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "2:03:04"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.in); got != c.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestWithRequesterCopies(t *testing.T) {
	original := Song{Title: "x", RequestedBy: "nobody"}
	stamped := original.WithRequester("user-9")

	if stamped.RequestedBy != "user-9" {
		t.Fatalf("stamped requester = %s", stamped.RequestedBy)
	}
	if original.RequestedBy != "nobody" {
		t.Fatal("WithRequester mutated the original")
	}
}
