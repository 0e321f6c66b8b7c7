package proctor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want Status
	}{
		{"safe", StatusSafe},
		{"missing", StatusMissing},
		{"multiple", StatusMultiple},
		{"looking_away", StatusMultiple},
		{"", StatusMultiple},
	}

	for _, tc := range cases {
		if got := ParseStatus(tc.raw); got != tc.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestStatusAlert(t *testing.T) {
	if StatusSafe.Alert() {
		t.Error("safe status must not raise an alert")
	}
	if !StatusMissing.Alert() || !StatusMultiple.Alert() {
		t.Error("non-safe statuses must raise an alert")
	}
}

func TestClientStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"status":"missing"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	status, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if status != StatusMissing {
		t.Errorf("status = %q, want %q", status, StatusMissing)
	}
}

func TestClientStatusNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if _, err := c.Status(context.Background()); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestVideoFeedURL(t *testing.T) {
	c := NewClient("http://proctor:5001", time.Second)
	if got := c.VideoFeedURL(); got != "http://proctor:5001/video_feed" {
		t.Errorf("VideoFeedURL() = %q", got)
	}
}
