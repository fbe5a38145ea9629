package app

import (
	"net/http"
	"reflect"
	"testing"
	"time"
)

func TestNewOutboundHTTPClient_Config(t *testing.T) {
	c := newOutboundHTTPClient(0)
	if c.Timeout == 0 {
		t.Fatalf("expected non-zero timeout")
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected http.Transport")
	}
	if tr.MaxConnsPerHost != 0 {
		t.Fatalf("expected unlimited MaxConnsPerHost, got %d", tr.MaxConnsPerHost)
	}
	// Ensure we didn't return the default client's transport
	if reflect.ValueOf(http.DefaultTransport).Pointer() == reflect.ValueOf(tr).Pointer() {
		t.Fatalf("transport should not be default")
	}
	if got := newOutboundHTTPClient(3 * time.Second).Timeout; got != 3*time.Second {
		t.Fatalf("expected explicit timeout, got %v", got)
	}
}
