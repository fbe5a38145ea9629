package app

import (
	"net"
	"net/http"
	"time"
)

// newOutboundHTTPClient returns an HTTP client tuned for many concurrent probes
// and page fetches against distinct hosts. Per-request deadlines are applied by
// callers; timeout is only the outer bound.
func newOutboundHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          0,  // no global limit
		MaxIdleConnsPerHost:   16, // candidates rarely share a host
		MaxConnsPerHost:       0,  // unlimited
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
