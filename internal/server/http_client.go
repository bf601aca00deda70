package server

import (
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inkhub/inkhub/internal/config"
)

const defaultUpstreamTimeout = 30 * time.Second

// NewUpstreamClient 返回访问 GitHub API 的 http.Client。所有远端调用都经过该
// client，超时取 Remote.Timeout，每次调用以 debug 级别记录 upstream_request。
func NewUpstreamClient(cfg *config.Config, logger *logrus.Logger) *http.Client {
	timeout := defaultUpstreamTimeout
	if cfg != nil && cfg.Remote.Timeout.DurationValue() > 0 {
		timeout = cfg.Remote.Timeout.DurationValue()
	}

	var rt http.RoundTripper = newUpstreamTransport(timeout)
	if logger != nil {
		rt = &loggingTransport{next: rt, logger: logger}
	}
	return &http.Client{Timeout: timeout, Transport: rt}
}

// newUpstreamTransport 面向单一 API 主机调优：连接池集中在一个 host 上。
func newUpstreamTransport(timeout time.Duration) *http.Transport {
	dialer := &net.Dialer{Timeout: min(timeout, 10*time.Second), KeepAlive: 30 * time.Second}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: time.Second,
	}
}

type loggingTransport struct {
	next   http.RoundTripper
	logger *logrus.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	started := time.Now()
	resp, err := t.next.RoundTrip(req)

	entry := t.logger.WithFields(logrus.Fields{
		"action":     "upstream",
		"method":     req.Method,
		"host":       req.URL.Host,
		"path":       req.URL.Path,
		"elapsed_ms": time.Since(started).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Warn("upstream_request_failed")
		return nil, err
	}
	entry.WithField("status", resp.StatusCode).Debug("upstream_request")
	return resp, nil
}
