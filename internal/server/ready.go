package server

import (
	"context"
	"errors"
	"net"
	"time"
)

// ErrChildExited reports that the server stopped before it accepted connections.
var ErrChildExited = errors.New("server exited before becoming ready")

const readyPollInterval = 10 * time.Millisecond

// CheckReady reports whether something accepts TCP connections on addr.
func CheckReady(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", dialAddr(addr), timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// WaitReady polls addr until it accepts connections. It fails with ErrChildExited
// when exited is closed first, or with the context error on timeout.
func WaitReady(ctx context.Context, addr string, exited <-chan struct{}) error {
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-exited:
			return ErrChildExited
		default:
		}
		if CheckReady(addr, readyPollInterval) {
			return nil
		}
		select {
		case <-exited:
			return ErrChildExited
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// dialAddr replaces an unspecified listen host with the loopback address.
func dialAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
