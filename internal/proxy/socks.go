// Package proxy builds HTTP clients that tunnel through a SOCKS5
// proxy, for environments where the API endpoints are not directly
// reachable.
package proxy

import (
	"context"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"
)

const requestTimeout = 120 * time.Second

// NewSocksClient returns an HTTP client that dials through the SOCKS5
// proxy at socksAddr.
func NewSocksClient(socksAddr string) (*http.Client, error) {
	dialer, err := proxy.SOCKS5("tcp", socksAddr, nil, proxy.Direct)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		},
	}

	return &http.Client{
		Transport: transport,
		Timeout:   requestTimeout,
	}, nil
}

// NewDirectClient is the no-proxy counterpart with the same timeout.
func NewDirectClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}
