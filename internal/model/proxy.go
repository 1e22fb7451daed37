// Package model defines shared types for the proxy.
package model

import (
	"net/http"
)

// UpstreamResponse is the fully read reply of one upstream call.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}
