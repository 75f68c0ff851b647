package server

import (
	"time"

	"github.com/dotside-studios/nfc-reader-bridge/buildinfo"
)

// mDNS service discovery constants
var (
	MDNSServiceType = "_nfc-bridge._tcp"
	MDNSServiceName = buildinfo.DisplayName
	MDNSDomain      = "local."
)

// HTTP routes
const (
	PathWebSocket = "/ws"
	PathHealth    = "/api/v1/health"
	PathMetrics   = "/metrics"
	PathCACert    = "/ca.pem"
)

// CORS configuration
const (
	CORSAllowOrigin  = "*"
	CORSAllowMethods = "GET, OPTIONS"
	CORSAllowHeaders = "Content-Type, Authorization"
)

// WebSocket limits
const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// DefaultPort is the port the agent listens on when none is configured.
const DefaultPort = 18080
