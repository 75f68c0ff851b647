// Package server exposes a bridge.Plugin to local clients: the method channel
// and event channel over WebSocket, health endpoints, Prometheus metrics and
// mDNS discovery.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grandcat/zeroconf"
	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/dotside-studios/nfc-reader-bridge/bridge"
	"github.com/dotside-studios/nfc-reader-bridge/buildinfo"
	"github.com/dotside-studios/nfc-reader-bridge/protocol"
)

// Config holds the server configuration
type Config struct {
	Plugin *bridge.Plugin
	// Port 0 picks a free port; see Addr.
	Port       int
	APISecret  string // Optional API secret for WebSocket connection
	EnableMDNS bool
	// Registry receives the transport and health metrics and is served on
	// /metrics. Nil disables both.
	Registry *prometheus.Registry

	// TLSCertFile and TLSKeyFile switch the server to HTTPS and wss://.
	TLSCertFile string
	TLSKeyFile  string
	// CACert, when set, serves the local CA on /ca.pem so other devices can
	// trust the certificate.
	CACert func() ([]byte, error)
}

// TLS reports whether the server serves HTTPS.
func (c Config) TLS() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// Server manages the HTTP and WebSocket server
type Server struct {
	config   Config
	mux      *http.ServeMux
	upgrader websocket.Upgrader
	claims   *ClaimManager
	metrics  *serverMetrics
	log      *log.Entry

	// Handler registry for WebSocket requests
	handlerRegistry *HandlerRegistry

	httpServer *http.Server
	listener   net.Listener

	// mDNS service for auto-discovery
	mdnsServer *zeroconf.Server

	clientMu sync.RWMutex
	client   *Client
}

// New creates a new server instance and registers it as a notifier of the plugin.
func New(config Config) *Server {
	var reg prometheus.Registerer
	if config.Registry != nil {
		reg = config.Registry
	}

	s := &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
		claims:          NewClaimManager(config.APISecret),
		metrics:         newServerMetrics(reg),
		log:             log.WithField("component", "server"),
		handlerRegistry: NewHandlerRegistry(),
	}

	NewBridgeHandler(config.Plugin, s.metrics).Register(s)
	config.Plugin.AddNotifier(s)

	s.mux = s.routes(reg)
	return s
}

// Handle implements HandlerServer interface.
func (s *Server) Handle(requestType string, handler HandlerFunc) error {
	return s.handlerRegistry.Handle(requestType, handler)
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes(reg prometheus.Registerer) *http.ServeMux {
	mux := http.NewServeMux()

	var health healthcheck.Handler
	if reg != nil {
		health = healthcheck.NewMetricsHandler(reg, "nfcbridge")
	} else {
		health = healthcheck.NewHandler()
	}
	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(1000))
	health.AddReadinessCheck("nfc-reader", healthcheck.Timeout(s.readerReady, 3*time.Second))

	mux.HandleFunc(PathHealth+"/live", enableCORS(health.LiveEndpoint))
	mux.HandleFunc(PathHealth+"/ready", enableCORS(health.ReadyEndpoint))

	if s.config.Registry != nil {
		mux.Handle(PathMetrics, promhttp.HandlerFor(s.config.Registry, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc(PathWebSocket, s.handleWebSocket)

	if s.config.CACert != nil {
		mux.HandleFunc(PathCACert, enableCORS(s.handleCACert))
	}

	mux.HandleFunc("/", enableCORS(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Server", buildinfo.UserAgent())
		fmt.Fprintf(w, "%s running", buildinfo.DisplayName)
	}))

	return mux
}

func (s *Server) handleCACert(w http.ResponseWriter, r *http.Request) {
	caCert, err := s.config.CACert()
	if err != nil {
		http.Error(w, "CA certificate not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/x-pem-file")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", buildinfo.Name+"-ca.pem"))
	w.Write(caCert)
	s.log.WithField("ip", r.RemoteAddr).Info("CA certificate downloaded")
}

func (s *Server) readerReady() error {
	if s.config.Plugin.Available() != bridge.AvailabilityAvailable {
		return errors.New("no NFC reader attached")
	}
	return nil
}

// enableCORS is a middleware that adds CORS headers to responses
func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", CORSAllowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", CORSAllowMethods)
		w.Header().Set("Access-Control-Allow-Headers", CORSAllowHeaders)

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// Start listens on the configured port and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.config.Port, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.WithField("request_types", s.handlerRegistry.RequestTypes()).Debug("WebSocket handlers registered")

	go func() {
		var err error
		if s.config.TLS() {
			s.log.Infof("Starting TLS server on %s", ln.Addr())
			err = s.httpServer.ServeTLS(ln, s.config.TLSCertFile, s.config.TLSKeyFile)
		} else {
			s.log.Infof("Starting server on %s", ln.Addr())
			err = s.httpServer.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("HTTP server error")
		}
	}()

	if s.config.EnableMDNS {
		// Register mDNS service for auto-discovery
		if err := s.startMDNS(); err != nil {
			s.log.WithError(err).Warn("Failed to start mDNS service; auto-discovery will not be available")
		}
	}

	return nil
}

// Addr returns the address the server listens on, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Scheme returns the WebSocket URL scheme clients must use.
func (s *Server) Scheme() string {
	if s.config.TLS() {
		return "wss"
	}
	return "ws"
}

// Port returns the port the server listens on.
func (s *Server) Port() int {
	if s.listener == nil {
		return s.config.Port
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return s.config.Port
}

// Stop stops the HTTP server gracefully and disconnects the client.
func (s *Server) Stop() {
	if s.mdnsServer != nil {
		s.mdnsServer.Shutdown()
		s.mdnsServer = nil
		s.log.Info("mDNS service stopped")
	}

	if c := s.currentClient(); c != nil {
		c.close()
	}
	// Nobody is left to receive tag events.
	s.config.Plugin.Events().Cancel()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.log.WithError(err).Error("Server shutdown error")
		}
		s.httpServer = nil
	}
}

// startMDNS registers the bridge as an mDNS service for auto-discovery
func (s *Server) startMDNS() error {
	txtRecords := []string{
		"version=" + buildinfo.Version,
		"protocol=websocket",
		"path=" + PathWebSocket,
		"method_channel=" + bridge.MethodChannelName,
		"event_channel=" + bridge.EventChannelName,
	}
	if s.config.APISecret != "" {
		txtRecords = append(txtRecords, "auth=secret")
	}
	if s.config.TLS() {
		txtRecords = append(txtRecords, "tls=true")
	}

	server, err := zeroconf.Register(MDNSServiceName, MDNSServiceType, MDNSDomain, s.Port(), txtRecords, nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}

	s.mdnsServer = server
	s.log.WithFields(log.Fields{"service": MDNSServiceType, "port": s.Port()}).Info("mDNS service registered")
	return nil
}

// Connected reports whether a client holds the bridge.
func (s *Server) Connected() bool {
	_, ok := s.claims.Current()
	return ok
}

// ClientAddr returns the remote address of the client holding the bridge.
func (s *Server) ClientAddr() (string, bool) {
	claim, ok := s.claims.Current()
	if !ok {
		return "", false
	}
	return claim.RemoteAddr, true
}

func (s *Server) currentClient() *Client {
	s.clientMu.RLock()
	defer s.clientMu.RUnlock()
	return s.client
}

func (s *Server) setClient(c *Client) {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()
	s.client = c
}

// Notify implements bridge.Notifier by pushing the notice to the connected client.
func (s *Server) Notify(n bridge.Notice) {
	c := s.currentClient()
	if c == nil {
		return
	}
	if err := c.Push(protocol.TypeNotice, protocol.NoticePayload{Title: n.Title, Message: n.Message}); err != nil {
		c.log.WithError(err).Warn("Failed to push notice")
	}
}

// handleWebSocket upgrades HTTP connections to WebSocket connections and manages
// the client connection lifecycle
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	claim, err := s.claims.Acquire(r.URL.Query().Get("secret"), r.Header.Get("Origin"), r.RemoteAddr)
	switch {
	case errors.Is(err, ErrInvalidSecret):
		s.log.WithField("ip", r.RemoteAddr).Warn("WebSocket connection rejected: invalid API secret")
		http.Error(w, "Unauthorized: Invalid API secret", http.StatusUnauthorized)
		return
	case errors.Is(err, ErrClaimed):
		s.log.WithField("ip", r.RemoteAddr).Warn("WebSocket connection rejected: bridge already claimed")
		http.Error(w, "Bridge already claimed by another client", http.StatusConflict)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.claims.Release(claim.ID)
		s.log.WithError(err).Error("WebSocket upgrade error")
		return
	}
	conn.SetReadLimit(maxMessageSize)

	c := newClient(conn, claim.ID, r.RemoteAddr)
	s.setClient(c)
	s.metrics.connected(1)
	c.log.WithField("ip", r.RemoteAddr).Info("WebSocket connected")

	defer func() {
		s.setClient(nil)
		c.close()
		s.claims.Release(claim.ID)
		s.metrics.connected(-1)
		c.log.Info("WebSocket disconnected, bridge released")
	}()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.WithError(err).Warn("WebSocket read error")
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		var req protocol.Request
		if err := json.Unmarshal(message, &req); err != nil {
			c.log.WithError(err).Warn("Failed to parse WebSocket message")
			c.SendError("", protocol.ErrCodeParseError, "Invalid message format")
			continue
		}

		handler, ok := s.handlerRegistry.Get(req.Type)
		if !ok {
			c.log.WithField("type", req.Type).Warn("Unknown request type")
			c.SendError(req.ID, protocol.ErrCodeUnknownType, fmt.Sprintf("Unknown request type: %s", req.Type))
			continue
		}

		if err := handler(c.Context(), c, req); err != nil {
			c.log.WithError(err).WithField("type", req.Type).Warn("Handler error")
		}
	}
}
