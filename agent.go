package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/dotside-studios/nfc-reader-bridge/bridge"
	"github.com/dotside-studios/nfc-reader-bridge/nfc"
	"github.com/dotside-studios/nfc-reader-bridge/server"
	"github.com/dotside-studios/nfc-reader-bridge/tls"
)

// Agent wires a reader manager, the bridge plugin and the server together.
// It can be stopped and started again, e.g. to switch readers from the tray.
type Agent struct {
	Logger  *log.Entry
	Manager nfc.Manager

	Port           int
	APISecret      string
	EnableMDNS     bool
	SessionTimeout time.Duration
	PollInterval   time.Duration
	// TLS serves wss:// with a certificate from the local CA kept in ConfigDir.
	TLS       bool
	ConfigDir string

	mu         sync.Mutex
	devicePath string
	plugin     *bridge.Plugin
	server     *server.Server
	notifiers  []bridge.Notifier
}

func NewAgent(manager nfc.Manager) *Agent {
	return &Agent{
		Logger:  log.WithField("component", "agent"),
		Manager: manager,
		Port:    server.DefaultPort,
	}
}

// AddNotifier registers a notifier on every plugin the agent starts.
func (a *Agent) AddNotifier(n bridge.Notifier) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notifiers = append(a.notifiers, n)
	if a.plugin != nil {
		a.plugin.AddNotifier(n)
	}
}

func (a *Agent) Start(devicePath string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		if devicePath == a.devicePath {
			a.Logger.WithField("device", devicePath).Info("Agent already running on device")
			return nil
		}
		return errors.New("agent is already running")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	plugin := bridge.New(bridge.Config{
		Manager:        a.Manager,
		DevicePath:     devicePath,
		SessionTimeout: a.SessionTimeout,
		PollInterval:   a.PollInterval,
		Metrics:        bridge.NewMetrics(registry),
	})
	for _, n := range a.notifiers {
		plugin.AddNotifier(n)
	}

	srvConfig := server.Config{
		Plugin:     plugin,
		Port:       a.Port,
		APISecret:  a.APISecret,
		EnableMDNS: a.EnableMDNS,
		Registry:   registry,
	}
	if a.TLS {
		certs := tls.NewManager(a.ConfigDir)
		certFile, keyFile, err := certs.EnsureCertificates()
		if err != nil {
			a.Logger.WithError(err).Error("Error preparing TLS certificates")
			return err
		}
		srvConfig.TLSCertFile = certFile
		srvConfig.TLSKeyFile = keyFile
		srvConfig.CACert = certs.ReadCACert
	}

	srv := server.New(srvConfig)
	if err := srv.Start(); err != nil {
		a.Logger.WithError(err).Error("Error starting server")
		return err
	}

	if devices, err := a.Manager.ListDevices(); err != nil || len(devices) == 0 {
		a.Logger.Warn("No NFC reader connected; reads will fail until one is attached")
	} else {
		a.Logger.WithField("devices", devices).Info("NFC readers found")
	}

	a.devicePath = devicePath
	a.plugin = plugin
	a.server = srv
	a.Logger.WithFields(log.Fields{"addr": srv.Addr(), "device": devicePath}).Info("Agent started")
	return nil
}

func (a *Agent) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		a.Logger.Info("Agent is not running")
		return
	}

	a.Logger.Info("Stopping agent...")

	a.server.Stop()
	a.server = nil

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.plugin.Stop(ctx)
	a.plugin = nil

	a.Logger.Info("Agent stopped successfully")
}

// Running reports whether the server is up.
func (a *Agent) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.server != nil
}

// DevicePath returns the reader the agent was started with.
func (a *Agent) DevicePath() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.devicePath
}

// Status is a snapshot for the tray.
type Status struct {
	Running   bool
	Scheme    string
	Port      int
	Connected bool
	Client    string
	Session   bridge.Snapshot
}

func (a *Agent) Status() Status {
	a.mu.Lock()
	srv, plugin := a.server, a.plugin
	a.mu.Unlock()

	if srv == nil {
		return Status{Port: a.Port}
	}
	client, _ := srv.ClientAddr()
	return Status{
		Running:   true,
		Client:    client,
		Scheme:    srv.Scheme(),
		Port:      srv.Port(),
		Connected: srv.Connected(),
		Session:   plugin.Snapshot(),
	}
}
