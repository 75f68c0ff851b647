// Package main runs the NFC reader bridge: a local agent that exposes an NFC
// reader to applications through a WebSocket method channel (NfcRead, NfcStop,
// NfcWrite, NfcAvailable) and an event channel of tag records.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"fyne.io/systray"
	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/dotside-studios/nfc-reader-bridge/buildinfo"
	"github.com/dotside-studios/nfc-reader-bridge/nfc"
	"github.com/dotside-studios/nfc-reader-bridge/server"
	"github.com/dotside-studios/nfc-reader-bridge/tls"
)

var (
	app = kingpin.New(buildinfo.Name, buildinfo.Description)

	driverFlag         = app.Flag("driver", "NFC driver to use (libnfc or pcsc).").Default(nfc.DriverLibNFC).Enum(nfc.DriverLibNFC, nfc.DriverPCSC)
	devicePathFlag     = app.Flag("device", "Reader to open; empty picks the first one.").Default("").String()
	portFlag           = app.Flag("port", "Port to listen on for the WebSocket method channel.").Default("18080").Int()
	apiSecretFlag      = app.Flag("api-secret", "Secret clients must pass as ?secret= (optional).").Default("").String()
	sessionTimeoutFlag = app.Flag("session-timeout", "Reader session timeout; 0 uses the default, negative disables it.").Default("60s").Duration()
	pollIntervalFlag   = app.Flag("poll-interval", "Interval between reader polls.").Default("250ms").Duration()
	noMDNSFlag         = app.Flag("no-mdns", "Do not advertise the bridge over mDNS.").Bool()
	tlsFlag            = app.Flag("tls", "Serve wss:// with a certificate from a locally trusted CA.").Bool()
	configDirFlag      = app.Flag("config-dir", "Directory for the local CA and certificates; defaults to the user config dir.").String()
	cliFlag            = app.Flag("cli", "Run in CLI mode (default: system tray mode).").Bool()
	logLevelFlag       = app.Flag("log-level", "Log level (debug, info, warn, error).").Default("info").Enum("debug", "info", "warn", "error")
)

func setupLogging(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

func main() {
	app.Version(buildinfo.BuildInfo())
	app.HelpFlag.Short('h')
	kingpin.MustParse(app.Parse(os.Args[1:]))

	setupLogging(*logLevelFlag)
	log.WithFields(log.Fields{
		"version": buildinfo.FullVersion(),
		"driver":  *driverFlag,
	}).Infof("Starting %s", buildinfo.DisplayName)

	manager, err := nfc.NewManager(*driverFlag)
	if err != nil {
		log.WithError(err).Fatal("Failed to create NFC manager")
	}
	if r, ok := manager.(nfc.Releaser); ok {
		defer r.Release()
	}

	agent := NewAgent(manager)
	agent.Port = *portFlag
	if agent.Port == 0 {
		agent.Port = server.DefaultPort
	}
	agent.APISecret = *apiSecretFlag
	agent.EnableMDNS = !*noMDNSFlag
	agent.SessionTimeout = *sessionTimeoutFlag
	agent.PollInterval = *pollIntervalFlag
	agent.TLS = *tlsFlag
	agent.ConfigDir = *configDirFlag
	if agent.TLS && agent.ConfigDir == "" {
		if agent.ConfigDir, err = tls.DefaultConfigDir(); err != nil {
			log.WithError(err).Fatal("Failed to locate config directory, pass --config-dir")
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Run in CLI mode only if explicitly requested
	if *cliFlag {
		if err := agent.Start(*devicePathFlag); err != nil {
			log.WithError(err).Fatal("Failed to start agent")
		}
		defer agent.Stop()

		<-sigChan
		log.Info("Shutdown signal received, stopping agent...")
		return
	}

	go func() {
		<-sigChan
		systray.Quit()
	}()

	NewSystrayApp(agent, *devicePathFlag).Run()
}
