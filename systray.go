package main

import (
	"fmt"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"fyne.io/systray"
	log "github.com/sirupsen/logrus"

	"github.com/dotside-studios/nfc-reader-bridge/bridge"
	"github.com/dotside-studios/nfc-reader-bridge/buildinfo"
	"github.com/dotside-studios/nfc-reader-bridge/server"
	"github.com/dotside-studios/nfc-reader-bridge/tls"
)

// SystrayApp manages the system tray interface for the agent
type SystrayApp struct {
	agent         *Agent
	currentDevice string
	log           *log.Entry

	// Menu items
	mStatus     *systray.MenuItem
	mClient     *systray.MenuItem
	mSession    *systray.MenuItem
	mPrompt     *systray.MenuItem
	mLastTag    *systray.MenuItem
	mNotice     *systray.MenuItem
	mURL        *systray.MenuItem
	mCopyURL    *systray.MenuItem
	mStart      *systray.MenuItem
	mStop       *systray.MenuItem
	mDeviceMenu *systray.MenuItem

	deviceMu        sync.Mutex
	deviceMenuItems map[string]*systray.MenuItem
}

// NewSystrayApp creates a new systray application and registers it as a notifier.
func NewSystrayApp(agent *Agent, initialDevice string) *SystrayApp {
	s := &SystrayApp{
		agent:           agent,
		currentDevice:   initialDevice,
		log:             log.WithField("component", "systray"),
		deviceMenuItems: make(map[string]*systray.MenuItem),
	}
	agent.AddNotifier(s)
	return s
}

// Run starts the systray application. It blocks until Quit.
func (s *SystrayApp) Run() {
	systray.Run(s.onReady, s.onExit)
}

func (s *SystrayApp) onReady() {
	s.setupUI()
	s.autoStartAgent()
	go s.statusUpdater()
}

func (s *SystrayApp) onExit() {
	s.agent.Stop()
}

// Notify implements bridge.Notifier.
func (s *SystrayApp) Notify(n bridge.Notice) {
	if s.mNotice == nil {
		return
	}
	s.mNotice.SetTitle(n.Message)
	s.mNotice.Show()
	systray.SetTooltip(n.Message)
}

// setupUI initializes all menu items
func (s *SystrayApp) setupUI() {
	systray.SetIcon(iconData)
	systray.SetTooltip(buildinfo.DisplayName)

	// Status section
	s.mStatus = systray.AddMenuItem("Starting...", "Agent Status")
	s.mStatus.Disable()
	s.mClient = systray.AddMenuItem("Client: None", "Connected client")
	s.mClient.Disable()

	s.mURL = systray.AddMenuItem("URL: Not running", "Method channel WebSocket URL")
	s.mURL.Disable()
	s.mCopyURL = systray.AddMenuItem("Copy URL", "Copy the WebSocket URL to clipboard")

	systray.AddSeparator()

	// Session section
	s.mSession = systray.AddMenuItem("Session: Idle", "Reader session state")
	s.mSession.Disable()
	s.mPrompt = systray.AddMenuItem("Prompt: None", "Instruction shown for the current read")
	s.mPrompt.Disable()
	s.mLastTag = systray.AddMenuItem("Last Tag: None", "Identifier of the last tag read")
	s.mLastTag.Disable()
	s.mNotice = systray.AddMenuItem("", "Last notice")
	s.mNotice.Disable()
	s.mNotice.Hide()

	systray.AddSeparator()

	// Device management section
	s.mDeviceMenu = systray.AddMenuItem("Device", "Select NFC Device")
	mRefreshDevices := s.mDeviceMenu.AddSubMenuItem("Refresh Devices", "Refresh device list")

	systray.AddSeparator()

	// Agent control section
	s.mStart = systray.AddMenuItem("Start Agent", "Start the NFC bridge")
	s.mStop = systray.AddMenuItem("Stop Agent", "Stop the NFC bridge")
	s.mStart.Disable() // Disable start since we're auto-starting
	s.mStop.Disable()  // Will be enabled once agent starts

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	go s.handleMenuEvents(mRefreshDevices, mQuit)
}

// autoStartAgent starts the agent automatically
func (s *SystrayApp) autoStartAgent() {
	go func() {
		if err := s.agent.Start(s.currentDevice); err == nil {
			s.updateStatus("Running")
			s.mStop.Enable()
		} else {
			s.updateStatus("Failed to Start")
			s.mStart.Enable()
		}
		s.updateDeviceList()
	}()
}

// statusUpdater polls the agent and refreshes the session section.
func (s *SystrayApp) statusUpdater() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var last Status
	first := true
	for range ticker.C {
		st := s.agent.Status()
		if !first && st == last {
			continue
		}
		first = false
		last = st

		s.renderStatus(st)
	}
}

func (s *SystrayApp) renderStatus(st Status) {
	if !st.Running {
		s.mURL.SetTitle("URL: Not running")
		s.mClient.SetTitle("Client: None")
		s.mSession.SetTitle("Session: Idle")
		return
	}

	s.mURL.SetTitle("URL: " + s.wsURL(st))

	if st.Connected {
		s.mClient.SetTitle("Client: " + st.Client)
	} else {
		s.mClient.SetTitle("Client: None")
	}

	switch {
	case st.Session.Active:
		s.mSession.SetTitle("Session: Reading")
		systray.SetIcon(iconDataReading)
	case st.Connected:
		s.mSession.SetTitle("Session: Idle")
		systray.SetIcon(iconDataConnected)
	default:
		s.mSession.SetTitle("Session: Idle")
		systray.SetIcon(iconData)
	}

	if st.Session.Active && st.Session.Prompt != "" {
		s.mPrompt.SetTitle("Prompt: " + st.Session.Prompt)
	} else {
		s.mPrompt.SetTitle("Prompt: None")
	}

	if st.Session.LastID != "" {
		s.mLastTag.SetTitle("Last Tag: " + st.Session.LastID)
	} else {
		s.mLastTag.SetTitle("Last Tag: None")
	}
}

// handleMenuEvents processes all menu click events
func (s *SystrayApp) handleMenuEvents(mRefreshDevices, mQuit *systray.MenuItem) {
	for {
		select {
		case <-s.mStart.ClickedCh:
			s.handleStartAgent()
		case <-s.mStop.ClickedCh:
			s.handleStopAgent()
		case <-mRefreshDevices.ClickedCh:
			s.updateDeviceList()
		case <-s.mCopyURL.ClickedCh:
			st := s.agent.Status()
			if !st.Running {
				continue
			}
			if err := copyToClipboard(s.wsURL(st)); err != nil {
				s.log.WithError(err).Warn("Failed to copy to clipboard")
			} else {
				s.log.Info("Copied WebSocket URL to clipboard")
			}
		case <-mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

// handleStartAgent starts the agent
func (s *SystrayApp) handleStartAgent() {
	if err := s.agent.Start(s.currentDevice); err == nil {
		s.updateStatus("Running")
		s.mStart.Disable()
		s.mStop.Enable()
	} else {
		s.updateStatus("Failed to Start")
	}
}

// handleStopAgent stops the agent
func (s *SystrayApp) handleStopAgent() {
	s.agent.Stop()
	s.updateStatus("Stopped")
	s.mStop.Disable()
	s.mStart.Enable()
}

// switchDevice restarts the agent on deviceName
func (s *SystrayApp) switchDevice(deviceName string) {
	s.deviceMu.Lock()
	if s.currentDevice == deviceName {
		s.deviceMu.Unlock()
		return
	}
	for name, item := range s.deviceMenuItems {
		if name == deviceName {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
	s.currentDevice = deviceName
	s.deviceMu.Unlock()

	if !s.agent.Running() {
		return
	}

	s.log.WithField("device", deviceName).Info("Switching NFC device")
	s.agent.Stop()
	if err := s.agent.Start(deviceName); err == nil {
		s.updateStatus("Running")
		s.mStop.Enable()
		s.mStart.Disable()
	} else {
		s.updateStatus("Failed to Start")
		s.mStart.Enable()
		s.mStop.Disable()
	}
}

// updateDeviceList refreshes the list of available devices
func (s *SystrayApp) updateDeviceList() {
	devices, err := s.agent.Manager.ListDevices()
	if err != nil {
		s.log.WithError(err).Warn("Error listing devices")
		return
	}

	s.deviceMu.Lock()
	defer s.deviceMu.Unlock()

	// systray cannot remove items, so stale ones are hidden
	for _, item := range s.deviceMenuItems {
		item.Hide()
	}
	s.deviceMenuItems = make(map[string]*systray.MenuItem)

	for _, device := range devices {
		deviceName := device
		isChecked := s.currentDevice == deviceName || (s.currentDevice == "" && len(s.deviceMenuItems) == 0)
		item := s.mDeviceMenu.AddSubMenuItemCheckbox(deviceName, "Select this device", isChecked)
		s.deviceMenuItems[deviceName] = item

		go func() {
			for range item.ClickedCh {
				s.switchDevice(deviceName)
			}
		}()
	}
}

// updateStatus updates the status menu item and icon
func (s *SystrayApp) updateStatus(status string) {
	s.mStatus.SetTitle(status)

	switch status {
	case "Running":
		systray.SetIcon(iconData)
	case "Failed to Start":
		systray.SetIcon(iconDataError)
	case "Stopped":
		systray.SetIcon(iconDataStopped)
	default:
		systray.SetIcon(iconData)
	}
}

func (s *SystrayApp) wsURL(st Status) string {
	host := "localhost"
	if ips, err := tls.GetLANIPs(); err == nil && len(ips) > 0 {
		host = ips[0]
	}
	return fmt.Sprintf("%s://%s:%d%s", st.Scheme, host, st.Port, server.PathWebSocket)
}

// copyToClipboard copies text to the system clipboard
func copyToClipboard(text string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("pbcopy")
	case "linux":
		cmd = exec.Command("xclip", "-selection", "clipboard")
	case "windows":
		cmd = exec.Command("clip")
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	if _, err := stdin.Write([]byte(text)); err != nil {
		return err
	}

	stdin.Close()
	return cmd.Wait()
}
