package tls

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jittering/truststore"
	log "github.com/sirupsen/logrus"

	"github.com/dotside-studios/nfc-reader-bridge/buildinfo"
)

// Manager keeps a server certificate signed by a local CA that is installed
// in the system trust store. The certificate covers localhost and every LAN
// address so browsers accept wss:// from any of them.
type Manager struct {
	tlsDir     string
	caDir      string
	caCertFile string
	certFile   string
	keyFile    string
	hostsFile  string
	log        *log.Entry

	lookupHosts func() ([]string, error)
	issue       func(hosts []string) (certFile, keyFile string, err error)
}

// issuedHosts is what hosts.json records about the last issued certificate.
type issuedHosts struct {
	Hosts    []string  `json:"hosts"`
	IssuedAt time.Time `json:"issued_at"`
}

// DefaultConfigDir returns the per-user directory the bridge keeps its
// certificates in.
func DefaultConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, buildinfo.Name), nil
}

// NewManager creates a certificate manager rooted at configDir.
func NewManager(configDir string) *Manager {
	tlsDir := filepath.Join(configDir, "tls")
	caDir := filepath.Join(configDir, "ca")
	m := &Manager{
		tlsDir:      tlsDir,
		caDir:       caDir,
		caCertFile:  filepath.Join(caDir, "rootCA.pem"),
		certFile:    filepath.Join(tlsDir, "server.crt"),
		keyFile:     filepath.Join(tlsDir, "server.key"),
		hostsFile:   filepath.Join(tlsDir, "hosts.json"),
		log:         log.WithField("component", "tls"),
		lookupHosts: GetAllHosts,
	}
	m.issue = m.issueWithTruststore
	return m
}

// EnsureCertificates returns the server certificate and key, issuing new ones
// when none exist or the machine's addresses changed since the last issue.
// Issuing installs the CA on first use, which may prompt for a password.
func (m *Manager) EnsureCertificates() (certFile, keyFile string, err error) {
	if err := os.MkdirAll(m.tlsDir, 0700); err != nil {
		return "", "", fmt.Errorf("failed to create TLS directory: %w", err)
	}

	hosts, err := m.lookupHosts()
	if err != nil {
		m.log.WithError(err).Warn("Failed to list LAN addresses; certificate will cover localhost only")
		hosts = []string{"localhost", "127.0.0.1"}
	}

	switch {
	case !m.certsExist():
		m.log.Info("No server certificate yet, issuing one")
	case m.hostsChanged(hosts):
		m.log.Info("Network addresses changed, reissuing server certificate")
	default:
		m.log.WithField("cert", m.certFile).Debug("Using existing server certificate")
		return m.certFile, m.keyFile, nil
	}

	m.log.WithField("hosts", hosts).Info("Issuing server certificate")
	cert, key, err := m.issue(hosts)
	if err != nil {
		return "", "", err
	}
	if err := moveFile(cert, m.certFile); err != nil {
		return "", "", fmt.Errorf("failed to store certificate: %w", err)
	}
	if err := moveFile(key, m.keyFile); err != nil {
		return "", "", fmt.Errorf("failed to store key: %w", err)
	}

	if err := m.writeCachedHosts(hosts); err != nil {
		m.log.WithError(err).Warn("Failed to record certificate hosts")
	}
	if fingerprint, err := m.CAFingerprint(); err == nil {
		m.log.WithField("sha256", fingerprint).Info("Server certificate issued by local CA")
	}

	return m.certFile, m.keyFile, nil
}

func moveFile(from, to string) error {
	if from == to {
		return nil
	}
	return os.Rename(from, to)
}

func (m *Manager) issueWithTruststore(hosts []string) (string, string, error) {
	if err := os.MkdirAll(m.caDir, 0700); err != nil {
		return "", "", fmt.Errorf("failed to create CA directory: %w", err)
	}
	// truststore reads the CA location from the environment.
	os.Setenv("CAROOT", m.caDir)

	ml, err := truststore.NewLib()
	if err != nil {
		return "", "", fmt.Errorf("failed to initialize truststore: %w", err)
	}

	m.log.Info("Installing local CA in the system trust store (you may be prompted for your password)")
	if err := ml.Install(); err != nil {
		return "", "", fmt.Errorf("failed to install CA: %w", err)
	}

	cert, err := ml.MakeCert(hosts, m.tlsDir)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate certificate: %w", err)
	}
	return cert.CertFile, cert.KeyFile, nil
}

func (m *Manager) certsExist() bool {
	_, certErr := os.Stat(m.certFile)
	_, keyErr := os.Stat(m.keyFile)
	return certErr == nil && keyErr == nil
}

// hostsChanged compares hosts with the ones the current certificate was
// issued for, ignoring order.
func (m *Manager) hostsChanged(hosts []string) bool {
	cached, err := m.readCachedHosts()
	if err != nil || len(cached) != len(hosts) {
		return true
	}

	a := append([]string(nil), cached...)
	b := append([]string(nil), hosts...)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return true
		}
	}
	return false
}

func (m *Manager) readCachedHosts() ([]string, error) {
	data, err := os.ReadFile(m.hostsFile)
	if err != nil {
		return nil, err
	}
	var issued issuedHosts
	if err := json.Unmarshal(data, &issued); err != nil {
		return nil, fmt.Errorf("corrupt %s: %w", filepath.Base(m.hostsFile), err)
	}
	return issued.Hosts, nil
}

func (m *Manager) writeCachedHosts(hosts []string) error {
	data, err := json.MarshalIndent(issuedHosts{Hosts: hosts, IssuedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.hostsFile, data, 0600)
}

// CertFile returns the path to the server certificate.
func (m *Manager) CertFile() string {
	return m.certFile
}

// KeyFile returns the path to the server key.
func (m *Manager) KeyFile() string {
	return m.keyFile
}

// CAFingerprint returns the SHA256 fingerprint of the CA certificate as
// colon separated hex.
func (m *Manager) CAFingerprint() (string, error) {
	certPEM, err := m.ReadCACert()
	if err != nil {
		return "", fmt.Errorf("failed to read CA certificate: %w", err)
	}

	block, _ := pem.Decode(certPEM)
	if block == nil {
		return "", errors.New("failed to decode PEM block")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return "", fmt.Errorf("failed to parse certificate: %w", err)
	}

	sum := sha256.Sum256(cert.Raw)
	parts := make([]string, len(sum))
	for i, b := range sum {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, ":"), nil
}

// ReadCACert returns the CA certificate PEM so other devices can trust it.
func (m *Manager) ReadCACert() ([]byte, error) {
	return os.ReadFile(m.caCertFile)
}
