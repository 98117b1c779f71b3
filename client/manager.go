package client

import (
	"fmt"
	"time"

	"github.com/hostmux/muxd/clog"
	"github.com/hostmux/muxd/config"
)

var log = clog.New("server")
var clientLog = clog.New("client")

// Manager owns the global binary table and the clients instantiated from
// "client" directives. It is built once during configuration parsing;
// Drain hands its client lists to the controller (or, without a
// controller, Start spawns every client directly and blocks forever.
type Manager struct {
	Binaries []config.BinaryFile
	Names    []string

	serial   []*SerialClient
	ethernet []*EthernetClient
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// RegisterBinary enforces the §3 uniqueness invariants (path always
// unique; a non-empty name unique) before appending to the binary table.
func (m *Manager) RegisterBinary(path string, name *string) error {
	for _, b := range m.Binaries {
		if b.Path == path {
			return fmt.Errorf("duplicate binary path %q", path)
		}
		if name != nil && b.Name == *name {
			return fmt.Errorf("duplicate binary name %q", *name)
		}
	}
	entry := config.BinaryFile{Path: path}
	if name != nil {
		entry.Name = *name
	}
	m.Binaries = append(m.Binaries, entry)
	return nil
}

// Initialize resolves qualifiedName's config file under lookupDir via
// config.CheckedPath, interprets it, and appends the resulting client to
// the serial or ethernet list. name (the bare, unprefixed client name) is
// what gets registered for uniqueness and for later client lookups by
// name (the controller's "target" directive); qualifiedName (name with the "@client" prefix applied)
// is only used to resolve the config file path. index is the client's
// declaration order and its routing index. See the prefix/uniqueness
// decision in DESIGN.md.
func (m *Manager) Initialize(lookupDir, name, qualifiedName string, index uint8) error {
	for _, existing := range m.Names {
		if existing == name {
			return fmt.Errorf("duplicate client name %q", name)
		}
	}
	path, ok := config.CheckedPath(lookupDir, qualifiedName, "client", false)
	if !ok {
		return fmt.Errorf("no config file found for client %q under %q", qualifiedName, lookupDir)
	}
	res, err := loadClientConfig(path, name, index, m.Binaries)
	if err != nil {
		return err
	}
	m.Names = append(m.Names, name)

	if res.mode.IsEthernet {
		m.ethernet = append(m.ethernet, newEthernetClient(res.ctx, res.mode.EthernetIP, DefaultDialPolicy()))
		return nil
	}
	sc, err := newSerialClient(res.ctx, res.mode.SerialPath, res.baud)
	if err != nil {
		return err
	}
	m.serial = append(m.serial, sc)
	return nil
}

// Drain returns the accumulated serial and ethernet clients. It is
// consumed once, at startup, by the controller (or by Start when no
// controller is configured).
func (m *Manager) Drain() ([]*SerialClient, []*EthernetClient) {
	s, e := m.serial, m.ethernet
	m.serial, m.ethernet = nil, nil
	return s, e
}

// Start spawns every client and blocks forever. It is the terminal call
// used when the top-level config never declares a controller.
func (m *Manager) Start() {
	serial, ethernet := m.Drain()
	for _, c := range serial {
		c.Start()
	}
	for _, c := range ethernet {
		c.Start()
	}
	log.Debug("no controller configured, %d serial and %d ethernet clients started", len(serial), len(ethernet))
	select {}
}

// All merges serial and ethernet clients into a single map keyed by
// declaration order, per the sparse-placement design note (§9): rather
// than pre-sizing a vector and writing at client.Index(), it builds a
// dense map from index to Client.
func All(serial []*SerialClient, ethernet []*EthernetClient) map[uint8]Client {
	out := make(map[uint8]Client, len(serial)+len(ethernet))
	for _, c := range serial {
		out[c.Index()] = c
	}
	for _, c := range ethernet {
		out[c.Index()] = c
	}
	return out
}

// DialPolicy governs the ethernet client's dial and redial behavior; see
// the Ethernet Transport decision in DESIGN.md.
type DialPolicy struct {
	Port           int
	DialTimeout    time.Duration
	RedialInterval time.Duration
}

// DefaultDialPolicy returns the conservative defaults this implementation
// commits to for the open ethernet-transport question.
func DefaultDialPolicy() DialPolicy {
	return DialPolicy{
		Port:           9191,
		DialTimeout:    5 * time.Second,
		RedialInterval: 2 * time.Second,
	}
}
