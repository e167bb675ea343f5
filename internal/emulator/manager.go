package emulator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"jordanella.com/pk-hunter/internal/adb"
)

// Mode selects the automation a device runs
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModePK     Mode = "pk"
	ModeHybrid Mode = "hybrid"
)

// ParseMode converts a settings or flag value into a Mode
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAuto, ModePK, ModeHybrid:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want auto, pk or hybrid)", s)
	}
}

// Device is one controllable emulator or phone
type Device struct {
	Serial   string
	Title    string
	Raw      adb.DeviceInfo
	Mode     Mode
	Selected bool
	Width    int
	Height   int
}

// Lister is the part of the control channel discovery needs
type Lister interface {
	ListDevices(ctx context.Context) ([]adb.DeviceInfo, error)
	WindowSize(ctx context.Context, serial string) (int, int, error)
}

// Manager keeps the set of discovered devices. Selection and mode survive
// refreshes; devices no longer reported are dropped.
type Manager struct {
	mu          sync.RWMutex
	lister      Lister
	titles      TitleSource
	defaultMode Mode
	devices     map[string]*Device
}

// NewManager creates a device manager. titles may be nil.
func NewManager(lister Lister, titles TitleSource, defaultMode Mode) *Manager {
	if defaultMode == "" {
		defaultMode = ModePK
	}
	return &Manager{
		lister:      lister,
		titles:      titles,
		defaultMode: defaultMode,
		devices:     make(map[string]*Device),
	}
}

// Refresh rediscovers online devices and returns the new set
func (m *Manager) Refresh(ctx context.Context) ([]Device, error) {
	infos, err := m.lister.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	var titles map[string]string
	if m.titles != nil {
		// Titles are cosmetic; the serial is used when the console is unavailable.
		titles, _ = m.titles(ctx)
	}

	found := make(map[string]*Device)
	for _, info := range infos {
		if !info.Online() {
			continue
		}
		d := &Device{Serial: info.Serial, Raw: info, Title: info.Serial, Mode: m.defaultMode}
		if t, ok := titles[info.Serial]; ok {
			d.Title = t
		}
		if w, h, err := m.lister.WindowSize(ctx, info.Serial); err == nil {
			d.Width, d.Height = w, h
		}
		found[info.Serial] = d
	}

	m.mu.Lock()
	for serial, d := range found {
		if prev, ok := m.devices[serial]; ok {
			d.Mode = prev.Mode
			d.Selected = prev.Selected
		}
	}
	m.devices = found
	m.mu.Unlock()

	return m.Devices(), nil
}

// Devices returns a snapshot sorted by serial
func (m *Manager) Devices() []Device {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Device, 0, len(m.devices))
	for _, d := range m.devices {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Serial < out[j].Serial })
	return out
}

// Selected returns the devices marked for automation
func (m *Manager) Selected() []Device {
	var out []Device
	for _, d := range m.Devices() {
		if d.Selected {
			out = append(out, d)
		}
	}
	return out
}

// Get returns one device
func (m *Manager) Get(serial string) (Device, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.devices[serial]
	if !ok {
		return Device{}, false
	}
	return *d, true
}

// Select marks or unmarks a device
func (m *Manager) Select(serial string, selected bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[serial]
	if !ok {
		return fmt.Errorf("device %s not found", serial)
	}
	d.Selected = selected
	return nil
}

// SetMode changes the automation mode of a device
func (m *Manager) SetMode(serial string, mode Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[serial]
	if !ok {
		return fmt.Errorf("device %s not found", serial)
	}
	d.Mode = mode
	return nil
}
