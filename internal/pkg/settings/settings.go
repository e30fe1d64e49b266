package settings

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gethiox/chiralscroll/internal/pkg/logger"
	"github.com/go-ini/ini"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// GlobalSection is the section name of global settings, every other section describes a device
const GlobalSection = "Global Settings"

// Global settings are shared by all devices. Distances are expressed in units of slot height.
type Global struct {
	Enabled              bool    `ini:"enabled"`
	StartDeadzone        float64 `ini:"startDeadzone"`
	StartDeadzoneAngle   float64 `ini:"startDeadzoneAngle"`
	MoveDeadzone         float64 `ini:"moveDeadzone"`
	ReverseDeadzone      float64 `ini:"reverseDeadzone"`
	ReverseDeadzoneAngle float64 `ini:"reverseDeadzoneAngle"`
	SensScalingFactor    float64 `ini:"sensScalingFactor"`
}

// Device settings, stored per device name
type Device struct {
	Enabled         bool    `ini:"enabled"`
	TypingLockoutMs int     `ini:"typingLockoutMs"`
	VScrollZone     float64 `ini:"vScrollZone"`
	HScrollZone     float64 `ini:"hScrollZone"`
	VSens           float64 `ini:"vSens"`
	HSens           float64 `ini:"hSens"`
}

type Settings struct {
	Global  Global
	Devices map[string]Device
}

func DefaultGlobal() Global {
	return Global{
		Enabled:              true,
		StartDeadzone:        10.0 / 1784.0,
		StartDeadzoneAngle:   math.Pi / 4,
		MoveDeadzone:         10.0 / 1784.0,
		ReverseDeadzone:      20.0 / 1784.0,
		ReverseDeadzoneAngle: math.Pi,
		SensScalingFactor:    0.1,
	}
}

func DefaultDevice() Device {
	return Device{
		Enabled:         true,
		TypingLockoutMs: 500,
		VScrollZone:     0.1,
		HScrollZone:     0.1,
		VSens:           10,
		HSens:           10,
	}
}

func Default() Settings {
	return Settings{
		Global:  DefaultGlobal(),
		Devices: make(map[string]Device),
	}
}

// Parse reads INI formatted settings, missing keys keep their default values
func Parse(data []byte) (Settings, error) {
	f, err := ini.Load(data)
	if err != nil {
		return Settings{}, fmt.Errorf("settings: %w", err)
	}

	s := Default()
	for _, section := range f.Sections() {
		name := section.Name()
		switch name {
		case ini.DefaultSection:
			continue
		case GlobalSection:
			err = section.StrictMapTo(&s.Global)
			if err != nil {
				return Settings{}, fmt.Errorf("settings: parsing \"%s\": %w", name, err)
			}
		default:
			d := DefaultDevice()
			err = section.StrictMapTo(&d)
			if err != nil {
				return Settings{}, fmt.Errorf("settings: parsing \"%s\": %w", name, err)
			}
			s.Devices[name] = d
		}
	}
	return s, nil
}

// Load reads settings from given file, not existing file results in default settings
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Settings{}, fmt.Errorf("settings: %w", err)
	}
	return Parse(data)
}

func (s Settings) file() (*ini.File, error) {
	f := ini.Empty()

	global, err := f.NewSection(GlobalSection)
	if err != nil {
		return nil, err
	}
	err = global.ReflectFrom(&s.Global)
	if err != nil {
		return nil, fmt.Errorf("reflecting \"%s\": %w", GlobalSection, err)
	}

	names := make([]string, 0, len(s.Devices))
	for name := range s.Devices {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		d := s.Devices[name]
		section, err := f.NewSection(name)
		if err != nil {
			return nil, err
		}
		err = section.ReflectFrom(&d)
		if err != nil {
			return nil, fmt.Errorf("reflecting \"%s\": %w", name, err)
		}
	}
	return f, nil
}

// Save writes settings into given file, previous content is replaced atomically
func (s Settings) Save(path string) error {
	f, err := s.file()
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, err = f.WriteTo(tmp)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("settings: writing \"%s\": %w", tmp.Name(), err)
	}
	err = tmp.Close()
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	err = os.Rename(tmp.Name(), path)
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	return nil
}

// Store is a thread-safe handle on current settings
type Store struct {
	mu sync.RWMutex
	s  Settings
}

func NewStore(s Settings) *Store {
	if s.Devices == nil {
		s.Devices = make(map[string]Device)
	}
	return &Store{s: s}
}

func (st *Store) Global() Global {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Global
}

// Device returns settings of named device, defaults are stored for unseen names
func (st *Store) Device(name string) Device {
	st.mu.RLock()
	d, ok := st.s.Devices[name]
	st.mu.RUnlock()
	if ok {
		return d
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	d, ok = st.s.Devices[name]
	if !ok {
		d = DefaultDevice()
		st.s.Devices[name] = d
		log.Info("using default settings for new device", zap.String("device_name", name), logger.Info)
	}
	return d
}

// DeviceNames returns sorted names of all known devices
func (st *Store) DeviceNames() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	names := make([]string, 0, len(st.s.Devices))
	for name := range st.s.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToggleEnabled flips global enabled flag and returns the new value
func (st *Store) ToggleEnabled() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Global.Enabled = !st.s.Global.Enabled
	return st.s.Global.Enabled
}

// Replace swaps all settings at once. Devices known only to the store are kept,
// so defaults created at runtime survive a reload of an older file.
func (st *Store) Replace(s Settings) {
	st.mu.Lock()
	defer st.mu.Unlock()
	devices := make(map[string]Device, len(s.Devices))
	for name, d := range st.s.Devices {
		devices[name] = d
	}
	for name, d := range s.Devices {
		devices[name] = d
	}
	st.s = Settings{Global: s.Global, Devices: devices}
}

// Snapshot returns a deep copy of current settings
func (st *Store) Snapshot() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	devices := make(map[string]Device, len(st.s.Devices))
	for name, d := range st.s.Devices {
		devices[name] = d
	}
	return Settings{Global: st.s.Global, Devices: devices}
}

func (st *Store) Save(path string) error {
	return st.Snapshot().Save(path)
}
