package main

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/gethiox/chiralscroll/internal/pkg/logger"
	"github.com/go-ini/ini"
)

type ChiralScroll struct {
	DiscoveryRate       time.Duration
	StabilizationPeriod time.Duration
	LogViewRate         time.Duration
	LogBufferSize       int
	SettingsFile        string
	SuppressPointer     bool
	VirtualDeviceName   string
}

type ChiralScrollConfig struct {
	ChiralScroll ChiralScroll
}

type rawConfig struct {
	DiscoveryRate       int    `ini:"discovery_rate"`
	StabilizationPeriod int    `ini:"stabilization_period"`
	LogViewRate         int    `ini:"log_view_rate"`
	LogBufferSize       int    `ini:"log_buffer_size"`
	SettingsFile        string `ini:"settings_file"`
	SuppressPointer     bool   `ini:"suppress_pointer"`
	VirtualDeviceName   string `ini:"virtual_device_name"`
}

func ParseConfig(data []byte) (ChiralScrollConfig, error) {
	cfg, err := ini.Load(data)
	if err != nil {
		return ChiralScrollConfig{}, err
	}

	section, err := cfg.GetSection("chiralscroll")
	if err != nil {
		return ChiralScrollConfig{}, err
	}

	raw := rawConfig{
		DiscoveryRate:       1,
		StabilizationPeriod: 200,
		LogViewRate:         30,
		LogBufferSize:       500,
		SettingsFile:        configDir + "/settings.ini",
		VirtualDeviceName:   "ChiralScroll virtual wheel",
	}
	err = section.StrictMapTo(&raw)
	if err != nil {
		return ChiralScrollConfig{}, err
	}

	for name, v := range map[string]int{
		"discovery_rate": raw.DiscoveryRate,
		"log_view_rate":  raw.LogViewRate,
	} {
		if v <= 0 {
			return ChiralScrollConfig{}, fmt.Errorf("%s has to be positive, got %d", name, v)
		}
	}

	var c ChiralScrollConfig
	c.ChiralScroll.DiscoveryRate = time.Second / time.Duration(raw.DiscoveryRate)
	c.ChiralScroll.StabilizationPeriod = time.Millisecond * time.Duration(raw.StabilizationPeriod)
	c.ChiralScroll.LogViewRate = time.Second / time.Duration(raw.LogViewRate)
	c.ChiralScroll.LogBufferSize = raw.LogBufferSize
	c.ChiralScroll.SettingsFile = raw.SettingsFile
	c.ChiralScroll.SuppressPointer = raw.SuppressPointer
	c.ChiralScroll.VirtualDeviceName = raw.VirtualDeviceName
	return c, nil
}

// defaultConfig returns configuration of the embedded template
func defaultConfig() ChiralScrollConfig {
	data, err := templateConfig.ReadFile(configDir + "/chiralscroll.config")
	if err != nil {
		panic(err)
	}
	c, err := ParseConfig(data)
	if err != nil {
		panic(err)
	}
	return c
}

func LoadConfig(path string) (ChiralScrollConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ChiralScrollConfig{}, fmt.Errorf("reading config failed: %w", err)
	}

	c, err := ParseConfig(data)
	if err != nil {
		return ChiralScrollConfig{}, fmt.Errorf("parsing \"%s\" failed: %w", path, err)
	}
	return c, nil
}

//go:embed chiralscroll-config/chiralscroll.config
//go:embed chiralscroll-config/settings.ini
var templateConfig embed.FS

const configDir = "chiralscroll-config"

// createConfigDirectoryIfNeeded creates config directory with default files if necessary.
// Existing files stay intact, they belong to the user.
func createConfigDirectoryIfNeeded() error {
	_, err := os.Stat(configDir)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cannot open config directory: %w", err)
	}
	log.Info("config not exist, generating tree...", logger.Info)

	err = fs.WalkDir(templateConfig, configDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			err := os.Mkdir(path, 0o777)
			if err != nil {
				return fmt.Errorf("cannot create \"%s\" directory: %w", path, err)
			}
			return nil
		}

		data, err := fs.ReadFile(templateConfig, path)
		if err != nil {
			return fmt.Errorf("cannot read \"%s\" template file: %w", path, err)
		}

		err = os.WriteFile(path, data, 0o666)
		if err != nil {
			return fmt.Errorf("cannot write data into \"%s\" file: %w", path, err)
		}

		log.Info(fmt.Sprintf("Created \"%s\" file", path), logger.Debug)
		return nil
	})
	if err != nil {
		return fmt.Errorf("config generation failed: %w", err)
	}

	log.Info("config generation done", logger.Info)
	return nil
}
