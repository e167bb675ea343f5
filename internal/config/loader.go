package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/ini.v1"
	"jordanella.com/pk-hunter/internal/combat"
	"jordanella.com/pk-hunter/internal/logging"
)

// Settings is the content of Settings.ini
type Settings struct {
	ADB     ADBSettings
	Vision  VisionSettings
	Combat  CombatSettings
	Auto    AutoSettings
	Logging logging.Config
	Storage StorageSettings
}

// ADBSettings configures the control channel
type ADBSettings struct {
	Path           string // Empty searches known install locations
	Port           int
	GateCapacity   int
	ResetInterval  time.Duration
	CommandTimeout time.Duration
}

// VisionSettings holds match thresholds
type VisionSettings struct {
	Threshold       float64
	UIThreshold     float64
	SummonThreshold float64
	VitalMinPixels  int
}

// CombatSettings tunes the combat agents
type CombatSettings struct {
	Mode            string // Default mode for newly discovered devices
	Boss            bool   // Hybrid agents scan the boss bar
	NoTargetTimeout time.Duration
	SkillCastDelay  time.Duration
	RespawnBudget   int
	RespawnSettle   time.Duration
	NavCheckEvery   int
	CycleDelay      time.Duration
	ErrorBackoff    time.Duration
	Skills          []string
}

// AutoSettings tunes the template-tap worker
type AutoSettings struct {
	Templates       []string
	Threshold       float64
	PollInterval    time.Duration
	Cooldown        time.Duration
	WaitAfterAppear time.Duration
}

// StorageSettings locates templates, calibrations and the journal
type StorageSettings struct {
	TemplateDir string
	ConfigDir   string
	RegistryDir string
	Database    string // Empty disables the journal
}

// Default returns the built-in settings
func Default() *Settings {
	pk := combat.DefaultConfig()
	auto := combat.DefaultAutoConfig()
	return &Settings{
		ADB: ADBSettings{
			Port:           5037,
			GateCapacity:   4,
			ResetInterval:  20 * time.Minute,
			CommandTimeout: 15 * time.Second,
		},
		Vision: VisionSettings{
			Threshold:       pk.Threshold,
			UIThreshold:     pk.UIThreshold,
			SummonThreshold: pk.SummonThreshold,
			VitalMinPixels:  pk.VitalMinPixels,
		},
		Combat: CombatSettings{
			Mode:            "pk",
			NoTargetTimeout: pk.NoTargetTimeout,
			SkillCastDelay:  pk.SkillCastDelay,
			RespawnBudget:   pk.RespawnBudget,
			RespawnSettle:   pk.RespawnSettle,
			NavCheckEvery:   pk.NavCheckEvery,
			CycleDelay:      pk.CycleDelay,
			ErrorBackoff:    pk.ErrorBackoff,
			Skills:          pk.Templates.Skills,
		},
		Auto: AutoSettings{
			Threshold:    auto.Threshold,
			PollInterval: auto.PollInterval,
			Cooldown:     auto.Cooldown,
		},
		Logging: logging.DefaultConfig(),
		Storage: StorageSettings{
			TemplateDir: "templates",
			ConfigDir:   "config",
			RegistryDir: "templates/registry",
			Database:    "data/journal.db",
		},
	}
}

// LoadSettings reads Settings.ini. A missing file yields the defaults.
func LoadSettings(path string) (*Settings, error) {
	s := Default()

	cfg, err := ini.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	section := cfg.Section("Adb")
	s.ADB.Path = section.Key("Path").MustString(s.ADB.Path)
	s.ADB.Port = section.Key("Port").MustInt(s.ADB.Port)
	s.ADB.GateCapacity = section.Key("MaxConcurrent").MustInt(s.ADB.GateCapacity)
	s.ADB.ResetInterval = minutes(section, "ResetIntervalMinutes", s.ADB.ResetInterval)
	s.ADB.CommandTimeout = millis(section, "CommandTimeoutMs", s.ADB.CommandTimeout)

	section = cfg.Section("Vision")
	s.Vision.Threshold = section.Key("Threshold").MustFloat64(s.Vision.Threshold)
	s.Vision.UIThreshold = section.Key("UIThreshold").MustFloat64(s.Vision.UIThreshold)
	s.Vision.SummonThreshold = section.Key("SummonThreshold").MustFloat64(s.Vision.SummonThreshold)
	s.Vision.VitalMinPixels = section.Key("VitalMinPixels").MustInt(s.Vision.VitalMinPixels)

	section = cfg.Section("Combat")
	s.Combat.Mode = section.Key("Mode").MustString(s.Combat.Mode)
	s.Combat.Boss = section.Key("Boss").MustBool(s.Combat.Boss)
	s.Combat.NoTargetTimeout = millis(section, "NoTargetTimeoutMs", s.Combat.NoTargetTimeout)
	s.Combat.SkillCastDelay = millis(section, "SkillCastDelayMs", s.Combat.SkillCastDelay)
	s.Combat.RespawnBudget = section.Key("RespawnBudget").MustInt(s.Combat.RespawnBudget)
	s.Combat.RespawnSettle = millis(section, "RespawnSettleMs", s.Combat.RespawnSettle)
	s.Combat.NavCheckEvery = section.Key("NavCheckEvery").MustInt(s.Combat.NavCheckEvery)
	s.Combat.CycleDelay = millis(section, "CycleDelayMs", s.Combat.CycleDelay)
	s.Combat.ErrorBackoff = millis(section, "ErrorBackoffMs", s.Combat.ErrorBackoff)
	s.Combat.Skills = list(section, "Skills", s.Combat.Skills)

	section = cfg.Section("Auto")
	s.Auto.Templates = list(section, "Templates", s.Auto.Templates)
	s.Auto.Threshold = section.Key("Threshold").MustFloat64(s.Auto.Threshold)
	s.Auto.PollInterval = millis(section, "PollIntervalMs", s.Auto.PollInterval)
	s.Auto.Cooldown = millis(section, "CooldownMs", s.Auto.Cooldown)
	s.Auto.WaitAfterAppear = millis(section, "WaitAfterAppearMs", s.Auto.WaitAfterAppear)

	section = cfg.Section("Logging")
	s.Logging.Level = section.Key("Level").MustString(s.Logging.Level)
	s.Logging.Format = section.Key("Format").MustString(s.Logging.Format)
	s.Logging.File = section.Key("File").MustString(s.Logging.File)
	s.Logging.MaxSizeMB = section.Key("MaxSizeMB").MustInt(s.Logging.MaxSizeMB)
	s.Logging.MaxBackups = section.Key("MaxBackups").MustInt(s.Logging.MaxBackups)
	s.Logging.MaxAgeDays = section.Key("MaxAgeDays").MustInt(s.Logging.MaxAgeDays)
	s.Logging.Compress = section.Key("Compress").MustBool(s.Logging.Compress)

	section = cfg.Section("Storage")
	s.Storage.TemplateDir = section.Key("TemplateDir").MustString(s.Storage.TemplateDir)
	s.Storage.ConfigDir = section.Key("ConfigDir").MustString(s.Storage.ConfigDir)
	s.Storage.RegistryDir = section.Key("RegistryDir").MustString(s.Storage.RegistryDir)
	s.Storage.Database = section.Key("Database").MustString(s.Storage.Database)

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return s, nil
}

// Validate rejects settings the agents cannot run with
func (s *Settings) Validate() error {
	for name, v := range map[string]float64{
		"Vision.Threshold":       s.Vision.Threshold,
		"Vision.UIThreshold":     s.Vision.UIThreshold,
		"Vision.SummonThreshold": s.Vision.SummonThreshold,
		"Auto.Threshold":         s.Auto.Threshold,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s %.2f outside (0,1]", name, v)
		}
	}
	if s.ADB.GateCapacity < 1 {
		return fmt.Errorf("Adb.MaxConcurrent must be at least 1, got %d", s.ADB.GateCapacity)
	}
	if s.Combat.RespawnBudget < 0 {
		return fmt.Errorf("Combat.RespawnBudget must not be negative")
	}
	return nil
}

// SaveSettings writes s to path
func SaveSettings(s *Settings, path string) error {
	cfg := ini.Empty()

	section := cfg.Section("Adb")
	section.Key("Path").SetValue(s.ADB.Path)
	section.Key("Port").SetValue(fmt.Sprintf("%d", s.ADB.Port))
	section.Key("MaxConcurrent").SetValue(fmt.Sprintf("%d", s.ADB.GateCapacity))
	section.Key("ResetIntervalMinutes").SetValue(fmt.Sprintf("%d", int(s.ADB.ResetInterval/time.Minute)))
	section.Key("CommandTimeoutMs").SetValue(fmt.Sprintf("%d", s.ADB.CommandTimeout.Milliseconds()))

	section = cfg.Section("Vision")
	section.Key("Threshold").SetValue(fmt.Sprintf("%g", s.Vision.Threshold))
	section.Key("UIThreshold").SetValue(fmt.Sprintf("%g", s.Vision.UIThreshold))
	section.Key("SummonThreshold").SetValue(fmt.Sprintf("%g", s.Vision.SummonThreshold))
	section.Key("VitalMinPixels").SetValue(fmt.Sprintf("%d", s.Vision.VitalMinPixels))

	section = cfg.Section("Combat")
	section.Key("Mode").SetValue(s.Combat.Mode)
	section.Key("Boss").SetValue(fmt.Sprintf("%t", s.Combat.Boss))
	section.Key("NoTargetTimeoutMs").SetValue(fmt.Sprintf("%d", s.Combat.NoTargetTimeout.Milliseconds()))
	section.Key("SkillCastDelayMs").SetValue(fmt.Sprintf("%d", s.Combat.SkillCastDelay.Milliseconds()))
	section.Key("RespawnBudget").SetValue(fmt.Sprintf("%d", s.Combat.RespawnBudget))
	section.Key("RespawnSettleMs").SetValue(fmt.Sprintf("%d", s.Combat.RespawnSettle.Milliseconds()))
	section.Key("NavCheckEvery").SetValue(fmt.Sprintf("%d", s.Combat.NavCheckEvery))
	section.Key("CycleDelayMs").SetValue(fmt.Sprintf("%d", s.Combat.CycleDelay.Milliseconds()))
	section.Key("ErrorBackoffMs").SetValue(fmt.Sprintf("%d", s.Combat.ErrorBackoff.Milliseconds()))
	section.Key("Skills").SetValue(strings.Join(s.Combat.Skills, ","))

	section = cfg.Section("Auto")
	section.Key("Templates").SetValue(strings.Join(s.Auto.Templates, ","))
	section.Key("Threshold").SetValue(fmt.Sprintf("%g", s.Auto.Threshold))
	section.Key("PollIntervalMs").SetValue(fmt.Sprintf("%d", s.Auto.PollInterval.Milliseconds()))
	section.Key("CooldownMs").SetValue(fmt.Sprintf("%d", s.Auto.Cooldown.Milliseconds()))
	section.Key("WaitAfterAppearMs").SetValue(fmt.Sprintf("%d", s.Auto.WaitAfterAppear.Milliseconds()))

	section = cfg.Section("Logging")
	section.Key("Level").SetValue(s.Logging.Level)
	section.Key("Format").SetValue(s.Logging.Format)
	section.Key("File").SetValue(s.Logging.File)
	section.Key("MaxSizeMB").SetValue(fmt.Sprintf("%d", s.Logging.MaxSizeMB))
	section.Key("MaxBackups").SetValue(fmt.Sprintf("%d", s.Logging.MaxBackups))
	section.Key("MaxAgeDays").SetValue(fmt.Sprintf("%d", s.Logging.MaxAgeDays))
	section.Key("Compress").SetValue(fmt.Sprintf("%t", s.Logging.Compress))

	section = cfg.Section("Storage")
	section.Key("TemplateDir").SetValue(s.Storage.TemplateDir)
	section.Key("ConfigDir").SetValue(s.Storage.ConfigDir)
	section.Key("RegistryDir").SetValue(s.Storage.RegistryDir)
	section.Key("Database").SetValue(s.Storage.Database)

	return cfg.SaveTo(path)
}

// CombatConfig converts the settings into an agent configuration
func (s *Settings) CombatConfig(hybrid bool) combat.Config {
	cfg := combat.DefaultConfig()
	if hybrid {
		cfg = combat.HybridConfig(s.Combat.Boss)
	}
	cfg.Threshold = s.Vision.Threshold
	cfg.UIThreshold = s.Vision.UIThreshold
	cfg.SummonThreshold = s.Vision.SummonThreshold
	cfg.VitalMinPixels = s.Vision.VitalMinPixels
	cfg.NoTargetTimeout = s.Combat.NoTargetTimeout
	cfg.SkillCastDelay = s.Combat.SkillCastDelay
	cfg.RespawnBudget = s.Combat.RespawnBudget
	cfg.RespawnSettle = s.Combat.RespawnSettle
	cfg.NavCheckEvery = s.Combat.NavCheckEvery
	cfg.CycleDelay = s.Combat.CycleDelay
	cfg.ErrorBackoff = s.Combat.ErrorBackoff
	if len(s.Combat.Skills) > 0 {
		cfg.Templates.Skills = s.Combat.Skills
	}
	return cfg
}

// AutoConfig converts the settings into a template-tap worker configuration
func (s *Settings) AutoConfig() combat.AutoConfig {
	cfg := combat.DefaultAutoConfig()
	cfg.Templates = s.Auto.Templates
	cfg.Threshold = s.Auto.Threshold
	cfg.PollInterval = s.Auto.PollInterval
	cfg.Cooldown = s.Auto.Cooldown
	cfg.WaitAfterAppear = s.Auto.WaitAfterAppear
	cfg.ErrorBackoff = s.Combat.ErrorBackoff
	return cfg
}

// Exists reports whether path names a readable file
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func millis(section *ini.Section, key string, def time.Duration) time.Duration {
	return time.Duration(section.Key(key).MustInt64(def.Milliseconds())) * time.Millisecond
}

func minutes(section *ini.Section, key string, def time.Duration) time.Duration {
	return time.Duration(section.Key(key).MustInt64(int64(def/time.Minute))) * time.Minute
}

func list(section *ini.Section, key string, def []string) []string {
	raw := strings.TrimSpace(section.Key(key).String())
	if raw == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
