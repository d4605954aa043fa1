// Package config loads the server's YAML configuration and projects it
// onto the room, logging, and archive settings.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"croplands/server/internal/room"
	"croplands/server/logging"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Room    RoomConfig    `yaml:"room"`
	Archive ArchiveConfig `yaml:"archive"`
	Logging LoggingConfig `yaml:"logging"`
	Roster  []RosterEntry `yaml:"roster,omitempty"`
}

// RosterEntry seeds classroom membership at startup so standalone
// deployments work without an external enrollment system.
type RosterEntry struct {
	ClassroomID string   `yaml:"classroom_id"`
	UserIDs     []string `yaml:"user_ids"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	ClientDir string `yaml:"client_dir"`
}

type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	LootSeed     int64  `yaml:"loot_seed"`
}

type RoomConfig struct {
	TickMillis          int             `yaml:"tick_millis"`
	HeartbeatTimeoutSec int             `yaml:"heartbeat_timeout_sec"`
	KeyframeInterval    int             `yaml:"keyframe_interval"`
	DefaultMapKey       string          `yaml:"default_map_key"`
	SpawnX              int             `yaml:"spawn_x"`
	SpawnY              int             `yaml:"spawn_y"`
	MaxStamina          int             `yaml:"max_stamina"`
	StaminaRegenPerSec  int             `yaml:"stamina_regen_per_sec"`
	WorldSeed           int64           `yaml:"world_seed"`
	Placements          []PlacementSpec `yaml:"placements,omitempty"`
}

type PlacementSpec struct {
	DefinitionID string  `yaml:"definition_id"`
	Density      float64 `yaml:"density"`
	MinSpacing   int     `yaml:"min_spacing"`
}

type ArchiveConfig struct {
	Dir           string `yaml:"dir"`
	Keep          int    `yaml:"keep"`
	IntervalTicks int    `yaml:"interval_ticks"`
}

type LoggingConfig struct {
	Sinks         []string       `yaml:"sinks"`
	BufferSize    int            `yaml:"buffer_size"`
	MinSeverity   string         `yaml:"min_severity"`
	JSONFilePath  string         `yaml:"json_file_path"`
	FlushSec      int            `yaml:"flush_sec"`
	ConsoleColor  bool           `yaml:"console_color"`
	StampedFields map[string]any `yaml:"fields,omitempty"`
}

// Load reads the configuration, falling back to defaults when path is
// empty.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	roomDefaults := room.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Storage: StorageConfig{
			DatabasePath: "croplands.db",
			LootSeed:     roomDefaults.WorldSeed,
		},
		Room: RoomConfig{
			TickMillis:          int(roomDefaults.TickInterval / time.Millisecond),
			HeartbeatTimeoutSec: int(roomDefaults.HeartbeatTimeout / time.Second),
			KeyframeInterval:    roomDefaults.KeyframeInterval,
			DefaultMapKey:       roomDefaults.DefaultMapKey,
			SpawnX:              roomDefaults.SpawnX,
			SpawnY:              roomDefaults.SpawnY,
			MaxStamina:          roomDefaults.MaxStamina,
			StaminaRegenPerSec:  roomDefaults.StaminaRegenPerSec,
			WorldSeed:           roomDefaults.WorldSeed,
		},
		Archive: ArchiveConfig{
			Dir:           "archives",
			Keep:          24,
			IntervalTicks: 300,
		},
		Logging: LoggingConfig{
			Sinks:       []string{"console"},
			BufferSize:  512,
			MinSeverity: "info",
			FlushSec:    2,
		},
	}
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = ":8080"
	}
	if c.Room.TickMillis <= 0 {
		c.Room.TickMillis = int(room.DefaultConfig().TickInterval / time.Millisecond)
	}
	if c.Room.HeartbeatTimeoutSec <= 0 {
		c.Room.HeartbeatTimeoutSec = int(room.DefaultConfig().HeartbeatTimeout / time.Second)
	}
	if c.Archive.Keep <= 0 {
		c.Archive.Keep = 24
	}
	if c.Archive.IntervalTicks <= 0 {
		c.Archive.IntervalTicks = 300
	}
	if len(c.Logging.Sinks) == 0 {
		c.Logging.Sinks = []string{"console"}
	}
	if c.Logging.MinSeverity == "" {
		c.Logging.MinSeverity = "info"
	}
	if c.Logging.FlushSec <= 0 {
		c.Logging.FlushSec = 2
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Storage.DatabasePath) == "" {
		return fmt.Errorf("storage.database_path must not be empty")
	}
	if strings.TrimSpace(c.Room.DefaultMapKey) == "" {
		return fmt.Errorf("room.default_map_key must not be empty")
	}
	if c.Room.KeyframeInterval <= 0 {
		return fmt.Errorf("room.keyframe_interval must be > 0")
	}
	if c.Room.MaxStamina <= 0 {
		return fmt.Errorf("room.max_stamina must be > 0")
	}
	if c.Room.StaminaRegenPerSec < 0 {
		return fmt.Errorf("room.stamina_regen_per_sec must be >= 0")
	}
	for i, p := range c.Room.Placements {
		if strings.TrimSpace(p.DefinitionID) == "" {
			return fmt.Errorf("room.placements[%d] definition_id must not be empty", i)
		}
		if p.Density < 0 || p.Density > 1 {
			return fmt.Errorf("room.placements[%d] density must be in [0, 1]", i)
		}
		if p.MinSpacing < 0 {
			return fmt.Errorf("room.placements[%d] min_spacing must be >= 0", i)
		}
	}
	switch strings.ToLower(c.Logging.MinSeverity) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.min_severity %q is not one of debug, info, warn, error", c.Logging.MinSeverity)
	}
	if c.Logging.HasSink("json") && strings.TrimSpace(c.Logging.JSONFilePath) == "" {
		return fmt.Errorf("logging.json_file_path must be set when the json sink is enabled")
	}
	for i, entry := range c.Roster {
		if strings.TrimSpace(entry.ClassroomID) == "" {
			return fmt.Errorf("roster[%d] classroom_id must not be empty", i)
		}
		if len(entry.UserIDs) == 0 {
			return fmt.Errorf("roster[%d] user_ids must not be empty", i)
		}
	}
	return nil
}

func (l LoggingConfig) HasSink(name string) bool {
	for _, s := range l.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

// RoomConfig projects the YAML settings onto the room's runtime config.
func (c Config) RoomConfig() room.Config {
	rc := room.DefaultConfig()
	rc.TickInterval = time.Duration(c.Room.TickMillis) * time.Millisecond
	rc.HeartbeatTimeout = time.Duration(c.Room.HeartbeatTimeoutSec) * time.Second
	rc.KeyframeInterval = c.Room.KeyframeInterval
	rc.DefaultMapKey = c.Room.DefaultMapKey
	rc.SpawnX = c.Room.SpawnX
	rc.SpawnY = c.Room.SpawnY
	rc.MaxStamina = c.Room.MaxStamina
	rc.StaminaRegenPerSec = c.Room.StaminaRegenPerSec
	rc.WorldSeed = c.Room.WorldSeed
	if len(c.Room.Placements) > 0 {
		rules := make([]room.PlacementRule, 0, len(c.Room.Placements))
		for _, p := range c.Room.Placements {
			rules = append(rules, room.PlacementRule{
				DefinitionID: p.DefinitionID,
				Density:      p.Density,
				MinSpacing:   p.MinSpacing,
			})
		}
		rc.PlacementRules = rules
	}
	return rc
}

// LoggingConfig projects the YAML settings onto the router config.
func (c Config) LoggingConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.EnabledSinks = c.Logging.Sinks
	lc.BufferSize = c.Logging.BufferSize
	lc.MinimumSeverity = parseSeverity(c.Logging.MinSeverity)
	lc.Fields = c.Logging.StampedFields
	lc.JSON.FilePath = c.Logging.JSONFilePath
	lc.JSON.FlushInterval = time.Duration(c.Logging.FlushSec) * time.Second
	lc.Console.UseColor = c.Logging.ConsoleColor
	return lc
}

func parseSeverity(value string) logging.Severity {
	switch strings.ToLower(value) {
	case "debug":
		return logging.SeverityDebug
	case "warn":
		return logging.SeverityWarn
	case "error":
		return logging.SeverityError
	default:
		return logging.SeverityInfo
	}
}
