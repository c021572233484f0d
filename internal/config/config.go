// Package config loads runtime configuration from defaults, a config file,
// FURBO_* environment variables and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override (FURBO_RELAY_URL, ...).
const EnvPrefix = "FURBO"

// Motion selects how per-tick speeds are applied.
type Motion string

const (
	MotionFixed  Motion = "fixed"  // speed is applied once per tick
	MotionScaled Motion = "scaled" // speed is scaled by delta / reference frame
)

// Policy selects when the local effect of a mirrored shot is applied.
type Policy string

const (
	PolicyOptimistic   Policy = "optimistic"
	PolicyConfirmFirst Policy = "confirm_first"
)

// Config is the full runtime configuration.
type Config struct {
	Game     Game     `mapstructure:"game"`
	Dispatch Dispatch `mapstructure:"dispatch"`
	Relay    Relay    `mapstructure:"relay"`
	Server   Server   `mapstructure:"server"`
	Sim      Sim      `mapstructure:"sim"`
}

// Game holds simulation tuning.
type Game struct {
	Width      float64 `mapstructure:"width"`
	Height     float64 `mapstructure:"height"`
	DurationMs float64 `mapstructure:"duration_ms"`
	Motion     Motion  `mapstructure:"motion"`
	Seed       int64   `mapstructure:"seed"` // 0 picks a time-based seed

	ShipWidth  float64 `mapstructure:"ship_width"`
	ShipHeight float64 `mapstructure:"ship_height"`
	ShipSpeed  float64 `mapstructure:"ship_speed"`
	ShipOffset float64 `mapstructure:"ship_offset"` // distance of the ship's top from the bottom edge

	BulletWidth  float64 `mapstructure:"bullet_width"`
	BulletHeight float64 `mapstructure:"bullet_height"`
	BulletSpeed  float64 `mapstructure:"bullet_speed"`

	EnemySize          float64 `mapstructure:"enemy_size"`
	EnemyDrift         float64 `mapstructure:"enemy_drift"`
	EnemyBulletWidth   float64 `mapstructure:"enemy_bullet_width"`
	EnemyBulletHeight  float64 `mapstructure:"enemy_bullet_height"`
	EnemyBulletSpeed   float64 `mapstructure:"enemy_bullet_speed"`
	EnemyBulletSpread  float64 `mapstructure:"enemy_bullet_spread"`
	SpawnIntervalMs    float64 `mapstructure:"spawn_interval_ms"`
	SpawnIntervalFloor float64 `mapstructure:"spawn_interval_floor_ms"`
	ClearOrphanShots   bool    `mapstructure:"clear_orphan_shots"`

	ScorePerKill   int `mapstructure:"score_per_kill"`
	ScorePerSecond int `mapstructure:"score_per_second"`

	KillParticles   int `mapstructure:"kill_particles"`
	MuzzleParticles int `mapstructure:"muzzle_particles"`
}

// Dispatch holds relay pipeline tuning.
type Dispatch struct {
	Policy             Policy        `mapstructure:"policy"`
	MaxPending         int           `mapstructure:"max_pending"`
	Timeout            time.Duration `mapstructure:"timeout"`
	FireRate           time.Duration `mapstructure:"fire_rate"`
	MirrorMovement     bool          `mapstructure:"mirror_movement"`
	MoveUpdateInterval time.Duration `mapstructure:"move_update_interval"`
}

// Relay locates the paymaster.
type Relay struct {
	URL            string        `mapstructure:"url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Server configures the SSH and web shells.
type Server struct {
	SSHHost     string `mapstructure:"ssh_host"`
	SSHPort     string `mapstructure:"ssh_port"`
	HostKeyPath string `mapstructure:"host_key"`
	WebHost     string `mapstructure:"web_host"`
	WebPort     string `mapstructure:"web_port"`
}

// Sim tunes the local relay simulator.
type Sim struct {
	Path        string        `mapstructure:"path"`
	Latency     time.Duration `mapstructure:"latency"`
	FailureRate float64       `mapstructure:"failure_rate"`
}

// Default returns the configuration matching the original game.
func Default() Config {
	return Config{
		Game: Game{
			Width:      480,
			Height:     640,
			DurationMs: 60000,
			Motion:     MotionFixed,

			ShipWidth:  70,
			ShipHeight: 80,
			ShipSpeed:  4,
			ShipOffset: 110,

			BulletWidth:  5,
			BulletHeight: 10,
			BulletSpeed:  8,

			EnemySize:          40,
			EnemyDrift:         1.5,
			EnemyBulletWidth:   6,
			EnemyBulletHeight:  12,
			EnemyBulletSpeed:   2,
			EnemyBulletSpread:  2,
			SpawnIntervalMs:    1200,
			SpawnIntervalFloor: 300,

			ScorePerKill: 100,

			KillParticles:   10,
			MuzzleParticles: 3,
		},
		Dispatch: Dispatch{
			Policy:             PolicyConfirmFirst,
			MaxPending:         20,
			Timeout:            10 * time.Second,
			FireRate:           200 * time.Millisecond,
			MirrorMovement:     true,
			MoveUpdateInterval: 50 * time.Millisecond,
		},
		Relay: Relay{
			URL:            "http://localhost:8080/sponsor",
			RequestTimeout: 8 * time.Second,
		},
		Server: Server{
			SSHHost:     "::",
			SSHPort:     "2222",
			HostKeyPath: ".ssh/furbo_ed25519",
			WebHost:     "0.0.0.0",
			WebPort:     "8080",
		},
		Sim: Sim{
			Path:    "/sponsor",
			Latency: 150 * time.Millisecond,
		},
	}
}

// SetDefaults registers every default so viper resolves env overrides for
// keys that never appear in a config file.
func SetDefaults(v *viper.Viper) {
	d := Default()
	g := d.Game
	v.SetDefault("game.width", g.Width)
	v.SetDefault("game.height", g.Height)
	v.SetDefault("game.duration_ms", g.DurationMs)
	v.SetDefault("game.motion", string(g.Motion))
	v.SetDefault("game.seed", g.Seed)
	v.SetDefault("game.ship_width", g.ShipWidth)
	v.SetDefault("game.ship_height", g.ShipHeight)
	v.SetDefault("game.ship_speed", g.ShipSpeed)
	v.SetDefault("game.ship_offset", g.ShipOffset)
	v.SetDefault("game.bullet_width", g.BulletWidth)
	v.SetDefault("game.bullet_height", g.BulletHeight)
	v.SetDefault("game.bullet_speed", g.BulletSpeed)
	v.SetDefault("game.enemy_size", g.EnemySize)
	v.SetDefault("game.enemy_drift", g.EnemyDrift)
	v.SetDefault("game.enemy_bullet_width", g.EnemyBulletWidth)
	v.SetDefault("game.enemy_bullet_height", g.EnemyBulletHeight)
	v.SetDefault("game.enemy_bullet_speed", g.EnemyBulletSpeed)
	v.SetDefault("game.enemy_bullet_spread", g.EnemyBulletSpread)
	v.SetDefault("game.spawn_interval_ms", g.SpawnIntervalMs)
	v.SetDefault("game.spawn_interval_floor_ms", g.SpawnIntervalFloor)
	v.SetDefault("game.clear_orphan_shots", g.ClearOrphanShots)
	v.SetDefault("game.score_per_kill", g.ScorePerKill)
	v.SetDefault("game.score_per_second", g.ScorePerSecond)
	v.SetDefault("game.kill_particles", g.KillParticles)
	v.SetDefault("game.muzzle_particles", g.MuzzleParticles)

	v.SetDefault("dispatch.policy", string(d.Dispatch.Policy))
	v.SetDefault("dispatch.max_pending", d.Dispatch.MaxPending)
	v.SetDefault("dispatch.timeout", d.Dispatch.Timeout)
	v.SetDefault("dispatch.fire_rate", d.Dispatch.FireRate)
	v.SetDefault("dispatch.mirror_movement", d.Dispatch.MirrorMovement)
	v.SetDefault("dispatch.move_update_interval", d.Dispatch.MoveUpdateInterval)

	v.SetDefault("relay.url", d.Relay.URL)
	v.SetDefault("relay.request_timeout", d.Relay.RequestTimeout)

	v.SetDefault("server.ssh_host", d.Server.SSHHost)
	v.SetDefault("server.ssh_port", d.Server.SSHPort)
	v.SetDefault("server.host_key", d.Server.HostKeyPath)
	v.SetDefault("server.web_host", d.Server.WebHost)
	v.SetDefault("server.web_port", d.Server.WebPort)

	v.SetDefault("sim.path", d.Sim.Path)
	v.SetDefault("sim.latency", d.Sim.Latency)
	v.SetDefault("sim.failure_rate", d.Sim.FailureRate)
}

// New returns a viper instance wired for FURBO_* env overrides.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags maps flag names to config keys, e.g. {"relay": "relay.url"}.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		f := flags.Lookup(name)
		if f == nil {
			return fmt.Errorf("unknown flag %q", name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", name, err)
		}
	}
	return nil
}

// Load reads the optional config file and decodes the result.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the simulation cannot run with.
func (c Config) Validate() error {
	g := c.Game
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("game size must be positive, got %gx%g", g.Width, g.Height)
	}
	if g.ShipWidth <= 0 || g.ShipWidth > g.Width {
		return fmt.Errorf("ship width %g does not fit canvas width %g", g.ShipWidth, g.Width)
	}
	if g.DurationMs <= 0 {
		return fmt.Errorf("match duration must be positive, got %g", g.DurationMs)
	}
	if g.SpawnIntervalFloor <= 0 {
		return fmt.Errorf("spawn interval floor must be positive, got %g", g.SpawnIntervalFloor)
	}
	switch g.Motion {
	case MotionFixed, MotionScaled:
	default:
		return fmt.Errorf("unknown motion %q", g.Motion)
	}
	switch c.Dispatch.Policy {
	case PolicyOptimistic, PolicyConfirmFirst:
	default:
		return fmt.Errorf("unknown dispatch policy %q", c.Dispatch.Policy)
	}
	if c.Dispatch.MaxPending < 1 || c.Dispatch.MaxPending > 20 {
		return fmt.Errorf("max_pending must be in [1, 20], got %d", c.Dispatch.MaxPending)
	}
	if c.Sim.FailureRate < 0 || c.Sim.FailureRate > 1 {
		return fmt.Errorf("sim failure_rate must be in [0, 1], got %g", c.Sim.FailureRate)
	}
	if c.Dispatch.Timeout <= 0 {
		return fmt.Errorf("dispatch timeout must be positive, got %s", c.Dispatch.Timeout)
	}
	return nil
}
