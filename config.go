package particles

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gekko3d/particles/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("particles: invalid config")

type Config struct {
	ParticleSize     float32    `toml:"particle_size" yaml:"particle_size"`
	Acceleration     bool       `toml:"acceleration" yaml:"acceleration"`
	Perpendicular    bool       `toml:"perpendicular" yaml:"perpendicular"`
	InitialParticles int        `toml:"initial_particles" yaml:"initial_particles"`
	GrowthInterval   float32    `toml:"growth_interval" yaml:"growth_interval"` // seconds
	SpawnOrigin      [3]float32 `toml:"spawn_origin" yaml:"spawn_origin"`
	Workers          int        `toml:"workers" yaml:"workers"` // 0 = GOMAXPROCS
	UseBatch         bool       `toml:"use_batch" yaml:"use_batch"`
	TexturePath      string     `toml:"texture_path" yaml:"texture_path"`
	Seed             int64      `toml:"seed" yaml:"seed"` // 0 = time based
	Samples          int        `toml:"samples" yaml:"samples"`

	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	Output  OutputConfig  `toml:"output" yaml:"output"`
	Camera  CameraConfig  `toml:"camera" yaml:"camera"`
}

type LoggingConfig struct {
	Prefix string `toml:"prefix" yaml:"prefix"`
	Debug  bool   `toml:"debug" yaml:"debug"`
}

// OutputConfig names the instrumentation logs. Empty paths disable a log.
type OutputConfig struct {
	FPSLog string `toml:"fps_log" yaml:"fps_log"`
	CPULog string `toml:"cpu_log" yaml:"cpu_log"`
	GPULog string `toml:"gpu_log" yaml:"gpu_log"`
}

type CameraConfig struct {
	Position    [3]float32 `toml:"position" yaml:"position"`
	Target      [3]float32 `toml:"target" yaml:"target"`
	FieldOfView float32    `toml:"field_of_view" yaml:"field_of_view"` // degrees
	Aspect      float32    `toml:"aspect" yaml:"aspect"`
	Near        float32    `toml:"near" yaml:"near"`
	Far         float32    `toml:"far" yaml:"far"`
}

func DefaultConfig() Config {
	return Config{
		ParticleSize:     core.DefaultParticleSize,
		InitialParticles: DefaultInitialParticles,
		GrowthInterval:   DefaultGrowthInterval,
		SpawnOrigin:      DefaultSpawnOrigin,
		TexturePath:      "assets/textures/particle.png",
		Samples:          12,
		Logging:          LoggingConfig{Prefix: "particles"},
		Output: OutputConfig{
			FPSLog: "log.txt",
			CPULog: "logCPU.txt",
			GPULog: "logGPU.txt",
		},
		Camera: CameraConfig{
			Position:    [3]float32{0, 5, -50},
			Target:      [3]float32{0, 5, 0},
			FieldOfView: 45,
			Aspect:      16.0 / 9.0,
			Near:        0.1,
			Far:         100,
		},
	}
}

// LoadConfig reads a .toml, .yaml or .yml file over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.ParticleSize <= 0:
		return fmt.Errorf("%w: particle_size must be positive, got %v", ErrInvalidConfig, c.ParticleSize)
	case c.InitialParticles <= 0:
		return fmt.Errorf("%w: initial_particles must be positive, got %d", ErrInvalidConfig, c.InitialParticles)
	case c.GrowthInterval <= 0:
		return fmt.Errorf("%w: growth_interval must be positive, got %v", ErrInvalidConfig, c.GrowthInterval)
	case c.Samples <= 0:
		return fmt.Errorf("%w: samples must be positive, got %d", ErrInvalidConfig, c.Samples)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	case c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near:
		return fmt.Errorf("%w: camera clip planes %v..%v", ErrInvalidConfig, c.Camera.Near, c.Camera.Far)
	}
	return nil
}

// NewCamera builds a camera at Position looking towards Target.
func (c CameraConfig) NewCamera() *core.CameraState {
	cam := core.NewCameraState()
	cam.Position = mgl32.Vec3(c.Position)
	cam.FovY = c.FieldOfView
	cam.Aspect = c.Aspect
	cam.Near = c.Near
	cam.Far = c.Far
	cam.LookAt(mgl32.Vec3(c.Target))
	return cam
}
