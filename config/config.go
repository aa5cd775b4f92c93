package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/zveinn/buttonpatch/record"
)

const (
	EnvEndpoint  = "BUTTONPOS_S3_ENDPOINT"
	EnvBucket    = "BUTTONPOS_S3_BUCKET"
	EnvAccessKey = "BUTTONPOS_S3_ACCESS_KEY"
	EnvSecretKey = "BUTTONPOS_S3_SECRET_KEY"
)

// ---------- Types ----------

type Bounds struct {
	MinX int32 `toml:"min_x"`
	MaxX int32 `toml:"max_x"`
	MinY int32 `toml:"min_y"`
	MaxY int32 `toml:"max_y"`
	MinW int32 `toml:"min_w"`
	MaxW int32 `toml:"max_w"`
	MinH int32 `toml:"min_h"`
	MaxH int32 `toml:"max_h"`
}

type Scan struct {
	HeaderSkip    int `toml:"header_skip"`
	TailGuard     int `toml:"tail_guard"`
	ContextBefore int `toml:"context_before"`
	ContextAfter  int `toml:"context_after"`
}

type Remote struct {
	Endpoint           string   `toml:"endpoint"`
	Region             string   `toml:"region"`
	Bucket             string   `toml:"bucket"`
	Prefix             string   `toml:"prefix"`
	Secure             bool     `toml:"secure"`
	InsecureSkipVerify bool     `toml:"insecure_skip_verify"`
	Timeout            Duration `toml:"timeout"`

	AccessKey string `toml:"-"`
	SecretKey string `toml:"-"`
}

type Config struct {
	Label        string `toml:"label"`
	BackupSuffix string `toml:"backup_suffix"`
	Atomic       bool   `toml:"atomic"`
	Bounds       Bounds `toml:"bounds"`
	Scan         Scan   `toml:"scan"`
	Remote       Remote `toml:"remote"`
}

// Duration accepts "30s" style strings in TOML.
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ---------- Defaults ----------

func Default() *Config {
	b := record.DefaultBounds()
	return &Config{
		Label:        "ButtonDot",
		BackupSuffix: record.DefaultBackupSuffix,
		Atomic:       true,
		Bounds: Bounds{
			MinX: b.MinX, MaxX: b.MaxX,
			MinY: b.MinY, MaxY: b.MaxY,
			MinW: b.MinW, MaxW: b.MaxW,
			MinH: b.MinH, MaxH: b.MaxH,
		},
		Scan: Scan{
			HeaderSkip:    record.DefaultHeaderSkip,
			TailGuard:     record.DefaultTailGuard,
			ContextBefore: record.DefaultContextBefore,
			ContextAfter:  record.DefaultContextAfter,
		},
		Remote: Remote{
			Prefix:  "button-position",
			Secure:  true,
			Timeout: Duration{30 * time.Second},
		},
	}
}

// ---------- Loading ----------

// Load overlays the TOML file at path on the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %q", path, undec[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	b := c.Bounds
	switch {
	case b.MinX > b.MaxX:
		return errors.New("bounds: min_x > max_x")
	case b.MinY > b.MaxY:
		return errors.New("bounds: min_y > max_y")
	case b.MinW > b.MaxW:
		return errors.New("bounds: min_w > max_w")
	case b.MinH > b.MaxH:
		return errors.New("bounds: min_h > max_h")
	case c.Scan.HeaderSkip < 0 || c.Scan.TailGuard < 0:
		return errors.New("scan: header_skip and tail_guard must not be negative")
	case c.Scan.ContextBefore < 0 || c.Scan.ContextAfter < 0:
		return errors.New("scan: context sizes must not be negative")
	case c.BackupSuffix == "":
		return errors.New("backup_suffix is empty")
	}
	return nil
}

func (c *Config) RecordBounds() record.Bounds {
	b := c.Bounds
	return record.Bounds{
		MinX: b.MinX, MaxX: b.MaxX,
		MinY: b.MinY, MaxY: b.MaxY,
		MinW: b.MinW, MaxW: b.MaxW,
		MinH: b.MinH, MaxH: b.MaxH,
	}
}

// Scanner builds a record scanner from the label and scan settings.
func (c *Config) Scanner() (*record.Scanner, error) {
	s, err := record.NewScanner(c.Label, c.RecordBounds())
	if err != nil {
		return nil, err
	}
	s.HeaderSkip = c.Scan.HeaderSkip
	s.TailGuard = c.Scan.TailGuard
	s.ContextBefore = c.Scan.ContextBefore
	s.ContextAfter = c.Scan.ContextAfter
	return s, nil
}

// ---------- Environment ----------

// DefaultEnvFile is where remote credentials are kept.
func DefaultEnvFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".secret", ".button-position.env")
}

// LoadEnvFile loads path into the process environment. A missing file
// is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv fills remote settings from the environment. Endpoint and
// bucket override the file, credentials only ever come from here.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvEndpoint); ok && v != "" {
		c.Remote.Endpoint = v
	}
	if v, ok := lookup(EnvBucket); ok && v != "" {
		c.Remote.Bucket = v
	}
	if v, ok := lookup(EnvAccessKey); ok {
		c.Remote.AccessKey = v
	}
	if v, ok := lookup(EnvSecretKey); ok {
		c.Remote.SecretKey = v
	}
}
