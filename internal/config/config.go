// Package config handles project discovery and configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/cameronsjo/keel/internal/manifest"
)

// EnvPrefix is the prefix of environment overrides (KEEL_BUILD_DIR etc.).
const EnvPrefix = "KEEL"

// Keys understood by Load. Each can be set by a bound flag or by the
// environment variable KEEL_<KEY>.
const (
	KeyBuildDir      = "build_dir"
	KeyOutputDir     = "output_dir"
	KeyImageTemplate = "image_template"
	KeyHTTPPort      = "http_port"
)

// DefaultBuildDir is the build directory relative to the project root.
const DefaultBuildDir = "target"

// ErrRootNotFound indicates no keel.yml was found above the working directory.
var ErrRootNotFound = errors.New("project root not found (no " + manifest.DescriptorFile + ")")

// Config holds the keel project configuration.
type Config struct {
	// Root is the project root directory (contains keel.yml).
	Root string

	// DescriptorPath is the path to keel.yml.
	DescriptorPath string

	// BuildDir is where build artifacts go. Defaults to <root>/target.
	BuildDir string

	// OutputDir receives generated manifests. Defaults to <buildDir>/kubernetes.
	OutputDir string

	// ImageTemplate renders the container image when the descriptor has none.
	ImageTemplate string

	// HTTPPort is the port keel serve listens on.
	HTTPPort int
}

// FindRoot searches upward from the current directory to find the project root.
func FindRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return FindRootFrom(dir)
}

// FindRootFrom searches upward from dir for a directory containing keel.yml.
func FindRootFrom(dir string) (string, error) {
	for {
		if info, err := os.Stat(filepath.Join(dir, manifest.DescriptorFile)); err == nil && !info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", ErrRootNotFound
}

// NewViper returns a viper instance reading KEEL_* environment variables
// with keel's defaults applied.
func NewViper() *viper.Viper {
	v := viper.New()
	Configure(v)
	return v
}

// Configure applies the environment prefix and defaults to v.
func Configure(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetDefault(KeyImageTemplate, manifest.DefaultImageTemplate)
	v.SetDefault(KeyHTTPPort, manifest.DefaultHTTPPort)
}

// Load finds the project root and resolves paths using v for overrides.
func Load(v *viper.Viper) (*Config, error) {
	root, err := FindRoot()
	if err != nil {
		return nil, err
	}
	return LoadFrom(root, v)
}

// LoadFrom resolves a Config for a known project root. Relative directory
// overrides are taken relative to root.
func LoadFrom(root string, v *viper.Viper) (*Config, error) {
	if v == nil {
		v = NewViper()
	}

	cfg := &Config{
		Root:           root,
		DescriptorPath: filepath.Join(root, manifest.DescriptorFile),
		ImageTemplate:  v.GetString(KeyImageTemplate),
		HTTPPort:       v.GetInt(KeyHTTPPort),
	}

	cfg.BuildDir = resolve(root, v.GetString(KeyBuildDir), DefaultBuildDir)
	cfg.OutputDir = resolve(root, v.GetString(KeyOutputDir), filepath.Join(cfg.BuildDir, manifest.DefaultBaseName))

	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid %s: %d", KeyHTTPPort, cfg.HTTPPort)
	}

	return cfg, nil
}

func resolve(root, value, fallback string) string {
	if value == "" {
		value = fallback
	}
	if filepath.IsAbs(value) {
		return value
	}
	return filepath.Join(root, value)
}

// ManifestPath returns the generated manifest path for a format.
func (c *Config) ManifestPath(f manifest.Format) string {
	return manifest.OutputPath(c.OutputDir, manifest.DefaultBaseName, f)
}
