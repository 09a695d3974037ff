package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the workspace root when the client does
// not send master file or namespace paths over the protocol.
const DefaultFileName = "jasminls.yaml"

type NamespacePath struct {
	Namespace string `yaml:"namespace"`
	Path      string `yaml:"path"`
}

type Config struct {
	Project struct {
		Root       string `yaml:"root"`
		MasterFile string `yaml:"master_file"`
	} `yaml:"project"`
	NamespacePaths []NamespacePath `yaml:"namespace_paths"`
	Log            struct {
		Verbosity int    `yaml:"verbosity"`
		File      string `yaml:"file"`
	} `yaml:"log"`
}

// LoadConfig reads a jasminls.yaml. Relative paths in the file are resolved
// against the config file's directory.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	if cfg.Project.Root == "" {
		cfg.Project.Root = base
	}
	cfg.Project.Root = absOrJoin(base, cfg.Project.Root)
	if cfg.Project.MasterFile != "" {
		cfg.Project.MasterFile = absOrJoin(cfg.Project.Root, cfg.Project.MasterFile)
	}
	for i, np := range cfg.NamespacePaths {
		cfg.NamespacePaths[i].Path = absOrJoin(cfg.Project.Root, np.Path)
	}

	// 3. Override with Environment Variables if present
	if master := os.Getenv("JASMINLS_MASTER_FILE"); master != "" {
		cfg.Project.MasterFile = absOrJoin(cfg.Project.Root, master)
	}
	if logFile := os.Getenv("JASMINLS_LOG_FILE"); logFile != "" {
		cfg.Log.File = logFile
	}

	return &cfg, nil
}

// LoadWorkspaceConfig looks for the default config file in a workspace root.
// A missing file is not an error: the server runs fine on protocol messages
// alone.
func LoadWorkspaceConfig(root string) (*Config, error) {
	path := filepath.Join(root, DefaultFileName)
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	return LoadConfig(path)
}

// NamespaceMap flattens the namespace path entries for the resolver.
func (c *Config) NamespaceMap() map[string]string {
	out := make(map[string]string, len(c.NamespacePaths))
	for _, np := range c.NamespacePaths {
		out[np.Namespace] = np.Path
	}
	return out
}

func absOrJoin(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
