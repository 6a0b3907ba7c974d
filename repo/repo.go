package repo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	rootPathEnvVar = "GOVTRACKER_PATH"

	envPrefix = "GOVTRACKER"

	cfgFileName = "govtracker.toml"

	defaultRepoRoot = "~/.govtracker"

	LogsDirName = "logs"

	DBDirName = "leveldb"

	GovernanceContractAddr = "0x0000000000000000000000000000000000001002"
)

type Repo struct {
	Config *Config
}

// Exist reports whether path can be stat'ed. Any stat failure counts as absent.
func Exist(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// Load reads the repo at repoRoot, creating the root and a default config when
// they are missing. The returned config has passed Config.Validate.
func Load(repoRoot string) (*Repo, error) {
	rootPath, err := LoadRepoRootFromEnv(repoRoot)
	if err != nil {
		return nil, err
	}
	if err := CheckWritable(rootPath); err != nil {
		return nil, err
	}

	cfg := DefaultConfig(rootPath)
	cfgPath := filepath.Join(rootPath, cfgFileName)
	switch _, err := os.Stat(cfgPath); {
	case err == nil:
		if err := readConfigFromFile(cfgPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "read %s", cfgPath)
		}
	case os.IsNotExist(err):
		if err := writeConfigWithEnv(cfgPath, cfg); err != nil {
			return nil, errors.Wrap(err, "failed to build default config")
		}
	default:
		return nil, errors.Wrapf(err, "stat %s", cfgPath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", cfgPath)
	}
	return &Repo{
		Config: cfg,
	}, nil
}

// DBPath is where the proposal and stake tables live.
func (r *Repo) DBPath() string {
	return filepath.Join(r.Config.RepoRoot, DBDirName)
}

func (r *Repo) ConfigPath() string {
	return filepath.Join(r.Config.RepoRoot, cfgFileName)
}

// Flush writes the config to disk with GOVTRACKER_* environment overrides folded in.
func (r *Repo) Flush() error {
	if err := writeConfigWithEnv(r.ConfigPath(), r.Config); err != nil {
		return errors.Wrap(err, "failed to write config")
	}
	return nil
}

func writeConfigWithEnv(cfgPath string, cfg *Config) error {
	if err := writeConfig(cfgPath, cfg); err != nil {
		return err
	}
	if err := readConfigFromFile(cfgPath, cfg); err != nil {
		return errors.Wrap(err, "apply environment overrides")
	}
	return writeConfig(cfgPath, cfg)
}

func writeConfig(cfgPath string, cfg *Config) error {
	raw, err := MarshalConfig(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(cfgPath, []byte(raw), 0644)
}

// MarshalConfig renders cfg as the TOML stored in the repo. RepoRoot is never written.
func MarshalConfig(cfg *Config) (string, error) {
	var buf bytes.Buffer
	e := toml.NewEncoder(&buf)
	e.SetIndentTables(true)
	e.SetArraysMultiline(true)
	if err := e.Encode(cfg); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// LoadRepoRootFromEnv picks repoRoot, then $GOVTRACKER_PATH, then ~/.govtracker.
func LoadRepoRootFromEnv(repoRoot string) (string, error) {
	if repoRoot != "" {
		return repoRoot, nil
	}
	if p := os.Getenv(rootPathEnvVar); p != "" {
		return p, nil
	}
	return homedir.Expand(defaultRepoRoot)
}

func readConfigFromFile(cfgPath string, cfg *Config) error {
	vp := viper.New()
	vp.SetConfigFile(cfgPath)
	vp.SetConfigType("toml")
	vp.SetEnvPrefix(envPrefix)
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	if err := vp.ReadInConfig(); err != nil {
		return err
	}
	return vp.Unmarshal(cfg)
}

// CheckWritable makes sure dir is a directory the current user can write to,
// creating it and its parents when it does not exist yet.
func CheckWritable(dir string) error {
	fi, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "create repo root %s", dir)
		}
		return nil
	case os.IsPermission(err):
		return fmt.Errorf("cannot access %s, incorrect permissions", dir)
	case err != nil:
		return errors.Wrapf(err, "stat repo root %s", dir)
	case !fi.IsDir():
		return fmt.Errorf("repo root %s is not a directory", dir)
	}

	f, err := os.CreateTemp(dir, ".writable-*")
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%s is not writeable by the current user", dir)
		}
		return errors.Wrapf(err, "check writability of repo root %s", dir)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
