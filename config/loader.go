package config

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/nativesvc/logger"
)

// FileSystem is the file access the loader needs; tests swap it out.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	Getwd() (string, error)
}

// RealFileSystem reads the actual disk.
type RealFileSystem struct{}

func (RealFileSystem) Exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func (RealFileSystem) LoadEnv(p string) error {
	return godotenv.Load(p)
}

func (RealFileSystem) Getwd() (string, error) {
	return os.Getwd()
}

// Resolver finds the config.yml and .env files for a service.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles holds the chosen paths. Empty means not found.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles keeps explicit paths from opts and searches for the rest.
func (r *Resolver) ResolveFiles(serviceName string, opts LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = r.firstExisting(configCandidates(serviceName))
	}
	if files.EnvFile == "" {
		files.EnvFile = r.firstExisting(envCandidates(serviceName))
	}
	return files
}

func (r *Resolver) firstExisting(candidates []string) string {
	for _, c := range candidates {
		if r.FileSystem.Exists(c) {
			return c
		}
	}
	return ""
}

// searchDirs lists the directories a service's files may live in, most
// specific first: cmd/nativesvc, cmd/svc for "native-svc", config/<name>,
// config and the working directory.
func searchDirs(serviceName string) []string {
	dirs := []string{"cmd/" + serviceName}
	if i := strings.LastIndex(serviceName, "-"); i != -1 {
		dirs = append(dirs, "cmd/"+serviceName[i+1:])
	}
	return append(dirs, "config/"+serviceName, "config", "")
}

var parentPrefixes = []string{"./", "../", "../../"}

func configCandidates(serviceName string) []string {
	var out []string
	for _, dir := range searchDirs(serviceName) {
		for _, prefix := range parentPrefixes {
			out = append(out, prefix+path.Join(dir, "config.yml"))
		}
	}
	return out
}

func envCandidates(serviceName string) []string {
	names := []string{".env." + serviceName, ".env"}
	var out []string
	for _, name := range names {
		for _, dir := range searchDirs(serviceName) {
			for _, prefix := range parentPrefixes {
				out = append(out, prefix+path.Join(dir, name))
			}
		}
		out = append(out, name)
	}
	return out
}

// LoaderConfig holds the loader's dependencies and explicit file paths.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption customizes LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem replaces the filesystem used for lookups.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile skips the search and reads path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile skips the search and loads path as the .env file.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// LoadConfig reads configuration for serviceName into cfg. The YAML file
// is the base; variables from the .env file and the process environment
// override it. A missing config file is not an error.
func LoadConfig(serviceName string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: RealFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}

	files := (&Resolver{FileSystem: lc.FileSystem}).ResolveFiles(serviceName, lc)
	v := viper.New()

	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", files.ConfigFile, err)
		}
	}

	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			logger.Warn("Failed to load env file", logger.Fields("file", files.EnvFile, logger.FieldError, err.Error()))
		}
	}

	v.AutomaticEnv()
	bindEnviron(v, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshal config for %s: %w", serviceName, err)
	}
	return nil
}

// bindEnviron sets every KEY=value pair under each nested key it could
// address, so CONNECTION_CLIENT_KEEP_ALIVE reaches connection.client.keep_alive.
func bindEnviron(v *viper.Viper, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		for _, variant := range generateEnvKeyVariants(key) {
			v.Set(variant, value)
		}
	}
}

// generateEnvKeyVariants returns the key itself lowercased, the fully
// dotted form, and every split where the leading words are nested
// sections and the rest is one snake_case field:
//
//	CONNECTION_BODY_MODE -> connection_body_mode, connection.body.mode,
//	                        connection.body_mode
func generateEnvKeyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	if len(parts) == 1 {
		return []string{lower}
	}

	variants := []string{lower, strings.Join(parts, ".")}
	seen := map[string]bool{variants[0]: true, variants[1]: true}
	for i := 1; i < len(parts); i++ {
		v := strings.Join(parts[:i], ".") + "." + strings.Join(parts[i:], "_")
		if !seen[v] {
			seen[v] = true
			variants = append(variants, v)
		}
	}
	return variants
}
