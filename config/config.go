// Package config exposes build metadata and runtime settings for taskwire.
// Settings come from the environment (TW_* variables), optionally overridden
// by a taskwire.toml file next to the binary.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

// FileConfig mirrors the optional taskwire.toml layout.
type FileConfig struct {
	Listen        string `toml:"listen"`
	Port          int    `toml:"port"`
	BasePath      string `toml:"base_path"`
	DBFolder      string `toml:"db_folder"`
	LogFolder     string `toml:"log_folder"`
	LogLevel      string `toml:"log_level"`
	SessionSecret string `toml:"session_secret"`
	SessionMaxAge int    `toml:"session_max_age"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
}

var fileConfig FileConfig

// LoadFile reads the optional TOML config file. A missing file is not an
// error; a malformed one is.
func LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return toml.Unmarshal(data, &fileConfig)
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	if fileConfig.LogLevel != "" {
		return LogLevel(fileConfig.LogLevel)
	}
	logLevel := os.Getenv("TW_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("TW_DEBUG") == "true"
}

func GetListen() string {
	return fromEnv("TW_LISTEN", fileConfig.Listen, "")
}

func GetPort() int {
	if port := os.Getenv("TW_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			return p
		}
	}
	if fileConfig.Port != 0 {
		return fileConfig.Port
	}
	return 3000
}

func GetBasePath() string {
	basePath := fromEnv("TW_BASE_PATH", fileConfig.BasePath, "/")
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}
	return basePath
}

func GetDBFolderPath() string {
	return fromEnv("TW_DB_FOLDER", fileConfig.DBFolder, "/etc/taskwire")
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

func GetLogFolder() string {
	return fromEnv("TW_LOG_FOLDER", fileConfig.LogFolder, "/var/log")
}

// GetSessionSecret returns the cookie signing secret, empty if unset.
// The web server generates a random one per process when empty.
func GetSessionSecret() string {
	return fromEnv("TW_SESSION_SECRET", fileConfig.SessionSecret, "")
}

// GetSessionMaxAge returns the session lifetime in minutes.
func GetSessionMaxAge() int {
	if v := os.Getenv("TW_SESSION_MAX_AGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	if fileConfig.SessionMaxAge > 0 {
		return fileConfig.SessionMaxAge
	}
	return 60 * 24
}

// GetRedisAddr returns the redis address for the session store, empty when
// sessions should stay in signed cookies.
func GetRedisAddr() string {
	return fromEnv("TW_REDIS_ADDR", fileConfig.RedisAddr, "")
}

func GetRedisPassword() string {
	return fromEnv("TW_REDIS_PASSWORD", fileConfig.RedisPassword, "")
}

func fromEnv(key, fileValue, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if fileValue != "" {
		return fileValue
	}
	return fallback
}
