// Package config loads configuration from an optional YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // Location must resolve on minimal runtimes

	"gopkg.in/yaml.v3"
)

// Blob backends.
const (
	BackendS3       = "s3"
	BackendDynamoDB = "dynamodb"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Env holds the configuration values for the application.
type Env struct {
	Secret string

	Backend  string
	Region   string
	Endpoint string
	Bucket   string
	Table    string
	RedisURL string
	Key      string

	TimeZone       string
	AuthWindow     time.Duration
	ClientIPHeader string

	HTTPAddr       string
	LogLevel       string
	MemorySeedFile string
}

// file mirrors the YAML schema. Secrets are env-only.
type file struct {
	Backend  string `yaml:"backend"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Bucket   string `yaml:"bucket"`
	Table    string `yaml:"table"`
	RedisURL string `yaml:"redis_url"`
	Key      string `yaml:"key"`

	TimeZone          string `yaml:"timezone"`
	AuthWindowSeconds int    `yaml:"auth_window_seconds"`
	ClientIPHeader    string `yaml:"client_ip_header"`

	HTTPAddr       string `yaml:"http_addr"`
	LogLevel       string `yaml:"log_level"`
	MemorySeedFile string `yaml:"memory_seed_file"`
}

func defaults() Env {
	return Env{
		Backend:        BackendS3,
		Region:         "us-east-1",
		Key:            "resphone.json",
		TimeZone:       "America/Los_Angeles",
		AuthWindow:     60 * time.Second,
		ClientIPHeader: "CF-Connecting-IP",
		HTTPAddr:       ":8080",
		LogLevel:       "info",
	}
}

// MustLoad reads RESPHONE_CONFIG (if set) and the environment, panicking on error.
func MustLoad() Env {
	e, err := Load(os.Getenv("RESPHONE_CONFIG"))
	if err != nil {
		panic(err)
	}
	return e
}

// Load resolves configuration in priority order: defaults -> file -> env.
// A missing secret is not an error here; requests fail with a server error instead.
func Load(path string) (Env, error) {
	e := defaults()
	if path != "" {
		if err := e.overlayFile(path); err != nil {
			return Env{}, err
		}
	}

	e.Secret = get("RESPHONE_SECRET", get("password", ""))
	e.Backend = strings.ToLower(get("BLOB_BACKEND", e.Backend))
	e.Region = get("AWS_REGION", e.Region)
	e.Endpoint = get("AWS_ENDPOINT_URL", e.Endpoint)
	e.Bucket = get("S3_BUCKET", e.Bucket)
	e.Table = get("DDB_TABLE", e.Table)
	e.RedisURL = get("REDIS_URL", e.RedisURL)
	e.Key = get("CONFIG_KEY", e.Key)
	e.TimeZone = get("AUDIT_TIMEZONE", e.TimeZone)
	e.ClientIPHeader = get("CLIENT_IP_HEADER", e.ClientIPHeader)
	e.HTTPAddr = get("HTTP_ADDR", e.HTTPAddr)
	e.LogLevel = get("LOG_LEVEL", e.LogLevel)
	e.MemorySeedFile = get("MEMORY_SEED_FILE", e.MemorySeedFile)
	if v := get("AUTH_WINDOW_SECONDS", ""); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil || sec <= 0 {
			return Env{}, fmt.Errorf("invalid AUTH_WINDOW_SECONDS %q", v)
		}
		e.AuthWindow = time.Duration(sec) * time.Second
	}

	if err := e.validate(); err != nil {
		return Env{}, err
	}
	return e, nil
}

// Location resolves the audit time zone.
func (e Env) Location() (*time.Location, error) {
	return time.LoadLocation(e.TimeZone)
}

func (e *Env) overlayFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	setIf(&e.Backend, f.Backend)
	setIf(&e.Region, f.Region)
	setIf(&e.Endpoint, f.Endpoint)
	setIf(&e.Bucket, f.Bucket)
	setIf(&e.Table, f.Table)
	setIf(&e.RedisURL, f.RedisURL)
	setIf(&e.Key, f.Key)
	setIf(&e.TimeZone, f.TimeZone)
	setIf(&e.ClientIPHeader, f.ClientIPHeader)
	setIf(&e.HTTPAddr, f.HTTPAddr)
	setIf(&e.LogLevel, f.LogLevel)
	setIf(&e.MemorySeedFile, f.MemorySeedFile)
	if f.AuthWindowSeconds > 0 {
		e.AuthWindow = time.Duration(f.AuthWindowSeconds) * time.Second
	}
	return nil
}

func (e Env) validate() error {
	switch e.Backend {
	case BackendS3:
		return must("S3_BUCKET", e.Bucket)
	case BackendDynamoDB:
		return must("DDB_TABLE", e.Table)
	case BackendRedis:
		return must("REDIS_URL", e.RedisURL)
	case BackendMemory:
		return nil
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", e.Backend)
	}
}

// get returns the value of the environment variable k or def if not set.
func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// must returns an error naming k when v is empty.
func must(k, v string) error {
	if v == "" {
		return errors.New("missing env " + k)
	}
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
