// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Session    SessionConfig
	Homeserver HomeserverConfig
	Dispatch   DispatchConfig
	Cache      CacheConfig
}

// ServerConfig, yerel UI'ya hizmet veren HTTP server ayarları.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig, SQLite database ayarları.
type DatabaseConfig struct {
	Path string // SQLite dosya yolu (ör: ./data/readsync.db)
}

// SessionConfig, oturumun sahibi olan yerel kullanıcı ve UI token ayarları.
type SessionConfig struct {
	UserID            string // ör: @alice:example.org
	JWTSecret         string // UI access token imzalama anahtarı: GİZLİ TUTULMALI
	AccessTokenExpiry time.Duration
	TokenFile         string // Başlangıçta üretilen UI token'ının yazıldığı dosya
}

// HomeserverConfig, read marker'ların gönderildiği uzak sunucu.
type HomeserverConfig struct {
	URL            string // ör: https://matrix.example.org/_matrix/client/v3
	AccessToken    string
	RequestTimeout time.Duration
}

// DispatchConfig, arka plan mutation yürütücüsü ayarları.
type DispatchConfig struct {
	Workers int
}

// CacheConfig, profil çözümleme cache'i.
type CacheConfig struct {
	ProfileTTL time.Duration // 0 = cache kapalı
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler (development kolaylığı için).
func Load() (*Config, error) {
	// Dosya yoksa hata vermez, sessizce devam eder.
	_ = godotenv.Load()
	return fromEnv()
}

// fromEnv, .env yüklemeden sadece process environment'ını okur.
func fromEnv() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", "9191"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	accessExpiry, err := time.ParseDuration(getEnv("JWT_ACCESS_EXPIRY", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_EXPIRY: %w", err)
	}

	requestTimeout, err := time.ParseDuration(getEnv("HOMESERVER_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HOMESERVER_TIMEOUT: %w", err)
	}

	workers, err := strconv.Atoi(getEnv("DISPATCH_WORKERS", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_WORKERS: %w", err)
	}
	if workers < 1 {
		return nil, fmt.Errorf("DISPATCH_WORKERS must be at least 1")
	}

	profileTTL, err := time.ParseDuration(getEnv("PROFILE_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROFILE_CACHE_TTL: %w", err)
	}

	userID := getEnv("SESSION_USER_ID", "")
	if userID == "" {
		return nil, fmt.Errorf("SESSION_USER_ID environment variable is required")
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	homeserverURL := getEnv("HOMESERVER_URL", "")
	if homeserverURL == "" {
		return nil, fmt.Errorf("HOMESERVER_URL environment variable is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "127.0.0.1"),
			Port: port,
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/readsync.db"),
		},
		Session: SessionConfig{
			UserID:            userID,
			JWTSecret:         jwtSecret,
			AccessTokenExpiry: accessExpiry,
			TokenFile:         getEnv("SESSION_TOKEN_FILE", "./data/ui_token"),
		},
		Homeserver: HomeserverConfig{
			URL:            homeserverURL,
			AccessToken:    getEnv("HOMESERVER_ACCESS_TOKEN", ""),
			RequestTimeout: requestTimeout,
		},
		Dispatch: DispatchConfig{
			Workers: workers,
		},
		Cache: CacheConfig{
			ProfileTTL: profileTTL,
		},
	}

	return cfg, nil
}

// Addr, HTTP server'ın dinleyeceği adresi döner (ör: "127.0.0.1:9191").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
