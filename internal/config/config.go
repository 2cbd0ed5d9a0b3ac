package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"gopkg.in/yaml.v3"
)

// 实体抽取模型提供方。
const (
	ProviderNone   = "none"
	ProviderArk    = "ark"
	ProviderGemini = "gemini"
)

// 会话存储后端。
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Oracle    OracleConfig
	Session   SessionConfig
	Transport TransportConfig
	Log       LogConfig
}

// Load 从环境变量加载配置。CONFIG_FILE 指向的 YAML 文件提供默认值，环境变量优先。
func Load() (*Config, error) {
	src, err := newSource(strings.TrimSpace(os.Getenv("CONFIG_FILE")))
	if err != nil {
		return nil, err
	}

	server, err := src.loadServerConfig()
	if err != nil {
		return nil, err
	}

	catalog, err := src.loadCatalogConfig()
	if err != nil {
		return nil, err
	}

	oracle, err := src.loadOracleConfig()
	if err != nil {
		return nil, err
	}

	session, err := src.loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Catalog:   catalog,
		Oracle:    oracle,
		Session:   session,
		Transport: src.loadTransportConfig(),
		Log: LogConfig{
			Level:  strings.ToLower(src.getOrDefault("LOG_LEVEL", "info")),
			Format: strings.ToLower(src.getOrDefault("LOG_FORMAT", "json")),
		},
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

func (s source) loadServerConfig() (ServerConfig, error) {
	port := s.getOrDefault("PORT", "8080")

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// CatalogConfig 描述商品与购物车服务地址。
type CatalogConfig struct {
	BaseURL string
	Timeout time.Duration
}

func (s source) loadCatalogConfig() (CatalogConfig, error) {
	timeout, err := s.parseDuration("CATALOG_TIMEOUT", 10*time.Second)
	if err != nil {
		return CatalogConfig{}, err
	}
	return CatalogConfig{
		BaseURL: strings.TrimRight(s.getOrDefault("CATALOG_BASE_URL", "http://localhost:3000"), "/"),
		Timeout: timeout,
	}, nil
}

// OracleConfig 描述实体抽取所用的大模型。
type OracleConfig struct {
	Provider string
	Timeout  time.Duration
	Ark      ArkConfig
	Gemini   GeminiConfig
}

// ArkConfig 描述方舟模型配置。
type ArkConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// GeminiConfig 描述 Gemini 模型配置。
type GeminiConfig struct {
	APIKey string
	Model  string
}

// Enabled 表示是否提供了必需的密钥。
func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// Enabled 表示是否提供了 API Key。
func (c GeminiConfig) Enabled() bool {
	return c.APIKey != ""
}

// NewChatModel 使用配置创建一个模型实例。
func (c ArkConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_API_KEY + ARK_MODEL or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	})
}

func (s source) loadOracleConfig() (OracleConfig, error) {
	temperature, err := s.parseOptionalFloat("ARK_TEMPERATURE")
	if err != nil {
		return OracleConfig{}, err
	}

	topP, err := s.parseOptionalFloat("ARK_TOP_P")
	if err != nil {
		return OracleConfig{}, err
	}

	maxTokens, err := s.parseOptionalInt("ARK_MAX_TOKENS")
	if err != nil {
		return OracleConfig{}, err
	}

	timeout, err := s.parseDuration("ORACLE_TIMEOUT", 15*time.Second)
	if err != nil {
		return OracleConfig{}, err
	}

	cfg := OracleConfig{
		Provider: strings.ToLower(s.get("ORACLE_PROVIDER")),
		Timeout:  timeout,
		Ark: ArkConfig{
			APIKey:      s.get("ARK_API_KEY"),
			AccessKey:   s.get("ARK_ACCESS_KEY"),
			SecretKey:   s.get("ARK_SECRET_KEY"),
			Model:       s.get("ARK_MODEL"),
			BaseURL:     s.getOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
			Region:      s.getOrDefault("ARK_REGION", "cn-beijing"),
			Temperature: temperature,
			TopP:        topP,
			MaxTokens:   maxTokens,
		},
		Gemini: GeminiConfig{
			APIKey: s.get("GEMINI_API_KEY"),
			Model:  s.getOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		},
	}

	switch cfg.Provider {
	case "", "auto":
		switch {
		case cfg.Gemini.Enabled():
			cfg.Provider = ProviderGemini
		case cfg.Ark.Enabled():
			cfg.Provider = ProviderArk
		default:
			cfg.Provider = ProviderNone
		}
	case ProviderNone:
	case ProviderGemini:
		if !cfg.Gemini.Enabled() {
			return OracleConfig{}, fmt.Errorf("ORACLE_PROVIDER=gemini requires GEMINI_API_KEY")
		}
	case ProviderArk:
		if !cfg.Ark.Enabled() {
			return OracleConfig{}, fmt.Errorf("ORACLE_PROVIDER=ark requires ARK_MODEL and credentials")
		}
	default:
		return OracleConfig{}, fmt.Errorf("invalid ORACLE_PROVIDER value: %q", cfg.Provider)
	}

	return cfg, nil
}

// SessionConfig 描述会话存储。
type SessionConfig struct {
	Backend     string
	DSN         string
	TTL         time.Duration
	LockTimeout time.Duration
	TurnTimeout time.Duration
}

func (s source) loadSessionConfig() (SessionConfig, error) {
	ttl, err := s.parseDuration("SESSION_TTL", 0)
	if err != nil {
		return SessionConfig{}, err
	}

	lockTimeout, err := s.parseDuration("SESSION_LOCK_TIMEOUT", 30*time.Second)
	if err != nil {
		return SessionConfig{}, err
	}

	turnTimeout, err := s.parseDuration("TURN_TIMEOUT", 45*time.Second)
	if err != nil {
		return SessionConfig{}, err
	}

	cfg := SessionConfig{
		Backend:     strings.ToLower(s.getOrDefault("SESSION_BACKEND", BackendMemory)),
		DSN:         s.get("SESSION_DSN"),
		TTL:         ttl,
		LockTimeout: lockTimeout,
		TurnTimeout: turnTimeout,
	}

	switch cfg.Backend {
	case BackendMemory:
	case BackendSQLite:
		if cfg.DSN == "" {
			cfg.DSN = "shopbot.db"
		}
	case BackendPostgres:
		if cfg.DSN == "" {
			return SessionConfig{}, fmt.Errorf("SESSION_BACKEND=postgres requires SESSION_DSN")
		}
	default:
		return SessionConfig{}, fmt.Errorf("invalid SESSION_BACKEND value: %q", cfg.Backend)
	}

	return cfg, nil
}

// TransportConfig 描述消息通道。
type TransportConfig struct {
	Twilio TwilioConfig
}

// TwilioConfig 描述 WhatsApp 发送凭证。
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
}

// Enabled 表示凭证是否齐全。
func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != ""
}

func (s source) loadTransportConfig() TransportConfig {
	return TransportConfig{
		Twilio: TwilioConfig{
			AccountSID: s.get("TWILIO_ACCOUNT_SID"),
			AuthToken:  s.get("TWILIO_AUTH_TOKEN"),
			From:       s.get("TWILIO_PHONE_NUMBER"),
			BaseURL:    strings.TrimRight(s.getOrDefault("TWILIO_BASE_URL", "https://api.twilio.com"), "/"),
		},
	}
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string
	Format string
}

// source 先读环境变量，再读配置文件。
type source struct {
	file map[string]string
}

func newSource(path string) (source, error) {
	if path == "" {
		return source{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return source{}, fmt.Errorf("read config file: %w", err)
	}

	raw := make(map[string]any)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return source{}, fmt.Errorf("parse config file %s: %w", path, err)
	}

	file := make(map[string]string, len(raw))
	for key, value := range raw {
		if value == nil {
			continue
		}
		file[strings.ToUpper(key)] = strings.TrimSpace(fmt.Sprint(value))
	}
	return source{file: file}, nil
}

func (s source) get(key string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return s.file[key]
}

func (s source) getOrDefault(key, defaultValue string) string {
	if value := s.get(key); value != "" {
		return value
	}
	return defaultValue
}

func (s source) parseDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := s.get(key)
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		// 纯数字按秒处理。
		secs, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
		}
		val = time.Duration(secs) * time.Second
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
	}
	return val, nil
}

func (s source) parseOptionalFloat(key string) (*float64, error) {
	value := s.get(key)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func (s source) parseOptionalInt(key string) (*int, error) {
	value := s.get(key)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
