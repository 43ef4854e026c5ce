package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	App          AppConfig          `json:"app" yaml:"app"`
	ActionServer ActionServerConfig `json:"action_server" yaml:"action_server"`
	LLM          LLMConfig          `json:"llm" yaml:"llm"`
	Retry        RetryConfig        `json:"retry" yaml:"retry"`
	Search       SearchConfig       `json:"search" yaml:"search"`
	Advice       AdviceConfig       `json:"advice" yaml:"advice"`
	ChatUI       ChatUIConfig       `json:"chat_ui" yaml:"chat_ui"`
	SearchAPI    SearchAPIConfig    `json:"search_api" yaml:"search_api"`
	MCP          MCPConfig          `json:"mcp" yaml:"mcp"`
	Memory       MemoryConfig       `json:"memory" yaml:"memory"`
}

// AppConfig represents application configuration
type AppConfig struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Debug       bool   `json:"debug"`
	LogLevel    string `json:"log_level"`
	LogFormat   string `json:"log_format"`
	LogFile     string `json:"log_file"`
	Environment string `json:"environment"`
}

// ActionServerConfig configures the dialogue-manager webhook server
type ActionServerConfig struct {
	Host        string        `json:"host"`
	Port        int           `json:"port"`
	CORSOrigins []string      `json:"cors_origins"`
	Timeout     time.Duration `json:"timeout"`
}

// LLMConfig represents LLM configuration
type LLMConfig struct {
	DefaultProvider string                       `json:"default_provider"`
	Providers       map[string]LLMProviderConfig `json:"providers"`
}

// LLMProviderConfig represents LLM provider configuration
type LLMProviderConfig struct {
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	BaseURL     string  `json:"base_url"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	MaxTokens   int     `json:"max_tokens"`
}

// RetryConfig bounds retries of transient model errors
type RetryConfig struct {
	Initial    time.Duration `json:"initial"`
	Max        time.Duration `json:"max"`
	Deadline   time.Duration `json:"deadline"`
	RetryCodes []int         `json:"retry_codes"`
}

// SearchConfig configures web search providers
type SearchConfig struct {
	DefaultProvider string        `json:"default_provider"`
	TavilyAPIKey    string        `json:"tavily_api_key"`
	TavilyBaseURL   string        `json:"tavily_base_url"`
	DuckDuckGoURL   string        `json:"duckduckgo_url"`
	MaxResults      int           `json:"max_results"`
	Timeout         time.Duration `json:"timeout"`
}

// AdviceConfig tunes the advice actions
type AdviceConfig struct {
	MaxConversationTurns    int    `json:"max_conversation_turns"`
	ExpireAfterUserMessages int    `json:"expire_after_user_messages"`
	ContactsFile            string `json:"contacts_file"`
}

// ChatUIConfig configures the browser chat client
type ChatUIConfig struct {
	Host       string        `json:"host"`
	Port       int           `json:"port"`
	RasaURL    string        `json:"rasa_url"`
	HistoryTTL time.Duration `json:"history_ttl"`
}

// SearchAPIConfig configures the HTTP search proxy
type SearchAPIConfig struct {
	Host               string `json:"host"`
	Port               int    `json:"port"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute"`
}

// MCPConfig configures the MCP tool server
type MCPConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	Path string `json:"path"`
}

// MemoryConfig represents memory storage configuration
type MemoryConfig struct {
	StoreType     string `json:"store_type"`
	RedisHost     string `json:"redis_host"`
	RedisPort     int    `json:"redis_port"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`
	PoolSize      int    `json:"pool_size"`
}

// RedisAddr returns host:port of the configured Redis server.
func (m MemoryConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", m.RedisHost, m.RedisPort)
}

// Load loads configuration from .env, YAML files and environment variables
func Load() *Config {
	// .env is optional; variables already in the environment win
	_ = gotenv.Load(getEnv("ENV_FILE", ".env"))

	config := &Config{}

	configDir := getEnv("CONFIG_DIR", "config")
	yamlConfig := loadYAMLConfig(configDir)

	config.App = AppConfig{
		Name:        getEnvWithYAML("APP_NAME", yamlConfig, "app.name", "Wolvina Career Assistant"),
		Version:     getEnvWithYAML("APP_VERSION", yamlConfig, "app.version", "1.0.0"),
		Debug:       getEnvBoolWithYAML("DEBUG", yamlConfig, "app.debug", false),
		LogLevel:    getEnvWithYAML("LOG_LEVEL", yamlConfig, "app.log_level", "INFO"),
		LogFormat:   getEnvWithYAML("LOG_FORMAT", yamlConfig, "app.log_format", "console"),
		LogFile:     getEnvWithYAML("LOG_FILE", yamlConfig, "app.log_file", ""),
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	config.ActionServer = ActionServerConfig{
		Host:        getEnvWithYAML("ACTION_SERVER_HOST", yamlConfig, "action_server.host", "0.0.0.0"),
		Port:        getEnvIntWithYAML("ACTION_SERVER_PORT", yamlConfig, "action_server.port", 5055),
		CORSOrigins: getEnvSliceWithYAML("ACTION_SERVER_CORS_ORIGINS", yamlConfig, "action_server.cors_origins", []string{"*"}),
		Timeout:     getEnvDurationWithYAML("ACTION_TIMEOUT", yamlConfig, "action_server.timeout", 60*time.Second),
	}

	config.LLM = LLMConfig{
		DefaultProvider: getEnvWithYAML("LLM_DEFAULT_PROVIDER", yamlConfig, "llm.default_provider", "gemini"),
		Providers:       loadLLMProviders(yamlConfig),
	}

	config.Retry = RetryConfig{
		Initial:    getEnvDurationWithYAML("LLM_RETRY_INITIAL", yamlConfig, "retry.initial", time.Second),
		Max:        getEnvDurationWithYAML("LLM_RETRY_MAX", yamlConfig, "retry.max", 6*time.Second),
		Deadline:   getEnvDurationWithYAML("LLM_RETRY_DEADLINE", yamlConfig, "retry.deadline", 12*time.Second),
		RetryCodes: getEnvIntSliceWithYAML("LLM_RETRY_CODES", yamlConfig, "retry.retry_codes", []int{429, 503}),
	}

	config.Search = SearchConfig{
		DefaultProvider: getEnvWithYAML("SEARCH_PROVIDER", yamlConfig, "search.default_provider", ""),
		TavilyAPIKey:    getEnvWithYAML("TAVILY_API_KEY", yamlConfig, "search.tavily_api_key", ""),
		TavilyBaseURL:   getEnvWithYAML("TAVILY_BASE_URL", yamlConfig, "search.tavily_base_url", "https://api.tavily.com"),
		DuckDuckGoURL:   getEnvWithYAML("DUCKDUCKGO_URL", yamlConfig, "search.duckduckgo_url", "https://html.duckduckgo.com/html/"),
		MaxResults:      getEnvIntWithYAML("SEARCH_MAX_RESULTS", yamlConfig, "search.max_results", 10),
		Timeout:         getEnvDurationWithYAML("SEARCH_TIMEOUT", yamlConfig, "search.timeout", 30*time.Second),
	}

	config.Advice = AdviceConfig{
		MaxConversationTurns:    getEnvIntWithYAML("ADVICE_MAX_TURNS", yamlConfig, "advice.max_conversation_turns", 3),
		ExpireAfterUserMessages: getEnvIntWithYAML("ADVICE_EXPIRE_AFTER", yamlConfig, "advice.expire_after_user_messages", 5),
		ContactsFile:            getEnvWithYAML("ADVISOR_CONTACTS_FILE", yamlConfig, "advice.contacts_file", "docs/advisor_contacts.txt"),
	}

	config.ChatUI = ChatUIConfig{
		Host:       getEnvWithYAML("CHAT_UI_HOST", yamlConfig, "chat_ui.host", "0.0.0.0"),
		Port:       getEnvIntWithYAML("CHAT_UI_PORT", yamlConfig, "chat_ui.port", 8501),
		RasaURL:    getEnvWithYAML("RASA_URL", yamlConfig, "chat_ui.rasa_url", "http://localhost:5005/webhooks/rest/webhook"),
		HistoryTTL: getEnvDurationWithYAML("CHAT_HISTORY_TTL", yamlConfig, "chat_ui.history_ttl", 24*time.Hour),
	}

	config.SearchAPI = SearchAPIConfig{
		Host:               getEnvWithYAML("SEARCH_API_HOST", yamlConfig, "search_api.host", "0.0.0.0"),
		Port:               getEnvIntWithYAML("SEARCH_API_PORT", yamlConfig, "search_api.port", 8000),
		RateLimitPerMinute: getEnvIntWithYAML("RATE_LIMIT_PER_MINUTE", yamlConfig, "search_api.rate_limit_per_minute", 60),
	}

	config.MCP = MCPConfig{
		Host: getEnvWithYAML("MCP_HOST", yamlConfig, "mcp.host", "127.0.0.1"),
		Port: getEnvIntWithYAML("MCP_PORT", yamlConfig, "mcp.port", 8080),
		Path: getEnvWithYAML("MCP_PATH", yamlConfig, "mcp.path", "/mcp"),
	}

	config.Memory = MemoryConfig{
		StoreType:     getEnvWithYAML("MEMORY_STORE_TYPE", yamlConfig, "memory.store_type", "memory"),
		RedisHost:     getEnvWithYAML("REDIS_HOST", yamlConfig, "memory.redis_host", "localhost"),
		RedisPort:     getEnvIntWithYAML("REDIS_PORT", yamlConfig, "memory.redis_port", 6379),
		RedisPassword: getEnvWithYAML("REDIS_PASSWORD", yamlConfig, "memory.redis_password", ""),
		RedisDB:       getEnvIntWithYAML("REDIS_DB", yamlConfig, "memory.redis_db", 0),
		PoolSize:      getEnvIntWithYAML("REDIS_POOL_SIZE", yamlConfig, "memory.pool_size", 20),
	}

	return config
}

// Validate returns human-readable warnings for settings that will force
// fallback behaviour at runtime.
func (c *Config) Validate() []string {
	var warnings []string
	if _, ok := c.LLM.Providers[c.LLM.DefaultProvider]; !ok {
		warnings = append(warnings, fmt.Sprintf("llm provider %q has no API key; advice actions will use fallback text", c.LLM.DefaultProvider))
	}
	if c.Search.DefaultProvider == "tavily" && c.Search.TavilyAPIKey == "" {
		warnings = append(warnings, "TAVILY_API_KEY is not set; tavily search is disabled")
	}
	if c.Advice.MaxConversationTurns <= 0 {
		warnings = append(warnings, "advice.max_conversation_turns must be positive; using default")
	}
	return warnings
}

// loadLLMProviders loads LLM provider configurations
func loadLLMProviders(yamlConfig map[string]interface{}) map[string]LLMProviderConfig {
	providers := make(map[string]LLMProviderConfig)

	geminiKey := firstEnv("GEMINI_SEARCH_GROUNDING", "GEMINI_API_KEY", "GEMS")
	if geminiKey == "" {
		geminiKey = getYAMLValue(yamlConfig, "llm.providers.gemini.api_key")
	}
	if geminiKey != "" {
		providers["gemini"] = LLMProviderConfig{
			APIKey:      geminiKey,
			Model:       getEnvWithYAML("GEMINI_MODEL", yamlConfig, "llm.providers.gemini.model", "gemini-2.5-flash"),
			BaseURL:     getEnvWithYAML("GEMINI_BASE_URL", yamlConfig, "llm.providers.gemini.base_url", ""),
			Temperature: getEnvFloat64WithYAML("GEMINI_TEMPERATURE", yamlConfig, "llm.providers.gemini.temperature", 0.7),
			TopP:        getEnvFloat64WithYAML("GEMINI_TOP_P", yamlConfig, "llm.providers.gemini.top_p", 0.8),
			MaxTokens:   getEnvIntWithYAML("GEMINI_MAX_TOKENS", yamlConfig, "llm.providers.gemini.max_tokens", 300),
		}
	}

	openaiKey := getEnvWithYAML("OPENAI_API_KEY", yamlConfig, "llm.providers.openai.api_key", "")
	if openaiKey != "" {
		providers["openai"] = LLMProviderConfig{
			APIKey:      openaiKey,
			Model:       getEnvWithYAML("OPENAI_MODEL", yamlConfig, "llm.providers.openai.model", "gpt-4o-mini"),
			BaseURL:     getEnvWithYAML("OPENAI_BASE_URL", yamlConfig, "llm.providers.openai.base_url", ""),
			Temperature: getEnvFloat64WithYAML("OPENAI_TEMPERATURE", yamlConfig, "llm.providers.openai.temperature", 0.7),
			TopP:        getEnvFloat64WithYAML("OPENAI_TOP_P", yamlConfig, "llm.providers.openai.top_p", 0.8),
			MaxTokens:   getEnvIntWithYAML("OPENAI_MAX_TOKENS", yamlConfig, "llm.providers.openai.max_tokens", 300),
		}
	}

	return providers
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

// loadYAMLConfig loads configuration from YAML files
func loadYAMLConfig(configDir string) map[string]interface{} {
	yamlConfig := make(map[string]interface{})

	appConfigPath := filepath.Join(configDir, "app_config.yaml")
	if data, err := os.ReadFile(appConfigPath); err == nil {
		var config map[string]interface{}
		if err := yaml.Unmarshal(data, &config); err == nil && config != nil {
			yamlConfig = config
		}
	}

	llmConfigPath := filepath.Join(configDir, "llm_config.yaml")
	if data, err := os.ReadFile(llmConfigPath); err == nil {
		var llmConfig map[string]interface{}
		if err := yaml.Unmarshal(data, &llmConfig); err == nil && llmConfig != nil {
			yamlConfig["llm"] = llmConfig
		}
	}

	return yamlConfig
}

// getEnvWithYAML gets environment variable with YAML fallback
func getEnvWithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}

	if yamlValue := getYAMLValue(yamlConfig, yamlPath); yamlValue != "" {
		return yamlValue
	}

	return defaultValue
}

// getEnvIntWithYAML gets integer environment variable with YAML fallback
func getEnvIntWithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue int) int {
	value := getEnvWithYAML(envKey, yamlConfig, yamlPath, "")
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

// getEnvFloat64WithYAML gets float64 environment variable with YAML fallback
func getEnvFloat64WithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue float64) float64 {
	value := getEnvWithYAML(envKey, yamlConfig, yamlPath, "")
	if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
		return floatValue
	}
	return defaultValue
}

// getEnvBoolWithYAML gets boolean environment variable with YAML fallback
func getEnvBoolWithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue bool) bool {
	value := getEnvWithYAML(envKey, yamlConfig, yamlPath, "")
	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}
	return defaultValue
}

// getEnvDurationWithYAML accepts Go durations ("1500ms") or plain seconds ("12")
func getEnvDurationWithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue time.Duration) time.Duration {
	value := getEnvWithYAML(envKey, yamlConfig, yamlPath, "")
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(seconds * float64(time.Second))
	}
	return defaultValue
}

// getEnvSliceWithYAML gets string slice environment variable with YAML fallback
func getEnvSliceWithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue []string) []string {
	if value := os.Getenv(envKey); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, len(parts))
		for i, part := range parts {
			result[i] = strings.TrimSpace(part)
		}
		return result
	}

	if yamlValue := getYAMLSlice(yamlConfig, yamlPath); yamlValue != nil {
		return yamlValue
	}

	return defaultValue
}

func getEnvIntSliceWithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue []int) []int {
	raw := getEnvSliceWithYAML(envKey, yamlConfig, yamlPath, nil)
	if raw == nil {
		return defaultValue
	}
	result := make([]int, 0, len(raw))
	for _, item := range raw {
		if n, err := strconv.Atoi(item); err == nil {
			result = append(result, n)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// lookupYAML walks the config using dot notation path
func lookupYAML(config map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	current := config

	for i, part := range parts {
		value, ok := current[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return value, true
		}
		next, ok := value.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current = next
	}

	return nil, false
}

// getYAMLValue gets a scalar value from YAML config as a string
func getYAMLValue(config map[string]interface{}, path string) string {
	value, ok := lookupYAML(config, path)
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case map[string]interface{}, []interface{}:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// getYAMLSlice gets string slice from YAML config using dot notation path
func getYAMLSlice(config map[string]interface{}, path string) []string {
	value, ok := lookupYAML(config, path)
	if !ok {
		return nil
	}
	slice, ok := value.([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, len(slice))
	for i, item := range slice {
		result[i] = fmt.Sprint(item)
	}
	return result
}
