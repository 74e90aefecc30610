package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// Supported task providers
const (
	ProviderTodoist = "todoist"
	ProviderYougile = "yougile"
)

// Supported LLM backends
const (
	LLMBackendYandex = "yandex"
	LLMBackendGemini = "gemini"
)

// Telegram transport modes
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

type Config struct {
	Provider  string          `mapstructure:"provider"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	LLM       LLMConfig       `mapstructure:"llm"`
	SpeechKit SpeechKitConfig `mapstructure:"speechkit"`
	Todoist   TodoistConfig   `mapstructure:"todoist"`
	Yougile   YougileConfig   `mapstructure:"yougile"`
	Resolver  ResolverConfig  `mapstructure:"resolver"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Environment  string `mapstructure:"environment"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type TelegramConfig struct {
	Token         string `mapstructure:"token"`
	AllowedUserID int64  `mapstructure:"user_id"`
	Mode          string `mapstructure:"mode"`
	WebhookURL    string `mapstructure:"webhook_url"`
	// WebhookSecret is registered with Telegram and must arrive in the
	// X-Telegram-Bot-Api-Secret-Token header of every webhook request.
	WebhookSecret string `mapstructure:"webhook_secret"`
	UpdateTimeout int    `mapstructure:"update_timeout"`
	Timeout       int    `mapstructure:"timeout"`
	MaxRetries    int    `mapstructure:"max_retries"`
}

type LLMConfig struct {
	Backend     string  `mapstructure:"backend"`
	APIEndpoint string  `mapstructure:"api_endpoint"`
	APIKey      string  `mapstructure:"api_key"`
	FolderID    string  `mapstructure:"folder_id"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Timeout     int     `mapstructure:"timeout"`
	MaxRetries  int     `mapstructure:"max_retries"`
}

type SpeechKitConfig struct {
	APIEndpoint string   `mapstructure:"api_endpoint"`
	APIKey      string   `mapstructure:"api_key"`
	Language    string   `mapstructure:"language"`
	Models      []string `mapstructure:"models"`
	Timeout     int      `mapstructure:"timeout"`
	MaxRetries  int      `mapstructure:"max_retries"`
}

type TodoistConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	Token            string `mapstructure:"token"`
	DefaultProjectID string `mapstructure:"default_project_id"`
	DefaultSectionID string `mapstructure:"default_section_id"`
	DueLang          string `mapstructure:"due_lang"`
	Timeout          int    `mapstructure:"timeout"`
	MaxRetries       int    `mapstructure:"max_retries"`
}

type YougileConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Token    string `mapstructure:"token"`
	ColumnID string `mapstructure:"column_id"`
	Timeout  int    `mapstructure:"timeout"`
}

type ResolverConfig struct {
	// Strict makes unresolved project or section names fail the request
	// instead of being dropped.
	Strict bool `mapstructure:"strict"`
}

type PipelineConfig struct {
	Timeout int `mapstructure:"timeout"`
}

// webhookSecretPattern is the character set Telegram accepts for secret_token.
var webhookSecretPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,256}$`)

// envAliases maps config keys to the environment variable names the bot has
// historically been deployed with.
var envAliases = map[string][]string{
	"provider":                   {"PROVIDER", "SERVICE"},
	"telegram.token":             {"TELEGRAM_TOKEN"},
	"telegram.user_id":           {"TELEGRAM_USER_ID"},
	"telegram.webhook_secret":    {"TELEGRAM_WEBHOOK_SECRET"},
	"llm.api_key":                {"LLM_API_KEY", "YANDEX_GPT_APIKEY"},
	"llm.folder_id":              {"LLM_FOLDER_ID", "YANDEX_FOLDER_ID"},
	"speechkit.api_key":          {"SPEECHKIT_API_KEY", "YANDEX_SPEECHKIT_TOKEN"},
	"todoist.token":              {"TODOIST_TOKEN"},
	"todoist.default_project_id": {"TODOIST_DEFAULT_PROJECT_ID"},
	"todoist.default_section_id": {"TODOIST_DEFAULT_SECTION_ID"},
	"yougile.token":              {"YOUGILE_TOKEN"},
	"yougile.column_id":          {"YOUGILE_COLUMN_ID", "YOUGILE_LOCATION"},
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Provider = strings.ToLower(strings.TrimSpace(config.Provider))

	return &config, nil
}

// Validate reports every variable the selected provider needs but lacks.
// A process must not start with a configuration that fails validation.
func (c *Config) Validate() error {
	var missing []string
	require := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}

	require("telegram.token", c.Telegram.Token)
	if c.Telegram.AllowedUserID == 0 {
		missing = append(missing, "telegram.user_id")
	}
	require("speechkit.api_key", c.SpeechKit.APIKey)

	switch c.LLM.Backend {
	case LLMBackendYandex:
		require("llm.api_key", c.LLM.APIKey)
		require("llm.folder_id", c.LLM.FolderID)
	case LLMBackendGemini:
		require("llm.api_key", c.LLM.APIKey)
	default:
		return NewConfigurationError(fmt.Sprintf("unknown llm.backend %q, must be %q or %q",
			c.LLM.Backend, LLMBackendYandex, LLMBackendGemini))
	}

	switch c.Provider {
	case ProviderTodoist:
		require("todoist.token", c.Todoist.Token)
		if err := c.Todoist.validateDueLang(); err != nil {
			return err
		}
	case ProviderYougile:
		require("yougile.token", c.Yougile.Token)
		require("yougile.column_id", c.Yougile.ColumnID)
	default:
		return NewConfigurationError(fmt.Sprintf("unknown provider %q, must be %q or %q",
			c.Provider, ProviderTodoist, ProviderYougile))
	}

	switch c.Telegram.Mode {
	case ModePolling:
	case ModeWebhook:
		require("telegram.webhook_secret", c.Telegram.WebhookSecret)
		if c.Telegram.WebhookSecret != "" && !webhookSecretPattern.MatchString(c.Telegram.WebhookSecret) {
			return NewConfigurationError("telegram.webhook_secret must be 1-256 characters of A-Z, a-z, 0-9, _ and -")
		}
	default:
		return NewConfigurationError(fmt.Sprintf("unknown telegram.mode %q", c.Telegram.Mode))
	}

	if len(missing) > 0 {
		return NewConfigurationError("missing required settings", missing...)
	}
	return nil
}

func (c TodoistConfig) validateDueLang() error {
	if c.DueLang == "" {
		return nil
	}
	if _, err := language.Parse(c.DueLang); err != nil {
		return NewConfigurationError(fmt.Sprintf("invalid todoist.due_lang %q: %v", c.DueLang, err))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderTodoist)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.user_id", 0)
	v.SetDefault("telegram.mode", ModePolling)
	v.SetDefault("telegram.webhook_url", "")
	v.SetDefault("telegram.webhook_secret", "")
	v.SetDefault("telegram.update_timeout", 60)
	v.SetDefault("telegram.timeout", 30)
	v.SetDefault("telegram.max_retries", 3)

	v.SetDefault("llm.backend", LLMBackendYandex)
	v.SetDefault("llm.api_endpoint", "https://llm.api.cloud.yandex.net/foundationModels/v1/completion")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.folder_id", "")
	v.SetDefault("llm.model", "yandexgpt/latest")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 300)
	v.SetDefault("llm.timeout", 30)
	v.SetDefault("llm.max_retries", 3)

	v.SetDefault("speechkit.api_endpoint", "https://stt.api.cloud.yandex.net/speech/v1/stt:recognize")
	v.SetDefault("speechkit.api_key", "")
	v.SetDefault("speechkit.language", "ru-RU")
	v.SetDefault("speechkit.models", []string{"general:rc", "general", "spontaneous"})
	v.SetDefault("speechkit.timeout", 30)
	v.SetDefault("speechkit.max_retries", 2)

	v.SetDefault("todoist.base_url", "https://api.todoist.com/api/v1")
	v.SetDefault("todoist.token", "")
	v.SetDefault("todoist.default_project_id", "")
	v.SetDefault("todoist.default_section_id", "")
	v.SetDefault("todoist.due_lang", "")
	v.SetDefault("todoist.timeout", 15)
	v.SetDefault("todoist.max_retries", 3)

	v.SetDefault("yougile.base_url", "https://ru.yougile.com/api-v2")
	v.SetDefault("yougile.token", "")
	v.SetDefault("yougile.column_id", "")
	v.SetDefault("yougile.timeout", 15)

	v.SetDefault("resolver.strict", false)

	v.SetDefault("pipeline.timeout", 90)
}
