package environments

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Gateway      GatewayConfig
	SurveyAPI    SurveyAPIConfig
	Shortener    ShortenerConfig
	Conversation ConversationConfig
	Campaign     CampaignConfig
	Inbound      InboundConfig
	Log          LogConfig
}

type ServerConfig struct {
	Port string `env:"SERVER_PORT" envDefault:"3001"`
}

type DatabaseConfig struct {
	Driver     string `env:"DB_DRIVER" envDefault:"postgres"`
	Host       string `env:"DB_HOST" envDefault:"localhost"`
	Port       string `env:"DB_PORT" envDefault:"5432"`
	User       string `env:"DB_USER" envDefault:"survey"`
	Password   string `env:"DB_PASSWORD" envDefault:"survey123"`
	DBName     string `env:"DB_NAME" envDefault:"survey_campaign"`
	SSLMode    string `env:"DB_SSLMODE" envDefault:"disable"`
	SQLitePath string `env:"DB_SQLITE_PATH" envDefault:"survey.db"`
}

type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED" envDefault:"true"`
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     string `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// GatewayConfig points at the chat transport gateway that owns the
// paired session and delivers text messages.
type GatewayConfig struct {
	URL        string        `env:"GATEWAY_URL" envDefault:"http://localhost:3002"`
	AuthKey    string        `env:"GATEWAY_AUTH_KEY"`
	InboundKey string        `env:"GATEWAY_INBOUND_KEY"`
	Timeout    time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"30s"`
	RetryCount int           `env:"GATEWAY_RETRY_COUNT" envDefault:"2"`
}

type SurveyAPIConfig struct {
	BaseURL         string        `env:"SURVEY_API_BASE_URL" envDefault:"http://localhost:8080"`
	Timeout         time.Duration `env:"SURVEY_API_TIMEOUT" envDefault:"10s"`
	CompletionCheck bool          `env:"SURVEY_COMPLETION_CHECK_ENABLED" envDefault:"false"`
	// PendingSource selects where /start-workflow reads pending clients
	// from: "api" (survey back office) or "database" (clients table).
	PendingSource string `env:"PENDING_CLIENTS_SOURCE" envDefault:"api"`
}

type ShortenerConfig struct {
	Enabled  bool          `env:"SHORTENER_ENABLED" envDefault:"true"`
	Endpoint string        `env:"SHORTENER_ENDPOINT" envDefault:"https://tinyurl.com/api-create.php"`
	Timeout  time.Duration `env:"SHORTENER_TIMEOUT" envDefault:"5s"`
	CacheTTL time.Duration `env:"SHORTENER_CACHE_TTL" envDefault:"168h"`
}

// ConversationConfig holds the per-contact timing of the survey workflow.
type ConversationConfig struct {
	EscalationDelay      time.Duration `env:"CONVERSATION_ESCALATION_DELAY" envDefault:"2m"`
	CompletionCheckDelay time.Duration `env:"CONVERSATION_COMPLETION_CHECK_DELAY" envDefault:"1m"`
	IntroPacing          time.Duration `env:"CONVERSATION_INTRO_PACING" envDefault:"2s"`
	QuestionPacing       time.Duration `env:"CONVERSATION_QUESTION_PACING" envDefault:"1s"`
	DefaultCountryCode   string        `env:"DEFAULT_COUNTRY_CODE" envDefault:"212"`
}

type CampaignConfig struct {
	SendPacing time.Duration `env:"CAMPAIGN_SEND_PACING" envDefault:"2s"`
}

type InboundConfig struct {
	AMQPURL   string `env:"INBOUND_AMQP_URL"`
	QueueName string `env:"INBOUND_AMQP_QUEUE" envDefault:"whatsapp_inbound"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads an optional .env file and then parses the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return &cfg, nil
}
