package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL    string        `env:"DATABASE_URL,required"`
	ServerPort     string        `env:"SERVER_PORT" envDefault:"8080"`
	BaseURL        string        `env:"BASE_URL" envDefault:"http://localhost:8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Сессии и безопасность форм
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	CookieSecure  bool          `env:"COOKIE_SECURE"`
	CSRFEnabled   bool          `env:"CSRF_ENABLED" envDefault:"true"`
	BcryptCost    int           `env:"BCRYPT_COST" envDefault:"10"`

	// Геокодер Nominatim
	Nominatim struct {
		BaseURL      string        `env:"NOMINATIM_BASE_URL" envDefault:"https://nominatim.openstreetmap.org"`
		UserAgent    string        `env:"NOMINATIM_USER_AGENT,required"`
		Language     string        `env:"NOMINATIM_LANGUAGE" envDefault:"ru"`
		Timeout      time.Duration `env:"NOMINATIM_TIMEOUT" envDefault:"10s"`
		RequestDelay time.Duration `env:"NOMINATIM_REQUEST_DELAY" envDefault:"1100ms"`
	}

	// Redis необязателен: без него сессии живут в памяти, а кэш меток выключен
	Redis struct {
		URL        string        `env:"REDIS_URL"`
		MarkersTTL time.Duration `env:"REDIS_MARKERS_TTL" envDefault:"5m"`
	}

	// MinIO необязателен: без него загрузка аватаров файлом недоступна
	Minio struct {
		Endpoint        string `env:"MINIO_ENDPOINT"`
		AccessKeyID     string `env:"MINIO_ACCESS_KEY_ID"`
		SecretAccessKey string `env:"MINIO_SECRET_ACCESS_KEY"`
		UseSSL          bool   `env:"MINIO_USE_SSL"`
		BucketName      string `env:"MINIO_BUCKET_NAME" envDefault:"avatars"`
		Region          string `env:"MINIO_REGION" envDefault:"us-east-1"`
		PublicURL       string `env:"MINIO_PUBLIC_URL"`
	}

	RabbitMQ struct {
		RabbitMQURL       string `env:"RABBITMQ_URL"`
		RabbitMQQueueName string `env:"RABBITMQ_QUEUE_NAME" envDefault:"marker_events"`
	}

	sessionSecretGenerated bool
}

// LoadConfig загружает конфигурацию из переменных окружения.
// В режиме разработки пытается загрузить .env файл.
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("ошибка загрузки .env файла: %w", err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации из окружения: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize проверяет значения, которые env не умеет проверить сам,
// и подставляет сгенерированный секрет сессий, если он не задан.
func (c *Config) normalize() error {
	if c.SessionSecret == "" {
		secret, err := randomHex(32)
		if err != nil {
			return fmt.Errorf("не удалось сгенерировать SESSION_SECRET: %w", err)
		}
		c.SessionSecret = secret
		c.sessionSecretGenerated = true
	}
	if c.Nominatim.UserAgent == "" {
		return fmt.Errorf("NOMINATIM_USER_AGENT обязателен: геокодер требует идентифицирующий User-Agent")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL должен быть положительным, получено %s", c.SessionTTL)
	}
	if c.Nominatim.Timeout <= 0 {
		return fmt.Errorf("NOMINATIM_TIMEOUT должен быть положительным, получено %s", c.Nominatim.Timeout)
	}
	if c.Nominatim.RequestDelay < 0 {
		return fmt.Errorf("NOMINATIM_REQUEST_DELAY не может быть отрицательным")
	}
	return nil
}

// SessionSecretGenerated сообщает, что секрет не был задан в окружении.
func (c *Config) SessionSecretGenerated() bool {
	return c.sessionSecretGenerated
}

// RedisEnabled, MinioEnabled и RabbitMQEnabled показывают, какие внешние сервисы подключать.
func (c *Config) RedisEnabled() bool    { return c.Redis.URL != "" }
func (c *Config) MinioEnabled() bool    { return c.Minio.Endpoint != "" }
func (c *Config) RabbitMQEnabled() bool { return c.RabbitMQ.RabbitMQURL != "" }

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
