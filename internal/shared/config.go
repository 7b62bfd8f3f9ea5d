package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	StoreDriver string // mongo|mysql|memory
	MongoURI    string
	MongoDB     string
	MySQLDSN    string

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	TokenSecret string
	TokenTTL    time.Duration
	JWTPerMin   int
	StrictAuth  bool
	TrustProxy  bool
	CORSOrigins []string

	StripeKey string

	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
	MailFrom      string
	NotifyWorkers int
	NotifyRPS     int
	NotifyTimeout time.Duration

	SeedWorkers int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":5000"),
		MetricsAddr: env("METRICS_ADDR", ""),
		StoreDriver: strings.ToLower(env("STORE_DRIVER", "mongo")),
		MongoURI:    env("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     env("MONGO_DB", "airCncDb"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/aircnc?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,

		TokenSecret: env("ACCESS_TOKEN_SECRET", ""),
		TokenTTL:    time.Hour,
		JWTPerMin:   atoi("JWT_RATE_PER_MIN", 30),
		StrictAuth:  boolEnv("STRICT_AUTH", false),
		TrustProxy:  boolEnv("TRUST_PROXY", false),
		CORSOrigins: csv(env("CORS_ORIGINS", "*")),

		StripeKey: env("STRIPE_SECRET_KEY", ""),

		SMTPHost:      env("SMTP_HOST", ""),
		SMTPPort:      atoi("SMTP_PORT", 587),
		SMTPUser:      env("SMTP_USER", ""),
		SMTPPass:      env("SMTP_PASS", ""),
		MailFrom:      env("MAIL_FROM", "AirCNC <no-reply@aircnc.local>"),
		NotifyWorkers: atoi("NOTIFY_WORKERS", 4),
		NotifyRPS:     atoi("NOTIFY_RPS", 5),
		NotifyTimeout: time.Duration(atoi("NOTIFY_TIMEOUT_SECONDS", 20)) * time.Second,

		SeedWorkers: atoi("SEED_WORKERS", 4),
	}
	if c.TokenSecret == "" {
		log.Warn().Msg("ACCESS_TOKEN_SECRET is empty")
	}
	if c.StripeKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY is empty")
	}
	if c.SMTPHost == "" {
		log.Warn().Msg("SMTP_HOST is empty; notifications will only be logged")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func boolEnv(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func csv(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
