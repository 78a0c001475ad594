package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

// Environment variables with defaults
type ServerEnvironment struct {

	// http server settings
	Environment           string        `env:"ENVIRONMENT,default=dev"`
	Host                  string        `env:"HOST,default=0.0.0.0"`
	Port                  int           `env:"PORT,default=0"`
	LogLevel              string        `env:"LOG_LEVEL,default=debug"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=15s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	RateLimitRPS          int32         `env:"RATE_LIMIT_RPS,default=100"`
	RateLimitBurst        int32         `env:"RATE_LIMIT_BURST,default=200"`
	MaxRequestBodyBytes   int64         `env:"MAX_REQUEST_BODY_BYTES,default=1048576"`

	// database settings
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS,default=4"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS,default=0"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME,default=60m"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME,default=30m"`
	DBConnectTimeout    time.Duration `env:"DB_CONNECT_TIMEOUT,default=5s"`
	DatabasePingTimeout time.Duration `env:"DATABASE_PING_TIMEOUT,default=10s"`

	// redis (sessions, login counters, view counters)
	RedisURL string `env:"REDIS_URL,default=redis://localhost:6379/0"`

	// token settings - HS256 (shared secret) is the default signing mode.
	// Set JWT_SIGNING_KEY_PATH to a private JWK to switch to RS256; other
	// services then verify via the user service JWKS endpoint (JWT_JWKS_URL).
	JWTSecret          string        `env:"JWT_SECRET,required=true"`
	JWTSigningKeyPath  string        `env:"JWT_SIGNING_KEY_PATH"`
	JWTJWKSURL         string        `env:"JWT_JWKS_URL"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL,default=30m"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL,default=168h"`
	SessionBlacklist   time.Duration `env:"SESSION_BLACKLIST_TTL,default=1h"`
	LoginAttemptsPerMn int32         `env:"LOGIN_ATTEMPTS_PER_MINUTE,default=5"`

	// JWKS cache settings (RS256 mode only)
	SkipJWKCache        bool          `env:"SKIP_JWK_CACHE,default=false"`
	JWKCacheHTTPTimeout time.Duration `env:"JWK_CACHE_HTTP_TIMEOUT,default=30s"`

	// payment gateway credentials (payment-service)
	VNPayTmnCode     string        `env:"VNPAY_TMN_CODE"`
	VNPayHashSecret  string        `env:"VNPAY_HASH_SECRET"`
	VNPayPayURL      string        `env:"VNPAY_PAY_URL,default=https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"`
	VNPayReturnURL   string        `env:"VNPAY_RETURN_URL,default=https://mathservice.com/payments/return"`
	MoMoPartnerCode  string        `env:"MOMO_PARTNER_CODE"`
	MoMoAccessKey    string        `env:"MOMO_ACCESS_KEY"`
	MoMoSecretKey    string        `env:"MOMO_SECRET_KEY"`
	MoMoEndpoint     string        `env:"MOMO_ENDPOINT,default=https://test-payment.momo.vn/v2/gateway/api/create"`
	ZaloPayAppID     string        `env:"ZALOPAY_APP_ID"`
	ZaloPayKey1      string        `env:"ZALOPAY_KEY1"`
	ZaloPayKey2      string        `env:"ZALOPAY_KEY2"`
	ZaloPayEndpoint  string        `env:"ZALOPAY_ENDPOINT,default=https://sb-openapi.zalopay.vn/v2/create"`
	PaymentExpiresIn time.Duration `env:"PAYMENT_EXPIRES_IN,default=15m"`

	// service URLs used by the admin service health aggregator
	UserServiceURL     string        `env:"USER_SERVICE_URL,default=http://localhost:8081"`
	PaymentServiceURL  string        `env:"PAYMENT_SERVICE_URL,default=http://localhost:8082"`
	ContentServiceURL  string        `env:"CONTENT_SERVICE_URL,default=http://localhost:8083"`
	SolverServiceURL   string        `env:"SOLVER_SERVICE_URL,default=http://localhost:8084"`
	HealthProbeTimeout time.Duration `env:"HEALTH_PROBE_TIMEOUT,default=5s"`

	// backups (admin-service). When BACKUP_S3_ENDPOINT is set, backup
	// artifacts are uploaded to the S3-compatible store; otherwise they are
	// written to BACKUP_DIR.
	BackupDir         string        `env:"BACKUP_DIR,default=./backups"`
	BackupS3Endpoint  string        `env:"BACKUP_S3_ENDPOINT"`
	BackupS3AccessKey string        `env:"BACKUP_S3_ACCESS_KEY"`
	BackupS3SecretKey string        `env:"BACKUP_S3_SECRET_KEY"`
	BackupS3Bucket    string        `env:"BACKUP_S3_BUCKET,default=mathservice-backups"`
	BackupS3UseSSL    bool          `env:"BACKUP_S3_USE_SSL,default=true"`
	BackupRetention   time.Duration `env:"BACKUP_RETENTION,default=336h"`
	UploadsDir        string        `env:"UPLOADS_DIR,default=./uploads"`

	// Required configuration - must be set by environment variables
	DatabaseURL string `env:"DATABASE_URL,required=true"`
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

// NewServerConfig loads environment variables and returns a ServerEnvironment struct that contains the values.
//
// Each service passes its default port; PORT overrides it when set.
func NewServerConfig(defaultPort int) (*ServerEnvironment, error) {
	var cfg ServerEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateConfig checks for required env variables
func validateConfig(cfg *ServerEnvironment) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}

	// Validate database pool configuration
	if cfg.DBMaxConnections < 1 {
		return fmt.Errorf("DB_MAX_CONNECTIONS must be at least 1")
	}
	if cfg.DBMinConnections < 0 {
		return fmt.Errorf("DB_MIN_CONNECTIONS must be 0 or greater")
	}
	if cfg.DBMinConnections > cfg.DBMaxConnections {
		return fmt.Errorf("DB_MIN_CONNECTIONS (%d) cannot be greater than DB_MAX_CONNECTIONS (%d)",
			cfg.DBMinConnections, cfg.DBMaxConnections)
	}

	if len(cfg.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}

	return nil
}
