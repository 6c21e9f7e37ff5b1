package config

import (
	"time"

	pkgconfig "github.com/bigseized/rksp-final/pkg/config"
	"github.com/bigseized/rksp-final/pkg/database"
	"github.com/bigseized/rksp-final/pkg/log"
)

type Config struct {
	Server   ServerConfig
	JWT      JWTConfig
	Password PasswordConfig
	Database database.Config
	Log      log.Config
}

type ServerConfig struct {
	Host            string
	Port            int
	GRPCPort        int           `mapstructure:"grpc_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type JWTConfig struct {
	Secret          string
	AccessDuration  time.Duration `mapstructure:"access_duration"`
	RefreshDuration time.Duration `mapstructure:"refresh_duration"`
	Issuer          string
	// CleanupInterval is how often expired revocation watermarks are dropped.
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type PasswordConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
	MinLength  int `mapstructure:"min_length"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.grpc_port", 50051)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.access_duration", "15m")
	v.SetDefault("jwt.refresh_duration", "168h")
	v.SetDefault("jwt.issuer", "rksp-final")
	v.SetDefault("jwt.cleanup_interval", "1h")
	v.SetDefault("password.bcrypt_cost", 10)
	v.SetDefault("password.min_length", 6)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "auth")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "auth.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", 30)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service_name", "auth-service")
	v.SetDefault("log.file.path", "")
	v.SetDefault("log.file.max_size_mb", 100)
	v.SetDefault("log.file.max_backups", 5)
	v.SetDefault("log.file.max_age_days", 14)

	// Override from environment
	if err := pkgconfig.BindEnvs(v,
		"server.port=PORT",
		"server.grpc_port=GRPC_PORT",
		"jwt.secret=JWT_SECRET",
		"jwt.access_duration=JWT_ACCESS_DURATION",
		"jwt.refresh_duration=JWT_REFRESH_DURATION",
		"database.host=DB_HOST",
		"database.password=DB_PASSWORD",
	); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Server.ShutdownTimeout = pkgconfig.Duration(v, "server.shutdown_timeout", 10*time.Second)
	cfg.JWT.AccessDuration = pkgconfig.Duration(v, "jwt.access_duration", 15*time.Minute)
	cfg.JWT.RefreshDuration = pkgconfig.Duration(v, "jwt.refresh_duration", 168*time.Hour)
	cfg.JWT.CleanupInterval = pkgconfig.Duration(v, "jwt.cleanup_interval", time.Hour)

	return &cfg, nil
}
