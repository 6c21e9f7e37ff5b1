package config

import (
	"time"

	pkgconfig "github.com/bigseized/rksp-final/pkg/config"
	"github.com/bigseized/rksp-final/pkg/database"
	"github.com/bigseized/rksp-final/pkg/log"
	"github.com/bigseized/rksp-final/pkg/pubsub"
	"github.com/bigseized/rksp-final/pkg/storage"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Auth      AuthConfig
	Database  database.Config
	Redis     RedisConfig
	PubSub    pubsub.Config  `mapstructure:"pubsub"`
	Storage   storage.Config `mapstructure:"storage"`
	Avatar    AvatarConfig
	Metrics   MetricsConfig
	Log       log.Config
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// InstanceID tags published events so an instance can skip its own.
	InstanceID string `mapstructure:"instance_id"`
}

type WebSocketConfig struct {
	Path           string
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	// AllowedOrigins empty means any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type AuthConfig struct {
	GRPCAddress string        `mapstructure:"grpc_address"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Cache       AuthCacheConfig
}

// AuthCacheConfig enables the redis-backed token validation cache.
type AuthCacheConfig struct {
	Enabled bool
	TTL     time.Duration `mapstructure:"ttl"`
	Prefix  string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type AvatarConfig struct {
	Size        int
	MaxBytes    int64 `mapstructure:"max_bytes"`
	JPEGQuality int   `mapstructure:"jpeg_quality"`
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.instance_id", "")
	v.SetDefault("websocket.path", "/ws")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 65536)
	v.SetDefault("websocket.send_buffer", 256)
	v.SetDefault("websocket.allowed_origins", []string{})
	v.SetDefault("auth.grpc_address", "localhost:50051")
	v.SetDefault("auth.timeout", "3s")
	v.SetDefault("auth.cache.enabled", false)
	v.SetDefault("auth.cache.ttl", "30s")
	v.SetDefault("auth.cache.prefix", "chat:authcache")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "chat")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "chat.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", 30)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("pubsub.driver", "none")
	v.SetDefault("pubsub.redis.address", "localhost:6379")
	v.SetDefault("pubsub.redis.pool_size", 10)
	v.SetDefault("pubsub.kafka.brokers", "localhost:9092")
	v.SetDefault("pubsub.kafka.topic", "chat-events")
	v.SetDefault("pubsub.kafka.group_id", "chat-service")
	v.SetDefault("pubsub.kafka.partitions", 4)
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local.base_path", "./data/avatars")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "avatars")
	v.SetDefault("storage.s3.use_path_style", true)
	v.SetDefault("avatar.size", 256)
	v.SetDefault("avatar.max_bytes", 5<<20)
	v.SetDefault("avatar.jpeg_quality", 85)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service_name", "chat-service")
	v.SetDefault("log.file.path", "")
	v.SetDefault("log.file.max_size_mb", 100)
	v.SetDefault("log.file.max_backups", 5)
	v.SetDefault("log.file.max_age_days", 14)

	// Override from environment
	if err := pkgconfig.BindEnvs(v,
		"server.port=PORT",
		"auth.grpc_address=AUTH_GRPC_ADDRESS",
		"database.host=DB_HOST",
		"database.password=DB_PASSWORD",
		"redis.address=REDIS_ADDRESS",
		"redis.password=REDIS_PASSWORD",
		"pubsub.kafka.brokers=KAFKA_BROKERS",
		"storage.s3.endpoint=S3_ENDPOINT",
		"storage.s3.access_key_id=S3_ACCESS_KEY_ID",
		"storage.s3.secret_access_key=S3_SECRET_ACCESS_KEY",
	); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Server.ShutdownTimeout = pkgconfig.Duration(v, "server.shutdown_timeout", 10*time.Second)
	cfg.WebSocket.PingInterval = pkgconfig.Duration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = pkgconfig.Duration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = pkgconfig.Duration(v, "websocket.write_wait", 10*time.Second)
	cfg.Auth.Timeout = pkgconfig.Duration(v, "auth.timeout", 3*time.Second)
	cfg.Auth.Cache.TTL = pkgconfig.Duration(v, "auth.cache.ttl", 30*time.Second)

	return &cfg, nil
}

// DefaultWebSocket returns the gateway defaults, for tests and embedding.
func DefaultWebSocket() WebSocketConfig {
	return WebSocketConfig{
		Path:           "/ws",
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 65536,
		SendBuffer:     256,
	}
}
