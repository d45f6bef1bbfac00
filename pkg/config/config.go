package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server          ServerConfig          `mapstructure:"server"`
	GRPCServer      GRPCServerConfig      `mapstructure:"grpc_server"`
	Database        DatabaseConfig        `mapstructure:"database"`
	Redis           RedisConfig           `mapstructure:"redis"`
	Kafka           KafkaConfig           `mapstructure:"kafka"`
	Minio           MinioConfig           `mapstructure:"minio"`
	JWT             JWTConfig             `mapstructure:"jwt"`
	Log             LogConfig             `mapstructure:"log"`
	Codec           CodecConfig           `mapstructure:"codec"`
	Jobs            JobsConfig            `mapstructure:"jobs"`
	Storage         StorageConfig         `mapstructure:"storage"`
	Retention       RetentionConfig       `mapstructure:"retention"`
	ServiceRegistry ServiceRegistryConfig `mapstructure:"service_registry"`
	Etcd            EtcdConfig            `mapstructure:"etcd"`
	Profiling       ProfilingConfig       `mapstructure:"profiling"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Mode           string        `mapstructure:"mode"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// GRPCServerConfig gRPC server configuration.
type GRPCServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // mysql | sqlite
	Path            string        `mapstructure:"path"`   // sqlite 文件路径
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	Charset         string        `mapstructure:"charset"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	EnableTLS    bool          `mapstructure:"enable_tls"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	StatusTTL    time.Duration `mapstructure:"status_ttl"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	Enabled          bool              `mapstructure:"enabled"`
	BootstrapServers []string          `mapstructure:"bootstrap_servers"`
	ClientID         string            `mapstructure:"client_id"`
	ConsumerGroup    string            `mapstructure:"consumer_group"`
	Topics           KafkaTopicsConfig `mapstructure:"topics"`
}

type KafkaTopicsConfig struct {
	JobEvents   string `mapstructure:"job_events"`
	JobRequests string `mapstructure:"job_requests"` // 为空时不启动请求消费者
}

// MinioConfig MinIO配置
type MinioConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKey       string `mapstructure:"access_key"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SecretKey       string `mapstructure:"secret_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
	Prefix          string `mapstructure:"prefix"`
}

// JWTConfig JWT配置，secret 为空时不启用鉴权
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// CodecConfig 编解码默认参数
type CodecConfig struct {
	Engine      string `mapstructure:"engine"` // y4m | native
	Width       int    `mapstructure:"width"`
	Height      int    `mapstructure:"height"`
	FPS         int    `mapstructure:"fps"`
	ChunkSize   int    `mapstructure:"chunk_size"`
	Compression string `mapstructure:"compression"` // none | lz4 | zstd
	// CompressionLevel 仅 native 引擎使用
	CompressionLevel int `mapstructure:"compression_level"`
}

// JobsConfig 任务调度配置
type JobsConfig struct {
	MaxConcurrent       int           `mapstructure:"max_concurrent"`
	QueueCapacity       int           `mapstructure:"queue_capacity"`
	ProgressThrottle    time.Duration `mapstructure:"progress_throttle"`
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`
}

// StorageConfig 本地存储配置
type StorageConfig struct {
	UploadDir     string `mapstructure:"upload_dir"`
	OutputDir     string `mapstructure:"output_dir"`
	RetainUploads bool   `mapstructure:"retain_uploads"`
}

// RetentionConfig 产物保留策略
type RetentionConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	MaxAge   time.Duration `mapstructure:"max_age"`
	Interval time.Duration `mapstructure:"interval"`
}

// ServiceRegistryConfig registration configuration.
type ServiceRegistryConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	ServiceName     string        `mapstructure:"service_name"`
	ServiceID       string        `mapstructure:"service_id"`
	RegisterHost    string        `mapstructure:"register_host"`
	TTL             time.Duration `mapstructure:"ttl"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// EtcdConfig etcd 连接配置
type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
}

// ProfilingConfig pyroscope 持续剖析配置
type ProfilingConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ServerAddress string `mapstructure:"server_address"`
}

// Load 加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("server.port", 8083)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "f2v2f.db")
	v.SetDefault("codec.engine", "y4m")
	v.SetDefault("codec.width", 1920)
	v.SetDefault("codec.height", 1080)
	v.SetDefault("codec.fps", 30)
	v.SetDefault("codec.chunk_size", 4096)
	v.SetDefault("codec.compression", "zstd")
	v.SetDefault("kafka.client_id", "f2v2f-service")
	v.SetDefault("kafka.topics.job_events", "f2v2f.job.events")
	v.SetDefault("retention.enabled", true)

	// 设置环境变量前缀
	v.SetEnvPrefix("F2V2F")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	config.normalize()

	return &config, nil
}

// Default 返回不依赖配置文件的默认配置
func Default() *Config {
	c := &Config{}
	c.Database.Driver = "sqlite"
	c.Database.Path = "f2v2f.db"
	c.Retention.Enabled = true
	c.normalize()
	return c
}

// normalize 补全配置的默认值
func (c *Config) normalize() {
	if c.Server.Port == 0 {
		c.Server.Port = 8083
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = 2 << 30
	}
	if c.GRPCServer.Host == "" {
		c.GRPCServer.Host = "0.0.0.0"
	}
	if c.GRPCServer.Port == 0 {
		c.GRPCServer.Port = 9092
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Charset == "" {
		c.Database.Charset = "utf8mb4"
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 2
	}

	// 兼容不同的密钥字段
	if c.Minio.AccessKeyID == "" {
		c.Minio.AccessKeyID = c.Minio.AccessKey
	}
	if c.Minio.SecretAccessKey == "" {
		c.Minio.SecretAccessKey = c.Minio.SecretKey
	}
	if c.Minio.BucketName == "" {
		c.Minio.BucketName = "f2v2f"
	}

	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "f2v2f:job:"
	}
	if c.Redis.StatusTTL <= 0 {
		c.Redis.StatusTTL = 24 * time.Hour
	}
	if len(c.Kafka.BootstrapServers) == 0 {
		c.Kafka.BootstrapServers = []string{"localhost:29092"}
	}
	if c.Kafka.ClientID == "" {
		c.Kafka.ClientID = "f2v2f-service"
	}
	if c.Kafka.ConsumerGroup == "" {
		c.Kafka.ConsumerGroup = "f2v2f-service-group"
	}
	if c.Kafka.Topics.JobEvents == "" {
		c.Kafka.Topics.JobEvents = "f2v2f.job.events"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}

	// 编解码默认值
	if c.Codec.Engine == "" {
		c.Codec.Engine = "y4m"
	}
	if c.Codec.Width <= 0 {
		c.Codec.Width = 1920
	}
	if c.Codec.Height <= 0 {
		c.Codec.Height = 1080
	}
	if c.Codec.FPS <= 0 {
		c.Codec.FPS = 30
	}
	if c.Codec.ChunkSize <= 0 {
		c.Codec.ChunkSize = 4096
	}
	if c.Codec.Compression == "" {
		c.Codec.Compression = "zstd"
	}

	// 任务调度默认值
	if c.Jobs.MaxConcurrent <= 0 {
		c.Jobs.MaxConcurrent = 4
	}
	if c.Jobs.QueueCapacity <= 0 {
		c.Jobs.QueueCapacity = c.Jobs.MaxConcurrent * 16
	}
	if c.Jobs.ProgressThrottle <= 0 {
		c.Jobs.ProgressThrottle = time.Second
	}
	if c.Jobs.ShutdownGracePeriod <= 0 {
		c.Jobs.ShutdownGracePeriod = 10 * time.Second
	}

	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = "uploads"
	}
	if c.Storage.OutputDir == "" {
		c.Storage.OutputDir = "outputs"
	}

	if c.Retention.MaxAge <= 0 {
		c.Retention.MaxAge = 24 * time.Hour
	}
	if c.Retention.Interval <= 0 {
		c.Retention.Interval = time.Hour
	}

	if c.ServiceRegistry.ServiceName == "" {
		c.ServiceRegistry.ServiceName = "f2v2f-service"
	}
	if c.ServiceRegistry.TTL == 0 {
		c.ServiceRegistry.TTL = 30 * time.Second
	}
	if c.ServiceRegistry.RefreshInterval == 0 {
		c.ServiceRegistry.RefreshInterval = 10 * time.Second
	}
	if len(c.Etcd.Endpoints) == 0 {
		c.Etcd.Endpoints = []string{"localhost:2379"}
	}
	if c.Etcd.DialTimeout <= 0 {
		c.Etcd.DialTimeout = 5 * time.Second
	}
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.Charset)
}

// GetRedisAddr 获取Redis地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetServerAddr 获取HTTP监听地址
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
