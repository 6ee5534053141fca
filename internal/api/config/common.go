package config

// Config 配置主体
type Config struct {
	Server               ServerConfig         `mapstructure:"server"`
	DB                   DBConfig             `mapstructure:"database"`
	Redis                RedisConfig          `mapstructure:"redis"`
	Mongo                MongoConfig          `mapstructure:"mongo"`
	Logstash             LogstashConfig       `mapstructure:"logstash"`
	Kafka                KafkaConfig          `mapstructure:"kafka"`
	KafkaActionsConsumer KafkaActionsConsumer `mapstructure:"kafka_actions_consumer"`
	Notification         NotificationConfig   `mapstructure:"notification"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// MongoConfig Mongo配置
type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// LogstashConfig 远程日志配置
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

type KafkaActionsConsumer struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// NotificationConfig 通知聚合配置
type NotificationConfig struct {
	RetentionDays int `mapstructure:"retention_days"` // 记录保留天数，清理任务使用
}
