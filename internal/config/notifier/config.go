package notifier_config

import (
	"time"

	"github.com/NordCoder/pingerus-notifier/internal/obs"
	kafkax "github.com/NordCoder/pingerus-notifier/internal/repository/kafka"
	pg "github.com/NordCoder/pingerus-notifier/internal/repository/postgres"
	redisinfra "github.com/NordCoder/pingerus-notifier/internal/repository/redis"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type KafkaIn struct {
	Brokers       []string `mapstructure:"brokers" validate:"min=1,dive,required"`
	Topic         string   `mapstructure:"topic" validate:"required"`
	GroupID       string   `mapstructure:"group_id" validate:"required"`
	Partitions    int      `mapstructure:"partitions" validate:"gte=1"`
	FromBeginning bool     `mapstructure:"from_beginning"`
}

func (k *KafkaIn) AsConsumerConfig() *kafkax.ConsumerConfig {
	return &kafkax.ConsumerConfig{
		Brokers:       k.Brokers,
		GroupID:       k.GroupID,
		Topic:         k.Topic,
		FromBeginning: k.FromBeginning,
	}
}

type SMTP struct {
	Enable     bool          `mapstructure:"enable"`
	Addr       string        `mapstructure:"addr" validate:"required_if=Enable true,omitempty,hostname_port"`
	From       string        `mapstructure:"from" validate:"required_if=Enable true,omitempty,email"`
	User       string        `mapstructure:"user"`
	Password   string        `mapstructure:"password"`
	UseTLS     bool          `mapstructure:"use_tls"`
	Timeout    time.Duration `mapstructure:"timeout"`
	SubjPrefix string        `mapstructure:"subj_prefix"`
}

type Telegram struct {
	Enable     bool          `mapstructure:"enable"`
	Token      string        `mapstructure:"token" validate:"required_if=Enable true"`
	APIURL     string        `mapstructure:"api_url" validate:"omitempty,url"`
	RatePerSec float64       `mapstructure:"rate_per_sec" validate:"gte=0"`
	Burst      int           `mapstructure:"burst" validate:"gte=0"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type Webhook struct {
	Enable     bool          `mapstructure:"enable"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RatePerSec float64       `mapstructure:"rate_per_sec" validate:"gte=0"`
}

type RateLimit struct {
	Backend  string        `mapstructure:"backend" validate:"oneof=memory redis"`
	Cooldown time.Duration `mapstructure:"cooldown"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

type Dispatch struct {
	Workers  int    `mapstructure:"workers" validate:"gte=1"`
	Attempts int    `mapstructure:"attempts" validate:"gte=1"`
	BaseURL  string `mapstructure:"base_url" validate:"required,url"`
}

type Server struct {
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level    string `mapstructure:"level"`
	Pretty   bool   `mapstructure:"pretty"`
	Encoding string `mapstructure:"encoding" validate:"omitempty,oneof=json console"`
}

func (c *Config) AsLoggerConfig() *obs.LogConfig {
	return &obs.LogConfig{
		Level:    c.Log.Level,
		Pretty:   c.Log.Pretty,
		Encoding: c.Log.Encoding,
		App:      "pingerus/" + c.App.Name,
		Env:      c.App.Env,
		Ver:      c.App.Version,
	}
}

type Config struct {
	App       App               `mapstructure:"app"`
	DB        pg.Config         `mapstructure:"db"`
	Redis     redisinfra.Config `mapstructure:"redis"`
	In        KafkaIn           `mapstructure:"kafka_in"`
	SMTP      SMTP              `mapstructure:"smtp"`
	Telegram  Telegram          `mapstructure:"telegram"`
	Webhook   Webhook           `mapstructure:"webhook"`
	RateLimit RateLimit         `mapstructure:"ratelimit"`
	Dispatch  Dispatch          `mapstructure:"dispatch"`
	Server    Server            `mapstructure:"server"`
	OTEL      OTEL              `mapstructure:"otel"`
	Log       Log               `mapstructure:"log"`
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }

const (
	ErrNoDSN      ErrConfig = "db.dsn is required"
	ErrNoCooldown ErrConfig = "ratelimit.cooldown is required and must be positive"
	ErrNoRedis    ErrConfig = "redis.addr is required for the redis rate limit backend"
)
