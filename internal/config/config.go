package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DB holds pool tuning shared by every binary that talks to Postgres.
type DB struct {
	DSN               string `envconfig:"DB_DSN" required:"true"`
	MaxConns          int32  `envconfig:"DB_POOL_MAX_CONNS" default:"10"`
	MinConns          int32  `envconfig:"DB_POOL_MIN_CONNS" default:"0"`
	MaxConnLifetime   string `envconfig:"DB_POOL_MAX_CONN_LIFETIME" default:"30m"`
	MaxConnIdleTime   string `envconfig:"DB_POOL_MAX_CONN_IDLE_TIME" default:"5m"`
	HealthCheckPeriod string `envconfig:"DB_POOL_HEALTH_CHECK_PERIOD" default:"30s"`
}

type AWS struct {
	Region             string `envconfig:"AWS_REGION" required:"true"`
	SQSQueueURL        string `envconfig:"SQS_QUEUE_URL" required:"true"`
	LocalstackEndpoint string `envconfig:"LOCALSTACK_ENDPOINT"`
	// FIFO queues only: number of message groups entry signals are spread over.
	SQSGroupBuckets int `envconfig:"SQS_GROUP_BUCKETS" default:"16"`
}

type Redis struct {
	Addr        string        `envconfig:"REDIS_ADDR"`
	Password    string        `envconfig:"REDIS_PASSWORD"`
	DB          int           `envconfig:"REDIS_DB" default:"0"`
	SettingsTTL time.Duration `envconfig:"SETTINGS_CACHE_TTL" default:"30s"`
}

type WhatsApp struct {
	BaseURL     string        `envconfig:"WHACENTER_BASE_URL" default:"https://app.whacenter.com/api"`
	HTTPTimeout time.Duration `envconfig:"WHACENTER_HTTP_TIMEOUT" default:"10s"`
}

type APIConfig struct {
	Port        string `envconfig:"PORT" default:"8080"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`

	DB       DB
	AWS      AWS
	Redis    Redis
	WhatsApp WhatsApp
}

type DispatcherConfig struct {
	Port        string `envconfig:"PORT" default:"8080"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`

	DB       DB
	AWS      AWS
	Redis    Redis
	WhatsApp WhatsApp

	SQSWaitTime   int32 `envconfig:"SQS_WAIT_TIME" default:"20"`
	SQSMaxMsgs    int32 `envconfig:"SQS_MAX_MSGS" default:"10"`
	SQSVizTimeout int32 `envconfig:"SQS_VISIBILITY_TIMEOUT" default:"60"`

	WorkerConcurrency int `envconfig:"WORKER_CONCURRENCY" default:"20"`

	SendRPSPerPod float64 `envconfig:"WHACENTER_RPS_PER_POD" default:"5"`
	SendBurst     int     `envconfig:"WHACENTER_BURST" default:"10"`

	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"30s"`
	SweepGrace    time.Duration `envconfig:"SWEEP_GRACE" default:"1m"`
	SweepBatch    int           `envconfig:"SWEEP_BATCH" default:"50"`

	// zero derives the cutoff from the gateway HTTP timeout
	SweepStaleAfter time.Duration `envconfig:"SWEEP_STALE_AFTER"`
}

type SchedulerConfig struct {
	Port        string `envconfig:"PORT" default:"8080"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`

	DB  DB
	AWS AWS

	Schedule    string `envconfig:"SUMMARY_SCHEDULE" default:"0 8 * * *"`
	Timezone    string `envconfig:"SUMMARY_TIMEZONE" default:"Asia/Jakarta"`
	Concurrency int    `envconfig:"SUMMARY_CONCURRENCY" default:"8"`
}

type MockGatewayConfig struct {
	Port      string `envconfig:"PORT" default:"8081"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// fixed | round_robin | random | weighted
	OutcomeMode    string  `envconfig:"MOCK_OUTCOME_MODE" default:"fixed"`
	Outcomes       string  `envconfig:"MOCK_OUTCOMES" default:"ok"`
	SuccessRate    float64 `envconfig:"MOCK_SUCCESS_RATE" default:"0.95"`
	FailureWeights string  `envconfig:"MOCK_FAILURE_WEIGHTS" default:"device_offline:1"`
	DelayMS        int     `envconfig:"MOCK_DELAY_MS" default:"0"`
	TimeoutDelayMS int     `envconfig:"MOCK_TIMEOUT_DELAY_MS" default:"12000"`
}

func LoadAPI() APIConfig {
	var cfg APIConfig
	mustProcess(&cfg)
	return cfg
}

func LoadDispatcher() DispatcherConfig {
	var cfg DispatcherConfig
	mustProcess(&cfg)
	return cfg
}

func LoadScheduler() SchedulerConfig {
	var cfg SchedulerConfig
	mustProcess(&cfg)
	return cfg
}

type MigrateConfig struct {
	DSN  string `envconfig:"DB_DSN" required:"true"`
	Path string `envconfig:"MIGRATIONS_PATH" default:"file://migrations"`
}

func LoadMigrate() MigrateConfig {
	var cfg MigrateConfig
	mustProcess(&cfg)
	return cfg
}

func LoadMockGateway() MockGatewayConfig {
	var cfg MockGatewayConfig
	mustProcess(&cfg)
	return cfg
}

// mustProcess reads an optional .env file first; real environment wins.
func mustProcess(cfg any) {
	_ = godotenv.Load()
	if err := envconfig.Process("", cfg); err != nil {
		panic(err)
	}
}
