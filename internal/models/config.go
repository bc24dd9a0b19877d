package models

import "time"

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig
	Engine    EngineConfig
	Server    ServerConfig
	Scheduler SchedulerConfig
	Notify    NotifyConfig
	Formance  FormanceConfig
	Listener  ListenerConfig
	PlansFile string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path             string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	ConnMaxIdleTime  time.Duration
	PingTimeout      time.Duration
	CreateDummyUsers bool
}

// CancelPolicy decides what happens to the principal of a cancelled active investment
type CancelPolicy string

const (
	CancelPolicyNone   CancelPolicy = "none"
	CancelPolicyRefund CancelPolicy = "refund"
)

// EngineConfig holds investment lifecycle settings
type EngineConfig struct {
	Currency           string
	ActiveCancelPolicy CancelPolicy
	PendingTTL         time.Duration // zero disables expiry
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr            string
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// SchedulerConfig holds cron schedules for background jobs
type SchedulerConfig struct {
	Enabled           bool
	ReconcileSchedule string
	MaturitySchedule  string
	ExpirySchedule    string
	RepairBalances    bool
}

// NotifyConfig holds notification queue and broadcast settings
type NotifyConfig struct {
	RedisAddr      string
	RedisPassword  string
	Queue          string
	Concurrency    int
	EnqueueTimeout time.Duration
	WebhookURL     string
	ChannelId      string
	WebhookTimeout time.Duration
}

// FormanceConfig holds the optional ledger mirror settings
type FormanceConfig struct {
	Enabled      bool
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}

// ListenerConfig holds payment listener settings
type ListenerConfig struct {
	LookbackWindow  time.Duration
	PollingInterval time.Duration
	CleanupInterval time.Duration
	AssetsFile      string
}
