package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full process configuration. Strategy constants are
// fixed at startup; there is no runtime reconfiguration surface.
type Config struct {
	Environment string `yaml:"environment"`
	Logging     struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Strategy struct {
		Instrument         string        `yaml:"instrument"`
		Timeframe          string        `yaml:"timeframe"`
		CandleLimit        int           `yaml:"candle_limit"`
		DepthLimit         int           `yaml:"depth_limit"`
		OscillatorPeriod   int           `yaml:"oscillator_period"`
		BuyCeiling         float64       `yaml:"buy_ceiling"`
		SellFloor          float64       `yaml:"sell_floor"`
		ShortEMAPeriod     int           `yaml:"short_ema_period"`
		LongEMAPeriod      int           `yaml:"long_ema_period"`
		LevelsPeriod       int           `yaml:"levels_period"`
		Leverage           int           `yaml:"leverage"`
		OrderEquityPercent float64       `yaml:"order_equity_percent"`
		TakeProfitMult     float64       `yaml:"take_profit_mult"`
		StopLossMult       float64       `yaml:"stop_loss_mult"`
		PricePrecision     int           `yaml:"price_precision"`
		CycleDelay         time.Duration `yaml:"cycle_delay"`
	} `yaml:"strategy"`
	Calibration struct {
		Interval     time.Duration `yaml:"interval"`
		HistoryLimit int           `yaml:"history_limit"`
	} `yaml:"calibration"`
	Exchange struct {
		RESTHost     string        `yaml:"rest_host"`
		WebSocketURL string        `yaml:"websocket_url"`
		APIKey       string        `yaml:"api_key"`
		APISecret    string        `yaml:"api_secret"`
		Passphrase   string        `yaml:"passphrase"`
		Timeout      time.Duration `yaml:"timeout"`
		PingInterval time.Duration `yaml:"ping_interval"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	} `yaml:"exchange"`
	Backend struct {
		Type    string `yaml:"type"` // clickhouse or csv
		CSVPath string `yaml:"csv_path"`
	} `yaml:"backend"`
	ClickHouse struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Telegram struct {
		Enabled  bool   `yaml:"enabled"`
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides from the
// environment. Credentials are only ever taken from the environment.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("API_KEY"); v != "" {
		c.Exchange.APIKey = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		c.Exchange.APISecret = v
	}
	if v := os.Getenv("PASSPHRASE"); v != "" {
		c.Exchange.Passphrase = v
	}
	if v := os.Getenv("INSTRUMENT"); v != "" {
		c.Strategy.Instrument = v
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	s := &c.Strategy
	if s.Timeframe == "" {
		s.Timeframe = "15m"
	}
	if s.CandleLimit == 0 {
		s.CandleLimit = 100
	}
	if s.DepthLimit == 0 {
		s.DepthLimit = 100
	}
	if s.OscillatorPeriod == 0 {
		s.OscillatorPeriod = 14
	}
	if s.BuyCeiling == 0 {
		s.BuyCeiling = 46
	}
	if s.SellFloor == 0 {
		s.SellFloor = 46
	}
	if s.ShortEMAPeriod == 0 {
		s.ShortEMAPeriod = 10
	}
	if s.LongEMAPeriod == 0 {
		s.LongEMAPeriod = 50
	}
	if s.LevelsPeriod == 0 {
		s.LevelsPeriod = 20
	}
	if s.Leverage == 0 {
		s.Leverage = 5
	}
	if s.OrderEquityPercent == 0 {
		s.OrderEquityPercent = 0.01
	}
	if s.TakeProfitMult == 0 {
		s.TakeProfitMult = 1.25
	}
	if s.StopLossMult == 0 {
		s.StopLossMult = 0.85
	}
	if s.PricePrecision == 0 {
		s.PricePrecision = 8
	}
	if s.CycleDelay == 0 {
		s.CycleDelay = 10 * time.Second
	}
	if c.Calibration.Interval == 0 {
		c.Calibration.Interval = 15 * time.Minute
	}
	if c.Calibration.HistoryLimit == 0 {
		c.Calibration.HistoryLimit = 1000
	}
	if c.Exchange.Timeout == 0 {
		c.Exchange.Timeout = 10 * time.Second
	}
	if c.Exchange.PingInterval == 0 {
		c.Exchange.PingInterval = 20 * time.Second
	}
	if c.Exchange.ReconnectDelay == 0 {
		c.Exchange.ReconnectDelay = 5 * time.Second
	}
	if c.Backend.CSVPath == "" {
		c.Backend.CSVPath = "cycle_records.csv"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate checks the configuration. Failures here are fatal at
// startup; nothing past this point may abort the process.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Strategy.Instrument == "" {
		return fmt.Errorf("strategy.instrument is required")
	}
	if c.Backend.Type != "clickhouse" && c.Backend.Type != "csv" {
		return fmt.Errorf("backend.type must be 'clickhouse' or 'csv', got %q", c.Backend.Type)
	}
	if c.Exchange.RESTHost == "" {
		return fmt.Errorf("exchange.rest_host is required")
	}
	if c.Strategy.TakeProfitMult <= 1 {
		return fmt.Errorf("strategy.take_profit_mult must be > 1")
	}
	if c.Strategy.StopLossMult <= 0 || c.Strategy.StopLossMult >= 1 {
		return fmt.Errorf("strategy.stop_loss_mult must be in (0, 1)")
	}
	if c.Strategy.OrderEquityPercent <= 0 || c.Strategy.OrderEquityPercent > 1 {
		return fmt.Errorf("strategy.order_equity_percent must be in (0, 1]")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}

// RequireCredentials verifies exchange API credentials are present.
// Called by main before anything touches the exchange.
func (c *Config) RequireCredentials() error {
	if c.Exchange.APIKey == "" || c.Exchange.APISecret == "" || c.Exchange.Passphrase == "" {
		return fmt.Errorf("exchange credentials missing: set API_KEY, SECRET_KEY and PASSPHRASE")
	}
	return nil
}
