// Package config handles configuration for the server component: defaults,
// a JSON file overlay, environment variables and command-line flags, applied
// in that order.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds runtime settings for the gophmatch server.
//
// Empty DatabaseDSN selects the in-memory ledger. Empty AMQPURL or S3Bucket
// disables the corresponding event sink.
//
// GatewayEnabled serves EncryptInput/Decrypt backed by the simulated fabric.
// It is for development only: the simulated fabric keeps every ciphertext it
// ever produced in memory and offers no cryptographic hiding.
type Config struct {
	EndpointAddrGRPC            string        `env:"GOPHMATCH_GRPC_ADDR"`
	EndpointAddrHTTP            string        `env:"GOPHMATCH_HTTP_ADDR"`
	DatabaseDSN                 string        `env:"GOPHMATCH_DATABASE_DSN"`
	SecretKey                   string        `env:"GOPHMATCH_SECRET_KEY"`
	AccessTokenValidityDuration time.Duration `env:"GOPHMATCH_ACCESS_TOKEN_VALIDITY"`

	ContractAddress string `env:"GOPHMATCH_CONTRACT_ADDRESS"`
	FabricSecret    string `env:"GOPHMATCH_FABRIC_SECRET"`
	GatewayEnabled  bool   `env:"GOPHMATCH_GATEWAY_ENABLED"`

	CacheSize int           `env:"GOPHMATCH_CACHE_SIZE"`
	CacheTTL  time.Duration `env:"GOPHMATCH_CACHE_TTL"`

	StrictLocations bool   `env:"GOPHMATCH_STRICT_LOCATIONS"`
	LocationsFile   string `env:"GOPHMATCH_LOCATIONS_FILE"`

	AMQPURL      string `env:"GOPHMATCH_AMQP_URL"`
	AMQPExchange string `env:"GOPHMATCH_AMQP_EXCHANGE"`

	S3RootUser     string `env:"GOPHMATCH_S3_USER"`
	S3RootPassword string `env:"GOPHMATCH_S3_PASSWORD"`
	S3Bucket       string `env:"GOPHMATCH_S3_BUCKET"`
	S3Region       string `env:"GOPHMATCH_S3_REGION"`
	S3BaseEndpoint string `env:"GOPHMATCH_S3_ENDPOINT"`

	EventPollInterval time.Duration `env:"GOPHMATCH_EVENT_POLL_INTERVAL"`
	EventBatchSize    int           `env:"GOPHMATCH_EVENT_BATCH_SIZE"`

	LogLevel string `env:"GOPHMATCH_LOG_LEVEL"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secrets are insecure and must be overridden outside development.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.ContractAddress = "0x5fbdb2315678afecb367f032d93f642f64180aa3"
	c.FabricSecret = "fabricSecret"
	c.GatewayEnabled = false
	c.CacheSize = 1024
	c.CacheTTL = 10 * time.Minute
	c.AMQPExchange = "gophmatch.events"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.EventPollInterval = time.Second
	c.EventBatchSize = 100
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, the optional JSON file named by
// -c/-config, GOPHMATCH_* environment variables and finally flags.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}
