package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/gophmatch/internal/flagx"
	"github.com/dmitrijs2005/gophmatch/internal/timex"
)

// JsonConfig is the on-disk shape of Config. Durations use timex.Duration so
// both "1s" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	ContractAddress             string         `json:"contract_address"`
	FabricSecret                string         `json:"fabric_secret"`
	GatewayEnabled              bool           `json:"gateway_enabled"`
	CacheSize                   int            `json:"cache_size"`
	CacheTTL                    timex.Duration `json:"cache_ttl"`
	StrictLocations             bool           `json:"strict_locations"`
	LocationsFile               string         `json:"locations_file"`
	AMQPURL                     string         `json:"amqp_url"`
	AMQPExchange                string         `json:"amqp_exchange"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	EventPollInterval           timex.Duration `json:"event_poll_interval"`
	EventBatchSize              int            `json:"event_batch_size"`
	LogLevel                    string         `json:"log_level"`
}

// parseJson overlays the file named by -c/-config onto config. Keys missing
// from the file keep their current values. No flag means nothing to load.
func parseJson(config *Config, args []string) error {
	jsonConfigFile := flagx.ConfigFile(args)
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return err
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	config.EndpointAddrGRPC = c.EndpointAddrGRPC
	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	config.ContractAddress = c.ContractAddress
	config.FabricSecret = c.FabricSecret
	config.GatewayEnabled = c.GatewayEnabled
	config.CacheSize = c.CacheSize
	config.CacheTTL = c.CacheTTL.Duration
	config.StrictLocations = c.StrictLocations
	config.LocationsFile = c.LocationsFile
	config.AMQPURL = c.AMQPURL
	config.AMQPExchange = c.AMQPExchange
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.EventPollInterval = c.EventPollInterval.Duration
	config.EventBatchSize = c.EventBatchSize
	config.LogLevel = c.LogLevel
	return nil
}

func toJson(config *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrGRPC:            config.EndpointAddrGRPC,
		EndpointAddrHTTP:            config.EndpointAddrHTTP,
		DatabaseDSN:                 config.DatabaseDSN,
		SecretKey:                   config.SecretKey,
		AccessTokenValidityDuration: timex.Duration{Duration: config.AccessTokenValidityDuration},
		ContractAddress:             config.ContractAddress,
		FabricSecret:                config.FabricSecret,
		GatewayEnabled:              config.GatewayEnabled,
		CacheSize:                   config.CacheSize,
		CacheTTL:                    timex.Duration{Duration: config.CacheTTL},
		StrictLocations:             config.StrictLocations,
		LocationsFile:               config.LocationsFile,
		AMQPURL:                     config.AMQPURL,
		AMQPExchange:                config.AMQPExchange,
		S3RootUser:                  config.S3RootUser,
		S3RootPassword:              config.S3RootPassword,
		S3Bucket:                    config.S3Bucket,
		S3Region:                    config.S3Region,
		S3BaseEndpoint:              config.S3BaseEndpoint,
		EventPollInterval:           timex.Duration{Duration: config.EventPollInterval},
		EventBatchSize:              config.EventBatchSize,
		LogLevel:                    config.LogLevel,
	}
}
