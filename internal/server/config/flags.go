package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/gophmatch/internal/flagx"
)

var knownFlags = []string{
	"-a", "-l", "-d", "-s", "-t", "-m", "-k", "-q", "-u", "-p", "-b", "-g", "-e", "-v", "-x", "-w",
}

// parseFlags overlays command-line flags onto config.
//
// Supported flags:
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-l string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN; empty keeps the in-memory ledger
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-m string   contract address input proofs are bound to
//	-k string   fabric secret
//	-q string   AMQP URL for event fan-out
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket for the event archive
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-v string   log level
//	-x bool     reject country and city ids missing from the location catalog
//	            (spell it "-x" or "-x=true"; a separate value ends parsing)
//	-w bool     serve the development encryption/decryption gateway
//
// Only the flags above are picked out of args, so other components may
// define their own.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.EndpointAddrHTTP, "l", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&config.ContractAddress, "m", config.ContractAddress, "contract address")
	fs.StringVar(&config.FabricSecret, "k", config.FabricSecret, "fabric secret")
	fs.StringVar(&config.AMQPURL, "q", config.AMQPURL, "AMQP URL")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")
	fs.BoolVar(&config.StrictLocations, "x", config.StrictLocations, "validate locations against the catalog")
	fs.BoolVar(&config.GatewayEnabled, "w", config.GatewayEnabled, "serve the development gateway")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		}
	})
	return nil
}
