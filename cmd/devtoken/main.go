// Command devtoken mints an access token for an account, standing in for the
// wallet sign-in service during development.
//
//	devtoken -account 0x70997970c51812dc3a010c7d01b50e0d17dc79c8 -s secretKey -t 60
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/dmitrijs2005/gophmatch/internal/server/auth"
	"github.com/dmitrijs2005/gophmatch/internal/server/config"
)

func main() {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	var (
		account = flag.String("account", "", "account address (0x-prefixed, 40 hex digits)")
		secret  = flag.String("s", cfg.SecretKey, "JWT HMAC secret key")
		minutes = flag.Int("t", int(cfg.AccessTokenValidityDuration.Minutes()), "token validity (in minutes)")
	)
	flag.Parse()

	addr, err := fhe.ParseAddress(*account)
	if err != nil {
		log.Fatalf("account: %v", err)
	}

	token, err := auth.GenerateToken(addr, []byte(*secret), time.Duration(*minutes)*time.Minute)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}
	fmt.Fprintln(os.Stdout, token)
}
