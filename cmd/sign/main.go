// Command sign generates the signature headers for a signed request, for
// testing the echo endpoint with curl.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"perdiem/internal/config"
	"perdiem/internal/signing"
)

func main() {
	_ = godotenv.Load()

	userID := flag.String("user", "test-user", "value of the X-User-ID header")
	body := flag.String("body", `{"hello":"world"}`, "exact request body to be sent")
	flag.Parse()

	cfg := config.Load()
	if cfg.SigningSecret == "" {
		fmt.Fprintln(os.Stderr, "BACKEND_SIGNING_SECRET is not set")
		os.Exit(1)
	}
	key, err := cfg.SigningKey()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid signing secret:", err)
		os.Exit(1)
	}
	verifier, err := signing.NewVerifier(key)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	sig := verifier.Sign(ts, *userID, []byte(*body))

	fmt.Println("Timestamp:", ts)
	fmt.Println("Signature:", sig)
}
