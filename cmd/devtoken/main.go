package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"sceneforge/internal/middleware"
)

func main() {
	var (
		ownerFlag  string
		localeFlag string
		ttlFlag    time.Duration
	)
	flag.StringVar(&ownerFlag, "owner", "", "owner id placed in the token subject")
	flag.StringVar(&localeFlag, "locale", "", "optional locale claim (en, id, zh)")
	flag.DurationVar(&ttlFlag, "ttl", 24*time.Hour, "token lifetime")
	flag.Parse()
	_ = godotenv.Load()

	owner := strings.TrimSpace(ownerFlag)
	if owner == "" {
		fmt.Fprintln(os.Stderr, "-owner is required")
		os.Exit(1)
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is required")
		os.Exit(1)
	}
	token, err := middleware.SignToken(secret, owner, localeFlag, ttlFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
