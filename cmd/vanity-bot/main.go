package main

import (
	"os"

	_ "github.com/noah-isme/vanity-bot/api/swagger"
)

// @title Vanity Bot Admin API
// @version 1.0.0
// @description Configuration, ledger and signal ingest for the vanity tag bot
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
