// Package main provides the entry point for the club-ledger CLI application.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"psheikomaniac/club-ledger/cmd/balance"
	"psheikomaniac/club-ledger/cmd/drink"
	"psheikomaniac/club-ledger/cmd/due"
	"psheikomaniac/club-ledger/cmd/fine"
	"psheikomaniac/club-ledger/cmd/importcmd"
	"psheikomaniac/club-ledger/cmd/pay"
	"psheikomaniac/club-ledger/cmd/root"
	"psheikomaniac/club-ledger/cmd/toggle"
)

func init() {
	// Load environment variables silently first, then pin the global log
	// level before any logger is created.
	loadEnvSilently()
	configureLogLevelDirectly()

	root.Init()

	root.Cmd.AddCommand(importcmd.Cmd)
	root.Cmd.AddCommand(balance.Cmd)
	root.Cmd.AddCommand(fine.Cmd)
	root.Cmd.AddCommand(drink.Cmd)
	root.Cmd.AddCommand(due.Cmd)
	root.Cmd.AddCommand(toggle.Cmd)
	root.Cmd.AddCommand(pay.Cmd)
}

// loadEnvSilently loads environment variables without logging anything
func loadEnvSilently() {
	envFile := ".env"
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		envFile = filepath.Join("..", ".env")
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			return
		}
	}

	_ = godotenv.Load(envFile)
}

// configureLogLevelDirectly sets the global log level for all logrus
// instances from the LOG_LEVEL environment variable.
func configureLogLevelDirectly() {
	logLevelStr := os.Getenv("LOG_LEVEL")
	if logLevelStr == "" {
		logLevelStr = "info"
	}

	logLevel, err := logrus.ParseLevel(strings.ToLower(logLevelStr))
	if err != nil {
		logLevel = logrus.InfoLevel
	}

	logrus.SetLevel(logLevel)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
