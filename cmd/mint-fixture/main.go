package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.StandardLogger().WithError(err).Error("mint-fixture failed")
		os.Exit(1)
	}
}
