package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "mint-fixture",
	Short:         "Provision SPL token mints for integration tests",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "configuration file path")
	rootCmd.PersistentFlags().String("endpoint", defaultConfig.Endpoint, "JSON-RPC endpoint")
	rootCmd.PersistentFlags().String("commitment", defaultConfig.Commitment, "commitment to wait for: processed, confirmed or finalized")
	rootCmd.PersistentFlags().Float64("rpc-rate", 0, "maximum requests per second for each RPC method, 0 is unlimited")
	rootCmd.PersistentFlags().String("log-level", defaultConfig.LogLevel, "log level")

	_ = viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
	_ = viper.BindPFlag("commitment", rootCmd.PersistentFlags().Lookup("commitment"))
	_ = viper.BindPFlag("rpc_rate", rootCmd.PersistentFlags().Lookup("rpc-rate"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}
