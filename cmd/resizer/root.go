package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"resizer/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "resizer",
	Short: "Image transform dispatcher",
	Long:  `Image transform dispatcher - serves stored objects through a chain of transform strategies with graceful fallback.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")
}

func initConfig() {
	config.Init(cfgFile)
}
