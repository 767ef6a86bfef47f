package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/govform/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "govform",
	Short: "govform runs the government service application form",
	Long: `govform guides applicants through a multi-step service request:
personal information, address, service details and documents.
Drafts can be saved and resumed, and the same sessions are reachable
from the terminal, the HTTP API and MCP clients.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a YAML configuration file")
	pf.String("store", "", "Draft store driver: memory, file, redis, sqlite or postgres")
	pf.String("store-path", "", "Directory of the file store or database of sqlite")
	pf.String("store-url", "", "Redis URL or postgres DSN")
	pf.String("log-level", "", "Log level: debug, info, warn or error")
	pf.String("log-format", "", "Log format: text or json")
}

// loadConfig layers flags over the file and environment configuration.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	flags := cmd.Flags()

	return config.Load(path, func(c *config.Config) {
		if v, _ := flags.GetString("store"); flags.Changed("store") {
			c.Store.Driver = v
		}
		if v, _ := flags.GetString("store-path"); flags.Changed("store-path") {
			c.Store.Path = v
		}
		if v, _ := flags.GetString("store-url"); flags.Changed("store-url") {
			c.Store.URL = v
		}
		if v, _ := flags.GetString("log-level"); flags.Changed("log-level") {
			c.LogLevel = v
		}
		if v, _ := flags.GetString("log-format"); flags.Changed("log-format") {
			c.LogFormat = v
		}
		if flags.Lookup("port") != nil && flags.Changed("port") {
			port, _ := flags.GetString("port")
			c.Server.Addr = ":" + port
		}
	})
}
