// Package cmd provides the CLI commands for catalog-sync.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"catalog-sync/internal/catalog"
	"catalog-sync/internal/config"
	"catalog-sync/internal/logging"
	"catalog-sync/internal/syncer"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "catalog-sync",
	Short: "Synchronize payment-provider catalogs across accounts",
	Long: `catalog-sync imports product, price and coupon catalogs from an
external payment provider into a local mirror, compares catalogs across
provider accounts, and pushes missing entities between accounts with
lineage-tracked idempotency.

Examples:
  catalog-sync import --org org_1 --instance inst_sandbox
  catalog-sync compare --org org_1 --source inst_a --target inst_b
  catalog-sync push --org org_1 --source inst_a --target inst_b --ids prod_123
  catalog-sync promote --org org_1 --source inst_sandbox --target inst_prod --ids prod_123`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (.hcl or .json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(promoteCmd)
	rootCmd.AddCommand(instancesCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	cfg := config.FromEnv()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	config.Set(cfg)

	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// newEngine opens the configured store and builds the sync engine
func newEngine() (*syncer.Engine, *catalog.Store, error) {
	cfg := config.Get()
	if cfg.Database.DSN == "" {
		return nil, nil, fmt.Errorf("no database configured; set database.dsn or DATABASE_URL")
	}
	db, err := catalog.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.LogQueries)
	if err != nil {
		return nil, nil, err
	}
	if err := catalog.AutoMigrate(db); err != nil {
		return nil, nil, err
	}
	store := catalog.NewStore(db)
	engine := syncer.NewEngine(store, syncer.NewClientFactory(
		cfg.Provider.BaseURL,
		time.Duration(cfg.Provider.TimeoutSeconds)*time.Second,
	))
	return engine, store, nil
}

// printJSON renders a command result for human and script consumption
func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
