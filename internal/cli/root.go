// Package cli implements the frontdesk commands.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/frontdesk-ai/frontdesk/internal/config"
	"github.com/frontdesk-ai/frontdesk/internal/events"
	"github.com/frontdesk-ai/frontdesk/internal/store"
)

var configFile string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "frontdesk",
	Short: "Human-in-the-loop AI helpdesk",
	Long: "An AI front door that answers customer questions from a learned knowledge base,\n" +
		"escalates unknown questions to a supervisor, and folds supervisor answers back\n" +
		"into the knowledge base.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "Configuration file path")
}

// loadConfig reads .env (when present) and the YAML configuration.
func loadConfig() (config.Config, error) {
	godotenv.Load()
	return config.Load(configFile)
}

func openStore(cfg config.Config) (store.Store, error) {
	if cfg.Store.Driver == "memory" {
		return store.NewMemoryStore(), nil
	}
	return store.NewSQLStore(cfg.Store.Driver, cfg.Store.DSN)
}

func newNotifier(cfg config.Config) (events.Notifier, func() error) {
	if !cfg.Events.Enabled {
		return events.LogNotifier{}, func() error { return nil }
	}
	kn := events.NewKafkaNotifier(cfg.Events.Kafka)
	return kn, kn.Close
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
