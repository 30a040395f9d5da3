package cmd

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/facet/internal/config"
	"github.com/agentic-research/facet/internal/session"
)

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to HCL config file")
}

var rootCmd = &cobra.Command{
	Use:   "facet",
	Short: "Facet: incremental tabular views with automatic categorization",
}

// openSession loads the config and constructs a session over the working
// directory.
func openSession() (*session.Session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return session.New(cfg, osfs.New(".")), nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
