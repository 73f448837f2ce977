package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adanyl0v/retos/internal/app"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "retos",
		Short:         "Challenge board API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  serve,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema and exit",
		RunE:  migrate,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("retos %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(cmd *cobra.Command, args []string) error {
	a, err := app.Bootstrap(cmd.Context())
	if err != nil {
		return err
	}

	exitCode := a.Serve()
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	return nil
}

// migrate relies on Bootstrap creating the schema on connect.
func migrate(cmd *cobra.Command, args []string) error {
	a, err := app.Bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	a.Logger.Info().Msg("migrated database")
	return nil
}
