package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mhpenta/showdown"
)

func newModelsCmd(root *rootOptions) *cobra.Command {
	var remote bool
	var endpoint string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the providers offered for comparison",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, catalog, logger, err := root.load()
			if err != nil {
				return err
			}

			if remote {
				if endpoint != "" {
					cfg.Client.Endpoint = endpoint
				}
				catalog, err = cfg.NewClient(logger).Models(cmd.Context())
				if err != nil {
					return err
				}
			}

			printCatalog(cmd.OutOrStdout(), catalog)
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "ask the comparison backend instead of the local catalog")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "comparison backend URL (overrides client.endpoint)")
	return cmd
}

func printCatalog(w io.Writer, catalog *showdown.Catalog) {
	for _, p := range catalog.Providers() {
		fmt.Fprintf(w, "%-8s %s\n", p.ID, p.Name)
	}
}
