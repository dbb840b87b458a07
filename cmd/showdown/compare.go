package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mhpenta/showdown"
)

type compareOptions struct {
	prompt   string
	models   []string
	endpoint string
	local    bool
}

func newCompareCmd(root *rootOptions) *cobra.Command {
	opts := &compareOptions{}

	cmd := &cobra.Command{
		Use:   "compare [prompt]",
		Short: "Run one prompt against the selected providers",
		Example: `  showdown compare -m sd -m dalle "a lighthouse at dusk"
  showdown compare --local --model dalle,fal --prompt "a red fox"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.prompt = args[0]
			}

			cfg, catalog, logger, err := root.load()
			if err != nil {
				return err
			}

			var comparer showdown.Comparer
			if opts.local {
				manager, err := cfg.BuildManager(cmd.Context(), catalog, logger)
				if err != nil {
					return err
				}
				defer manager.Close()
				comparer = manager
			} else {
				if opts.endpoint != "" {
					cfg.Client.Endpoint = opts.endpoint
				}
				comparer = cfg.NewClient(logger)
			}

			return runCompare(cmd.Context(), cmd.OutOrStdout(), comparer, catalog, opts.prompt, opts.models, logger)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&opts.prompt, "prompt", "p", "", "prompt to generate")
	fs.StringSliceVarP(&opts.models, "model", "m", nil, "provider id to select (repeatable)")
	fs.StringVar(&opts.endpoint, "endpoint", "", "comparison backend URL (overrides client.endpoint)")
	fs.BoolVar(&opts.local, "local", false, "generate in-process instead of calling a backend")
	return cmd
}

// runCompare selects the given providers, runs one comparison and prints
// every state transition to w.
func runCompare(ctx context.Context, w io.Writer, comparer showdown.Comparer, catalog *showdown.Catalog,
	prompt string, models []string, logger *slog.Logger) error {
	store := showdown.NewSelectionStore(catalog)
	for _, id := range models {
		if _, ok := catalog.Lookup(id); !ok {
			fmt.Fprintf(w, "unknown provider %q ignored\n", id)
			continue
		}
		store.AddToSelected(id)
	}
	fmt.Fprintf(w, "selected: %s\n", strings.Join(store.SelectedIDs(), ", "))

	session := showdown.NewSession(comparer,
		showdown.WithSessionLogger(logger),
		showdown.WithObserver(func(state showdown.SessionState) {
			printState(w, state)
		}),
	)

	done, err := session.Generate(ctx, prompt, store.Selected())
	if err != nil {
		return err
	}

	final := <-done
	if final.ErrorMessage != "" {
		return errors.New(final.ErrorMessage)
	}
	for _, r := range final.Results {
		if r.Display() == showdown.DisplayImage {
			fmt.Fprintf(w, "%s: %s\n", r.ProviderID, r.ImageURL)
		}
	}
	return nil
}

func printState(w io.Writer, state showdown.SessionState) {
	phase := "idle"
	if state.InFlight {
		phase = "generating"
	}

	parts := make([]string, len(state.Results))
	for i, r := range state.Results {
		switch r.Display() {
		case showdown.DisplayLoading:
			parts[i] = r.ProviderID + "=loading"
		case showdown.DisplayImage:
			parts[i] = r.ProviderID + "=image"
		default:
			parts[i] = r.ProviderID + "=error(" + r.Message + ")"
		}
	}

	fields := append([]string{"[" + phase + "]"}, parts...)
	if state.ErrorMessage != "" {
		fields = append(fields, "error: "+state.ErrorMessage)
	}
	fmt.Fprintln(w, strings.Join(fields, " "))
}
