package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/virtualbasket/backend/config"
	"github.com/virtualbasket/backend/internal/domain"
	"github.com/virtualbasket/backend/internal/infrastructure/catalog"
	"github.com/virtualbasket/backend/internal/infrastructure/logging"
	"github.com/virtualbasket/backend/internal/usecase"
)

// rootOptions are the flags shared by every subcommand
type rootOptions struct {
	catalogFile string
	debug       bool
	logger      zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "basketctl",
		Short: "Parse shopping baskets and match them against the product catalog",
		Long: `basketctl runs the Virtual Basket engine without the HTTP server.

The catalog is read from --catalog (YAML or JSON) when given, otherwise from the
database configured through config.yaml or BASKET_* environment variables.
All output is JSON.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvFile(); err != nil {
				return err
			}
			level := "warn"
			if opts.debug {
				level = "debug"
			}
			opts.logger = logging.New(logging.Config{
				Level:       level,
				Format:      "console",
				Output:      cmd.ErrOrStderr(),
				ServiceName: "basketctl",
			})
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.catalogFile, "catalog", "", "catalog file (.yaml, .yml or .json)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "log every match decision to stderr")

	cmd.AddCommand(newParseCmd(opts))
	cmd.AddCommand(newMatchCmd(opts))
	cmd.AddCommand(newSegmentCmd(opts))
	cmd.AddCommand(newVocabCmd())

	return cmd
}

func newParseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "parse <text>",
		Short:   "Parse free text into items, suggestions and combos",
		Example: `  basketctl parse --catalog catalog.yaml "1 white shirt, 1 black pant, 1 pair of sneakers"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := svc.ParseBasket(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newMatchCmd(opts *rootOptions) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "match [phrase...]",
		Short: "Pick the single best product for each phrase",
		Example: `  basketctl match --catalog catalog.yaml "white shirt" "black jeans"
  basketctl match --catalog catalog.yaml --text "white shirt and black jeans"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			phrases := args
			if len(phrases) == 0 {
				phrases = svc.SplitPhrases(text)
			}
			if len(phrases) == 0 {
				return fmt.Errorf("%w: give phrases as arguments or use --text", domain.ErrInvalidRequest)
			}

			matches, err := svc.MatchPhrases(cmd.Context(), phrases)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), matches)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "basket sentence to split into phrases")
	return cmd
}

// segmentAttempt is the JSON view of one segmenter match
type segmentAttempt struct {
	Rule     string `json:"rule"`
	Text     string `json:"text"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Outcome  string `json:"outcome"`
	Quantity int    `json:"quantity,omitempty"`
	Color    string `json:"color,omitempty"`
}

func newSegmentCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "segment <text>",
		Short: "Show every rule match the segmenter found, accepted or rejected",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			segmenter := usecase.NewSegmenter(opts.logger, opts.debug)

			attempts := segmenter.Attempts(strings.Join(args, " "))
			out := make([]segmentAttempt, 0, len(attempts))
			for _, a := range attempts {
				out = append(out, segmentAttempt{
					Rule:     a.Rule,
					Text:     a.Text,
					Start:    a.Span.Start,
					End:      a.Span.End,
					Outcome:  a.Outcome.String(),
					Quantity: a.Item.Quantity,
					Color:    a.Item.Color,
				})
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newVocabCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vocab",
		Short: "List the item types and colors the parser understands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), map[string][]string{
				"item_types": usecase.ItemTypes(),
				"colors":     usecase.Colors(),
			})
		},
	}
}

// service opens the catalog and builds a basket service over it
func (o *rootOptions) service(ctx context.Context) (*usecase.BasketService, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}

	catalogCfg, matching, err := o.catalogConfig()
	if err != nil {
		return nil, nil, err
	}

	store, err := catalog.Open(ctx, catalogCfg, o.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open catalog: %w", err)
	}

	svc := usecase.NewBasketService(store, nil, usecase.BasketServiceConfig{
		CandidateLimit:     matching.CandidateLimit,
		MinScore:           matching.MinScore,
		FallbackScore:      matching.FallbackScore,
		EnableDebugLogging: o.debug || matching.EnableDebugLogging,
	}, o.logger)

	return svc, func() { _ = store.Close() }, nil
}

// catalogConfig prefers --catalog and falls back to the service configuration
func (o *rootOptions) catalogConfig() (catalog.Config, config.MatchingConfig, error) {
	if o.catalogFile != "" {
		if _, err := os.Stat(o.catalogFile); err != nil {
			return catalog.Config{}, config.MatchingConfig{}, fmt.Errorf("catalog file: %w", err)
		}
		return catalog.Config{Driver: "file", CatalogFile: o.catalogFile}, config.MatchingConfig{}, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return catalog.Config{}, config.MatchingConfig{}, err
	}
	return catalog.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		CatalogFile:  cfg.Database.CatalogFile,
		CatalogURL:   cfg.Database.CatalogURL,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		QueryTimeout: cfg.Database.QueryTimeout,
		RateLimit:    cfg.Database.CatalogRateLimit,
		Burst:        cfg.Database.CatalogBurst,
	}, cfg.Matching, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
