// Package cli wires the cobra command tree around the application container.
package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/suggest-go/internal/app"
	"github.com/doeshing/suggest-go/internal/domain"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, err
	}

	root := &cobra.Command{
		Use:   "suggest",
		Short: "suggest - inline AI code completion",
		Long:  "suggest generates inline code completions from local or remote chat backends,\nwith debounced scheduling, response caching, and a content sanitizer gate.",
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			container.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCompleteCommand(container))
	root.AddCommand(newSanitizeCommand(container))
	root.AddCommand(newDoctorCommand(container))
	root.AddCommand(newConfigCommand(container))
	return root, nil
}

func newCompleteCommand(container *app.Container) *cobra.Command {
	var (
		file     string
		line     int
		column   int
		language string
		model    string
		stream   bool
		fromStd  bool
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Generate a completion at a file position",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			completion, err := captureContext(container, file, line, column, language, fromStd, cmd.InOrStdin())
			if err != nil {
				return err
			}

			if cfg, cfgErr := container.ConfigProvider.Load(ctx); cfgErr == nil {
				stream = resolveStream(cmd.Flags().Changed("stream"), stream, cfg.Preferences.Stream)
			}

			req := domain.CompletionRequest{
				Context:       ctx,
				Completion:    completion,
				ModelOverride: model,
				Stream:        stream,
			}
			if stream {
				req.StreamWriter = NewStreamWriter(cmd.OutOrStdout())
			}

			result, err := container.CompletionService.RequestCompletion(req)
			if err != nil {
				return err
			}
			renderResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), result, stream)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Source file the caret is in (required)")
	cmd.Flags().IntVarP(&line, "line", "l", 1, "Caret line, 1-based")
	cmd.Flags().IntVarP(&column, "column", "c", 1, "Caret column, 1-based")
	cmd.Flags().StringVar(&language, "language", "", "Language hint (inferred from extension by default)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Override model name (default from config)")
	cmd.Flags().BoolVar(&stream, "stream", false, "Stream partial completions as they arrive (default from config preferences.stream)")
	cmd.Flags().BoolVar(&fromStd, "stdin", false, "Read source text from stdin instead of the file")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Override request timeout")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newDoctorCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose environment setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := container.DoctorService.Run(cmd.Context())
			renderDoctorReport(cmd.OutOrStdout(), report)
			return err
		},
	}
}
