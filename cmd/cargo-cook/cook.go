package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cookware/cargo-cook/config"
	"github.com/cookware/cargo-cook/internal/terminal"
	"github.com/cookware/cargo-cook/internal/tui"
	"github.com/cookware/cargo-cook/module/cook/container"
	"github.com/cookware/cargo-cook/module/cook/deploy"
	"github.com/cookware/cargo-cook/module/cook/hash"
	"github.com/cookware/cargo-cook/module/cook/pipeline"
	"github.com/cookware/cargo-cook/util/common/progress"
)

func cookCmd() *cobra.Command {
	var showSummary bool

	cmd := &cobra.Command{
		Use:   "cook",
		Short: commandDescription,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			termInfo := terminal.Detect(config.Global.NoColor)

			var reporter progress.Reporter = progress.NewConsoleReporter()
			if !config.Global.Verbose {
				reporter = progress.NewAutoReporter()
			}

			var prompter deploy.PasswordPrompter = terminal.NewPasswordReader()
			if termInfo.InteractiveEnabled {
				prompter = tui.FormPrompter{}
			}

			summary, err := runCook(cmd.Context(), config.Global.ManifestPath, reporter, prompter)
			if err != nil {
				return err
			}
			if showSummary {
				return printSummary(cmd.OutOrStdout(), summary)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSummary, "summary", false, "Print a table of the produced archives and deploy results")
	return cmd
}

// runCook loads the manifest and runs the whole pipeline with the default
// registries.
func runCook(ctx context.Context, manifestPath string, reporter progress.Reporter, prompter deploy.PasswordPrompter) (*pipeline.Summary, error) {
	cfg, err := config.LoadConfig(manifestPath)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("manifest", manifestPath).Str("package", cfg.ArchiveBaseName()).Msg("loaded manifest")

	p := pipeline.New(
		container.DefaultRegistry(),
		hash.DefaultRegistry(),
		deploy.DefaultRegistry(reporter, prompter),
		reporter,
	)

	summary, err := p.Run(ctx, cfg)
	if err != nil {
		return summary, err
	}

	for _, o := range summary.FailedDeployments() {
		log.Warn().Err(o.Err).Str("target", o.Target).Msg("deployment failed")
	}
	return summary, nil
}
