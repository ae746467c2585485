package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cookware/cargo-cook/config"
	"github.com/cookware/cargo-cook/internal/style"
	"github.com/cookware/cargo-cook/internal/terminal"
	"github.com/cookware/cargo-cook/internal/tui"
	"github.com/cookware/cargo-cook/util/common/errors"
)

// version is set via ldflags during build
var version = "dev"

const commandDescription = "A third-party cargo extension which cooks your crate."

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd()

	// Apply styled help template when running in a colour-capable terminal
	termPreCheck := terminal.Detect(false)
	style.Init(termPreCheck.ColorEnabled)
	if helpTpl := tui.StyledHelpTemplate(); helpTpl != "" {
		rootCmd.SetUsageTemplate(helpTpl)
	}

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		style.Init(terminal.Detect(config.Global.NoColor).ColorEnabled)
		fmt.Fprintln(os.Stderr, style.Status(style.Error, "Failure:", err.Error()))
		var cfgErr *errors.ConfigurationError
		if errors.As(err, &cfgErr) {
			fmt.Fprintln(os.Stderr, style.Hint("Check the cook settings in "+config.Global.ManifestPath))
		}
		stop()
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Cargo runs third-party subcommands as
// "cargo-cook cook ...", so the root pretends to be cargo itself.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cargo",
		Short:         commandDescription,
		SilenceUsage:  true,
		SilenceErrors: true, //prevent duplicate printing of errors
		Long: heredoc.Doc(`
			cargo-cook packages the build artifact of your crate together with
			the declared ingredients into one archive per container format,
			writes hash files next to every archive and deploys the results.

			Settings are read from the [cook] or [package.metadata.cook]
			section of Cargo.toml.`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			termInfo := terminal.Detect(config.Global.NoColor)
			style.Init(termInfo.ColorEnabled)

			// Set up logging based on verbose flag
			if config.Global.Verbose {
				logWriter := zerolog.ConsoleWriter{
					Out:        os.Stderr,
					TimeFormat: time.RFC3339,
					NoColor:    !termInfo.ColorEnabled,
				}
				log.Logger = zerolog.New(logWriter).With().
					Timestamp().
					Str("run_id", uuid.NewString()).
					Logger()
			} else {
				// Disable logging when verbose is not enabled
				log.Logger = zerolog.Nop()
			}

			return initProfiling()
		},

		PersistentPostRunE: func(*cobra.Command, []string) error {
			return flushProfiling()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&config.Global.ManifestPath, "manifest-path", config.DefaultManifestPath,
		"Path to the manifest holding the cook settings")
	flags.BoolVarP(&config.Global.Verbose, "verbose", "v", false, "Enable verbose logging to console")
	flags.BoolVar(&config.Global.NoColor, "no-color", false,
		"Disable colour output (also respects NO_COLOR env)")
	addProfilingFlags(flags)

	rootCmd.AddCommand(cookCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}
