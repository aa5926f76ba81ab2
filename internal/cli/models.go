package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mgpai22/whisperscribe/internal/config"
	"github.com/mgpai22/whisperscribe/internal/models"
	"github.com/spf13/cobra"
)

// modelsConfig loads the config without the transcription flags.
func modelsConfig(f *transcribeFlags) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func newResolveCmd(f *transcribeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <model>",
		Short: "Print the local path a model name resolves to",
		Long: `Resolve a model short name, path, or remote identifier the same way
transcription does. When no local copy exists the identifier is printed
unchanged, meaning the recognizer will try to download it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := modelsConfig(f)
			if err != nil {
				return err
			}
			resolved := models.NewLocator(cfg.ModelsDir, f.logger).Resolve(args[0])
			fmt.Fprintln(cmd.OutOrStdout(), resolved)
			return nil
		},
	}
}

func newModelsCmd(f *transcribeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List known model names and whether they are cached locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := modelsConfig(f)
			if err != nil {
				return err
			}

			locator := models.NewLocator(cfg.ModelsDir, f.logger)

			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"Model", "Cache directory", "Local snapshot"})
			for _, name := range models.KnownModels() {
				cacheDir, _ := models.CacheDirName(name)
				snapshot, ok := locator.Cached(name)
				if !ok {
					snapshot = "-"
				}
				tw.AppendRow(table.Row{name, cacheDir, snapshot})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Models directory: %s\n", cfg.ModelsDir)
			fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
			return nil
		},
	}
}
