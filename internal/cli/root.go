package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mgpai22/whisperscribe/internal/logging"
	"github.com/mgpai22/whisperscribe/internal/transcribe"
	"github.com/spf13/cobra"
)

// set at build time with -ldflags
var version = "dev"

// transcriberFactory builds the recognizer; tests replace it.
var transcriberFactory = transcribe.Factory

func newRootCmd() *cobra.Command {
	var (
		verbose    bool
		configPath string
	)
	opts := &transcribeFlags{}

	rootCmd := &cobra.Command{
		Use:   "whisperscribe --audio <file> --output <file.json>",
		Short: "Transcribe audio into timestamped subtitle JSON",
		Long: `whisperscribe runs a whisper speech-recognition model over an audio file
and writes timestamped subtitle entries to a JSON file.

Long segments are split on punctuation so no entry exceeds --max-chars
characters. Progress is reported on stderr as "[PROGRESS] <n>" lines and
a single JSON result line is printed on stdout when done.

Examples:
  whisperscribe --audio talk.mp3 --output talk.json
  whisperscribe --audio talk.wav --output talk.json --model small --language auto
  whisperscribe --audio talk.wav --output talk.srt --backend openai`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.logger = logging.New(cmd.ErrOrStderr(), verbose)
			opts.configPath = configPath
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Optional YAML config file")

	opts.register(rootCmd)

	rootCmd.AddCommand(newResolveCmd(opts))
	rootCmd.AddCommand(newModelsCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the CLI. Interrupts cancel the running transcription.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		reportError(cmd.ErrOrStderr(), err)
	}
	return err
}

func reportError(w io.Writer, err error) {
	switch {
	case errors.Is(err, transcribe.ErrDependencyMissing):
		fmt.Fprintf(w, "[ERROR] missing dependency: %v\n", err)
		fmt.Fprintln(w, "[ERROR] install it with: pip install faster-whisper")
	case errors.Is(err, transcribe.ErrRecognition):
		fmt.Fprintf(w, "[ERROR] transcription failed: %v\n", err)
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(w, "[ERROR] interrupted")
	default:
		fmt.Fprintf(w, "[ERROR] %v\n", err)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "whisperscribe %s\n", version)
		},
	}
}
