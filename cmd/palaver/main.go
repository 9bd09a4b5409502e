package main

import (
	"fmt"
	"io"
	"os"

	clay "github.com/go-go-golems/clay/pkg"
	"github.com/go-go-golems/palaver/cmd/palaver/cmds"
	"github.com/go-go-golems/palaver/pkg/ai"
	"github.com/go-go-golems/palaver/pkg/chat"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

var rootCmd = &cobra.Command{
	Use:   "palaver",
	Short: "palaver is a terminal chat client with an AI copilot",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// reinitialize the logger because we can now parse --log-level and co
		// from the command line flag
		initLogger(cmd.Name() == "tui")
	},
}

func initLogger(fileOnly bool) {
	logLevel := viper.GetString("log-level")
	verbose := viper.GetBool("verbose")
	if verbose && logLevel != "trace" {
		logLevel = "debug"
	}

	err := InitLogger(&logConfig{
		Level:      logLevel,
		LogFile:    viper.GetString("log-file"),
		LogFormat:  viper.GetString("log-format"),
		WithCaller: viper.GetBool("with-caller"),
		FileOnly:   fileOnly,
	})
	cobra.CheckErr(err)
}

type logConfig struct {
	WithCaller bool
	Level      string
	LogFormat  string
	LogFile    string
	// FileOnly drops stderr output, the TUI owns the terminal
	FileOnly bool
}

func InitLogger(config *logConfig) error {
	if config.WithCaller {
		log.Logger = log.With().Caller().Logger()
	}

	var logWriter io.Writer
	switch {
	case config.LogFormat == "json":
		logWriter = os.Stderr
	case config.LogFormat == "text" || isatty.IsTerminal(os.Stderr.Fd()):
		logWriter = zerolog.ConsoleWriter{Out: os.Stderr}
	default:
		logWriter = os.Stderr
	}
	if config.FileOnly {
		logWriter = io.Discard
	}

	if config.LogFile != "" {
		fileWriter := zerolog.ConsoleWriter{
			NoColor: true,
			Out: &lumberjack.Logger{
				Filename:   config.LogFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28,    //days
				Compress:   false, // disabled by default
			},
		}
		if config.FileOnly {
			logWriter = fileWriter
		} else {
			logWriter = io.MultiWriter(logWriter, fileWriter)
		}
	}

	log.Logger = log.Output(logWriter)

	switch config.Level {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	}

	return nil
}

func main() {
	defaults := ai.NewSettings()
	chatDefaults := chat.NewSettings()

	flags := rootCmd.PersistentFlags()
	flags.String("provider", "", "AI provider: openai, ollama or echo (default: openai with an api key, echo otherwise)")
	flags.String("api-key", "", "API key of the openai compatible endpoint")
	flags.String("base-url", "", "Base URL of the openai compatible endpoint")
	flags.String("chat-model", defaults.ChatModel, "Model used for chat completions")
	flags.String("image-model", defaults.ImageModel, "Model used for /imagine")
	flags.String("tts-model", defaults.TTSModel, "Model used for text to speech")
	flags.String("voice", defaults.Voice, "Text to speech voice")
	flags.String("target-language", defaults.TargetLanguage, "Language messages are translated to")
	flags.Duration("timeout", defaults.Timeout, "Timeout of a single provider request")
	flags.Int("max-history-tokens", defaults.MaxHistoryTokens, "Token budget of the history sent to the assistant (0: unlimited)")
	flags.Int("cache-size", defaults.CacheSize, "Number of cached translations and rewrites (0: disabled)")
	flags.Duration("reply-delay", chatDefaults.ReplyDelay, "Delay of the simulated peer replies")
	flags.String("seed", "", "Seed file with contacts and chats (default: embedded seed)")
	flags.String("metrics-addr", "", "Serve prometheus metrics on this address, e.g. :9090")

	err := clay.InitViper("palaver", rootCmd)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error initializing config: %s\n", err)
		os.Exit(1)
	}
	err = viper.BindPFlags(flags)
	cobra.CheckErr(err)

	chatsCmd, err := cmds.NewChatsCommand()
	cobra.CheckErr(err)

	rootCmd.AddCommand(
		cmds.NewTUICommand(),
		chatsCmd,
		cmds.NewAskCommand(),
		cmds.NewComposeCommand(),
		cmds.NewTranslateCommand(),
		cmds.NewSummarizeCommand(),
	)

	err = rootCmd.Execute()
	cobra.CheckErr(err)
}
