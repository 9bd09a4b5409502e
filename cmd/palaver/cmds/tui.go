package cmds

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/palaver/pkg/audio"
	"github.com/go-go-golems/palaver/pkg/chat"
	"github.com/go-go-golems/palaver/pkg/events"
	"github.com/go-go-golems/palaver/pkg/ui"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func NewTUICommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive chat client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			microphone, err := cmd.Flags().GetString("microphone")
			if err != nil {
				return err
			}
			return runTUI(cmd.Context(), microphone)
		},
	}
	cmd.Flags().String("microphone", "", "Raw PCM16 file used as microphone input for voice messages")
	return cmd
}

func runTUI(ctx context.Context, microphone string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app, err := NewApp(ctx)
	if err != nil {
		return err
	}

	router, err := NewRouter()
	if err != nil {
		return err
	}
	defer func() {
		_ = router.Close()
	}()

	hubOptions := []chat.HubOption{chat.WithSink(router.Sink())}
	if microphone != "" {
		hubOptions = append(hubOptions, chat.WithMicrophone(&audio.FileMicrophone{Path: microphone}))
	}
	hub, err := app.NewHub(hubOptions...)
	if err != nil {
		return err
	}
	defer hub.Close()

	options := []tea.ProgramOption{
		tea.WithContext(ctx),
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		options = append(options, tea.WithOutput(os.Stderr))
	} else {
		options = append(options, tea.WithAltScreen())
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		tty, err := ui.OpenTTY()
		if err != nil {
			return err
		}
		defer func() {
			_ = tty.Close()
		}()
		options = append(options, tea.WithInput(tty))
	}

	p := tea.NewProgram(ui.NewModel(ctx, hub), options...)
	router.AddHandler("ui", events.TopicChat, ui.ForwardFunc(p))

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return router.Run(ctx)
	})
	eg.Go(func() error {
		defer cancel()
		<-router.Running()
		log.Debug().Msg("router running, starting ui")
		_, err := p.Run()
		return err
	})

	err = eg.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
