package cmds

import (
	"context"
	"os"
	"strings"

	"github.com/go-go-golems/palaver/pkg/chat"
	"github.com/go-go-golems/palaver/pkg/events"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func NewAskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <prompt...>",
		Short: "Ask the assistant and stream the answer, /imagine <prompt> generates an image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printRawEvents, err := cmd.Flags().GetBool("print-raw-events")
			if err != nil {
				return err
			}
			return runAsk(cmd.Context(), strings.Join(args, " "), printRawEvents)
		},
	}
	cmd.Flags().Bool("print-raw-events", false, "Print the raw events instead of the answer")
	return cmd
}

func runAsk(ctx context.Context, prompt string, printRawEvents bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app, err := NewApp(ctx)
	if err != nil {
		return err
	}

	router, err := NewRouter(events.WithDumpWriter(os.Stdout))
	if err != nil {
		return err
	}
	defer func() {
		_ = router.Close()
	}()

	hub, err := app.NewHub(chat.WithSink(router.Sink()))
	if err != nil {
		return err
	}
	defer hub.Close()

	assistant, err := hub.Assistant()
	if err != nil {
		return err
	}

	if printRawEvents {
		router.AddHandler("raw-events", events.TopicChat, router.DumpRawEvents)
	} else {
		router.AddHandler("printer", events.TopicChat, events.StepPrinterFunc(assistant.ID(), os.Stdout))
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return router.Run(ctx)
	})
	eg.Go(func() error {
		defer cancel()
		<-router.Running()

		if _, err := assistant.Ask(prompt); err != nil {
			return err
		}
		return assistant.Wait(ctx)
	})

	err = eg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
