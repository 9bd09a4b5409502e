package cmds

import (
	"fmt"
	"strings"

	"github.com/go-go-golems/palaver/pkg/chat"
	"github.com/go-go-golems/palaver/pkg/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tcnksm/go-input"
)

func NewComposeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compose <text...>",
		Short: "Rewrite a draft in a given tone",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tone, err := cmd.Flags().GetString("tone")
			if err != nil {
				return err
			}
			if tone == "" {
				tone, err = askForTone()
				if err != nil {
					return err
				}
			}
			if !chat.IsTone(tone) {
				return errors.Wrapf(chat.ErrUnknownTone, "%q, use one of %s", tone, strings.Join(chat.Tones, ", "))
			}

			app, err := NewApp(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(app.Client.Rewrite(cmd.Context(), strings.Join(args, " "), tone))
			return nil
		},
	}
	cmd.Flags().String("tone", "", "One of "+strings.Join(chat.Tones, ", "))
	return cmd
}

func askForTone() (string, error) {
	tty_, err := ui.OpenTTY()
	if err != nil {
		return "", err
	}
	defer func() {
		err := tty_.Close()
		if err != nil {
			fmt.Println("Failed to close tty:", err)
		}
	}()

	ui_ := &input.UI{
		Writer: tty_,
		Reader: tty_,
	}

	return ui_.Select("Which tone?", chat.Tones, &input.Options{
		Default:  chat.Tones[0],
		Required: true,
		Loop:     true,
	})
}

func NewTranslateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate <text...>",
		Short: "Translate text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := cmd.Flags().GetString("to")
			if err != nil {
				return err
			}

			app, err := NewApp(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(app.Client.Translate(cmd.Context(), strings.Join(args, " "), to))
			return nil
		},
	}
	cmd.Flags().String("to", "", "Target language (default: --target-language)")
	return cmd
}

func NewSummarizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <chat-id>",
		Short: "Summarize a peer conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cmd.Context())
			if err != nil {
				return err
			}
			hub, err := app.NewHub()
			if err != nil {
				return err
			}
			defer hub.Close()

			peer, err := hub.Peer(args[0])
			if err != nil {
				return err
			}
			msg, err := peer.Summarize(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(msg.Text)
			return nil
		},
	}
}
