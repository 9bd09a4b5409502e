package cmds

import (
	"context"
	"os"

	"github.com/go-go-golems/glazed/pkg/cli"
	glazed_cmds "github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"
	"github.com/go-go-golems/palaver/pkg/chat"
	"github.com/go-go-golems/palaver/pkg/conversation"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func NewChatsCommand() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "Inspect the seeded conversations",
	}

	chatsListCommand, err := NewChatsListCommand()
	if err != nil {
		return nil, err
	}
	listCmd, err := cli.BuildCobraCommandFromGlazeCommand(chatsListCommand)
	if err != nil {
		return nil, err
	}

	dumpCmd := &cobra.Command{
		Use:   "dump <id>",
		Short: "Print a conversation as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cmd.Context())
			if err != nil {
				return err
			}

			c, ok := app.Registry.Conversation(args[0])
			if !ok {
				return errors.Wrap(chat.ErrUnknownConversation, args[0])
			}

			encoder := yaml.NewEncoder(os.Stdout)
			encoder.SetIndent(2)
			defer func() {
				_ = encoder.Close()
			}()
			return encoder.Encode(newConversationDump(app.Registry, c))
		},
	}

	cmd.AddCommand(listCmd, dumpCmd)
	return cmd, nil
}

type ChatsListSettings struct {
	Match string `glazed.parameter:"match"`
}

// ChatsListCommand emits one row per conversation, --output picks the format.
type ChatsListCommand struct {
	*glazed_cmds.CommandDescription
}

var _ glazed_cmds.GlazeCommand = (*ChatsListCommand)(nil)

func NewChatsListCommand() (*ChatsListCommand, error) {
	glazedParameterLayer, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, errors.Wrap(err, "could not create glazed parameter layer")
	}

	return &ChatsListCommand{
		CommandDescription: glazed_cmds.NewCommandDescription(
			"list",
			glazed_cmds.WithShort("List conversations with their unread counts"),
			glazed_cmds.WithFlags(
				parameters.NewParameterDefinition(
					"match",
					parameters.ParameterTypeString,
					parameters.WithHelp("Glob matched against conversation ids and titles"),
					parameters.WithDefault(""),
				),
			),
			glazed_cmds.WithLayersList(glazedParameterLayer),
		),
	}, nil
}

func (c *ChatsListCommand) RunIntoGlazeProcessor(ctx context.Context, parsedLayers *layers.ParsedLayers, gp middlewares.Processor) error {
	s := &ChatsListSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, s); err != nil {
		return errors.Wrap(err, "could not initialize settings")
	}

	app, err := NewApp(ctx)
	if err != nil {
		return err
	}

	conversations := app.Registry.Conversations()
	if s.Match != "" {
		conversations, err = app.Registry.Match(s.Match)
		if err != nil {
			return err
		}
	}
	return addConversationRows(ctx, gp, app.Registry, conversations)
}

func addConversationRows(
	ctx context.Context,
	gp middlewares.Processor,
	registry *conversation.Registry,
	conversations []*conversation.Conversation,
) error {
	for _, c := range conversations {
		row := types.NewRow(
			types.MRP("id", c.ID),
			types.MRP("title", registry.Title(c)),
			types.MRP("assistant", c.Assistant),
			types.MRP("unread", c.UnreadCount),
			types.MRP("messages", c.Log.Len()),
		)
		if err := gp.AddRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

type conversationDump struct {
	ID          string                  `yaml:"id"`
	Title       string                  `yaml:"title"`
	Assistant   bool                    `yaml:"assistant,omitempty"`
	UnreadCount int                     `yaml:"unread,omitempty"`
	Messages    []*conversation.Message `yaml:"messages"`
}

func newConversationDump(registry *conversation.Registry, c *conversation.Conversation) *conversationDump {
	return &conversationDump{
		ID:          c.ID,
		Title:       registry.Title(c),
		Assistant:   c.Assistant,
		UnreadCount: c.UnreadCount,
		Messages:    c.Log.Snapshot(),
	}
}
