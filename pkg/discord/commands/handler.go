package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/tildebot/pkg/discord/commands/core"
	"github.com/small-frappuccino/tildebot/pkg/discord/commands/general"
	"github.com/small-frappuccino/tildebot/pkg/log"
)

// CommandHandler is the main handler that coordinates all bot commands
type CommandHandler struct {
	router *core.CommandRouter
}

// Groups returns every command group the bot serves.
func Groups() []core.Group {
	return []core.Group{general.Group()}
}

// NewCommandHandler builds the prefix command router for cfg.
func NewCommandHandler(cfg core.Configuration) (*CommandHandler, error) {
	router, err := core.NewCommandRouter(cfg, Groups()...)
	if err != nil {
		return nil, fmt.Errorf("failed to register commands: %w", err)
	}
	log.ApplicationLogger().Info("Bot commands registered",
		"prefix", cfg.Prefix,
		"commands", len(router.Commands()),
		"owners", cfg.Owners.IDs(),
	)
	return &CommandHandler{router: router}, nil
}

// Attach registers the message callback on a shard session.
func (ch *CommandHandler) Attach(s *discordgo.Session) func() {
	return s.AddHandler(ch.router.HandleMessage)
}

// GetRouter returns the command router (for tests or extensions)
func (ch *CommandHandler) GetRouter() *core.CommandRouter {
	return ch.router
}
