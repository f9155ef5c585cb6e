package general

import "github.com/small-frappuccino/tildebot/pkg/discord/commands/core"

// PongReply is what ~ping answers with.
const PongReply = "Pong!"

var PingCommand = &core.Command{
	Name:        "ping",
	Description: "Check if the bot is online",
	Handler:     PingHandler,
}

func PingHandler(ctx *core.Context) error {
	return ctx.Reply(PongReply)
}

// Group returns the General command group.
func Group() core.Group {
	return core.Group{
		Name:     "General",
		Commands: []*core.Command{PingCommand},
	}
}
