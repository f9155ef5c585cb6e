package events

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/tildebot/pkg/log"
)

// EventHandler receives gateway events for one shard session.
type EventHandler interface {
	// Ready is called when a shard finishes its handshake and Discord sends READY.
	Ready(s *discordgo.Session, r *discordgo.Ready)
	// MessageCreate is called for every incoming message the intents allow.
	MessageCreate(s *discordgo.Session, m *discordgo.MessageCreate)
}

// Handler is the default stateless EventHandler.
type Handler struct {
	// Logger defaults to the discord category logger.
	Logger *slog.Logger
}

func (h Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return log.DiscordLogger()
}

// Ready logs the connected account's name.
func (h Handler) Ready(s *discordgo.Session, r *discordgo.Ready) {
	if r == nil || r.User == nil {
		h.logger().Warn("Ready event without user payload")
		return
	}
	shard := 0
	if s != nil {
		shard = s.ShardID
	}
	h.logger().Info(fmt.Sprintf("%s is connected!", r.User.Username), "shard", shard, "guilds", len(r.Guilds))
}

// MessageCreate does nothing; commands are dispatched by the command framework.
func (h Handler) MessageCreate(*discordgo.Session, *discordgo.MessageCreate) {}

var addHandler = func(s *discordgo.Session, handler interface{}) func() { return s.AddHandler(handler) }

// Register attaches h to s. The returned func removes every registered callback.
func Register(s *discordgo.Session, h EventHandler) func() {
	removers := []func(){
		addHandler(s, func(s *discordgo.Session, r *discordgo.Ready) { h.Ready(s, r) }),
		addHandler(s, func(s *discordgo.Session, m *discordgo.MessageCreate) { h.MessageCreate(s, m) }),
		addHandler(s, func(s *discordgo.Session, _ *discordgo.Disconnect) {
			log.DiscordLogger().Warn("Shard disconnected", "shard", s.ShardID)
		}),
		addHandler(s, func(s *discordgo.Session, _ *discordgo.Resumed) {
			log.DiscordLogger().Info("Shard resumed", "shard", s.ShardID)
		}),
	}
	return func() {
		for _, remove := range removers {
			remove()
		}
	}
}
