package core

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/tildebot/pkg/discord/owners"
)

// HandlerFunc runs a matched command. Returned errors are logged, never sent to chat.
type HandlerFunc func(ctx *Context) error

// Command is a prefix command, e.g. "~ping".
type Command struct {
	Name        string
	Aliases     []string
	Description string
	// OwnersOnly restricts the command to the configured owner set.
	OwnersOnly bool
	Handler    HandlerFunc
}

// Group is a named static collection of commands.
type Group struct {
	Name     string
	Commands []*Command
}

// Sender is the subset of *discordgo.Session commands use to answer.
type Sender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ Sender = (*discordgo.Session)(nil)

// Context is passed to every command invocation.
type Context struct {
	context.Context

	Sender  Sender
	Message *discordgo.MessageCreate
	Command *Command
	Group   string
	Prefix  string
	Args    []string
	IsOwner bool
	Logger  *slog.Logger
}

// Configuration is the dispatch configuration: prefix, owners and optional per-user rate limit.
type Configuration struct {
	Prefix string
	Owners owners.Set

	// RateLimit is in commands per second per user; 0 disables limiting. Owners are never limited.
	RateLimit float64
	Burst     int
}

// CommandInfo describes a registered command for listings.
type CommandInfo struct {
	Group       string
	Name        string
	Aliases     []string
	Description string
	OwnersOnly  bool
}
