package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/small-frappuccino/tildebot/pkg/discord/owners"
	"github.com/small-frappuccino/tildebot/pkg/log"
	"github.com/small-frappuccino/tildebot/pkg/tracer"
)

type entry struct {
	group string
	cmd   *Command
}

// CommandRegistry maps command names and aliases to commands, keeping registration order.
type CommandRegistry struct {
	byName map[string]entry
	order  []entry
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{byName: make(map[string]entry)}
}

// RegisterGroup adds every command of g. Names and aliases must be unique across groups.
func (r *CommandRegistry) RegisterGroup(g Group) error {
	for _, cmd := range g.Commands {
		if cmd == nil || cmd.Name == "" {
			return fmt.Errorf("group %s: command without a name", g.Name)
		}
		if cmd.Handler == nil {
			return fmt.Errorf("group %s: command %s has no handler", g.Name, cmd.Name)
		}
		keys := append([]string{cmd.Name}, cmd.Aliases...)
		for _, k := range keys {
			if strings.IndexFunc(k, unicode.IsSpace) >= 0 {
				return fmt.Errorf("group %s: command name %q contains whitespace", g.Name, k)
			}
			if prev, dup := r.byName[k]; dup {
				return fmt.Errorf("group %s: %q already registered by %s/%s", g.Name, k, prev.group, prev.cmd.Name)
			}
		}
		e := entry{group: g.Name, cmd: cmd}
		for _, k := range keys {
			r.byName[k] = e
		}
		r.order = append(r.order, e)
	}
	return nil
}

// GetCommand looks a command up by name or alias.
func (r *CommandRegistry) GetCommand(name string) (*Command, string, bool) {
	e, ok := r.byName[name]
	return e.cmd, e.group, ok
}

// Commands lists registered commands in registration order.
func (r *CommandRegistry) Commands() []CommandInfo {
	out := make([]CommandInfo, 0, len(r.order))
	for _, e := range r.order {
		out = append(out, CommandInfo{
			Group:       e.group,
			Name:        e.cmd.Name,
			Aliases:     append([]string(nil), e.cmd.Aliases...),
			Description: e.cmd.Description,
			OwnersOnly:  e.cmd.OwnersOnly,
		})
	}
	return out
}

// CommandRouter parses message content and dispatches prefix commands.
type CommandRouter struct {
	config   Configuration
	registry *CommandRegistry
	limiter  *userLimiter
	logger   *slog.Logger
}

// NewCommandRouter validates cfg and registers groups in order.
func NewCommandRouter(cfg Configuration, groups ...Group) (*CommandRouter, error) {
	if cfg.Prefix == "" {
		return nil, fmt.Errorf("command prefix must not be empty")
	}
	if cfg.Owners == nil {
		cfg.Owners = owners.NewSet()
	}

	registry := NewCommandRegistry()
	for _, g := range groups {
		if err := registry.RegisterGroup(g); err != nil {
			return nil, err
		}
	}

	return &CommandRouter{
		config:   cfg,
		registry: registry,
		limiter:  newUserLimiter(cfg.RateLimit, cfg.Burst),
		logger:   log.CommandLogger(),
	}, nil
}

// SetLogger overrides the command logger (used by tests).
func (cr *CommandRouter) SetLogger(l *slog.Logger) { cr.logger = l }

func (cr *CommandRouter) Config() Configuration { return cr.config }

func (cr *CommandRouter) Commands() []CommandInfo { return cr.registry.Commands() }

// Match reports the command content invokes. The prefix must be followed directly by a
// registered name or alias, then either the end of content or whitespace.
func (cr *CommandRouter) Match(content string) (*Command, string, []string, bool) {
	rest, ok := strings.CutPrefix(content, cr.config.Prefix)
	if !ok || rest == "" {
		return nil, "", nil, false
	}
	if r, _ := utf8.DecodeRuneInString(rest); unicode.IsSpace(r) {
		return nil, "", nil, false
	}

	fields := strings.Fields(rest)
	name := fields[0]
	cmd, group, found := cr.registry.GetCommand(name)
	if !found {
		return nil, "", nil, false
	}
	return cmd, group, fields[1:], true
}

// HandleMessage is the discordgo MessageCreate callback.
func (cr *CommandRouter) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	cr.Dispatch(context.Background(), s, m)
}

// Dispatch runs the command m invokes, if any. It reports whether a command handler ran.
func (cr *CommandRouter) Dispatch(ctx context.Context, sender Sender, m *discordgo.MessageCreate) bool {
	if m == nil || m.Message == nil || m.Author == nil {
		return false
	}
	if m.Author.Bot || m.WebhookID != "" {
		return false
	}

	cmd, group, args, ok := cr.Match(m.Content)
	if !ok {
		return false
	}

	logger := cr.logger.With("command", cmd.Name, "user_id", m.Author.ID, "channel_id", m.ChannelID)
	isOwner := cr.config.Owners.Contains(m.Author.ID)

	if cmd.OwnersOnly && !isOwner {
		logger.Warn("Non-owner tried to use owners-only command")
		return false
	}
	if !isOwner && !cr.limiter.allow(m.Author.ID) {
		logger.Info("Command rate limited")
		return false
	}

	ctx, span := tracer.Start(ctx, "command."+cmd.Name,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("command.group", group),
			attribute.String("discord.user_id", m.Author.ID),
			attribute.String("discord.channel_id", m.ChannelID),
			attribute.Int("command.args", len(args)),
		),
	)
	defer span.End()

	cctx := &Context{
		Context: ctx,
		Sender:  sender,
		Message: m,
		Command: cmd,
		Group:   group,
		Prefix:  cr.config.Prefix,
		Args:    args,
		IsOwner: isOwner,
		Logger:  logger,
	}

	logger.Debug("Executing command")
	if err := cmd.Handler(cctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("Command execution failed", "error", err)
	}
	return true
}
