package core

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/small-frappuccino/tildebot/pkg/discord/owners"
)

type sentMessage struct {
	channelID string
	content   string
	reference *discordgo.MessageReference
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeSender) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{channelID: channelID, content: content})
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeSender) ChannelMessageSendReply(channelID, content string, ref *discordgo.MessageReference, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{channelID: channelID, content: content, reference: ref})
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeSender) all() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func buildMessage(content, userID string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "msg-1",
		ChannelID: "chan-1",
		GuildID:   "guild-1",
		Content:   content,
		Author:    &discordgo.User{ID: userID, Username: "user"},
	}}
}

func echoGroup(calls *int) Group {
	return Group{Name: "General", Commands: []*Command{
		{
			Name:    "ping",
			Aliases: []string{"p"},
			Handler: func(ctx *Context) error {
				*calls++
				return ctx.Reply("ok")
			},
		},
		{
			Name:       "shutdown",
			OwnersOnly: true,
			Handler: func(ctx *Context) error {
				*calls++
				return nil
			},
		},
	}}
}

func newTestRouter(t *testing.T, cfg Configuration, groups ...Group) (*CommandRouter, *bytes.Buffer) {
	t.Helper()
	router, err := NewCommandRouter(cfg, groups...)
	require.NoError(t, err)
	var buf bytes.Buffer
	router.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return router, &buf
}

func TestMatchRecognizesOnlyPrefixedRegisteredCommands(t *testing.T) {
	var calls int
	router, _ := newTestRouter(t, Configuration{Prefix: "~"}, echoGroup(&calls))

	cases := []struct {
		content string
		want    string
		args    []string
	}{
		{"~ping", "ping", []string{}},
		{"~ping now please", "ping", []string{"now", "please"}},
		{"~p", "ping", []string{}},
		{"~pong", "", nil},
		{"ping", "", nil},
		{"~pinged", "", nil},
		{"~ ping", "", nil},
		{"~", "", nil},
		{"", "", nil},
		{"!ping", "", nil},
	}
	for _, tc := range cases {
		cmd, _, args, ok := router.Match(tc.content)
		if tc.want == "" {
			assert.False(t, ok, "content %q should not match", tc.content)
			continue
		}
		require.True(t, ok, "content %q should match", tc.content)
		assert.Equal(t, tc.want, cmd.Name)
		assert.Equal(t, tc.args, args)
	}
}

func TestDispatchRunsHandlerAndReplies(t *testing.T) {
	var calls int
	router, _ := newTestRouter(t, Configuration{Prefix: "~"}, echoGroup(&calls))
	sender := &fakeSender{}

	ran := router.Dispatch(context.Background(), sender, buildMessage("~ping", "user-1"))

	assert.True(t, ran)
	assert.Equal(t, 1, calls)
	sent := sender.all()
	require.Len(t, sent, 1)
	assert.Equal(t, "chan-1", sent[0].channelID)
	assert.Equal(t, "ok", sent[0].content)
	require.NotNil(t, sent[0].reference)
	assert.Equal(t, "msg-1", sent[0].reference.MessageID)
}

func TestDispatchIgnoresBotsAndWebhooks(t *testing.T) {
	var calls int
	router, _ := newTestRouter(t, Configuration{Prefix: "~"}, echoGroup(&calls))

	bot := buildMessage("~ping", "bot-1")
	bot.Author.Bot = true
	hook := buildMessage("~ping", "hook-1")
	hook.WebhookID = "wh"

	assert.False(t, router.Dispatch(context.Background(), &fakeSender{}, bot))
	assert.False(t, router.Dispatch(context.Background(), &fakeSender{}, hook))
	assert.False(t, router.Dispatch(context.Background(), &fakeSender{}, nil))
	assert.Equal(t, 0, calls)
}

func TestDispatchOwnersOnly(t *testing.T) {
	var calls int
	router, buf := newTestRouter(t, Configuration{Prefix: "~", Owners: owners.NewSet("owner-1")}, echoGroup(&calls))

	assert.False(t, router.Dispatch(context.Background(), &fakeSender{}, buildMessage("~shutdown", "user-1")))
	assert.Contains(t, buf.String(), "owners-only")
	assert.True(t, router.Dispatch(context.Background(), &fakeSender{}, buildMessage("~shutdown", "owner-1")))
	assert.Equal(t, 1, calls)
}

func TestDispatchRateLimitSparesOwners(t *testing.T) {
	var calls int
	router, _ := newTestRouter(t, Configuration{
		Prefix:    "~",
		Owners:    owners.NewSet("owner-1"),
		RateLimit: 0.001,
		Burst:     1,
	}, echoGroup(&calls))
	sender := &fakeSender{}

	assert.True(t, router.Dispatch(context.Background(), sender, buildMessage("~ping", "user-1")))
	assert.False(t, router.Dispatch(context.Background(), sender, buildMessage("~ping", "user-1")))
	assert.True(t, router.Dispatch(context.Background(), sender, buildMessage("~ping", "user-2")))

	for i := 0; i < 3; i++ {
		assert.True(t, router.Dispatch(context.Background(), sender, buildMessage("~ping", "owner-1")))
	}
	assert.Equal(t, 5, calls)
}

func TestDispatchLogsHandlerErrorAndRecordsSpan(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))

	group := Group{Name: "General", Commands: []*Command{{
		Name:    "fail",
		Handler: func(*Context) error { return errors.New("boom") },
	}}}
	router, buf := newTestRouter(t, Configuration{Prefix: "~"}, group)

	assert.True(t, router.Dispatch(context.Background(), &fakeSender{}, buildMessage("~fail", "user-1")))
	assert.Contains(t, buf.String(), "Command execution failed")
	assert.Contains(t, buf.String(), "boom")

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "command.fail", ended[0].Name())
	assert.Equal(t, "Error", ended[0].Status().Code.String())
}

func TestRegisterGroupRejectsDuplicates(t *testing.T) {
	handler := func(*Context) error { return nil }
	_, err := NewCommandRouter(Configuration{Prefix: "~"},
		Group{Name: "A", Commands: []*Command{{Name: "ping", Handler: handler}}},
		Group{Name: "B", Commands: []*Command{{Name: "pong", Aliases: []string{"ping"}, Handler: handler}}},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegisterGroupRejectsInvalidCommands(t *testing.T) {
	_, err := NewCommandRouter(Configuration{Prefix: "~"}, Group{Name: "A", Commands: []*Command{{Name: "ping"}}})
	require.Error(t, err)

	_, err = NewCommandRouter(Configuration{Prefix: "~"}, Group{Name: "A", Commands: []*Command{{Name: "two words", Handler: func(*Context) error { return nil }}}})
	require.Error(t, err)

	_, err = NewCommandRouter(Configuration{})
	require.Error(t, err)
}

func TestCommandsListsInRegistrationOrder(t *testing.T) {
	var calls int
	router, _ := newTestRouter(t, Configuration{Prefix: "~"}, echoGroup(&calls))

	infos := router.Commands()
	require.Len(t, infos, 2)
	assert.Equal(t, "ping", infos[0].Name)
	assert.Equal(t, []string{"p"}, infos[0].Aliases)
	assert.Equal(t, "General", infos[0].Group)
	assert.True(t, infos[1].OwnersOnly)
}

func TestReplyWithoutSender(t *testing.T) {
	ctx := &Context{Context: context.Background(), Message: buildMessage("~ping", "u")}
	assert.Error(t, ctx.Reply("x"))
	assert.Error(t, ctx.Say("x"))
}
