package session

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Error messages
const (
	ErrSessionCreationFailed = "failed to create Discord session: %w"
)

// DefaultIntents are the event categories the bot subscribes to: guild metadata,
// guild and direct messages, and the privileged message content needed to read commands.
const DefaultIntents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentMessageContent

var newSession = discordgo.New

// NewDiscordSession builds an unopened session for one shard.
func NewDiscordSession(token string, intents discordgo.Intent, shardID, shardCount int) (*discordgo.Session, error) {
	if token == "" {
		return nil, fmt.Errorf("discord bot token is empty")
	}
	if shardCount < 1 || shardID < 0 || shardID >= shardCount {
		return nil, fmt.Errorf("invalid shard %d of %d", shardID, shardCount)
	}

	s, err := newSession(BotToken(token))
	if err != nil {
		return nil, fmt.Errorf(ErrSessionCreationFailed, err)
	}
	if s == nil {
		return nil, fmt.Errorf(ErrSessionCreationFailed, fmt.Errorf("nil session"))
	}

	s.Identify.Intents = intents
	s.ShardID = shardID
	s.ShardCount = shardCount
	return s, nil
}

// BotToken prefixes token with "Bot " unless it already carries it.
func BotToken(token string) string {
	if strings.HasPrefix(token, "Bot ") {
		return token
	}
	return "Bot " + token
}
