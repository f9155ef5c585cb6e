package core

import (
	"errors"

	"github.com/bwmarrin/discordgo"
)

var errNoSender = errors.New("command context has no sender")

// Reply answers in the invoking channel, referencing the invoking message.
func (c *Context) Reply(content string) error {
	if c.Sender == nil {
		return errNoSender
	}
	ref := c.Message.Reference()
	_, err := c.Sender.ChannelMessageSendReply(c.Message.ChannelID, content, ref, discordgo.WithContext(c))
	return err
}

// Say posts content in the invoking channel without a reply reference.
func (c *Context) Say(content string) error {
	if c.Sender == nil {
		return errNoSender
	}
	_, err := c.Sender.ChannelMessageSend(c.Message.ChannelID, content, discordgo.WithContext(c))
	return err
}
