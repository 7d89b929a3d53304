package herald

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// discordSession abstracts the discordgo methods we use, enabling test mocks.
type discordSession interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Close() error
}

// DiscordAdapter posts events to one Discord channel via the REST API.
type DiscordAdapter struct {
	sess      discordSession
	channelID string
}

// DiscordOpts holds parameters for creating a DiscordAdapter.
type DiscordOpts struct {
	BotToken  string // Discord bot token
	ChannelID string // channel to post to
	// For testing: inject a mock session instead of the real Discord API.
	Session discordSession
}

// NewDiscord creates a Discord adapter.
func NewDiscord(opts DiscordOpts) (*DiscordAdapter, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("herald: discord bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("herald: discord channel id is required")
	}
	a := &DiscordAdapter{channelID: opts.ChannelID}
	if opts.Session != nil {
		a.sess = opts.Session
	} else {
		sess, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("herald: discord session: %w", err)
		}
		a.sess = sess
	}
	return a, nil
}

// Send posts the event as an embed.
func (a *DiscordAdapter) Send(ctx context.Context, evt Event) error {
	embed := &discordgo.MessageEmbed{
		Title:       evt.Title,
		Description: evt.Body,
	}
	if evt.Color != "" {
		embed.Color = parseHexColor(evt.Color)
	}
	for _, f := range evt.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Short,
		})
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := a.sess.ChannelMessageSendEmbed(a.channelID, embed); err != nil {
		return fmt.Errorf("herald: discord send embed: %w", err)
	}
	return nil
}

// Close shuts down the session.
func (a *DiscordAdapter) Close() error {
	return a.sess.Close()
}

// parseHexColor converts a hex color string (e.g. "#36a64f") to an int.
func parseHexColor(hex string) int {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	var color int
	for _, c := range hex {
		color <<= 4
		switch {
		case c >= '0' && c <= '9':
			color |= int(c - '0')
		case c >= 'a' && c <= 'f':
			color |= int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			color |= int(c-'A') + 10
		}
	}
	return color
}
