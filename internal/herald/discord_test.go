package herald

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
)

// mockSession records embed sends for tests.
type mockSession struct {
	channels []string
	embeds   []*discordgo.MessageEmbed
	err      error
	closed   bool
}

func (m *mockSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.channels = append(m.channels, channelID)
	m.embeds = append(m.embeds, embed)
	return &discordgo.Message{}, nil
}

func (m *mockSession) Close() error {
	m.closed = true
	return nil
}

func TestNewDiscord_RequiresToken(t *testing.T) {
	if _, err := NewDiscord(DiscordOpts{ChannelID: "123"}); err == nil {
		t.Error("NewDiscord accepted empty token")
	}
	if _, err := NewDiscord(DiscordOpts{BotToken: "x"}); err == nil {
		t.Error("NewDiscord accepted empty channel")
	}
}

func TestDiscordSend(t *testing.T) {
	mock := &mockSession{}
	a, err := NewDiscord(DiscordOpts{ChannelID: "123", Session: mock})
	if err != nil {
		t.Fatalf("NewDiscord: %v", err)
	}

	evt := Event{
		Title:  "Budget Utilization: 112.5%",
		Body:   "2 alerts",
		Color:  ColorError,
		Fields: []Field{{Name: "Priority", Value: "high", Short: true}},
	}
	if err := a.Send(context.Background(), evt); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(mock.embeds) != 1 {
		t.Fatalf("embeds = %d, want 1", len(mock.embeds))
	}
	embed := mock.embeds[0]
	if embed.Title != evt.Title || embed.Description != evt.Body {
		t.Errorf("embed = %+v", embed)
	}
	if embed.Color != 0xe53935 {
		t.Errorf("Color = %#x, want 0xe53935", embed.Color)
	}
	if len(embed.Fields) != 1 || embed.Fields[0].Name != "Priority" || !embed.Fields[0].Inline {
		t.Errorf("Fields = %+v", embed.Fields)
	}
}

func TestDiscordSend_PropagatesError(t *testing.T) {
	mock := &mockSession{err: errors.New("missing permissions")}
	a, err := NewDiscord(DiscordOpts{ChannelID: "123", Session: mock})
	if err != nil {
		t.Fatalf("NewDiscord: %v", err)
	}
	if err := a.Send(context.Background(), Event{Title: "t"}); err == nil {
		t.Error("Send returned nil, want the API error")
	}
}

func TestDiscordClose(t *testing.T) {
	mock := &mockSession{}
	a, err := NewDiscord(DiscordOpts{ChannelID: "123", Session: mock})
	if err != nil {
		t.Fatalf("NewDiscord: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !mock.closed {
		t.Error("session not closed")
	}
}

func TestParseHexColor(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"#36a64f", 0x36a64f},
		{"36a64f", 0x36a64f},
		{"#FF9800", 0xff9800},
		{"", 0},
	}
	for _, tc := range cases {
		if got := parseHexColor(tc.in); got != tc.want {
			t.Errorf("parseHexColor(%q) = %#x, want %#x", tc.in, got, tc.want)
		}
	}
}
