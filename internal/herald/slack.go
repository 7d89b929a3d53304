package herald

import (
	"context"
	"errors"
	"fmt"
	"time"

	slackapi "github.com/slack-go/slack"
)

// slackMaxRetries caps retries for rate-limited Slack API calls.
const slackMaxRetries = 3

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// SlackAdapter posts events to one Slack channel via the Web API.
type SlackAdapter struct {
	client    slackClient
	channelID string
}

// SlackOpts holds parameters for creating a SlackAdapter.
type SlackOpts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string // channel to post to
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// NewSlack creates a Slack adapter.
func NewSlack(opts SlackOpts) (*SlackAdapter, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("herald: slack bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("herald: slack channel id is required")
	}
	a := &SlackAdapter{channelID: opts.ChannelID}
	if opts.Client != nil {
		a.client = opts.Client
	} else {
		a.client = slackapi.New(opts.BotToken)
	}
	return a, nil
}

// Send posts the event as a Block Kit attachment.
func (a *SlackAdapter) Send(ctx context.Context, evt Event) error {
	att := slackapi.Attachment{
		Title:    evt.Title,
		Text:     evt.Body,
		Color:    evt.Color,
		Fallback: evt.Title,
	}
	for _, f := range evt.Fields {
		att.Fields = append(att.Fields, slackapi.AttachmentField{
			Title: f.Name,
			Value: f.Value,
			Short: f.Short,
		})
	}

	err := retryOnRateLimit(ctx, func() error {
		_, _, postErr := a.client.PostMessage(a.channelID, slackapi.MsgOptionAttachments(att))
		return postErr
	})
	if err != nil {
		return fmt.Errorf("herald: slack post message: %w", err)
	}
	return nil
}

// Close is a no-op; the Web API client holds no connection.
func (a *SlackAdapter) Close() error { return nil }

// retryOnRateLimit calls fn and retries on Slack rate limit errors. It
// respects context cancellation and the RetryAfter duration from Slack.
func retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= slackMaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var rle *slackapi.RateLimitedError
		if !errors.As(err, &rle) {
			return err // not a rate limit error, don't retry
		}
		if attempt == slackMaxRetries {
			return err
		}

		wait := rle.RetryAfter
		if wait <= 0 {
			wait = time.Second
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil
}
