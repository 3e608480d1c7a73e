// Copyright 2026 Veldt Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/veldt-labs/curio/connector"
	"github.com/veldt-labs/curio/core"
)

const historyPageSize = 200

// historyAPI is the slice of the Slack Web API the connector uses.
// Satisfied by *slack.Client; tests inject a fake.
type historyAPI interface {
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
}

// Connector polls Slack channel history.
type Connector struct {
	api      historyAPI
	channels []string
	limiter  *connector.RateLimiter
	logger   *slog.Logger
}

var _ connector.Connector = (*Connector)(nil)

// Option configures a Connector.
type Option func(*Connector) error

// WithRateLimiter replaces the default rate limiter.
func WithRateLimiter(limiter *connector.RateLimiter) Option {
	return func(c *Connector) error {
		c.limiter = limiter
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connector) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// withAPI replaces the Slack client. Used by tests.
func withAPI(api historyAPI) Option {
	return func(c *Connector) error {
		c.api = api
		return nil
	}
}

// New creates a Slack connector polling the given channel ids.
func New(token string, channels []string, opts ...Option) (*Connector, error) {
	if token == "" {
		return nil, connector.ErrMissingToken
	}
	if len(channels) == 0 {
		return nil, connector.ErrNoChannels
	}

	c := &Connector{
		api:      slack.New(token),
		channels: channels,
		limiter:  connector.NewRateLimiter(core.SourceSlack),
		logger:   slog.Default().With("component", "slack-connector"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Source returns core.SourceSlack.
func (c *Connector) Source() core.SourceType {
	return core.SourceSlack
}

// Poll returns messages posted at or after since across all configured
// channels.
func (c *Connector) Poll(ctx context.Context, since time.Time) ([]core.ContentItem, error) {
	var items []core.ContentItem
	for _, channel := range c.channels {
		channelItems, err := c.pollChannel(ctx, channel, formatTimestamp(since))
		if err != nil {
			return nil, fmt.Errorf("%w: channel %s: %w", connector.ErrPollFailed, channel, err)
		}
		items = append(items, channelItems...)
	}

	c.logger.Info("slack poll complete", "channels", len(c.channels), "items", len(items))
	return items, nil
}

// LiveIDs enumerates the ids of every message still present in the
// configured channels.
func (c *Connector) LiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for _, channel := range c.channels {
		err := c.eachMessage(ctx, channel, "0", func(msg slack.Message) error {
			ids = append(ids, messageID(channel, msg.Timestamp))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: channel %s: %w", connector.ErrPollFailed, channel, err)
		}
	}
	return ids, nil
}

func (c *Connector) pollChannel(ctx context.Context, channel, oldest string) ([]core.ContentItem, error) {
	var items []core.ContentItem
	err := c.eachMessage(ctx, channel, oldest, func(msg slack.Message) error {
		if strings.TrimSpace(msg.Text) == "" {
			return nil
		}

		timestamp, err := parseTimestamp(msg.Timestamp)
		if err != nil {
			c.logger.Warn("skipping message with unparseable timestamp",
				"channel", channel, "ts", msg.Timestamp)
			return nil
		}

		items = append(items, core.NewContentItem(
			core.SourceSlack,
			messageID(channel, msg.Timestamp),
			msg.Text,
			msg.User,
			timestamp,
			permalink(channel, msg.Timestamp),
		))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// eachMessage pages through a channel's history calling fn per message.
func (c *Connector) eachMessage(ctx context.Context, channel, oldest string, fn func(slack.Message) error) error {
	cursor := ""
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		resp, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
			ChannelID: channel,
			Oldest:    oldest,
			Limit:     historyPageSize,
			Cursor:    cursor,
		})
		if err != nil {
			var rateErr *slack.RateLimitedError
			if errors.As(err, &rateErr) {
				c.limiter.RecordRateLimitError(int(rateErr.RetryAfter / time.Second))
			}
			return err
		}

		for _, msg := range resp.Messages {
			if err := fn(msg); err != nil {
				return err
			}
		}

		if !resp.HasMore || resp.ResponseMetaData.NextCursor == "" {
			return nil
		}
		cursor = resp.ResponseMetaData.NextCursor
	}
}

// messageID forms the stable source id of a message.
func messageID(channel, ts string) string {
	return channel + "/" + ts
}

// permalink builds the archive URL without spending an API call per
// message.
func permalink(channel, ts string) string {
	return fmt.Sprintf("https://app.slack.com/archives/%s/p%s", channel, strings.Replace(ts, ".", "", 1))
}

// parseTimestamp converts a Slack "seconds.microseconds" timestamp.
func parseTimestamp(ts string) (time.Time, error) {
	seconds, fraction, found := strings.Cut(ts, ".")
	sec, err := strconv.ParseInt(seconds, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slack timestamp %q: %w", ts, err)
	}

	var micros int64
	if found {
		micros, err = strconv.ParseInt(fraction, 10, 64)
		if err != nil || len(fraction) != 6 {
			return time.Time{}, fmt.Errorf("invalid slack timestamp %q", ts)
		}
	}
	return time.Unix(sec, micros*1000).UTC(), nil
}

// formatTimestamp renders a time as a Slack oldest parameter.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/1000)
}
