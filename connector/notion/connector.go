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

package notion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"github.com/veldt-labs/curio/connector"
	"github.com/veldt-labs/curio/core"
)

const searchPageSize = 100

// searchAPI and blockAPI cover the slice of the Notion API the connector
// uses. Satisfied by the notionapi client services; tests inject fakes.
type searchAPI interface {
	Do(ctx context.Context, request *notionapi.SearchRequest) (*notionapi.SearchResponse, error)
}

type blockAPI interface {
	GetChildren(ctx context.Context, id notionapi.BlockID, pagination *notionapi.Pagination) (*notionapi.GetChildrenResponse, error)
}

// Connector polls Notion pages shared with the integration.
type Connector struct {
	search  searchAPI
	blocks  blockAPI
	limiter *connector.RateLimiter
	logger  *slog.Logger
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

// withAPI replaces the Notion client services. Used by tests.
func withAPI(search searchAPI, blocks blockAPI) Option {
	return func(c *Connector) error {
		c.search = search
		c.blocks = blocks
		return nil
	}
}

// New creates a Notion connector for the given integration token.
func New(token string, opts ...Option) (*Connector, error) {
	if token == "" {
		return nil, connector.ErrMissingToken
	}

	client := notionapi.NewClient(notionapi.Token(token))
	c := &Connector{
		search:  client.Search,
		blocks:  client.Block,
		limiter: connector.NewRateLimiter(core.SourceNotion),
		logger:  slog.Default().With("component", "notion-connector"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Source returns core.SourceNotion.
func (c *Connector) Source() core.SourceType {
	return core.SourceNotion
}

// Poll returns pages edited at or after since. Pages are searched newest
// edit first so the walk can stop at the cutoff.
func (c *Connector) Poll(ctx context.Context, since time.Time) ([]core.ContentItem, error) {
	var items []core.ContentItem
	err := c.eachPage(ctx, func(page *notionapi.Page) (bool, error) {
		if page.LastEditedTime.Before(since) {
			return false, nil
		}

		text, err := c.pageText(ctx, page)
		if err != nil {
			return false, err
		}

		items = append(items, core.NewContentItem(
			core.SourceNotion,
			string(page.ID),
			text,
			string(page.LastEditedBy.ID),
			page.LastEditedTime.UTC(),
			page.URL,
		))
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", connector.ErrPollFailed, err)
	}

	c.logger.Info("notion poll complete", "items", len(items))
	return items, nil
}

// LiveIDs enumerates the ids of every page still visible to the
// integration.
func (c *Connector) LiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := c.eachPage(ctx, func(page *notionapi.Page) (bool, error) {
		ids = append(ids, string(page.ID))
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", connector.ErrPollFailed, err)
	}
	return ids, nil
}

// eachPage walks the search results newest edit first until fn returns
// false or the results are exhausted.
func (c *Connector) eachPage(ctx context.Context, fn func(*notionapi.Page) (bool, error)) error {
	cursor := notionapi.Cursor("")
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		resp, err := c.search.Do(ctx, &notionapi.SearchRequest{
			StartCursor: cursor,
			PageSize:    searchPageSize,
			Filter: notionapi.SearchFilter{
				Property: "object",
				Value:    "page",
			},
			Sort: &notionapi.SortObject{
				Direction: notionapi.SortOrderDESC,
				Timestamp: notionapi.TimestampLastEdited,
			},
		})
		if err != nil {
			return err
		}

		for _, result := range resp.Results {
			page, ok := result.(*notionapi.Page)
			if !ok {
				continue
			}
			keepGoing, err := fn(page)
			if err != nil {
				return err
			}
			if !keepGoing {
				return nil
			}
		}

		if !resp.HasMore || resp.NextCursor == "" {
			return nil
		}
		cursor = resp.NextCursor
	}
}

// pageText assembles the page title and the plain text of its top-level
// blocks.
func (c *Connector) pageText(ctx context.Context, page *notionapi.Page) (string, error) {
	var parts []string
	if title := pageTitle(page); title != "" {
		parts = append(parts, title)
	}

	cursor := notionapi.Cursor("")
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		resp, err := c.blocks.GetChildren(ctx, notionapi.BlockID(page.ID), &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    searchPageSize,
		})
		if err != nil {
			return "", err
		}

		for _, block := range resp.Results {
			if text := blockText(block); text != "" {
				parts = append(parts, text)
			}
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}

	return strings.Join(parts, "\n"), nil
}

// pageTitle extracts the title property of a page.
func pageTitle(page *notionapi.Page) string {
	for _, property := range page.Properties {
		title, ok := property.(*notionapi.TitleProperty)
		if !ok {
			continue
		}
		return richText(title.Title)
	}
	return ""
}

// blockText extracts the plain text of the block types that carry prose.
// Unsupported block types yield an empty string.
func blockText(block notionapi.Block) string {
	switch b := block.(type) {
	case *notionapi.ParagraphBlock:
		return richText(b.Paragraph.RichText)
	case *notionapi.Heading1Block:
		return richText(b.Heading1.RichText)
	case *notionapi.Heading2Block:
		return richText(b.Heading2.RichText)
	case *notionapi.Heading3Block:
		return richText(b.Heading3.RichText)
	case *notionapi.BulletedListItemBlock:
		return richText(b.BulletedListItem.RichText)
	case *notionapi.NumberedListItemBlock:
		return richText(b.NumberedListItem.RichText)
	case *notionapi.QuoteBlock:
		return richText(b.Quote.RichText)
	case *notionapi.ToDoBlock:
		return richText(b.ToDo.RichText)
	case *notionapi.CalloutBlock:
		return richText(b.Callout.RichText)
	default:
		return ""
	}
}

// richText concatenates the plain text of a rich text run.
func richText(runs []notionapi.RichText) string {
	var sb strings.Builder
	for _, run := range runs {
		sb.WriteString(run.PlainText)
	}
	return strings.TrimSpace(sb.String())
}
