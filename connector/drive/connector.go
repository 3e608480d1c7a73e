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

package drive

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"
	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/veldt-labs/curio/connector"
	"github.com/veldt-labs/curio/core"
)

// Google Workspace MIME types that need exporting.
const (
	mimeGoogleDoc    = "application/vnd.google-apps.document"
	mimeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	mimeGoogleSlides = "application/vnd.google-apps.presentation"
	mimeFolder       = "application/vnd.google-apps.folder"
)

// Export formats for Google Workspace files.
const (
	exportMimeText = "text/plain"
	exportMimeCSV  = "text/csv"
)

// maxFetchSize caps downloaded and exported content at 5MB.
const maxFetchSize = 5 * 1024 * 1024

const listPageSize = 100

const listFields = "nextPageToken, files(id, name, mimeType, modifiedTime, webViewLink, size, owners, trashed)"

// filesAPI is the slice of the Drive API the connector uses. Satisfied
// by serviceFiles over *drive.Service; tests inject a fake.
type filesAPI interface {
	List(ctx context.Context, query, pageToken string) (*drivev3.FileList, error)
	ExportText(ctx context.Context, fileID, mimeType string) (string, error)
	Download(ctx context.Context, fileID string) (string, error)
}

// Connector polls files visible to the authenticated Drive account.
type Connector struct {
	files   filesAPI
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

// withAPI replaces the Drive service. Used by tests.
func withAPI(files filesAPI) Option {
	return func(c *Connector) error {
		c.files = files
		return nil
	}
}

// New creates a Drive connector authenticated by the given token source.
func New(ctx context.Context, tokens oauth2.TokenSource, opts ...Option) (*Connector, error) {
	if tokens == nil {
		return nil, connector.ErrMissingToken
	}

	svc, err := drivev3.NewService(ctx, option.WithTokenSource(tokens))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	c := &Connector{
		files:   &serviceFiles{svc: svc},
		limiter: connector.NewRateLimiter(core.SourceDrive),
		logger:  slog.Default().With("component", "drive-connector"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Source returns core.SourceDrive.
func (c *Connector) Source() core.SourceType {
	return core.SourceDrive
}

// Poll returns files modified at or after since. Folders, binary files
// and oversized files are skipped.
func (c *Connector) Poll(ctx context.Context, since time.Time) ([]core.ContentItem, error) {
	query := "trashed = false"
	if !since.IsZero() {
		query += fmt.Sprintf(" and modifiedTime >= '%s'", since.UTC().Format(time.RFC3339))
	}

	var items []core.ContentItem
	err := c.eachFile(ctx, query, func(file *drivev3.File) error {
		item, ok, err := c.fileItem(ctx, file)
		if err != nil {
			c.logger.Warn("skipping unreadable file", "file", file.Id, "error", err)
			return nil
		}
		if ok {
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", connector.ErrPollFailed, err)
	}

	c.logger.Info("drive poll complete", "items", len(items))
	return items, nil
}

// LiveIDs enumerates the ids of every untrashed non-folder file.
func (c *Connector) LiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := c.eachFile(ctx, "trashed = false", func(file *drivev3.File) error {
		if file.MimeType != mimeFolder {
			ids = append(ids, file.Id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", connector.ErrPollFailed, err)
	}
	return ids, nil
}

func (c *Connector) eachFile(ctx context.Context, query string, fn func(*drivev3.File) error) error {
	pageToken := ""
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		list, err := c.files.List(ctx, query, pageToken)
		if err != nil {
			return err
		}

		for _, file := range list.Files {
			if err := fn(file); err != nil {
				return err
			}
		}

		if list.NextPageToken == "" {
			return nil
		}
		pageToken = list.NextPageToken
	}
}

// fileItem converts a Drive file to a content item. The second return is
// false for files with no ingestible text.
func (c *Connector) fileItem(ctx context.Context, file *drivev3.File) (core.ContentItem, bool, error) {
	text, err := c.fileText(ctx, file)
	if err != nil {
		return core.ContentItem{}, false, err
	}
	if strings.TrimSpace(text) == "" {
		return core.ContentItem{}, false, nil
	}

	modified, err := time.Parse(time.RFC3339, file.ModifiedTime)
	if err != nil {
		return core.ContentItem{}, false, fmt.Errorf("invalid modified time %q: %w", file.ModifiedTime, err)
	}

	item := core.NewContentItem(
		core.SourceDrive,
		file.Id,
		file.Name+"\n"+text,
		fileOwner(file),
		modified.UTC(),
		file.WebViewLink,
	)
	return item, true, nil
}

// fileText fetches the plain text of a file. Workspace files are
// exported; regular text files are downloaded. Binary and oversized
// files yield an empty string.
func (c *Connector) fileText(ctx context.Context, file *drivev3.File) (string, error) {
	switch file.MimeType {
	case mimeFolder:
		return "", nil
	case mimeGoogleDoc, mimeGoogleSlides:
		return c.files.ExportText(ctx, file.Id, exportMimeText)
	case mimeGoogleSheet:
		return c.files.ExportText(ctx, file.Id, exportMimeCSV)
	}

	if !isTextMime(file.MimeType) || file.Size > maxFetchSize {
		return "", nil
	}
	return c.files.Download(ctx, file.Id)
}

func fileOwner(file *drivev3.File) string {
	if len(file.Owners) == 0 {
		return ""
	}
	if file.Owners[0].EmailAddress != "" {
		return file.Owners[0].EmailAddress
	}
	return file.Owners[0].DisplayName
}

// isTextMime reports whether a MIME type is likely text content.
func isTextMime(mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	switch mimeType {
	case "application/json",
		"application/xml",
		"application/javascript",
		"application/x-yaml",
		"application/x-sh",
		"application/sql":
		return true
	}
	return false
}
