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
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	drivev3 "google.golang.org/api/drive/v3"

	"github.com/veldt-labs/curio/connector"
	"github.com/veldt-labs/curio/core"
)

type fakeFilesAPI struct {
	pages   []*drivev3.FileList
	queries []string
	exports map[string]string
	bodies  map[string]string
	call    int
}

func (f *fakeFilesAPI) List(_ context.Context, query, _ string) (*drivev3.FileList, error) {
	f.queries = append(f.queries, query)
	page := f.pages[f.call]
	f.call++
	return page, nil
}

func (f *fakeFilesAPI) ExportText(_ context.Context, fileID, _ string) (string, error) {
	return f.exports[fileID], nil
}

func (f *fakeFilesAPI) Download(_ context.Context, fileID string) (string, error) {
	return f.bodies[fileID], nil
}

func newTestConnector(t *testing.T, api filesAPI) *Connector {
	t.Helper()
	c := &Connector{
		files:   api,
		limiter: connector.NewRateLimiterWithConfig(connector.RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 1000}),
		logger:  slog.Default(),
	}
	return c
}

func TestPollConvertsFiles(t *testing.T) {
	api := &fakeFilesAPI{
		pages: []*drivev3.FileList{{Files: []*drivev3.File{
			{
				Id:           "doc-1",
				Name:         "Incident Review",
				MimeType:     mimeGoogleDoc,
				ModifiedTime: "2026-08-25T10:00:00Z",
				WebViewLink:  "https://docs.google.com/doc-1",
				Owners:       []*drivev3.User{{EmailAddress: "oncall@example.com"}},
			},
			{Id: "folder-1", Name: "Archive", MimeType: mimeFolder, ModifiedTime: "2026-08-25T10:00:00Z"},
			{Id: "blob-1", Name: "logo.png", MimeType: "image/png", ModifiedTime: "2026-08-25T10:00:00Z"},
			{
				Id:           "note-1",
				Name:         "notes.txt",
				MimeType:     "text/plain",
				ModifiedTime: "2026-08-25T11:30:00Z",
				Size:         64,
			},
		}}},
		exports: map[string]string{"doc-1": "postmortem body"},
		bodies:  map[string]string{"note-1": "remember the rollback"},
	}

	conn := newTestConnector(t, api)

	since := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	items, err := conn.Poll(context.Background(), since)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, core.SourceDrive, items[0].Source)
	assert.Equal(t, "doc-1", items[0].SourceID)
	assert.Equal(t, "Incident Review\npostmortem body", items[0].RawText)
	assert.Equal(t, "oncall@example.com", items[0].Author)
	assert.Equal(t, time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC), items[0].Timestamp)
	assert.Equal(t, "https://docs.google.com/doc-1", items[0].URL)

	assert.Equal(t, "note-1", items[1].SourceID)
	assert.Equal(t, "notes.txt\nremember the rollback", items[1].RawText)

	require.Len(t, api.queries, 1)
	assert.True(t, strings.Contains(api.queries[0], "trashed = false"))
	assert.True(t, strings.Contains(api.queries[0], "modifiedTime >= '2026-08-20T00:00:00Z'"))
}

func TestPollPaginates(t *testing.T) {
	api := &fakeFilesAPI{
		pages: []*drivev3.FileList{
			{
				Files:         []*drivev3.File{{Id: "a", Name: "a.txt", MimeType: "text/plain", ModifiedTime: "2026-08-25T10:00:00Z"}},
				NextPageToken: "page-2",
			},
			{
				Files: []*drivev3.File{{Id: "b", Name: "b.txt", MimeType: "text/plain", ModifiedTime: "2026-08-25T10:00:00Z"}},
			},
		},
		bodies: map[string]string{"a": "first", "b": "second"},
	}

	conn := newTestConnector(t, api)

	items, err := conn.Poll(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2, api.call)
}

func TestLiveIDsSkipsFolders(t *testing.T) {
	api := &fakeFilesAPI{
		pages: []*drivev3.FileList{{Files: []*drivev3.File{
			{Id: "doc-1", MimeType: mimeGoogleDoc},
			{Id: "folder-1", MimeType: mimeFolder},
			{Id: "blob-1", MimeType: "image/png"},
		}}},
	}

	conn := newTestConnector(t, api)

	ids, err := conn.LiveIDs(context.Background())
	require.NoError(t, err)

	// Binary files stay live even though Poll never ingests them.
	assert.Equal(t, []string{"doc-1", "blob-1"}, ids)
}

func TestIsTextMime(t *testing.T) {
	assert.True(t, isTextMime("text/plain"))
	assert.True(t, isTextMime("text/markdown"))
	assert.True(t, isTextMime("application/json"))
	assert.False(t, isTextMime("image/png"))
	assert.False(t, isTextMime("application/pdf"))
}
