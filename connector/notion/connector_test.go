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
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-labs/curio/core"
)

type fakeSearchAPI struct {
	pages []*notionapi.Page
}

func (f *fakeSearchAPI) Do(_ context.Context, _ *notionapi.SearchRequest) (*notionapi.SearchResponse, error) {
	results := make([]notionapi.Object, 0, len(f.pages))
	for _, page := range f.pages {
		results = append(results, page)
	}
	return &notionapi.SearchResponse{Results: results}, nil
}

type fakeBlockAPI struct {
	blocks map[notionapi.BlockID]notionapi.Blocks
}

func (f *fakeBlockAPI) GetChildren(_ context.Context, id notionapi.BlockID, _ *notionapi.Pagination) (*notionapi.GetChildrenResponse, error) {
	return &notionapi.GetChildrenResponse{Results: f.blocks[id]}, nil
}

func runs(text string) []notionapi.RichText {
	return []notionapi.RichText{{PlainText: text}}
}

func page(id string, edited time.Time, title string) *notionapi.Page {
	return &notionapi.Page{
		ID:             notionapi.ObjectID(id),
		LastEditedTime: edited,
		LastEditedBy:   notionapi.User{ID: notionapi.UserID("user-1")},
		URL:            "https://notion.so/" + id,
		Properties: notionapi.Properties{
			"title": &notionapi.TitleProperty{Title: runs(title)},
		},
	}
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestPollFiltersBySince(t *testing.T) {
	recent := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	stale := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	search := &fakeSearchAPI{pages: []*notionapi.Page{
		page("page-new", recent, "Runbooks"),
		page("page-old", stale, "Archive"),
	}}
	blocks := &fakeBlockAPI{blocks: map[notionapi.BlockID]notionapi.Blocks{
		"page-new": {
			&notionapi.ParagraphBlock{Paragraph: notionapi.Paragraph{RichText: runs("restart the worker")}},
		},
	}}

	conn, err := New("secret", withAPI(search, blocks))
	require.NoError(t, err)

	items, err := conn.Poll(context.Background(), time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, core.SourceNotion, items[0].Source)
	assert.Equal(t, "page-new", items[0].SourceID)
	assert.Equal(t, "Runbooks\nrestart the worker", items[0].RawText)
	assert.Equal(t, "user-1", items[0].Author)
	assert.Equal(t, recent, items[0].Timestamp)
	assert.Equal(t, "https://notion.so/page-new", items[0].URL)
}

func TestLiveIDsIgnoresSince(t *testing.T) {
	recent := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	stale := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	search := &fakeSearchAPI{pages: []*notionapi.Page{
		page("page-new", recent, "Runbooks"),
		page("page-old", stale, "Archive"),
	}}

	conn, err := New("secret", withAPI(search, &fakeBlockAPI{}))
	require.NoError(t, err)

	ids, err := conn.LiveIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"page-new", "page-old"}, ids)
}

func TestBlockText(t *testing.T) {
	cases := []struct {
		name  string
		block notionapi.Block
		want  string
	}{
		{"paragraph", &notionapi.ParagraphBlock{Paragraph: notionapi.Paragraph{RichText: runs("body")}}, "body"},
		{"heading1", &notionapi.Heading1Block{Heading1: notionapi.Heading{RichText: runs("title")}}, "title"},
		{"heading2", &notionapi.Heading2Block{Heading2: notionapi.Heading{RichText: runs("section")}}, "section"},
		{"heading3", &notionapi.Heading3Block{Heading3: notionapi.Heading{RichText: runs("subsection")}}, "subsection"},
		{"bulleted", &notionapi.BulletedListItemBlock{BulletedListItem: notionapi.ListItem{RichText: runs("point")}}, "point"},
		{"numbered", &notionapi.NumberedListItemBlock{NumberedListItem: notionapi.ListItem{RichText: runs("step")}}, "step"},
		{"quote", &notionapi.QuoteBlock{Quote: notionapi.Quote{RichText: runs("saying")}}, "saying"},
		{"todo", &notionapi.ToDoBlock{ToDo: notionapi.ToDo{RichText: runs("task")}}, "task"},
		{"callout", &notionapi.CalloutBlock{Callout: notionapi.Callout{RichText: runs("note")}}, "note"},
		{"unsupported", &notionapi.DividerBlock{}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, blockText(tc.block))
		})
	}
}

func TestRichTextConcatenatesRuns(t *testing.T) {
	text := richText([]notionapi.RichText{
		{PlainText: "hello "},
		{PlainText: "world"},
	})
	assert.Equal(t, "hello world", text)
}
