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

package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/veldt-labs/curio/core"
	"github.com/veldt-labs/curio/vector"
)

// maxClusterInput caps the text handed to the summarizer per cluster.
const maxClusterInput = 4000

// Cluster groups records about one theme within a digest window.
type Cluster struct {
	Summary string
	Sources []core.SourceType
	Size    int
}

// Digest summarizes what entered the index during one window.
type Digest struct {
	Start    time.Time
	End      time.Time
	Total    int
	Clusters []Cluster
	Message  string
}

// Digest builds a digest of everything indexed in the trailing window.
// Records are grouped by greedy cosine clustering against each cluster's
// first member, then each cluster is summarized.
func (o *Orchestrator) Digest(ctx context.Context, window time.Duration) (*Digest, error) {
	if window <= 0 {
		return nil, ErrInvalidWindow
	}

	end := o.now().UTC()
	start := end.Add(-window)

	var records []*core.EmbeddingRecord
	for _, source := range core.SourceTypes {
		batch, err := o.index.RecordsSince(ctx, source.Namespace(), start)
		if err != nil {
			return nil, err
		}
		records = append(records, batch...)
	}

	clusters := clusterRecords(records, o.threshold)

	digest := &Digest{Start: start, End: end, Total: len(records)}
	for _, members := range clusters {
		summary, err := o.summarizer.Summarize(ctx, clusterInput(members))
		if err != nil {
			return nil, err
		}
		digest.Clusters = append(digest.Clusters, Cluster{
			Summary: summary,
			Sources: clusterSources(members),
			Size:    len(members),
		})
	}
	digest.Message = formatDigestMessage(digest)

	o.logger.Info("digest generated", "records", len(records), "clusters", len(digest.Clusters))
	return digest, nil
}

// clusterRecords groups records greedily: each record joins the first
// cluster whose leader it resembles above the threshold, otherwise it
// starts a new cluster.
func clusterRecords(records []*core.EmbeddingRecord, threshold float32) [][]*core.EmbeddingRecord {
	var clusters [][]*core.EmbeddingRecord
	for _, record := range records {
		placed := false
		for i, members := range clusters {
			if vector.CosineSimilarity(record.Vector, members[0].Vector) >= threshold {
				clusters[i] = append(clusters[i], record)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, []*core.EmbeddingRecord{record})
		}
	}
	return clusters
}

// clusterInput concatenates member texts for summarization, capped so a
// large cluster cannot blow the completion budget.
func clusterInput(members []*core.EmbeddingRecord) string {
	var sb strings.Builder
	for _, record := range members {
		text := record.Summary
		if text == "" {
			text = record.Text
		}
		if sb.Len()+len(text) > maxClusterInput {
			break
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

// clusterSources lists the distinct source systems in namespace order.
func clusterSources(members []*core.EmbeddingRecord) []core.SourceType {
	seen := make(map[core.SourceType]bool)
	for _, record := range members {
		seen[record.Source] = true
	}

	var sources []core.SourceType
	for _, source := range core.SourceTypes {
		if seen[source] {
			sources = append(sources, source)
		}
	}
	return sources
}

// formatDigestMessage renders the digest as a Slack-ready message.
func formatDigestMessage(d *Digest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *Knowledge Digest* | %s - %s\n\n",
		d.Start.Format("Jan 2"), d.End.Format("Jan 2, 2006"))

	if len(d.Clusters) == 0 {
		sb.WriteString("No new knowledge was indexed in this window.\n")
		return sb.String()
	}

	for _, cluster := range d.Clusters {
		names := make([]string, len(cluster.Sources))
		for i, source := range cluster.Sources {
			names[i] = string(source)
		}
		fmt.Fprintf(&sb, "• %s _(%d items from %s)_\n",
			cluster.Summary, cluster.Size, strings.Join(names, ", "))
	}

	fmt.Fprintf(&sb, "\n_%d items indexed in total._\n", d.Total)
	return sb.String()
}
