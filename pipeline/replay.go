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

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/veldt-labs/curio/core"
	"github.com/veldt-labs/curio/storage"
)

// Replay re-runs the failed stage of a dead-lettered chunk. It makes
// Pipeline a deadletter.Processor.
func (p *Pipeline) Replay(ctx context.Context, entry *core.DeadLetterEntry) error {
	switch entry.Stage {
	case core.StageEmbed:
		return p.replayEmbed(ctx, entry.Chunk)
	case core.StageSummarize:
		return p.replaySummarize(ctx, entry.Chunk)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownStage, entry.Stage)
	}
}

// replayEmbed re-embeds one chunk and upserts the full record. The
// summary is regenerated too since an embed failure means no record was
// ever written.
func (p *Pipeline) replayEmbed(ctx context.Context, c core.Chunk) error {
	var vec []float32
	err := p.retryTransient(ctx, func() error {
		var embedErr error
		vec, embedErr = p.embedder.EmbedText(ctx, c.Text)
		return embedErr
	})
	if err != nil {
		return err
	}

	var summary string
	err = p.retryTransient(ctx, func() error {
		var sumErr error
		summary, sumErr = p.summarizer.Summarize(ctx, c.Text)
		return sumErr
	})
	if err != nil {
		return err
	}

	return p.index.Upsert(ctx, newRecord(c, vec, summary, p.now().UTC()))
}

// replaySummarize regenerates the summary on the chunk's existing
// record. If the record has since been tombstoned there is nothing left
// to fix and the replay succeeds.
func (p *Pipeline) replaySummarize(ctx context.Context, c core.Chunk) error {
	record, err := p.index.Get(ctx, c.Source.Namespace(), c.ID)
	if errors.Is(err, storage.ErrNotFound) {
		p.logger.Debug("summarize replay skipped, record gone", "chunk", c.ID)
		return nil
	}
	if err != nil {
		return err
	}

	var summary string
	err = p.retryTransient(ctx, func() error {
		var sumErr error
		summary, sumErr = p.summarizer.Summarize(ctx, c.Text)
		return sumErr
	})
	if err != nil {
		return err
	}

	record.Summary = summary
	return p.index.Upsert(ctx, record)
}
