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


package redact

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"

	"github.com/veldt-labs/curio/core"
)

// Kind identifies a category of sensitive data the redactor detects.
type Kind string

const (
	KindEmail       Kind = "email"
	KindPhone       Kind = "phone"
	KindAPIKey      Kind = "api_key"
	KindAWSKey      Kind = "aws_key"
	KindCreditCard  Kind = "credit_card"
	KindSSN         Kind = "ssn"
	KindIPAddress   Kind = "ip_address"
	KindBearerToken Kind = "bearer_token"
)

// pattern pairs a detection regexp with its typed placeholder.
type pattern struct {
	kind        Kind
	re          *regexp.Regexp
	replacement string
}

// builtinPatterns are the default detectors, checked in a fixed order so
// redaction output is deterministic.
var builtinPatterns = []pattern{
	{KindBearerToken, regexp.MustCompile(`\bBearer\s+[A-Za-z0-9\-._~+/]+=*`), "[BEARER_TOKEN_REDACTED]"},
	{KindEmail, regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[EMAIL_REDACTED]"},
	{KindAPIKey, regexp.MustCompile(`\b(?:sk-|pk_|key-)[a-zA-Z0-9]{20,}\b`), "[API_KEY_REDACTED]"},
	{KindAWSKey, regexp.MustCompile(`\b(?:AKIA|ASIA)[A-Z0-9]{16}\b`), "[AWS_KEY_REDACTED]"},
	{KindCreditCard, regexp.MustCompile(`\b(?:4[0-9]{12}(?:[0-9]{3})?|5[1-5][0-9]{14}|3[47][0-9]{13})\b`), "[CREDIT_CARD_REDACTED]"},
	{KindSSN, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "[SSN_REDACTED]"},
	{KindIPAddress, regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`), "[IP_REDACTED]"},
	{KindPhone, regexp.MustCompile(`\b(?:\+?1[-.]?)?\(?[0-9]{3}\)?[-.]?[0-9]{3}[-.][0-9]{4}\b`), "[PHONE_REDACTED]"},
}

// Report summarizes what was removed from one text.
type Report struct {
	// Counts maps each detected kind to the number of matches replaced.
	Counts map[Kind]int
}

// Total returns the total number of replacements made.
func (r Report) Total() int {
	total := 0
	for _, n := range r.Counts {
		total += n
	}
	return total
}

// CoreCounts converts the report into the map form carried on
// core.RedactedItem.
func (r Report) CoreCounts() map[string]int {
	if len(r.Counts) == 0 {
		return nil
	}
	counts := make(map[string]int, len(r.Counts))
	for kind, n := range r.Counts {
		counts[string(kind)] = n
	}
	return counts
}

// Redactor replaces sensitive data with typed placeholders. It must run
// exactly once per item, before chunking and before any external network
// call. The zero set of patterns is never used: construction without
// patterns fails.
//
// Redaction is idempotent: placeholders never re-match any pattern, so
// redacting already-redacted text is a no-op.
type Redactor struct {
	patterns []pattern
	logger   *slog.Logger
}

// Option configures a Redactor.
type Option func(*Redactor) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Redactor) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithPattern adds a configurable identifier pattern with its own typed
// placeholder. expr is compiled eagerly; a malformed expression fails
// construction rather than redaction.
func WithPattern(kind Kind, expr, replacement string) Option {
	return func(r *Redactor) error {
		re, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidPattern, expr, err)
		}
		r.patterns = append(r.patterns, pattern{kind: kind, re: re, replacement: replacement})
		return nil
	}
}

// NewRedactor creates a redactor with the builtin pattern set plus any
// configured additions.
func NewRedactor(opts ...Option) (*Redactor, error) {
	r := &Redactor{
		patterns: append([]pattern(nil), builtinPatterns...),
		logger:   slog.Default().With("component", "redactor"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Redact replaces every match of every pattern with its typed placeholder
// and reports what was removed.
//
// This stage fails closed: on any internal error the caller must hold the
// item back rather than forward it unredacted.
func (r *Redactor) Redact(text string) (string, Report, error) {
	report := Report{Counts: map[Kind]int{}}
	if text == "" {
		return "", report, nil
	}

	redacted := text
	for _, p := range r.patterns {
		matches := p.re.FindAllString(redacted, -1)
		if len(matches) == 0 {
			continue
		}
		redacted = p.re.ReplaceAllString(redacted, p.replacement)
		report.Counts[p.kind] += len(matches)
	}

	if report.Total() > 0 {
		kinds := make([]string, 0, len(report.Counts))
		for kind := range report.Counts {
			kinds = append(kinds, string(kind))
		}
		sort.Strings(kinds)
		r.logger.Info("pii redacted", "count", report.Total(), "kinds", kinds)
	}

	return redacted, report, nil
}

// RedactItem applies Redact to a content item, producing the RedactedItem
// the chunker consumes. An error means the item is held back unprocessed.
func (r *Redactor) RedactItem(item core.ContentItem) (*core.RedactedItem, error) {
	if err := core.ValidateContentItem(&item); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRedactionFailed, err)
	}

	redacted, report, err := r.Redact(item.RawText)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRedactionFailed, err)
	}

	return &core.RedactedItem{
		Item:         item,
		RedactedText: redacted,
		Redactions:   report.CoreCounts(),
	}, nil
}

// Scan reports PII occurrences without modifying the text. Used by the
// audit command to vet exports before they leave the system.
func (r *Redactor) Scan(text string) map[Kind]int {
	if text == "" {
		return map[Kind]int{}
	}

	findings := map[Kind]int{}
	for _, p := range r.patterns {
		if n := len(p.re.FindAllString(text, -1)); n > 0 {
			findings[p.kind] += n
		}
	}
	return findings
}
