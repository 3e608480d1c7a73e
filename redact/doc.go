// Package redact removes personally identifiable information from raw
// content before it is persisted or sent to any third party.
//
// Redaction is a hard safety gate, not a best-effort step: if the redactor
// cannot process an item, the item is held back rather than forwarded
// unredacted. Every detected entity is replaced with a typed placeholder
// such as [EMAIL_REDACTED], and the operation is idempotent because
// placeholders never re-match any detection pattern.
package redact
