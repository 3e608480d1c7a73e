// Package slack ingests messages from Slack channels via the Web API
// conversations.history endpoint.
package slack
