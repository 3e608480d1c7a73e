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

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2/google"
	drivev3 "google.golang.org/api/drive/v3"

	"github.com/veldt-labs/curio"
	"github.com/veldt-labs/curio/ai"
	"github.com/veldt-labs/curio/budget"
	"github.com/veldt-labs/curio/connector"
	driveconn "github.com/veldt-labs/curio/connector/drive"
	notionconn "github.com/veldt-labs/curio/connector/notion"
	slackconn "github.com/veldt-labs/curio/connector/slack"
	"github.com/veldt-labs/curio/core"
	"github.com/veldt-labs/curio/query"
	"github.com/veldt-labs/curio/redact"
	"github.com/veldt-labs/curio/reembed"
)

func main() {
	app := &cli.App{
		Name:  "curio",
		Usage: "Knowledge pipeline from Slack, Notion and Google Drive into a searchable vector index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Run one ingest cycle over the configured sources",
				Action: ingestCommand,
				Flags: append(databaseFlags(),
					&cli.StringFlag{
						Name:    "slack-channels",
						Usage:   "Comma-separated Slack channel IDs to ingest",
						EnvVars: []string{"CURIO_SLACK_CHANNELS"},
					},
					&cli.BoolFlag{
						Name:  "replay",
						Usage: "Also replay due dead-lettered chunks",
						Value: true,
					},
				),
			},
			{
				Name:      "query",
				Usage:     "Ask the knowledge base a question",
				ArgsUsage: "<question>",
				Action:    queryCommand,
				Flags: append(databaseFlags(),
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of matches to retrieve",
						Value: query.DefaultTopK,
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Per-request timeout",
						Value: query.DefaultTimeout,
					},
				),
			},
			{
				Name:   "digest",
				Usage:  "Summarize what entered the index in the trailing window",
				Action: digestCommand,
				Flags: append(databaseFlags(),
					&cli.DurationFlag{
						Name:  "window",
						Usage: "Digest window",
						Value: 7 * 24 * time.Hour,
					},
				),
			},
			{
				Name:  "deadletter",
				Usage: "Inspect and retry failed chunks",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List dead-lettered chunks",
						Action: deadletterListCommand,
						Flags:  databaseFlags(),
					},
					{
						Name:      "retry",
						Usage:     "Replay one dead-lettered chunk now",
						ArgsUsage: "<chunk-id> <embed|summarize>",
						Action:    deadletterRetryCommand,
						Flags:     databaseFlags(),
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Regenerate every stored vector with the configured embedding model",
				Action: reembedCommand,
				Flags: append(databaseFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Records embedded per request",
						Value: reembed.DefaultConfig().BatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Progress report frequency (records)",
						Value: reembed.DefaultConfig().ReportInterval,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Attempts per batch before giving up",
						Value: reembed.DefaultConfig().MaxRetries,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for retry backoff",
						Value: reembed.DefaultConfig().RetryDelay,
					},
				),
			},
			{
				Name:      "scan",
				Usage:     "Audit a text file for PII without ingesting it",
				ArgsUsage: "<file>",
				Action:    scanCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func databaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible API host for embeddings and completions",
			Value: "https://api.openai.com/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "text-embedding-3-small",
		},
		&cli.StringFlag{
			Name:  "completion-model",
			Usage: "Summarization model name",
			Value: "gpt-4o-mini",
		},
		&cli.Float64Flag{
			Name:  "monthly-budget",
			Usage: "Monthly budget in USD per API (embeddings and completions each)",
			Value: 50.0,
		},
	}
}

func openDatabase(c *cli.Context) (*curio.Database, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithCompletionModel(c.String("completion-model")),
		ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
	)
	aiConfig.Normalize()
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	monthly := c.Float64("monthly-budget")
	return curio.NewDatabase(c.Context, c.String("db"),
		curio.WithAIConfig(aiConfig),
		curio.WithBudgetOptions(
			budget.WithMonthlyBudget(budget.APIEmbeddings, monthly),
			budget.WithMonthlyBudget(budget.APICompletions, monthly),
			budget.WithAlertFunc(func(api string, spendUSD, budgetUSD float64) {
				slog.Warn("budget threshold crossed",
					"api", api, "spend_usd", spendUSD, "budget_usd", budgetUSD)
			}),
		),
	)
}

func ingestCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	connectors, err := buildConnectors(c)
	if err != nil {
		return err
	}
	if len(connectors) == 0 {
		return fmt.Errorf("no sources configured: set SLACK_BOT_TOKEN, NOTION_API_KEY or GOOGLE_APPLICATION_CREDENTIALS")
	}

	p, err := db.NewIngestPipeline(connectors)
	if err != nil {
		return err
	}
	defer p.Release()

	if err := p.RunCycle(c.Context); err != nil {
		return fmt.Errorf("ingest cycle failed: %w", err)
	}

	if c.Bool("replay") {
		if err := p.ProcessDeadLetters(c.Context); err != nil {
			return fmt.Errorf("dead letter replay failed: %w", err)
		}
	}

	reportSpend(db)
	return nil
}

func queryCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	orch, err := db.NewOrchestrator(
		query.WithTopK(c.Int("top-k")),
		query.WithTimeout(c.Duration("timeout")),
	)
	if err != nil {
		return err
	}

	answer, err := orch.Answer(c.Context, question)
	if query.IsRetryable(err) {
		return fmt.Errorf("the knowledge base is busy, please try again: %w", err)
	}
	if err != nil {
		return err
	}

	fmt.Println(answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, source := range answer.Sources {
			fmt.Printf("  [%s] %s (score %.2f)\n", source.Source, sourceLink(source), source.Score)
		}
	}
	return nil
}

func digestCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	orch, err := db.NewOrchestrator()
	if err != nil {
		return err
	}

	digest, err := orch.Digest(c.Context, c.Duration("window"))
	if err != nil {
		return err
	}

	fmt.Println(digest.Message)
	return nil
}

func deadletterListCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.DeadLetters().List(c.Context)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("dead letter queue is empty")
		return nil
	}

	for _, entry := range entries {
		next := "-"
		if !entry.NextRetryAt.IsZero() {
			next = entry.NextRetryAt.Format(time.RFC3339)
		}
		fmt.Printf("%d  stage=%s  state=%s  attempts=%d  next=%s  error=%s\n",
			entry.ChunkID, entry.Stage, entry.State, entry.AttemptCount, next, entry.LastError)
	}
	return nil
}

func deadletterRetryCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: curio deadletter retry <chunk-id> <embed|summarize>")
	}

	id, err := strconv.ParseUint(c.Args().Get(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chunk id %q: %w", c.Args().Get(0), err)
	}

	stage, err := parseStage(c.Args().Get(1))
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	connectors, err := buildConnectors(c)
	if err != nil {
		return err
	}
	if len(connectors) == 0 {
		return fmt.Errorf("no sources configured: replaying needs the same environment as ingest")
	}

	p, err := db.NewIngestPipeline(connectors)
	if err != nil {
		return err
	}
	defer p.Release()

	if err := p.RetryDeadLetter(c.Context, core.ID(id), stage); err != nil {
		return fmt.Errorf("retry failed: %w", err)
	}
	fmt.Println("replayed")
	return nil
}

func reembedCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	r, err := db.NewReembedder(&reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}, os.Stderr)
	if err != nil {
		return err
	}

	if err := r.Run(c.Context); err != nil {
		return fmt.Errorf("reembed failed: %w", err)
	}

	reportSpend(db)
	return nil
}

func scanCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: curio scan <file>")
	}

	data, err := os.ReadFile(c.Args().Get(0))
	if err != nil {
		return err
	}

	redactor, err := redact.NewRedactor()
	if err != nil {
		return err
	}

	counts := redactor.Scan(string(data))
	if len(counts) == 0 {
		fmt.Println("no PII detected")
		return nil
	}

	total := 0
	for kind, count := range counts {
		fmt.Printf("%-12s %d\n", kind, count)
		total += count
	}
	fmt.Printf("%-12s %d\n", "total", total)
	return nil
}

// buildConnectors assembles a connector per source whose credentials are
// present in the environment.
func buildConnectors(c *cli.Context) ([]connector.Connector, error) {
	var connectors []connector.Connector

	if token := os.Getenv("SLACK_BOT_TOKEN"); token != "" {
		channels := splitList(c.String("slack-channels"))
		if len(channels) == 0 {
			return nil, fmt.Errorf("SLACK_BOT_TOKEN is set but no --slack-channels given")
		}
		conn, err := slackconn.New(token, channels)
		if err != nil {
			return nil, err
		}
		connectors = append(connectors, conn)
	}

	if token := os.Getenv("NOTION_API_KEY"); token != "" {
		conn, err := notionconn.New(token)
		if err != nil {
			return nil, err
		}
		connectors = append(connectors, conn)
	}

	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" {
		creds, err := google.FindDefaultCredentials(c.Context, drivev3.DriveReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("google credentials: %w", err)
		}
		conn, err := driveconn.New(c.Context, creds.TokenSource)
		if err != nil {
			return nil, err
		}
		connectors = append(connectors, conn)
	}

	return connectors, nil
}

func reportSpend(db *curio.Database) {
	for _, api := range []string{budget.APIEmbeddings, budget.APICompletions} {
		usd, tokens := db.Ledger().Spend(api)
		slog.Info("period spend", "api", api, "usd", fmt.Sprintf("%.4f", usd), "tokens", tokens)
	}
}

func parseStage(s string) (core.Stage, error) {
	switch strings.ToLower(s) {
	case "embed":
		return core.StageEmbed, nil
	case "summarize":
		return core.StageSummarize, nil
	default:
		return 0, fmt.Errorf("invalid stage %q: must be embed or summarize", s)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func sourceLink(s query.Source) string {
	if s.URL != "" {
		return s.URL
	}
	return s.SourceID
}
