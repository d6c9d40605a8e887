// Package main is the entry point for the interactive analytics console.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/datalens-ai/analytics-console/internal/api"
	"github.com/datalens-ai/analytics-console/internal/bookmarks"
	"github.com/datalens-ai/analytics-console/internal/config"
	"github.com/datalens-ai/analytics-console/internal/drill"
	"github.com/datalens-ai/analytics-console/internal/events"
	"github.com/datalens-ai/analytics-console/internal/health"
	"github.com/datalens-ai/analytics-console/internal/model"
	"github.com/datalens-ai/analytics-console/internal/pinned"
	"github.com/datalens-ai/analytics-console/internal/session"
	"github.com/datalens-ai/analytics-console/pkg/logger"
	"github.com/datalens-ai/analytics-console/pkg/tracing"
)

// suggestedQueries seed the prompt when a conversation is empty.
var suggestedQueries = []string{
	"How many courses do we have?",
	"Show enrollments by category",
	"What are the top performing courses this month?",
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "analytics-console", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	client := api.NewClient(api.Config{
		BaseURL:        cfg.AnalyticsURL,
		RequestTimeout: cfg.RequestTimeout,
		StreamTimeout:  cfg.StreamTimeout,
		JWTSecret:      cfg.JWTSecret,
		JWTExpiration:  cfg.JWTExpiration,
		JWTSubject:     cfg.JWTSubject,
	}, log)

	store, err := bookmarks.Open(cfg.BookmarkDBPath)
	if err != nil {
		log.Error("failed to open bookmark store", zap.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	sess := session.New(client, log)
	aggregator := pinned.NewAggregator(log)
	machine := drill.NewMachine(client, log)

	sess.OnTurnFinalized(aggregator.UpdateFromTurn)

	// Optional turn publisher.
	if cfg.NATSURL != "" {
		natsClient, err := events.Connect(events.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Warn("NATS unavailable, turn publishing disabled", zap.Error(err))
		} else {
			defer natsClient.Close()
			publisher := events.NewTurnPublisher(natsClient)
			if err := publisher.EnsureStream(ctx); err != nil {
				log.Warn("failed to ensure transcript stream", zap.Error(err))
			} else {
				sess.OnTurnFinalized(func(turn model.Turn) {
					publisher.PublishTurn(ctx, sess.ConversationID(), turn)
				})
			}
		}
	}

	poller := health.NewPoller(client.Health, cfg.HealthInterval, log)
	poller.OnChange(func(status health.Status) {
		fmt.Printf("[backend %s]\n", status)
	})
	pollCtx, cancelPoll := context.WithCancel(ctx)
	defer cancelPoll()
	go poller.Run(pollCtx)

	runREPL(ctx, sess, aggregator, machine, store)
}

func runREPL(ctx context.Context, sess *session.Session, aggregator *pinned.Aggregator, machine *drill.Machine, store *bookmarks.Store) {
	fmt.Printf("analytics console (conversation %s)\n", sess.ConversationID())
	fmt.Println("try one of:")
	for _, q := range suggestedQueries {
		fmt.Printf("  %s\n", q)
	}
	fmt.Println("commands: /drill <dimension>=<value> /bookmark <title> /clear /new /retry /pinned /bookmarks /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())

		if arg, ok := strings.CutPrefix(line, "/drill "); ok {
			runDrill(ctx, scanner, sess, machine, arg)
			continue
		}
		if title, ok := strings.CutPrefix(line, "/bookmark "); ok {
			saveBookmark(sess, store, strings.TrimSpace(title))
			continue
		}

		switch line {
		case "":
			continue
		case "/quit":
			return
		case "/clear":
			sess.Clear()
			fmt.Println("transcript cleared")
			continue
		case "/new":
			sess.NewConversation()
			machine.Reset()
			fmt.Printf("new conversation %s\n", sess.ConversationID())
			continue
		case "/retry":
			if err := sess.RetryLast(ctx); err != nil {
				fmt.Printf("retry failed: %v\n", err)
			}
			printLastTurn(sess)
			continue
		case "/pinned":
			printPinned(aggregator)
			continue
		case "/bookmarks":
			printBookmarks(store)
			continue
		}

		if err := sess.SendMessage(ctx, line); err != nil {
			fmt.Printf("request failed: %v\n", err)
		}
		printLastTurn(sess)
	}
}

// saveBookmark captures the most recent exchange as a bookmarked insight.
func saveBookmark(sess *session.Session, store *bookmarks.Store, title string) {
	var query, summary string
	var chartConfig json.RawMessage

	transcript := sess.Transcript()
	for i := len(transcript) - 1; i >= 0; i-- {
		turn := transcript[i]
		if turn.Role == model.RoleAssistant {
			if block, ok := turn.Find(model.BlockAnalysis); ok && summary == "" {
				var payload struct {
					Summary string `json:"summary"`
				}
				if block.Decode(&payload) == nil {
					summary = payload.Summary
				}
			}
			if block, ok := turn.Find(model.BlockChart); ok && chartConfig == nil {
				var payload model.VisualizationPayload
				if block.Decode(&payload) == nil {
					chartConfig = payload.ChartConfig
				}
			}
			continue
		}
		if block, ok := turn.Find(model.BlockText); ok {
			query = block.Text()
		}
		break
	}

	if query == "" {
		fmt.Println("nothing to bookmark yet")
		return
	}
	if title == "" {
		title = query
	}

	saved, err := store.Add(model.BookmarkedInsight{
		Title:       title,
		Query:       query,
		Summary:     summary,
		ChartConfig: chartConfig,
	})
	if err != nil {
		fmt.Printf("failed to save bookmark: %v\n", err)
		return
	}
	fmt.Printf("saved %s\n", saved.ID)
}

// runDrill walks one drill cycle: fetch options for the chosen data point,
// let the user pick one, execute it, and submit the synthesized follow-up
// query as a fresh exchange.
func runDrill(ctx context.Context, scanner *bufio.Scanner, sess *session.Session, machine *drill.Machine, arg string) {
	dimension, value, ok := strings.Cut(arg, "=")
	if !ok {
		fmt.Println("usage: /drill <dimension>=<value>")
		return
	}

	var lastAssistant model.Turn
	transcript := sess.Transcript()
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == model.RoleAssistant {
			lastAssistant = transcript[i]
			break
		}
	}

	clicked := model.ClickedElement{Dimension: dimension, Value: value, Label: value}
	options := machine.FetchOptions(ctx, clicked, drill.DeriveContext(lastAssistant))
	if len(options) == 0 {
		fmt.Println("no drill-down options for this data point")
		machine.Reset()
		return
	}

	for i, opt := range options {
		fmt.Printf("  %d) %s: %s\n", i+1, opt.Label, opt.Description)
	}
	fmt.Print("option> ")
	if !scanner.Scan() {
		machine.Reset()
		return
	}
	choice, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || choice < 1 || choice > len(options) {
		machine.Reset()
		return
	}
	option := options[choice-1]

	// Capture the follow-up query before Execute clears the clicked element.
	query := drill.QueryForOption(machine.Clicked(), option)

	if result := machine.Execute(ctx, option); result != nil {
		path := make([]string, 0, len(result.Breadcrumb))
		for _, item := range result.Breadcrumb {
			path = append(path, item.Value)
		}
		fmt.Printf("[drill] %s\n", strings.Join(path, " > "))
	}

	if err := sess.SendMessage(ctx, query); err != nil {
		fmt.Printf("request failed: %v\n", err)
	}
	printLastTurn(sess)
}

func printLastTurn(sess *session.Session) {
	transcript := sess.Transcript()
	if len(transcript) == 0 {
		return
	}
	turn := transcript[len(transcript)-1]
	if turn.Role != model.RoleAssistant {
		return
	}

	for _, block := range turn.Blocks {
		switch block.Kind {
		case model.BlockSQL:
			var payload model.SQLPayload
			if block.Decode(&payload) == nil {
				fmt.Printf("[sql] %s\n", payload.Statement())
			}
		case model.BlockData:
			var payload model.DataPayload
			if block.Decode(&payload) == nil {
				fmt.Printf("[data] %d rows\n", len(payload.Rows()))
			}
		case model.BlockError:
			var payload model.ErrorPayload
			if block.Decode(&payload) == nil {
				fmt.Printf("[error] %s: %s\n", payload.Message, payload.Details)
			}
		default:
			fmt.Printf("[%s] %s\n", block.Kind, compactPayload(block.Payload))
		}
	}
}

func printPinned(aggregator *pinned.Aggregator) {
	sections := aggregator.Sections()
	if len(sections) == 0 {
		fmt.Println("no pinned data")
		return
	}
	for _, s := range sections {
		desc := ""
		if s.Chart != nil {
			desc += "chart: " + s.Chart.Title + " "
		}
		if s.Table != nil {
			desc += fmt.Sprintf("table: %d rows ", s.Table.RowCount)
		}
		if len(s.Stats) > 0 {
			desc += fmt.Sprintf("stats: %d ", len(s.Stats))
		}
		fmt.Printf("%s  %s %s\n", s.Timestamp.Format("15:04:05"), s.ID, desc)
	}
}

func printBookmarks(store *bookmarks.Store) {
	saved, err := store.List()
	if err != nil {
		fmt.Printf("failed to list bookmarks: %v\n", err)
		return
	}
	if len(saved) == 0 {
		fmt.Println("no bookmarks")
		return
	}
	for _, b := range saved {
		fmt.Printf("%s  %s: %s\n", b.Timestamp.Format("2006-01-02"), b.Title, b.Query)
	}
}

func compactPayload(data json.RawMessage) string {
	const limit = 120
	s := string(data)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
