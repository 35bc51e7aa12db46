package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	oa "github.com/krues8dr/originallyappeared/pkg/originallyappeared"
	"github.com/krues8dr/originallyappeared/pkg/originallyappeared/config"
	"github.com/krues8dr/originallyappeared/pkg/originallyappeared/host"
	"github.com/krues8dr/originallyappeared/pkg/originallyappeared/nonce"
)

const usage = `Originally Appeared Admin CLI

A small admin tool for inspecting records and their attribution.

USAGE:
  admin <command> [options]

COMMANDS:
  list      List records with their attribution
  show      Show one record's attribution and rendered notice
  token     Mint an author token for the edit screen
  migrate   Create the Postgres tables

  Configuration is read from the environment (see the server's variables)
  and from a .env file in the current directory.

EXAMPLES:
  admin list
  admin list --json
  admin show --slug=hello-world
  admin show --id=550e8400-e29b-41d4-a716-446655440000
  admin token --sub=alice --caps=edit_post,edit_page --ttl=8h
  admin migrate

OPTIONS:
  --json                       Output as JSON (list, show)
  --slug=<slug>                Record slug (show)
  --id=<uuid>                  Record ID (show)
  --sub=<subject>              Token subject (token)
  --caps=<a,b>                 Comma separated capabilities (token)
  --ttl=<duration>             Token lifetime (token, default: 24h)
`

// recordSummary is the JSON form of a record row
type recordSummary struct {
	Record      *oa.Record     `json:"record"`
	Attribution oa.Attribution `json:"attribution"`
	Message     string         `json:"message,omitempty"`
	HTML        string         `json:"html,omitempty"`
}

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Print(usage + "\n")
		os.Exit(1)
	}

	command := os.Args[1]

	// Check for help
	if command == "help" || command == "--help" || command == "-h" {
		fmt.Print(usage + "\n")
		os.Exit(0)
	}

	cfg, err := config.Load(config.WithEnv(""))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	flags := parseFlags(os.Args[2:])

	switch command {
	case "token":
		handleToken(cfg, flags)
		return
	case "migrate":
		handleMigrate(ctx, cfg)
		return
	}

	repo, closeRepo, err := cfg.BuildRepository(ctx)
	if err != nil {
		log.Fatalf("Failed to create repository: %v", err)
	}
	defer closeRepo()

	plugin, err := newPlugin(cfg, repo)
	if err != nil {
		log.Fatalf("Failed to create plugin: %v", err)
	}

	switch command {
	case "list":
		handleList(ctx, os.Stdout, repo, plugin, flags["json"] == "true")
	case "show":
		handleShow(ctx, os.Stdout, repo, plugin, flags)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage + "\n")
		os.Exit(1)
	}
}

// newPlugin builds a read-only plugin instance for rendering notices
func newPlugin(cfg *config.ServerConfig, repo oa.Repository) (*oa.Plugin, error) {
	options := []oa.Option{
		oa.WithMetaRepository(repo),
		oa.WithTokens(host.NewNonceTokens(nonce.New(nonce.WithSecretKey(cfg.NonceSecret)))),
		oa.WithAuthorizer(host.ClaimsAuthorizer{}),
		oa.WithCanonicalEmitter(host.PermalinkCanonical{BaseURL: cfg.BaseURL}),
		oa.WithLocale(cfg.LocaleTag()),
	}
	if cfg.DefaultTemplate != "" {
		options = append(options, oa.WithDefaultTemplate(cfg.DefaultTemplate))
	}
	if cfg.EscapePlaceholders {
		options = append(options, oa.WithEscapedPlaceholders())
	}
	return oa.New(options...)
}

func parseFlags(args []string) map[string]string {
	flags := make(map[string]string)
	for _, arg := range args {
		key, value := parseFlag(arg)
		if key != "" {
			flags[key] = value
		}
	}
	return flags
}

func parseFlag(arg string) (string, string) {
	if len(arg) > 2 && arg[:2] == "--" {
		arg = arg[2:]
		for i, c := range arg {
			if c == '=' {
				return arg[:i], arg[i+1:]
			}
		}
		return arg, "true"
	}
	return "", ""
}

func handleList(ctx context.Context, out io.Writer, repo oa.Repository, plugin *oa.Plugin, useJSON bool) {
	records, err := repo.ListRecords(ctx)
	if err != nil {
		log.Fatalf("Failed to list records: %v", err)
	}

	summaries := make([]recordSummary, 0, len(records))
	for _, record := range records {
		a, err := plugin.Store().Load(ctx, record.ID)
		if err != nil {
			log.Fatalf("Failed to load attribution for %s: %v", record.ID, err)
		}
		summaries = append(summaries, recordSummary{Record: record, Attribution: a})
	}

	if useJSON {
		data, _ := json.MarshalIndent(summaries, "", "  ")
		fmt.Fprintln(out, string(data))
		return
	}

	// Table output
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tTYPE\tSLUG\tSITE NAME\tSITE URL\tNOINDEX\tCREATED\n")

	for _, s := range summaries {
		noIndex := "-"
		if s.Attribution.NoIndexSet() {
			noIndex = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Record.ID.String()[:8]+"...",
			s.Record.Type,
			truncate(s.Record.Slug, 24),
			orDash(truncate(s.Attribution.Name, 20)),
			orDash(truncate(s.Attribution.SiteURL, 40)),
			noIndex,
			s.Record.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal: %d\n", len(summaries))
}

func handleShow(ctx context.Context, out io.Writer, repo oa.Repository, plugin *oa.Plugin, flags map[string]string) {
	var (
		record *oa.Record
		err    error
	)
	switch {
	case flags["id"] != "":
		id, perr := uuid.Parse(flags["id"])
		if perr != nil {
			log.Fatalf("Invalid record ID: %v", perr)
		}
		record, err = repo.GetRecord(ctx, id)
	case flags["slug"] != "":
		record, err = repo.GetRecordBySlug(ctx, flags["slug"])
	default:
		log.Fatal("show requires --id or --slug")
	}
	if err != nil {
		log.Fatalf("Failed to get record: %v", err)
	}

	a, err := plugin.Store().Load(ctx, record.ID)
	if err != nil {
		log.Fatalf("Failed to load attribution: %v", err)
	}
	message, err := plugin.AttributionMessage(ctx, record.ID)
	if err != nil {
		log.Fatalf("Failed to build message: %v", err)
	}
	html, err := plugin.RenderAttribution(ctx, record.ID)
	if err != nil {
		log.Fatalf("Failed to render notice: %v", err)
	}

	summary := recordSummary{Record: record, Attribution: a, Message: message, HTML: string(html)}
	if flags["json"] == "true" {
		data, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Fprintln(out, string(data))
		return
	}

	fmt.Fprintf(out, "=== %s ===\n", record.Title)
	fmt.Fprintf(out, "ID:             %s\n", record.ID)
	fmt.Fprintf(out, "Type:           %s\n", record.Type)
	fmt.Fprintf(out, "Slug:           %s\n", record.Slug)
	fmt.Fprintf(out, "Site name:      %s\n", orDash(a.Name))
	fmt.Fprintf(out, "Site URL:       %s\n", orDash(a.SiteURL))
	fmt.Fprintf(out, "No index:       %t\n", a.NoIndexSet())
	fmt.Fprintf(out, "Custom message: %s\n", orDash(a.CustomMessage))
	fmt.Fprintf(out, "\nNotice:\n  %s\n", html)
}

func handleToken(cfg *config.ServerConfig, flags map[string]string) {
	subject := flags["sub"]
	if subject == "" {
		log.Fatal("token requires --sub")
	}

	var caps []string
	for _, c := range strings.Split(flags["caps"], ",") {
		if c = strings.TrimSpace(c); c != "" {
			caps = append(caps, c)
		}
	}

	ttl := 24 * time.Hour
	if v := flags["ttl"]; v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("Invalid --ttl: %v", err)
		}
		ttl = d
	}

	ja := jwtauth.New("HS256", []byte(cfg.JWTSecret), nil)
	token, err := host.IssueToken(ja, subject, caps, ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}

func handleMigrate(ctx context.Context, cfg *config.ServerConfig) {
	if cfg.DatabaseType != "postgres" {
		log.Fatal("migrate requires a postgres DATABASE_URL")
	}
	if err := config.PingPostgres(ctx, cfg.DatabaseURL, cfg.DBSchema); err != nil {
		log.Fatalf("Failed to reach database: %v", err)
	}

	migrateCfg := *cfg
	migrateCfg.AutoMigrate = true
	_, closeRepo, err := migrateCfg.BuildRepository(ctx)
	if err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}
	closeRepo()
	fmt.Printf("Schema ready in %q\n", cfg.DBSchema)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
