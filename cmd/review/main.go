package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"scoreservice.app/review/common/id"
	"scoreservice.app/review/common/logger"
	"scoreservice.app/review/core/config"
	"scoreservice.app/review/internal/review"
	"scoreservice.app/review/internal/service"
)

const usage = `usage:
  review tree <documentId>                      print a Backlog document tree as JSON
  review analyze <designId> <requirementsId>    review design documents against requirements
  review parse <file>                           validate a saved model response

environment:
  BACKLOG_BASE_URL, BACKLOG_API_KEY, BACKLOG_PROJECT, LLM_API_KEY (analyze)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "tree":
		err = runTree(ctx, args)
	case "analyze":
		err = runAnalyze(ctx, args)
	case "parse":
		err = runParse(args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup() (*service.Services, config.Config, error) {
	cfg, err := config.Load(config.ServiceTypeCLI)
	if err != nil {
		return nil, config.Config{}, err
	}
	// stdout carries the JSON output
	slog.SetDefault(slog.New(logger.NewHandler(cfg, os.Stderr)))
	if err := id.Init(1); err != nil {
		return nil, config.Config{}, fmt.Errorf("initializing id generator: %w", err)
	}
	return service.NewServices(cfg), cfg, nil
}

func runTree(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("tree expects exactly one document id")
	}

	services, cfg, err := setup()
	if err != nil {
		return err
	}

	tree, err := services.Documents().FetchTree(ctx, service.DocumentTreeParams{
		ProjectIDOrKey: cfg.Backlog.ProjectIDOrKey,
		APIKey:         cfg.Backlog.APIKey,
		DocumentID:     documentIDArg(args[0]),
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, review.TreeSummary(cfg.Backlog.ProjectIDOrKey, tree))
	return printJSON(tree)
}

func runAnalyze(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("analyze expects a design document id and a requirements document id")
	}

	designID, err := positiveInt(args[0], "design document id")
	if err != nil {
		return err
	}
	requirementsID, err := positiveInt(args[1], "requirements document id")
	if err != nil {
		return err
	}

	services, cfg, err := setup()
	if err != nil {
		return err
	}

	projectID, err := positiveInt(cfg.Backlog.ProjectIDOrKey, "BACKLOG_PROJECT")
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Analyzing design %d against requirements %d (model=%s)\n", designID, requirementsID, cfg.LLM.Model)

	out, err := services.Reviews().Analyze(ctx, service.AnalysisParams{
		ProjectID:              projectID,
		DesignDocumentID:       designID,
		RequirementsDocumentID: requirementsID,
		BacklogAPIKey:          cfg.Backlog.APIKey,
		LLMAPIKey:              cfg.LLM.APIKey,
		Model:                  cfg.LLM.Model,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Review %s over %d documents\n", id.Format(out.ReviewID), out.Documents)
	return printJSON(out.Result)
}

func runParse(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("parse expects exactly one file")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	result, err := review.ParseDesignReviewResult(string(data))
	if err != nil {
		return err
	}

	root := result.RootDocument
	fmt.Fprintf(os.Stderr, "Valid result for %q: %g/%g\n", root.DocumentTitle, root.TotalScore.Value, root.TotalScore.Max)
	return printJSON(result)
}

// documentIDArg passes digit-only arguments as numbers so they are
// normalized the same way as numeric ids in API requests.
func documentIDArg(s string) any {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}

func positiveInt(s, label string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", label)
	}
	return n, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
