package handlers

import (
	"blogsmith/internal/config"
	"blogsmith/internal/core"
	"blogsmith/internal/logger"
	"blogsmith/internal/pipeline"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	createdStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// NewGenerateCmd creates the generate command and its single-article subcommands
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run one blog generation cycle",
		Long: `Run one generation cycle: pick trending topics from the configured
subreddits, write an article for each new one and store it.

Meant to be run from a scheduler such as cron. A topic that already has an
article is reported as skipped.

Examples:
  blogsmith generate
  blogsmith generate topic "The state of WebAssembly"
  blogsmith generate url https://www.reddit.com/r/golang/comments/abc123/some_post/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "topic <text>",
		Short: "Write one article about a free-text topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingle(cmd.Context(), cmd.OutOrStdout(), func(ctx context.Context, o *pipeline.Orchestrator) (*core.Article, error) {
				return o.FromSubject(ctx, strings.Join(args, " "))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "url <reddit-post-url>",
		Short: "Write one article about a single Reddit post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingle(cmd.Context(), cmd.OutOrStdout(), func(ctx context.Context, o *pipeline.Orchestrator) (*core.Article, error) {
				return o.FromURL(ctx, args[0])
			})
		},
	})

	return cmd
}

// withOrchestrator opens the store, builds the pipeline and always closes the store.
func withOrchestrator(ctx context.Context, fn func(*pipeline.Orchestrator) error) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateForGeneration(); err != nil {
		return err
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	orchestrator, err := pipeline.NewBuilder(cfg).WithStore(db).WithLogger(logger.Get()).Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build generation pipeline: %w", err)
	}
	return fn(orchestrator)
}

func runGenerate(ctx context.Context, out io.Writer) error {
	ctx, stop := signalContext(ctx)
	defer stop()

	return withOrchestrator(ctx, func(o *pipeline.Orchestrator) error {
		report, err := o.Run(ctx)
		fmt.Fprintln(out, formatReport(report))
		return err
	})
}

func runSingle(ctx context.Context, out io.Writer, fn func(context.Context, *pipeline.Orchestrator) (*core.Article, error)) error {
	ctx, stop := signalContext(ctx)
	defer stop()

	return withOrchestrator(ctx, func(o *pipeline.Orchestrator) error {
		article, err := fn(ctx, o)
		if err != nil {
			fmt.Fprintln(out, failedStyle.Render("✗ "+err.Error()))
			return err
		}
		fmt.Fprintln(out, formatArticle(article))
		return nil
	})
}

// signalContext cancels ctx on interrupt so a run stops between topics.
func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// formatReport renders a run report as a bordered summary.
func formatReport(report *core.RunReport) string {
	if report == nil {
		return failedStyle.Render(pipeline.MessageFailed)
	}

	var b strings.Builder
	title := headerStyle.Render(report.Message)
	if report.RunID != "" {
		title += " " + mutedStyle.Render(report.RunID)
	}
	b.WriteString(title)

	skipped := 0
	for _, r := range report.Results {
		b.WriteString("\n")
		switch {
		case r.Success:
			b.WriteString(createdStyle.Render("✓ " + r.Title))
		case r.Reason == pipeline.ReasonExists:
			skipped++
			b.WriteString(skippedStyle.Render("• "+r.Title) + mutedStyle.Render(" (already exists)"))
		default:
			b.WriteString(failedStyle.Render("✗ "+r.Title) + mutedStyle.Render(" ("+r.Reason+")"))
		}
	}
	if len(report.Results) == 0 {
		b.WriteString("\n" + mutedStyle.Render("no topics processed"))
	}

	created := report.Created()
	b.WriteString(fmt.Sprintf("\n\n%d created, %d skipped, %d failed in %s",
		created, skipped, len(report.Results)-created-skipped, report.Duration.Round(time.Millisecond)))
	return boxStyle.Render(b.String())
}

func formatArticle(a *core.Article) string {
	lines := []string{
		createdStyle.Render("✓ " + a.Title),
		mutedStyle.Render(fmt.Sprintf("id %d · topic %s", a.ID, a.Topic)),
	}
	if a.Image == "" {
		lines = append(lines, skippedStyle.Render("saved without image"))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}
