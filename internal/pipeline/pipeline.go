// Package pipeline runs the topic to article generation cycle.
package pipeline

import (
	"blogsmith/internal/config"
	"blogsmith/internal/core"
	"blogsmith/internal/dedup"
	"blogsmith/internal/observability"
	"blogsmith/internal/persistence"
	"blogsmith/internal/prompt"
	"blogsmith/internal/reddit"
	"blogsmith/internal/render"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Run messages.
const (
	MessageCompleted   = "Blog generation completed"
	MessageInProgress  = "generation already in progress"
	MessageFailed      = "Blog generation failed"
	MessageInterrupted = "Blog generation interrupted"
)

// Per-topic failure reasons.
const (
	ReasonExists           = "exists"
	ReasonDuplicateTitle   = "duplicate title"
	reasonGenerationPrefix = "generation failed: "
	reasonSavePrefix       = "save failed: "
	reasonLookupPrefix     = "lookup failed: "
)

// Run kinds, used as metric labels.
const (
	KindCycle   = "cycle"
	KindSubject = "subject"
	KindURL     = "url"
)

var (
	// ErrRunInProgress is returned when a run is requested while another is active.
	ErrRunInProgress = errors.New(MessageInProgress)
	// ErrStoreUnavailable means the article store could not be reached before starting.
	ErrStoreUnavailable = errors.New("article store unavailable")
	// ErrPostUnavailable means the requested source post could not be fetched.
	ErrPostUnavailable = errors.New("could not fetch the source post")
	// ErrGenerationFailed means the model produced no usable article.
	ErrGenerationFailed = errors.New("failed to generate blog content")
	// ErrEmptySubject means a free-text generation was requested without a subject.
	ErrEmptySubject = errors.New("topic cannot be empty")
)

// State is the orchestrator's run state.
type State int32

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Orchestrator coordinates topic selection, generation, deduplication and persistence.
// At most one run (of any kind) is active per orchestrator.
type Orchestrator struct {
	state atomic.Int32

	source    TopicSource
	writer    ArticleWriter
	images    ImageGenerator
	store     Store
	gate      *dedup.Gate
	sanitizer *render.Sanitizer
	log       *slog.Logger
	now       func() time.Time
}

// NewOrchestrator creates an orchestrator. checks selects the duplicate predicates.
func NewOrchestrator(source TopicSource, writer ArticleWriter, images ImageGenerator, store Store, checks config.Dedup, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		source:    source,
		writer:    writer,
		images:    images,
		store:     store,
		gate:      dedup.NewGate(store.Articles(), checks),
		sanitizer: render.NewSanitizer(),
		log:       log,
		now:       time.Now,
	}
}

// State reports whether a run is active.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

func (o *Orchestrator) acquire() bool {
	return o.state.CompareAndSwap(int32(StateIdle), int32(StateRunning))
}

func (o *Orchestrator) release() {
	o.state.Store(int32(StateIdle))
}

// Run executes one generation cycle over the topic source. The report is always
// non-nil. The error is non-nil only when the cycle could not run at all or was
// cut short by ctx.
func (o *Orchestrator) Run(ctx context.Context) (*core.RunReport, error) {
	report := &core.RunReport{
		RunID:     uuid.NewString(),
		Results:   []core.TopicResult{},
		StartedAt: o.now(),
	}

	if !o.acquire() {
		o.log.Info("Blog generation is already in progress, skipping this run")
		report.Message = MessageInProgress
		return report, ErrRunInProgress
	}
	defer o.release()

	log := o.log.With("run_id", report.RunID)
	log.Info("Starting blog generation cycle")

	defer func() {
		report.Duration = o.now().Sub(report.StartedAt)
		observability.RecordRun(KindCycle, report.Success, report.Duration)
		log.Info("Blog generation cycle finished",
			"created", report.Created(),
			"topics", len(report.Results),
			"duration", report.Duration)
	}()

	if err := o.store.Ping(ctx); err != nil {
		log.Error("Article store unreachable, aborting run", "error", err)
		report.Message = MessageFailed
		return report, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	topics := o.source.Topics(ctx)
	log.Info("Selected topics", "count", len(topics))

	for _, topic := range topics {
		if err := ctx.Err(); err != nil {
			log.Warn("Run interrupted", "remaining", len(topics)-len(report.Results))
			report.Message = MessageInterrupted
			return report, err
		}
		result := o.processTopic(ctx, log, topic)
		report.Results = append(report.Results, result)
	}

	report.Success = true
	report.Message = MessageCompleted
	return report, nil
}

// processTopic runs dedup, comments, generation, dedup, image and persistence for
// one topic. Every failure is folded into the returned result.
func (o *Orchestrator) processTopic(ctx context.Context, log *slog.Logger, topic core.Topic) core.TopicResult {
	log = log.With("subreddit", topic.Subreddit, "topic", topic.Title)

	if err := o.gate.CheckTopic(ctx, topic); err != nil {
		return o.skip(log, topic.Title, err)
	}

	comments := o.source.Comments(ctx, topic.Subreddit, topic.ID)
	log.Debug("Fetched comments", "count", len(comments))

	generated, err := o.writer.Write(ctx, prompt.ForTopic(topic, comments))
	if err != nil {
		log.Warn("Skipped topic after generation failure", "error", err)
		observability.RecordTopic(observability.OutcomeFailed)
		return core.TopicResult{Title: topic.Title, Reason: reasonGenerationPrefix + err.Error()}
	}

	if err := o.gate.CheckGenerated(ctx, generated.Title); err != nil {
		return o.skip(log, generated.Title, err)
	}

	article, err := o.publish(ctx, generated, topic.Subreddit, topic.URL)
	if err != nil {
		observability.RecordTopic(observability.OutcomeFailed)
		if errors.Is(err, persistence.ErrDuplicateTitle) {
			log.Warn("Store rejected duplicate title", "title", generated.Title)
			return core.TopicResult{Title: generated.Title, Reason: ReasonDuplicateTitle}
		}
		log.Error("Failed to save blog", "error", err)
		return core.TopicResult{Title: generated.Title, Reason: reasonSavePrefix + err.Error()}
	}

	observability.RecordTopic(observability.OutcomeCreated)
	log.Info("Successfully created blog", "id", article.ID, "title", article.Title)
	return core.TopicResult{Success: true, Title: article.Title}
}

func (o *Orchestrator) skip(log *slog.Logger, title string, err error) core.TopicResult {
	if errors.Is(err, dedup.ErrDuplicate) {
		log.Info("Blog already exists, skipping", "title", title, "check", err.Error())
		observability.RecordTopic(observability.OutcomeDuplicate)
		return core.TopicResult{Title: title, Reason: ReasonExists}
	}
	log.Error("Duplicate lookup failed", "error", err)
	observability.RecordTopic(observability.OutcomeFailed)
	return core.TopicResult{Title: title, Reason: reasonLookupPrefix + err.Error()}
}

// publish illustrates, cleans and stores a generated article. An empty image never
// prevents the insert.
func (o *Orchestrator) publish(ctx context.Context, generated *core.GeneratedArticle, topic, sourceURL string) (*core.Article, error) {
	image := o.images.Generate(ctx, generated.Title)
	observability.RecordImage(image != "")
	if image == "" {
		o.log.Warn("Could not generate image, saving without image", "title", generated.Title)
	}

	content := o.sanitizer.Sanitize(generated.Content)
	if sourceURL != "" {
		content = render.EnsureSourceLink(content, sourceURL)
	}

	article := &core.Article{
		Title:           strings.TrimSpace(generated.Title),
		MetaDescription: strings.TrimSpace(generated.MetaDescription),
		Content:         content,
		Image:           image,
		Topic:           topic,
	}
	if err := o.store.Articles().Create(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

// FromSubject writes and stores one article about a free-text subject.
func (o *Orchestrator) FromSubject(ctx context.Context, subject string) (*core.Article, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, ErrEmptySubject
	}
	if !o.acquire() {
		return nil, ErrRunInProgress
	}
	defer o.release()

	start := o.now()
	article, err := o.fromSubject(ctx, subject)
	observability.RecordRun(KindSubject, err == nil, o.now().Sub(start))
	return article, err
}

func (o *Orchestrator) fromSubject(ctx context.Context, subject string) (*core.Article, error) {
	log := o.log.With("subject", subject)
	log.Info("Processing topic")

	generated, err := o.writer.Write(ctx, prompt.ForSubject(subject))
	if err != nil {
		log.Warn("Generation failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if err := o.gate.CheckGenerated(ctx, generated.Title); err != nil {
		return nil, err
	}

	article, err := o.publish(ctx, generated, core.CustomTopic, "")
	if err != nil {
		return nil, err
	}
	log.Info("Successfully created blog", "id", article.ID, "title", article.Title)
	return article, nil
}

// FromURL writes and stores one article about a single Reddit post. A post whose
// link already appears in stored content is rejected with dedup.ErrDuplicate.
func (o *Orchestrator) FromURL(ctx context.Context, rawURL string) (*core.Article, error) {
	subreddit, postID, err := reddit.ParsePostURL(rawURL)
	if err != nil {
		return nil, err
	}
	if !o.acquire() {
		return nil, ErrRunInProgress
	}
	defer o.release()

	start := o.now()
	article, err := o.fromURL(ctx, subreddit, postID)
	observability.RecordRun(KindURL, err == nil, o.now().Sub(start))
	return article, err
}

func (o *Orchestrator) fromURL(ctx context.Context, subreddit, postID string) (*core.Article, error) {
	log := o.log.With("subreddit", subreddit, "post_id", postID)
	log.Info("Processing Reddit URL")

	topic, err := o.source.Post(ctx, subreddit, postID)
	if err != nil {
		log.Warn("Could not fetch post", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPostUnavailable, err)
	}

	if err := o.gate.CheckSourceURL(ctx, topic.URL); err != nil {
		if errors.Is(err, dedup.ErrDuplicate) {
			log.Info("A blog for this post already exists", "title", topic.Title)
		}
		return nil, err
	}

	comments := o.source.Comments(ctx, topic.Subreddit, topic.ID)
	generated, err := o.writer.Write(ctx, prompt.ForTopic(*topic, comments))
	if err != nil {
		log.Warn("Generation failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if err := o.gate.CheckGenerated(ctx, generated.Title); err != nil {
		return nil, err
	}

	article, err := o.publish(ctx, generated, topic.Subreddit, topic.URL)
	if err != nil {
		return nil, err
	}
	log.Info("Successfully created blog", "id", article.ID, "title", article.Title)
	return article, nil
}
