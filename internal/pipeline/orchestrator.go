package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sceneforge/internal/domain"
	"sceneforge/internal/events"
	"sceneforge/internal/persist"
	"sceneforge/internal/progress"
	"sceneforge/internal/prompt"
	"sceneforge/internal/providers/model"
)

const (
	// EstimatedSeconds is reported to clients when a job is accepted.
	EstimatedSeconds = 30

	failWriteTimeout = 10 * time.Second
)

// SubmitRequest is a client request to transform an uploaded image.
type SubmitRequest struct {
	OwnerID       string `validate:"required"`
	SourceImageID string `validate:"required,uuid"`
	SceneID       int64  `validate:"required,gt=0"`
	UserPrompt    string `validate:"max=2000"`
}

type SceneResolver interface {
	Resolve(ctx context.Context, sceneID int64, ownerID string) (*domain.SceneConfig, error)
}

// SourceReader reads stored source image bytes.
type SourceReader interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

type ModelRegistry interface {
	Lookup(hint string) (model.Adapter, string, error)
}

type ResultPersister interface {
	Persist(ctx context.Context, in persist.Input) ([]domain.PersistedImage, error)
}

// Deps wires the orchestrator's collaborators.
type Deps struct {
	Jobs         domain.JobRepository
	SourceImages domain.SourceImageRepository
	Scenes       SceneResolver
	Sources      SourceReader
	Models       ModelRegistry
	Persister    ResultPersister
	Progress     *progress.Tracker
	Dispatcher   *Dispatcher
	Events       events.Publisher
	Logger       zerolog.Logger
	ModelTimeout time.Duration
}

// Orchestrator accepts jobs and drives each one through its stages in the background.
type Orchestrator struct {
	jobs         domain.JobRepository
	sourceImages domain.SourceImageRepository
	scenes       SceneResolver
	sources      SourceReader
	models       ModelRegistry
	persister    ResultPersister
	progress     *progress.Tracker
	dispatcher   *Dispatcher
	events       events.Publisher
	logger       zerolog.Logger
	tracer       trace.Tracer
	validate     *validator.Validate
	modelTimeout time.Duration
	now          func() time.Time
}

func NewOrchestrator(d Deps) *Orchestrator {
	pub := d.Events
	if pub == nil {
		pub = events.Noop{}
	}
	timeout := d.ModelTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Orchestrator{
		jobs:         d.Jobs,
		sourceImages: d.SourceImages,
		scenes:       d.Scenes,
		sources:      d.Sources,
		models:       d.Models,
		persister:    d.Persister,
		progress:     d.Progress,
		dispatcher:   d.Dispatcher,
		events:       pub,
		logger:       d.Logger.With().Str("component", "pipeline").Logger(),
		tracer:       otel.Tracer("sceneforge/pipeline"),
		validate:     validator.New(),
		modelTimeout: timeout,
		now:          time.Now,
	}
}

// Submit validates the request, records the job and hands it to the dispatcher.
// It never waits on the model call.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	req.UserPrompt = strings.TrimSpace(req.UserPrompt)
	if err := o.validate.Struct(req); err != nil {
		return "", validationError(err)
	}

	img, err := o.sourceImages.GetForOwner(ctx, req.SourceImageID, req.OwnerID)
	if err != nil {
		return "", fmt.Errorf("source image: %w", err)
	}
	scene, err := o.scenes.Resolve(ctx, req.SceneID, req.OwnerID)
	if err != nil {
		return "", err
	}
	_, hint, err := o.models.Lookup(scene.PreferredModel)
	if err != nil {
		return "", err
	}

	job := &domain.Job{
		ID:            uuid.NewString(),
		OwnerID:       req.OwnerID,
		SourceImageID: img.ID,
		SceneID:       scene.ID,
		SceneType:     scene.Type,
		SceneName:     scene.Name,
		UserPrompt:    req.UserPrompt,
		Model:         hint,
		Status:        domain.JobStatusProcessing,
	}
	if err := o.jobs.Create(ctx, job); err != nil {
		return "", err
	}
	o.progress.Create(job.ID, progress.Meta{OwnerID: job.OwnerID, SourceImageID: img.ID, SceneID: scene.ID})
	o.publish(ctx, events.Event{Type: events.JobSubmitted, JobID: job.ID, OwnerID: job.OwnerID, Status: string(job.Status), Model: hint})

	if err := o.dispatcher.Dispatch(job.ID, func(runCtx context.Context) { o.run(runCtx, job, img) }); err != nil {
		o.fail(job, err)
		return "", err
	}
	o.logger.Info().Str("job_id", job.ID).Str("owner_id", job.OwnerID).Int64("scene_id", scene.ID).Str("model", hint).Msg("pipeline: job accepted")
	return job.ID, nil
}

func (o *Orchestrator) run(ctx context.Context, job *domain.Job, img *domain.SourceImage) {
	startedAt := o.now()
	ctx, span := o.tracer.Start(ctx, "pipeline.job", trace.WithAttributes(
		attribute.String("job.id", job.ID),
		attribute.String("job.model", job.Model),
	))
	defer span.End()
	defer func() {
		if rec := recover(); rec != nil {
			o.fail(job, fmt.Errorf("internal error: %v", rec))
			panic(rec)
		}
	}()

	images, err := o.execute(ctx, span, job, img, startedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.fail(job, err)
		return
	}

	o.progress.Complete(job.ID)
	o.publish(ctx, events.Event{Type: events.JobCompleted, JobID: job.ID, OwnerID: job.OwnerID, Status: string(domain.JobStatusCompleted), Model: job.Model, ImageCount: len(images), Percent: 100})
	o.logger.Info().
		Str("job_id", job.ID).
		Int("images", len(images)).
		Dur("took", o.now().Sub(startedAt)).
		Msg("pipeline: job completed")
}

func (o *Orchestrator) execute(ctx context.Context, span trace.Span, job *domain.Job, img *domain.SourceImage, startedAt time.Time) ([]domain.PersistedImage, error) {
	o.advance(ctx, span, job, progress.StageLoadingScene)
	scene, err := o.scenes.Resolve(ctx, job.SceneID, job.OwnerID)
	if err != nil {
		return nil, err
	}

	o.advance(ctx, span, job, progress.StagePreparingPrompt)
	text := prompt.Build(*scene, job.UserPrompt)

	o.advance(ctx, span, job, progress.StageLoadingSourceImage)
	data, err := o.sources.Read(ctx, img.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("read source image: %w", err)
	}

	o.advance(ctx, span, job, progress.StageCallingModel)
	result, err := o.callModel(ctx, job.Model, model.Request{Prompt: text, Image: data, MimeType: img.MimeType})
	if err != nil {
		return nil, err
	}

	o.advance(ctx, span, job, progress.StageProcessingResult)
	if len(result.Images) == 0 {
		return nil, domain.ErrNoImages
	}

	o.advance(ctx, span, job, progress.StageSavingImages)
	return o.persister.Persist(ctx, persist.Input{Job: job, Scene: *scene, Result: result, StartedAt: startedAt})
}

func (o *Orchestrator) callModel(ctx context.Context, hint string, req model.Request) (*model.Result, error) {
	adapter, _, err := o.models.Lookup(hint)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, o.modelTimeout)
	defer cancel()
	callCtx, span := o.tracer.Start(callCtx, "model.generate", trace.WithAttributes(attribute.String("model.hint", hint)))
	defer span.End()

	result, err := adapter.Generate(callCtx, req)
	if err == nil && result == nil {
		err = domain.NewUpstreamError(hint, domain.UpstreamMalformed, errors.New("empty response"))
	}
	if err != nil {
		var upErr *domain.UpstreamError
		if !errors.As(err, &upErr) && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = domain.NewUpstreamError(hint, domain.UpstreamNetwork, fmt.Errorf("model call timed out after %s: %w", o.modelTimeout, err))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domain.UpstreamCategoryOf(err)))
		return nil, err
	}
	span.SetAttributes(attribute.Int("model.images", len(result.Images)))
	return result, nil
}

func (o *Orchestrator) advance(ctx context.Context, span trace.Span, job *domain.Job, stage progress.Stage) {
	entry, ok := o.progress.Advance(job.ID, stage)
	span.AddEvent(string(stage))
	if !ok {
		return
	}
	o.publish(ctx, events.Event{Type: events.JobStage, JobID: job.ID, OwnerID: job.OwnerID, Stage: string(stage), Percent: entry.Percent})
}

// fail records the failure durably on a fresh context; the run's own context may already be expired.
func (o *Orchestrator) fail(job *domain.Job, cause error) {
	msg := FailureMessage(cause)
	ctx, cancel := context.WithTimeout(context.Background(), failWriteTimeout)
	defer cancel()

	if err := o.jobs.Fail(ctx, job.ID, msg); err != nil {
		o.logger.Error().Err(err).Str("job_id", job.ID).Msg("pipeline: failed to record job failure")
	}
	o.progress.Fail(job.ID, msg)
	o.publish(ctx, events.Event{Type: events.JobFailed, JobID: job.ID, OwnerID: job.OwnerID, Status: string(domain.JobStatusFailed), Model: job.Model, Error: msg})
	o.logger.Warn().
		Err(cause).
		Str("job_id", job.ID).
		Str("category", string(domain.UpstreamCategoryOf(cause))).
		Msg("pipeline: job failed")
}

func (o *Orchestrator) publish(ctx context.Context, ev events.Event) {
	ev.At = o.now().UTC()
	if err := o.events.Publish(ctx, ev); err != nil {
		o.logger.Debug().Err(err).Str("type", string(ev.Type)).Str("job_id", ev.JobID).Msg("pipeline: event not published")
	}
}

// FailureMessage is the error text stored on a failed job.
func FailureMessage(err error) string {
	switch {
	case err == nil:
		return "unknown error"
	case errors.Is(err, domain.ErrNoImages):
		return domain.ErrNoImages.Error()
	}
	var upErr *domain.UpstreamError
	if errors.As(err, &upErr) {
		return upErr.Error()
	}
	return err.Error()
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domain.NewValidationError(fieldName(fe.Field()), fieldMessage(fe))
	}
	return domain.NewValidationError("", err.Error())
}

func fieldName(f string) string {
	switch f {
	case "SourceImageID":
		return "sourceImageRef"
	case "SceneID":
		return "sceneId"
	case "UserPrompt":
		return "userPrompt"
	case "OwnerID":
		return "owner"
	}
	return f
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid":
		return "must be a valid id"
	case "gt":
		return "must be positive"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return "is invalid"
}
