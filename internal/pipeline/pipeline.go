// Package pipeline coordinates one batch run: discover leads, drop known
// URLs, and push each fresh lead through the generation chain to a publish
// and an atomic persistence commit. A failing lead is marked and skipped;
// only a broken store aborts the batch.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"autopress/internal/config"
	"autopress/internal/dedup"
	"autopress/internal/discovery"
	"autopress/internal/imaging"
	"autopress/internal/logging"
	"autopress/internal/planner"
	"autopress/internal/publisher"
	"autopress/internal/research"
	"autopress/internal/rules"
	"autopress/internal/seo"
	"autopress/internal/services"
	"autopress/internal/store"
	"autopress/internal/writer"
)

// Outcome reports how one lead fared in a batch.
type Outcome struct {
	LeadID   int64
	URL      string
	Title    string
	Status   store.LeadStatus
	Platform string
	Location string
	Err      error
}

// Options tune a single run.
type Options struct {
	// Force bypasses URL deduplication; the slug upsert still keeps article
	// rows unique.
	Force bool
}

// Orchestrator wires the batch stages together.
type Orchestrator struct {
	cfg        *config.Config
	store      *store.Store
	discoverer *discovery.Discoverer
	dedup      *dedup.Deduplicator
	imaging    *imaging.Generator
	seo        *seo.Packager
	publisher  *publisher.Publisher
	logger     *slog.Logger
}

// New constructs an Orchestrator with explicit dependencies.
func New(
	cfg *config.Config,
	st *store.Store,
	discoverer *discovery.Discoverer,
	dd *dedup.Deduplicator,
	img *imaging.Generator,
	packager *seo.Packager,
	pub *publisher.Publisher,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		cfg:        cfg,
		store:      st,
		discoverer: discoverer,
		dedup:      dd,
		imaging:    img,
		seo:        packager,
		publisher:  pub,
		logger:     logger.With(logging.String(logging.FieldComponent, "pipeline")),
	}
}

// RunOnce executes one batch. It returns an error only for batch-level
// failures (discovery with nothing usable, store connectivity); per-lead
// generation failures appear in the outcomes and the batch carries on.
func (o *Orchestrator) RunOnce(ctx context.Context, opts Options) ([]Outcome, error) {
	o.logger.Info("starting batch")

	candidates, err := o.discoverer.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover leads: %w", err)
	}

	if !opts.Force {
		candidates, err = o.dedup.FilterNew(ctx, candidates)
		if err != nil {
			return nil, fmt.Errorf("filter leads: %w", err)
		}
	}

	resumable, err := o.store.ListResumable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list resumable leads: %w", err)
	}

	outcomes := make([]Outcome, 0, len(candidates)+len(resumable))
	for _, candidate := range candidates {
		outcome := o.processLead(ctx, candidate)
		outcomes = append(outcomes, outcome)
		if services.IsStoreFailure(outcome.Err) {
			return outcomes, fmt.Errorf("batch aborted: %w", outcome.Err)
		}
	}
	for _, lead := range resumable {
		o.logger.Info("resuming interrupted lead",
			logging.Int64("lead_id", lead.ID),
			logging.String("status", string(lead.Status)))
		outcome := o.processLead(ctx, lead)
		outcomes = append(outcomes, outcome)
		if services.IsStoreFailure(outcome.Err) {
			return outcomes, fmt.Errorf("batch aborted: %w", outcome.Err)
		}
	}

	o.logger.Info("batch complete", logging.Int("leads", len(outcomes)))
	return outcomes, nil
}

// processLead runs the full stage chain for one lead. Generators are pure and
// persistence upserts by natural key, so rerunning an interrupted lead from
// the top is safe.
func (o *Orchestrator) processLead(ctx context.Context, candidate *store.Lead) Outcome {
	correlationID := uuid.NewString()
	ctx = services.WithRequestID(ctx, correlationID)

	lead, err := o.store.EnsureLead(ctx, candidate)
	if err != nil {
		return Outcome{
			URL:    candidate.URL,
			Title:  candidate.Title,
			Status: store.StatusFailed,
			Err:    services.Wrap(services.ErrStore, "identify", "ensure lead", "could not bind lead row", err),
		}
	}

	ctx = services.WithLeadID(ctx, lead.ID)
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("processing lead", logging.String("title", lead.Title))

	outcome, err := o.runStages(ctx, lead)
	if err != nil {
		logger.Error("lead failed", logging.Error(err))
		if markErr := o.store.MarkLeadFailed(ctx, lead.ID, err.Error()); markErr != nil {
			logger.Error("could not mark lead failed", logging.Error(markErr))
		}
		return Outcome{
			LeadID: lead.ID,
			URL:    lead.URL,
			Title:  lead.Title,
			Status: store.StatusFailed,
			Err:    err,
		}
	}

	logger.Info("lead persisted",
		logging.String("platform", outcome.Publish.Platform),
		logging.String("location", outcome.Publish.URL))
	return Outcome{
		LeadID:   lead.ID,
		URL:      lead.URL,
		Title:    lead.Title,
		Status:   store.StatusPersisted,
		Platform: outcome.Publish.Platform,
		Location: outcome.Publish.URL,
	}
}

func (o *Orchestrator) runStages(ctx context.Context, lead *store.Lead) (*store.Outcome, error) {
	ctx = services.WithStage(ctx, "research")
	pack := research.Gather(lead)
	if len(pack.Items) == 0 {
		return nil, services.Wrap(services.ErrValidation, "research", "gather evidence", "no usable evidence", nil)
	}
	if err := o.advance(ctx, lead, store.StatusEvidenceGathered); err != nil {
		return nil, err
	}

	ctx = services.WithStage(ctx, "plan")
	plan := planner.Build(lead, pack)
	if err := o.advance(ctx, lead, store.StatusPlanned); err != nil {
		return nil, err
	}

	ctx = services.WithStage(ctx, "write")
	article := writer.Compose(lead, plan, pack)
	if err := o.advance(ctx, lead, store.StatusWritten); err != nil {
		return nil, err
	}

	ctx = services.WithStage(ctx, "rules")
	article = rules.Apply(article, plan)
	if err := o.advance(ctx, lead, store.StatusRuled); err != nil {
		return nil, err
	}

	ctx = services.WithStage(ctx, "imaging")
	cover, err := o.imaging.GenerateCover(lead, plan)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "imaging", "generate cover", "cover generation failed", err)
	}
	if err := o.advance(ctx, lead, store.StatusImaged); err != nil {
		return nil, err
	}

	ctx = services.WithStage(ctx, "seo")
	pkg, err := o.seo.Build(article, cover, lead)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "seo", "build package", "seo packaging failed", err)
	}
	if err := o.advance(ctx, lead, store.StatusSEOPackaged); err != nil {
		return nil, err
	}

	ctx = services.WithStage(ctx, "publish")
	result, err := o.publisher.Publish(ctx, article, cover, pkg, lead)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "publish", "publish article", "both publish branches failed", err)
	}
	publishedStatus := store.StatusDrafted
	if result.Status == store.PublishStatusPublished {
		publishedStatus = store.StatusPublished
	}
	if err := o.advance(ctx, lead, publishedStatus); err != nil {
		return nil, err
	}

	ctx = services.WithStage(ctx, "persist")
	outcome := &store.Outcome{
		Lead:     lead,
		Evidence: pack.Items,
		Article:  article,
		Cover:    cover,
		Publish: &store.Publish{
			Platform: result.Platform,
			RemoteID: result.RemoteID,
			URL:      result.URL,
			Status:   result.Status,
			Meta:     result.Meta,
		},
	}
	if err := o.store.SaveOutcome(ctx, outcome); err != nil {
		return nil, services.Wrap(services.ErrStore, "persist", "save outcome", "persistence transaction failed", err)
	}
	return outcome, nil
}

func (o *Orchestrator) advance(ctx context.Context, lead *store.Lead, status store.LeadStatus) error {
	if err := o.store.UpdateLeadStatus(ctx, lead.ID, status); err != nil {
		return services.Wrap(services.ErrStore, string(status), "update status", "could not advance lead", err)
	}
	lead.Status = status
	logging.WithContext(ctx, o.logger).Debug("stage complete", logging.String("status", string(status)))
	return nil
}
