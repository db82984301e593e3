// Package pipeline orchestrates the per-project asset pipeline and the
// per-order batch around it.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/printforge/bindery/internal/order"
	"github.com/printforge/bindery/internal/telemetry"
)

// Stage names the states of a project run.
type Stage string

// Project pipeline states. Any state may transition to StageFailed.
const (
	StagePending    Stage = "pending"
	StageFetching   Stage = "fetching"
	StageExtracting Stage = "extracting"
	StageLocating   Stage = "locating"
	StageMerging    Stage = "merging"
	StagePersisting Stage = "persisting"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// ProjectInput identifies one project run.
type ProjectInput struct {
	OrderID  string
	Index    int // 1-based position within the order
	Manifest order.RenderManifest
}

// ProjectOutput is produced on StageDone.
type ProjectOutput struct {
	Path      string
	PageCount int // pages document only, cover excluded
}

// Project runs fetch, extract, locate, merge and persist for one project,
// guaranteeing workspace cleanup on every exit path.
type Project struct {
	fetcher    order.ArchiveFetcher
	extractor  order.ArchiveExtractor
	locator    order.AssetLocator
	merger     order.DocumentMerger
	persister  order.DocumentPersister
	workspaces order.Workspaces
	logger     *zap.Logger
}

// NewProject constructs a Project pipeline from its collaborators.
func NewProject(
	fetcher order.ArchiveFetcher,
	extractor order.ArchiveExtractor,
	locator order.AssetLocator,
	merger order.DocumentMerger,
	persister order.DocumentPersister,
	workspaces order.Workspaces,
	logger *zap.Logger,
) *Project {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Project{
		fetcher:    fetcher,
		extractor:  extractor,
		locator:    locator,
		merger:     merger,
		persister:  persister,
		workspaces: workspaces,
		logger:     logger,
	}
}

// Run executes the pipeline for one project. The workspace created on
// leaving StagePending is removed before Run returns, success or failure.
// There are no internal retries.
func (p *Project) Run(ctx context.Context, in ProjectInput) (ProjectOutput, error) {
	log := p.logger.With(
		zap.String("order_id", in.OrderID),
		zap.Int("project_index", in.Index),
	)
	run := stageRun{log: log, stage: StagePending}

	ws, err := p.workspaces.Create(order.Ref(in.OrderID, in.Index))
	if err != nil {
		return ProjectOutput{}, run.fail(order.E(order.KindExtraction, "create workspace", err))
	}
	defer p.workspaces.Remove(ws)

	run.advance(StageFetching)
	data, err := p.fetcher.Fetch(ctx, in.Manifest.URL)
	if err != nil {
		return ProjectOutput{}, run.fail(err)
	}
	telemetry.ObserveArchiveBytes(len(data))

	run.advance(StageExtracting)
	if err := p.extractor.Extract(ctx, data, ws); err != nil {
		return ProjectOutput{}, run.fail(err)
	}

	run.advance(StageLocating)
	assets, err := p.locator.Locate(ws, in.Manifest.Files)
	if err != nil {
		return ProjectOutput{}, run.fail(err)
	}

	run.advance(StageMerging)
	cover, err := readAsset(assets.CoverPath)
	if err != nil {
		return ProjectOutput{}, run.fail(err)
	}
	pages, err := readAsset(assets.PagesPath)
	if err != nil {
		return ProjectOutput{}, run.fail(err)
	}
	merged, err := p.merger.Merge(cover, pages)
	if err != nil {
		return ProjectOutput{}, run.fail(err)
	}
	pageCount := 0
	if len(pages) > 0 {
		pageCount, err = p.merger.PageCount(pages)
		if err != nil {
			return ProjectOutput{}, run.fail(err)
		}
	}

	run.advance(StagePersisting)
	path, err := p.persister.Persist(ctx, merged, in.OrderID, in.Index)
	if err != nil {
		return ProjectOutput{}, run.fail(err)
	}

	run.advance(StageDone)
	log.Info("project deliverable ready",
		zap.String("path", path),
		zap.Int("page_count", pageCount),
	)
	return ProjectOutput{Path: path, PageCount: pageCount}, nil
}

// readAsset loads a located asset; an empty path yields nil bytes.
func readAsset(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, order.E(order.KindNotFound, "read located asset", fmt.Errorf("read %s: %w", path, err))
	}
	return data, nil
}

// stageRun tracks state transitions and per-stage timing.
type stageRun struct {
	log     *zap.Logger
	stage   Stage
	started time.Time
}

func (r *stageRun) advance(next Stage) {
	r.finish()
	r.stage = next
	r.started = time.Now()
	r.log.Debug("pipeline stage", zap.String("stage", string(next)))
}

func (r *stageRun) fail(err error) error {
	r.finish()
	kind, _ := order.ErrKind(err)
	r.log.Warn("pipeline failed",
		zap.String("stage", string(r.stage)),
		zap.String("kind", string(kind)),
		zap.Error(err),
	)
	r.stage = StageFailed
	return err
}

func (r *stageRun) finish() {
	if r.started.IsZero() || r.stage == StagePending {
		return
	}
	telemetry.ObserveStage(string(r.stage), time.Since(r.started))
}
