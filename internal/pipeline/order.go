package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/printforge/bindery/internal/order"
	"github.com/printforge/bindery/internal/telemetry"
)

// Batch runs the project pipeline over every project in an order, isolating
// failures: one bad archive or malformed manifest never aborts the rest.
type Batch struct {
	project      *Project
	deliverer    order.Deliverer
	ledger       order.Ledger
	qr           order.QRGenerator
	pricePerPage float64
	logger       *zap.Logger
}

// NewBatch constructs a Batch. deliverer and ledger are required; qr may be
// nil when no reorder asset is configured.
func NewBatch(
	project *Project,
	deliverer order.Deliverer,
	ledger order.Ledger,
	qr order.QRGenerator,
	pricePerPage float64,
	logger *zap.Logger,
) *Batch {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Batch{
		project:      project,
		deliverer:    deliverer,
		ledger:       ledger,
		qr:           qr,
		pricePerPage: pricePerPage,
		logger:       logger,
	}
}

// Run processes every project of the order in declared sequence and returns
// one outcome per project. Each outcome is captured independently; errors
// never propagate across iterations. Delivery and ledger notification for a
// project happen only after its deliverable is persisted, and their failures
// are logged without demoting the project's outcome.
func (b *Batch) Run(ctx context.Context, ord order.Order) order.Result {
	result := order.Result{
		OrderID:  ord.ID,
		Outcomes: make([]order.ProjectOutcome, 0, len(ord.Projects)),
	}

	for i, proj := range ord.Projects {
		index := i + 1
		outcome := order.ProjectOutcome{Index: index}

		if len(proj.Render.Files) == 0 {
			outcome.Err = order.E(order.KindNotFound, "validate manifest",
				fmt.Errorf("project %d has an empty manifest file list", index))
		} else {
			out, err := b.project.Run(ctx, ProjectInput{
				OrderID:  ord.ID,
				Index:    index,
				Manifest: proj.Render,
			})
			if err != nil {
				outcome.Err = err
			} else {
				outcome.Path = out.Path
				outcome.PageCount = out.PageCount
				b.notify(ctx, ord.ID, index, out)
			}
		}

		if outcome.Succeeded() {
			telemetry.ObserveProject("success")
		} else {
			telemetry.ObserveProject("failure")
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	status := result.Status()
	telemetry.ObserveOrder(string(status))
	b.logger.Info("order processed",
		zap.String("order_id", ord.ID),
		zap.Int("projects", len(ord.Projects)),
		zap.String("status", string(status)),
	)
	return result
}

// notify sends the delivery notice and ledger entry for a persisted project.
// The reorder QR asset rides only on the first project's notice, resolved by
// declared index rather than completion order.
func (b *Batch) notify(ctx context.Context, orderID string, index int, out ProjectOutput) {
	ref := order.Ref(orderID, index)
	log := b.logger.With(zap.String("order_ref", ref))

	var qrPNG []byte
	if index == 1 && b.qr != nil {
		png, err := b.qr.Generate(ref)
		if err != nil {
			log.Error("qr generation failed", zap.Error(err))
		} else {
			qrPNG = png
		}
	}

	if err := b.deliverer.Deliver(ctx, order.Notice{
		OrderRef:  ref,
		FilePath:  out.Path,
		PageCount: out.PageCount,
		QRPNG:     qrPNG,
	}); err != nil {
		log.Error("delivery failed", zap.Error(err))
	}

	if err := b.ledger.Append(ctx, order.Entry{
		OrderRef: ref,
		Value:    float64(out.PageCount) * b.pricePerPage,
	}); err != nil {
		log.Error("ledger append failed", zap.Error(err))
	}
}
