// Package order defines core types shared across the print pipeline.
package order

import "fmt"

// ManifestFile names one expected member of a render archive. The name is a
// bare filename, never a path; the archive may nest it arbitrarily deep.
type ManifestFile struct {
	Filename string `json:"filename"`
}

// RenderManifest is the per-project payload supplied by the render webhook:
// where the tar archive lives and which members it should contain.
type RenderManifest struct {
	URL   string         `json:"url"`
	Files []ManifestFile `json:"files"`
}

// Project is one print project within an order. Each project independently
// produces one deliverable PDF.
type Project struct {
	Render RenderManifest `json:"render"`
}

// Order groups the projects announced by one render-complete webhook.
type Order struct {
	ID       string    `json:"order_id"`
	Projects []Project `json:"projects"`
}

// LocatedAssets holds the resolved on-disk paths of a project's cover and
// pages PDFs. Either path may be empty, but never both.
type LocatedAssets struct {
	CoverPath string
	PagesPath string
}

// ProjectOutcome records the result of one project: a persisted path and
// page count on success, or the typed error that stopped the pipeline.
type ProjectOutcome struct {
	Index     int    `json:"index"`
	Path      string `json:"path,omitempty"`
	PageCount int    `json:"page_count,omitempty"`
	Err       error  `json:"-"`
}

// Succeeded reports whether the project produced a deliverable.
func (o ProjectOutcome) Succeeded() bool {
	return o.Err == nil
}

// Status is the derived state of a whole batch.
type Status string

// Batch status values.
const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailure Status = "failure"
)

// Result aggregates one outcome per input project.
type Result struct {
	OrderID  string
	Outcomes []ProjectOutcome
}

// Status derives the batch status: success iff every project succeeded,
// failure iff every project failed (or there were none), partial otherwise.
func (r Result) Status() Status {
	if len(r.Outcomes) == 0 {
		return StatusFailure
	}
	succeeded := 0
	for _, o := range r.Outcomes {
		if o.Succeeded() {
			succeeded++
		}
	}
	switch succeeded {
	case len(r.Outcomes):
		return StatusSuccess
	case 0:
		return StatusFailure
	default:
		return StatusPartial
	}
}

// Ref returns the order identifier carried by downstream collaborators for
// the given 1-based project index. It mirrors the persisted-filename rule so
// idempotency keys line up with files: the first project uses the bare order
// ID, later projects append the index.
func Ref(orderID string, index int) string {
	if index <= 1 {
		return orderID
	}
	return fmt.Sprintf("%s-%d", orderID, index)
}

// Notice is handed to the delivery collaborator once a project's deliverable
// is persisted.
type Notice struct {
	OrderRef  string `json:"order_ref"`
	FilePath  string `json:"file_path"`
	PageCount int    `json:"page_count"`
	QRPNG     []byte `json:"qr_png,omitempty"`
}

// Entry is appended to the running-total ledger per delivered project.
type Entry struct {
	OrderRef string
	Value    float64
}
