package order

import (
	"context"
	"time"
)

// ArchiveFetcher retrieves the full archive body for a render URL. A single
// attempt; retry policy belongs to the caller.
type ArchiveFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ArchiveExtractor unpacks an archive buffer into a destination directory,
// creating it if absent. The resulting tree may be arbitrarily nested.
type ArchiveExtractor interface {
	Extract(ctx context.Context, archive []byte, dest string) error
}

// AssetLocator finds the cover and pages PDFs inside an extracted tree using
// the manifest-provided filenames.
type AssetLocator interface {
	Locate(dest string, files []ManifestFile) (LocatedAssets, error)
}

// DocumentMerger combines cover and pages bytes into one PDF, or passes the
// single available input through untouched.
type DocumentMerger interface {
	Merge(cover, pages []byte) ([]byte, error)
	PageCount(doc []byte) (int, error)
}

// DocumentPersister writes merged bytes to durable storage under the
// deterministic per-order filename and returns the full path.
type DocumentPersister interface {
	Persist(ctx context.Context, data []byte, orderID string, index int) (string, error)
}

// Workspaces creates uniquely named ephemeral directories and removes them.
// Remove is best-effort and must never surface an error to the pipeline.
type Workspaces interface {
	Create(ref string) (string, error)
	Remove(path string)
}

// Deliverer hands a persisted deliverable to the downstream transport.
type Deliverer interface {
	Deliver(ctx context.Context, notice Notice) error
}

// Ledger appends to the running-total ledger. Appending a duplicate order
// ref is a no-op, not an error.
type Ledger interface {
	Append(ctx context.Context, entry Entry) error
}

// QRGenerator renders the reorder QR asset for an order ref.
type QRGenerator interface {
	Generate(ref string) ([]byte, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
