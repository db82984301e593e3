package order

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrKind(t *testing.T) {
	t.Parallel()

	err := E(KindDownload, "fetch archive", errors.New("connection refused"))
	kind, ok := ErrKind(err)
	if !ok || kind != KindDownload {
		t.Fatalf("ErrKind() = %q, %v; want %q, true", kind, ok, KindDownload)
	}

	wrapped := fmt.Errorf("project 2: %w", err)
	if !IsKind(wrapped, KindDownload) {
		t.Fatal("expected kind to survive wrapping")
	}
	if IsKind(wrapped, KindMerge) {
		t.Fatal("did not expect a merge kind")
	}

	if _, ok := ErrKind(errors.New("plain")); ok {
		t.Fatal("plain errors must not report a kind")
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	err := E(KindNotFound, "resolve assets", errors.New("no match"))
	want := "not_found: resolve assets: no match"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}

	if !errors.Is(err, err.Err) {
		t.Fatal("expected Unwrap to expose the cause")
	}
}
