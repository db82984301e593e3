// Package assets classifies and resolves the cover and pages PDFs inside an
// extracted render archive.
package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/printforge/bindery/internal/order"
)

// Role patterns are matched case-insensitively against manifest filenames.
// The more specific underscore form is listed first; the bare form also
// matches names like "my-cover.pdf" via containment.
var (
	coverPatterns = []string{"_cover.pdf", "cover.pdf"}
	pagesPatterns = []string{"_pages.pdf", "pages.pdf"}
)

// Locator finds physical asset files from manifest filenames.
type Locator struct{}

// New constructs a Locator.
func New() *Locator {
	return &Locator{}
}

// Locate runs the two-phase lookup. Phase one scans the manifest list per
// role; the first entry matching a role's patterns wins that role, and the
// cover and pages scans are independent. Phase two resolves each classified
// filename to a physical path: dest/filename directly, else a depth-first
// search of the tree for an exact basename match. At least one resolved
// asset is success; both roles unclassified or both unresolved is a
// not-found failure.
func (l *Locator) Locate(dest string, files []order.ManifestFile) (order.LocatedAssets, error) {
	coverName := classify(files, coverPatterns)
	pagesName := classify(files, pagesPatterns)
	if coverName == "" && pagesName == "" {
		return order.LocatedAssets{}, order.E(order.KindNotFound, "classify manifest",
			fmt.Errorf("no cover or pages entry among %d manifest files", len(files)))
	}

	located := order.LocatedAssets{
		CoverPath: resolve(dest, coverName),
		PagesPath: resolve(dest, pagesName),
	}
	if located.CoverPath == "" && located.PagesPath == "" {
		return order.LocatedAssets{}, order.E(order.KindNotFound, "resolve assets",
			fmt.Errorf("neither %q nor %q found under %s", coverName, pagesName, dest))
	}
	return located, nil
}

// classify returns the first manifest filename matching any of the given
// patterns, or "". Selection is first-match in manifest order; a manifest
// listing several cover-like names yields the earliest one.
func classify(files []order.ManifestFile, patterns []string) string {
	for _, f := range files {
		name := strings.ToLower(f.Filename)
		for _, p := range patterns {
			if strings.HasSuffix(name, p) || strings.Contains(name, p) {
				return f.Filename
			}
		}
	}
	return ""
}

// resolve locates name under dest: the direct child first, then a recursive
// walk stopping at the first file whose basename matches exactly
// (case-sensitive). Symlinked directories are not followed.
func resolve(dest, name string) string {
	if name == "" {
		return ""
	}

	direct := filepath.Join(dest, name)
	if info, err := os.Stat(direct); err == nil && !info.IsDir() {
		return direct
	}

	var found string
	_ = filepath.WalkDir(dest, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtrees are skipped, not fatal
		}
		if !d.IsDir() && d.Name() == name {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	return found
}
