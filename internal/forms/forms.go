// Package forms lists the form template sets. Each set lives in a directory
// named after its form number.
package forms

import (
	"fmt"
	"io/fs"
	"sort"
	"strconv"

	"github.com/formicula/backend/internal/i18n"
)

// Form is one template set.
type Form struct {
	Number    int
	Templates int
}

// Label is the choice text shown in the settings form.
func (f Form) Label(tr i18n.Translator) string {
	return tr.T("Form #%d containing %d templates", f.Number, f.Templates)
}

// Catalog reads template sets from a filesystem rooted at the forms directory.
type Catalog struct {
	fsys fs.FS
}

// NewCatalog returns a Catalog over fsys.
func NewCatalog(fsys fs.FS) *Catalog {
	return &Catalog{fsys: fsys}
}

// Forms returns the template sets ordered by directory name. Entries whose
// name is not a number are ignored.
func (c *Catalog) Forms() ([]Form, error) {
	entries, err := fs.ReadDir(c.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("forms: read dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var out []Form
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, err := strconv.Atoi(e.Name())
		if err != nil || n < 0 {
			continue
		}
		count, err := countFiles(c.fsys, e.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, Form{Number: n, Templates: count})
	}
	return out, nil
}

// Has reports whether the template set for form exists.
func (c *Catalog) Has(form int) bool {
	info, err := fs.Stat(c.fsys, strconv.Itoa(form))
	return err == nil && info.IsDir()
}

// FS returns the template set of form.
func (c *Catalog) FS(form int) (fs.FS, error) {
	if !c.Has(form) {
		return nil, fmt.Errorf("forms: form %d: %w", form, fs.ErrNotExist)
	}
	return fs.Sub(c.fsys, strconv.Itoa(form))
}

// Resolve returns form when its template set exists, else fallback.
func (c *Catalog) Resolve(form, fallback int) int {
	if form >= 0 && c.Has(form) {
		return form
	}
	return fallback
}

func countFiles(fsys fs.FS, dir string) (int, error) {
	n := 0
	err := fs.WalkDir(fsys, dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("forms: count %s: %w", dir, err)
	}
	return n, nil
}
