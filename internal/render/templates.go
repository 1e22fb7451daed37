// Package render fills HTML templates with upstream records and rasterizes
// the result to PNG.
package render

import (
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/sprig"

	"factiliza-proxy-go/internal/config"
)

// templateExt is appended to a template name to find its file.
const templateExt = ".tmpl"

// ErrInvalidTemplateName is returned for names that could escape the template directory.
var ErrInvalidTemplateName = errors.New("invalid template name")

// TemplateStore loads templates from a directory. Nothing is cached: every
// Load reads and compiles the file again, so edits apply to the next request.
type TemplateStore struct {
	dir string
}

// NewTemplateStore creates a TemplateStore rooted at render.templates_dir.
func NewTemplateStore(cfg *config.Config) *TemplateStore {
	return &TemplateStore{dir: cfg.Render.TemplatesDir}
}

// Load reads and compiles the named template.
func (s *TemplateStore) Load(name string) (*template.Template, error) {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTemplateName, name)
	}

	path := filepath.Join(s.dir, name+templateExt)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}

	tmpl, err := template.New(name).Funcs(sprig.HtmlFuncMap()).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("compile template %s: %w", path, err)
	}
	return tmpl, nil
}
