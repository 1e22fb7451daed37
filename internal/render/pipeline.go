package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"factiliza-proxy-go/internal/metrics"
)

// Pipeline turns template data into a PNG: load template, execute, rasterize.
type Pipeline struct {
	templates  *TemplateStore
	rasterizer Rasterizer
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewPipeline creates a Pipeline. The metrics parameter is optional; pass nil
// to disable render metrics recording.
func NewPipeline(ts *TemplateStore, r Rasterizer, logger *slog.Logger, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		templates:  ts,
		rasterizer: r,
		logger:     logger.With("component", "render_pipeline"),
		metrics:    m,
	}
}

// RenderHTML loads the named template and executes it against data.
func (p *Pipeline) RenderHTML(name string, data map[string]any) (string, error) {
	start := time.Now()

	tmpl, err := p.templates.Load(name)
	if err != nil {
		p.fail(metrics.StageTemplate)
		return "", fmt.Errorf("load template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		p.fail(metrics.StageTemplate)
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}

	p.observe(metrics.StageTemplate, start)
	return buf.String(), nil
}

// RenderPNG renders the named template and rasterizes the HTML.
func (p *Pipeline) RenderPNG(ctx context.Context, name string, data map[string]any) ([]byte, error) {
	html, err := p.RenderHTML(name, data)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	img, err := p.rasterizer.Rasterize(ctx, html)
	if err != nil {
		p.fail(metrics.StageRasterize)
		return nil, fmt.Errorf("rasterize %s: %w", name, err)
	}
	p.observe(metrics.StageRasterize, start)

	p.logger.Debug("rendered image",
		"template", name,
		"html_bytes", len(html),
		"png_bytes", len(img),
	)
	return img, nil
}

func (p *Pipeline) observe(stage string, start time.Time) {
	if p.metrics != nil {
		p.metrics.RenderDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

func (p *Pipeline) fail(stage string) {
	if p.metrics != nil {
		p.metrics.RenderFailures.WithLabelValues(stage).Inc()
	}
}
