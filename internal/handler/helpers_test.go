package handler

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"factiliza-proxy-go/internal/client"
	"factiliza-proxy-go/internal/config"
	"factiliza-proxy-go/internal/model"
	"factiliza-proxy-go/internal/service"
)

const testToken = "test-token"

// fakeRasterizer records the HTML it receives and returns a 1x1 PNG.
type fakeRasterizer struct {
	html string
	err  error
}

func (f *fakeRasterizer) Rasterize(_ context.Context, html string) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(baseURL, templatesDir string) *config.Config {
	return &config.Config{
		Leder: config.LederConfig{Token: testToken},
		Upstream: config.UpstreamConfig{
			BaseURL:         baseURL,
			TimeoutSeconds:  10,
			IdleConnections: 10,
		},
		Render: config.RenderConfig{TemplatesDir: templatesDir},
	}
}

// newTestRelayService creates a RelayService that accepts any upstream host (for httptest).
func newTestRelayService(t *testing.T, cfg *config.Config) *service.RelayService {
	t.Helper()
	logger := discardLogger()
	lc := client.NewLederClient(cfg, logger, nil)
	svc, err := service.NewRelayServiceForTest(lc, cfg, logger)
	if err != nil {
		t.Fatalf("NewRelayServiceForTest: %v", err)
	}
	return svc
}

func routeByPath(t *testing.T, path string) model.Route {
	t.Helper()
	for _, r := range model.AllRoutes() {
		if r.Path == path {
			return r
		}
	}
	t.Fatalf("route %q not in table", path)
	return model.Route{}
}
