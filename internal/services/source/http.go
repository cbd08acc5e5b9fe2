package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Egham-7/cloudlines/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/valyala/fasthttp"
)

// HTTPSource fetches a still image from a URL, e.g. an IP camera snapshot endpoint
type HTTPSource struct {
	cfg    models.SourceConfig
	client *fasthttp.Client
}

func NewHTTPSource(cfg models.SourceConfig) *HTTPSource {
	return &HTTPSource{
		cfg: cfg,
		client: &fasthttp.Client{
			Name:                "cloudlines",
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			MaxIdleConnDuration: time.Minute,
		},
	}
}

func (h *HTTPSource) Name() string {
	return "http(" + h.cfg.URL + ")"
}

// Open probes the URL once and then waits for the warm-up delay
func (h *HTTPSource) Open(ctx context.Context) error {
	if _, err := h.Capture(ctx); err != nil {
		return fmt.Errorf("probe of %s failed: %w", h.cfg.URL, err)
	}
	fiberlog.Infof("HTTP source %s reachable, warming up for %v", h.cfg.URL, h.cfg.Warmup)
	return sleepContext(ctx, h.cfg.Warmup)
}

func (h *HTTPSource) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(h.cfg.URL)
	req.Header.SetMethod(fasthttp.MethodGet)
	for k, v := range h.cfg.Headers {
		req.Header.Set(k, v)
	}

	timeout := h.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}

	if err := h.client.DoTimeout(req, resp, timeout); err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			return nil, models.NewTimeoutError("capture "+h.cfg.URL, err)
		}
		return nil, models.NewSourceError(h.Name(), err)
	}

	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, models.NewSourceError(h.Name(), fmt.Errorf("unexpected status %d", code))
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, models.NewSourceError(h.Name(), errors.New("empty body"))
	}

	// resp is returned to the pool, so the body has to be copied out
	return append([]byte(nil), body...), nil
}

func (h *HTTPSource) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
