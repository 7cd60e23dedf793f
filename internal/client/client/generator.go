package client

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/cookiecutter/internal/client/models"
	"github.com/dmitrijs2005/cookiecutter/internal/client/recipe"
	"github.com/dmitrijs2005/cookiecutter/internal/netx"
	"golang.org/x/time/rate"
)

const maxArtifactSize = 256 << 20

// GeneratorClient calls POST {base}/generate.
type GeneratorClient struct {
	endpoint   string
	hc         *http.Client
	limiter    *rate.Limiter
	credential func() string
}

func NewGeneratorClient(baseURL string, opts Options) *GeneratorClient {
	c := &GeneratorClient{
		endpoint:   netx.JoinURL(baseURL, "generate"),
		hc:         opts.httpClient(),
		credential: opts.Credential,
	}
	if opts.Rate > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(opts.Rate, burst)
	}
	return c
}

func (c *GeneratorClient) Generate(ctx context.Context, req recipe.Request, image models.Blob) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("generate: %w", err)
		}
	}

	body, ct, err := recipe.Encode(req, image)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", ct)
	httpReq.Header.Set("Accept", "model/stl, application/octet-stream, application/json")
	if c.credential != nil {
		if tok := c.credential(); tok != "" {
			httpReq.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer netx.DrainClose(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Detail: netx.Detail(resp)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactSize))
	if err != nil {
		return nil, transportError(ctx, err)
	}
	if len(data) == 0 {
		return nil, &APIError{Status: resp.StatusCode, Detail: "empty model returned"}
	}
	return data, nil
}

// transportError keeps cancellation visible and maps everything else to
// ErrUnavailable.
func transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
