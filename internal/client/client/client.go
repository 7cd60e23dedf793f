package client

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/cookiecutter/internal/client/models"
	"github.com/dmitrijs2005/cookiecutter/internal/client/recipe"
	"golang.org/x/time/rate"
)

// Generator turns an image and options into STL bytes.
type Generator interface {
	Generate(ctx context.Context, req recipe.Request, image models.Blob) ([]byte, error)
}

// Identity talks to the account service. Every successful sign-in returns
// the credential to store.
type Identity interface {
	Exchange(ctx context.Context, externalToken string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	RequestPasswordReset(ctx context.Context, email, redirectURL string) error
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
}

// Options tune the HTTP clients. Zero values select defaults.
type Options struct {
	HTTPClient *http.Client
	// Timeout bounds one request; the generator is slow, so keep it generous.
	Timeout time.Duration
	// Rate limits generator calls per second; 0 disables limiting.
	Rate  rate.Limit
	Burst int
	// Credential, when set, supplies a bearer token for generator calls.
	Credential func() string
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &http.Client{Timeout: timeout}
}
