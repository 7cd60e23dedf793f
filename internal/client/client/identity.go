package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/cookiecutter/internal/netx"
)

// IdentityClient implements Identity over JSON HTTP.
type IdentityClient struct {
	baseURL string
	hc      *http.Client
}

func NewIdentityClient(baseURL string, opts Options) *IdentityClient {
	return &IdentityClient{baseURL: baseURL, hc: opts.httpClient()}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (c *IdentityClient) Exchange(ctx context.Context, externalToken string) (string, error) {
	var out tokenResponse
	in := map[string]string{"access_token": externalToken}
	if err := c.do(ctx, "auth/exchange", "", in, &out); err != nil {
		return "", fmt.Errorf("exchange: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("exchange: %w", &APIError{Status: http.StatusOK, Detail: "no access token in response"})
	}
	return out.AccessToken, nil
}

func (c *IdentityClient) Login(ctx context.Context, email, password string) (string, error) {
	var out tokenResponse
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, "login", "", in, &out); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("login: %w", &APIError{Status: http.StatusOK, Detail: "no access token in response"})
	}
	return out.AccessToken, nil
}

func (c *IdentityClient) RequestPasswordReset(ctx context.Context, email, redirectURL string) error {
	in := map[string]string{"email": email, "redirect_url": redirectURL}
	if err := c.do(ctx, "password/request-reset", "", in, nil); err != nil {
		return fmt.Errorf("request password reset: %w", err)
	}
	return nil
}

func (c *IdentityClient) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	var out messageResponse
	in := map[string]string{"new_password": newPassword}
	if err := c.do(ctx, "password/reset", token, in, &out); err != nil {
		return "", fmt.Errorf("reset password: %w", err)
	}
	return out.Message, nil
}

func (c *IdentityClient) do(ctx context.Context, path, bearer string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, netx.JoinURL(c.baseURL, path), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return transportError(ctx, err)
	}
	defer netx.DrainClose(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Detail: netx.Detail(resp)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
