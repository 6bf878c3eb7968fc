// Package client talks to a running "pkresolve serve".
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	base_client "github.com/SENERGY-Platform/go-base-http-client"

	"go-pkresolve/api"
	"go-pkresolve/pkg"
	"go-pkresolve/service"
)

type Client struct {
	baseClient *base_client.Client
	baseUrl    string
}

func New(httpClient base_client.HTTPClient, baseUrl string) *Client {
	return &Client{
		baseClient: base_client.New(httpClient, customError, api.HeaderRequestID),
		baseUrl:    baseUrl,
	}
}

func customError(code int, err error) error {
	switch code {
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %v", pkg.ErrStoreUnavailable, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %v", pkg.ErrPackageNotFound, err)
	}
	return err
}

// Health reports whether the server can read its database.
func (c *Client) Health(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, api.HealthCheckPath, nil)
	if err != nil {
		return err
	}
	return c.baseClient.ExecRequestVoid(req)
}

// GetStatus fetches database counts and the server's query statistics.
func (c *Client) GetStatus(ctx context.Context) (service.StatusResult, error) {
	req, err := c.newRequest(ctx, http.MethodGet, api.StatusPath, nil)
	if err != nil {
		return service.StatusResult{}, err
	}
	var st service.StatusResult
	if err := c.baseClient.ExecRequestJSON(req, &st); err != nil {
		return service.StatusResult{}, err
	}
	return st, nil
}

// GetPackages runs get-packages on the server.
func (c *Client) GetPackages(ctx context.Context, filters string) (*service.Result, error) {
	return c.query(ctx, api.PackagesPath, url.Values{"filter": {filters}})
}

// Resolve runs resolve on the server.
func (c *Client) Resolve(ctx context.Context, filters string, names []string) (*service.Result, error) {
	return c.query(ctx, api.ResolvePath, url.Values{"filter": {filters}, "name": names})
}

func (c *Client) query(ctx context.Context, path string, params url.Values) (*service.Result, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, params)
	if err != nil {
		return nil, err
	}
	res := service.NewResult()
	if err := c.baseClient.ExecRequestJSON(req, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, params url.Values) (*http.Request, error) {
	u, err := url.JoinPath(c.baseUrl, path)
	if err != nil {
		return nil, err
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return http.NewRequestWithContext(ctx, method, u, nil)
}
