// Package client talks to the localsocial api. Besides typed calls for every
// route it holds the view models the app binds to: optimistic like and follow
// cards, the notification center and chat rooms.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Luismorlan/localsocial/server/middlewares"
	"github.com/pkg/errors"
	"resty.dev/v3"
)

const DefaultTimeout = 10 * time.Second

type Config struct {
	BaseURL string
	// Token is sent as a bearer token.
	Token string
	// Subject is sent as the "sub" header, for servers running without
	// authentication.
	Subject string
	Timeout time.Duration
}

type Client struct {
	client *resty.Client
	config Config
}

// APIError is a non 2xx response of the api.
type APIError struct {
	Status int    `json:"-"`
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (code %d): %s", e.Status, e.Code, e.Msg)
}

// IsStatus reports whether err is an api error with the given http status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func New(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	client := resty.New().
		SetBaseURL(config.BaseURL).
		SetTimeout(config.Timeout).
		SetHeader("Accept", "application/json")
	if config.Token != "" {
		client.SetAuthToken(config.Token)
	}
	if config.Subject != "" {
		client.SetHeader(middlewares.SubKey, config.Subject)
	}
	return &Client{client: client, config: config}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) r(ctx context.Context) *resty.Request {
	return c.client.R().WithContext(ctx).SetError(&APIError{})
}

// do sends the request and turns transport failures and error responses into
// errors.
func do(method, path string, req *resty.Request) error {
	var (
		res *resty.Response
		err error
	)
	switch method {
	case http.MethodGet:
		res, err = req.Get(path)
	case http.MethodPost:
		res, err = req.Post(path)
	case http.MethodPut:
		res, err = req.Put(path)
	case http.MethodDelete:
		res, err = req.Delete(path)
	default:
		return errors.Errorf("unsupported method %s", method)
	}
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if res.IsError() {
		apiErr, ok := res.Error().(*APIError)
		if !ok || apiErr == nil {
			apiErr = &APIError{Msg: res.String()}
		}
		apiErr.Status = res.StatusCode()
		return errors.WithStack(apiErr)
	}
	return nil
}
