package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/techagentng/ecodenuncia/errors"
	"github.com/techagentng/ecodenuncia/models"
	"github.com/techagentng/ecodenuncia/session"
)

const (
	msgTransport       = "Falha de comunicação com o servidor"
	msgInvalidResponse = "Resposta inválida do servidor"
	msgSessionExpired  = "Sessão expirada. Faça login novamente"
	maxMessageLen      = 512
)

// Navigator moves the front-end to another route.
type Navigator interface {
	Navigate(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into out. A *string target also accepts a plain-text body.
func (r *Response) Decode(out interface{}) error {
	if out == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	err := json.Unmarshal(r.Body, out)
	if err != nil {
		if s, ok := out.(*string); ok {
			*s = string(r.Body)
			return nil
		}
		return err
	}
	return nil
}

// Client talks to the denúncia backend. It attaches the session's bearer token to
// every request and tears the session down on any 401.
type Client struct {
	baseURL   string
	http      *http.Client
	session   *session.Store
	navigator Navigator
	logger    *logrus.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func New(baseURL string, store *session.Store, navigator Navigator, logger *logrus.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      http.DefaultClient,
		session:   store,
		navigator: navigator,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	u := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			c.logger.WithError(err).WithField("path", req.Path).Error("unable to encode request body")
			return nil, errors.Transport(msgTransport)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		c.logger.WithError(err).WithField("path", req.Path).Error("unable to build request")
		return nil, errors.Transport(msgTransport)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if token := c.session.Token(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{"method": req.Method, "path": req.Path}).Warn("request failed")
		return nil, errors.Transport(msgTransport)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.WithError(err).WithField("path", req.Path).Warn("unable to read response body")
		return nil, errors.Transport(msgTransport)
	}

	c.logger.WithFields(logrus.Fields{
		"method": req.Method,
		"path":   req.Path,
		"status": resp.StatusCode,
	}).Debug("backend call")

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(req)
		msg := serverMessage(data)
		if msg == "" {
			msg = msgSessionExpired
		}
		return nil, errors.Auth(msg)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Server(resp.StatusCode, serverMessage(data))
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// handleUnauthorized runs once per 401 response and is never retried.
func (c *Client) handleUnauthorized(req Request) {
	c.session.Clear()
	c.logger.WithField("path", req.Path).Warn("unauthorized response, session cleared")
	if c.navigator != nil {
		c.navigator.Navigate(models.LoginPath)
	}
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.send(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.send(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.send(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

func (c *Client) send(ctx context.Context, req Request, out interface{}) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := resp.Decode(out); err != nil {
		c.logger.WithError(err).WithField("path", req.Path).Warn("malformed response body")
		return errors.Transport(msgInvalidResponse)
	}
	return nil
}

// serverMessage extracts the human message from an error body: a JSON string,
// an object with a message/error field, or the raw text.
func serverMessage(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return truncate(s)
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err == nil {
		for _, key := range []string{"message", "mensagem", "error", "erro"} {
			if v, ok := obj[key].(string); ok && v != "" {
				return truncate(v)
			}
		}
		return ""
	}

	return truncate(string(data))
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxMessageLen {
		return s[:maxMessageLen]
	}
	return s
}
