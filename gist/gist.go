package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	journey "github.com/etnz/cryptojourney"
)

// maxResponseSize caps what is read from a response body.
const maxResponseSize = 10 << 20

type gistFile struct {
	Content string `json:"content"`
}

type gistRequest struct {
	Description string              `json:"description,omitempty"`
	Public      *bool               `json:"public,omitempty"`
	Files       map[string]gistFile `json:"files"`
}

// Fetch reads the document stored in the gist.
//
// A gist without the document file holds an empty document. A malformed answer
// is retried like any transient failure and keeps matching journey.ErrParse.
func (c *Client) Fetch(ctx context.Context) (*journey.Document, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	var doc *journey.Document
	err := c.do(ctx, "fetch", func(ctx context.Context) error {
		body, err := c.call(ctx, http.MethodGet, c.gistURL(), nil)
		if err != nil {
			return err
		}
		content, err := c.extract(ctx, body)
		if err != nil {
			return err
		}
		if content == nil {
			c.log.Info().Str("file", c.fileName).Msg("gist has no document yet")
			doc = &journey.Document{}
			return nil
		}
		doc, err = journey.DecodeDocument(content, c.now())
		if err != nil {
			return malformed(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// malformed marks a payload error as transient.
func malformed(err error) error {
	return fmt.Errorf("%w: %w", journey.ErrTransient, err)
}

// extract returns the content of the document file in a gist payload, or nil if
// the file is absent.
func (c *Client) extract(ctx context.Context, body []byte) ([]byte, error) {
	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		return nil, malformed(fmt.Errorf("%w: gist payload: %w", journey.ErrParse, err))
	}
	file := fmt.Sprintf("$.files[%q]", c.fileName)
	if _, err := jsonpath.Get(file, jobj); err != nil {
		return nil, nil
	}

	// large files are truncated in the gist payload and must be read from raw_url.
	if truncated, _ := jsonpath.Get(file+".truncated", jobj); truncated == true {
		raw, err := jsonpath.Get(file+".raw_url", jobj)
		if u, ok := raw.(string); err == nil && ok {
			return c.call(ctx, http.MethodGet, u, nil)
		}
	}

	jval, err := jsonpath.Get(file+".content", jobj)
	if err != nil {
		return nil, malformed(fmt.Errorf("%w: gist file %q has no content", journey.ErrParse, c.fileName))
	}
	content, ok := jval.(string)
	if !ok {
		return nil, malformed(fmt.Errorf("%w: gist file %q content is %T", journey.ErrParse, c.fileName, jval))
	}
	return []byte(content), nil
}

// Push replaces the document stored in the gist.
func (c *Client) Push(ctx context.Context, doc *journey.Document) error {
	if err := c.ready(); err != nil {
		return err
	}
	content, err := doc.Encode()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(gistRequest{
		Files: map[string]gistFile{c.fileName: {Content: string(content)}},
	})
	if err != nil {
		return fmt.Errorf("cannot encode gist request: %w", err)
	}
	return c.do(ctx, "push", func(ctx context.Context) error {
		_, err := c.call(ctx, http.MethodPatch, c.gistURL(), payload)
		return err
	})
}

// Create creates a new private gist holding an empty document and returns its
// id. Only the token of the credential is used.
func (c *Client) Create(ctx context.Context, description string) (string, error) {
	if err := journey.ValidateToken(c.cred.Token); err != nil {
		return "", err
	}
	if description == "" {
		description = DefaultDescription
	}
	public := false
	payload, err := json.Marshal(gistRequest{
		Description: description,
		Public:      &public,
		Files:       map[string]gistFile{c.fileName: {Content: string(journey.InitialContent())}},
	})
	if err != nil {
		return "", fmt.Errorf("cannot encode gist request: %w", err)
	}

	var id string
	err = c.do(ctx, "create", func(ctx context.Context) error {
		body, err := c.call(ctx, http.MethodPost, c.baseURL+"/gists", payload)
		if err != nil {
			return err
		}
		var jobj any
		if err := json.Unmarshal(body, &jobj); err != nil {
			return malformed(fmt.Errorf("%w: gist creation answer: %w", journey.ErrParse, err))
		}
		jval, err := jsonpath.Get("$.id", jobj)
		if err != nil {
			return malformed(fmt.Errorf("%w: gist creation answer has no id", journey.ErrParse))
		}
		id, _ = jval.(string)
		return nil
	})
	if err != nil {
		return "", err
	}
	if err := journey.ValidateRemoteID(id); err != nil {
		return "", fmt.Errorf("%w: created gist has an unexpected id %q", journey.ErrParse, id)
	}
	c.log.Info().Str("gist", id).Msg("created gist")
	return id, nil
}

func (c *Client) ready() error {
	if !c.cred.Configured() {
		return journey.ErrNotConfigured
	}
	return c.cred.Validate()
}

func (c *Client) gistURL() string {
	return c.baseURL + "/gists/" + c.cred.RemoteID
}

// call performs a single request and returns the body of a 2xx answer.
func (c *Client) call(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("cannot create http request %s %q: %w", method, url, err)
	}
	req.Header.Set("Authorization", "token "+c.cred.Token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", journey.ErrTransient, method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(resp.Body, maxResponseSize)); err != nil {
		return nil, fmt.Errorf("%w: cannot read http body: %w", journey.ErrTransient, err)
	}
	c.log.Debug().Str("method", method).Str("path", req.URL.Path).Int("status", resp.StatusCode).Msg("gist api answered")
	if err := statusError(resp.StatusCode); err != nil {
		return nil, fmt.Errorf("%w: %s %s: %s %s", err, method, req.URL.Path, resp.Status, snippet(buf.Bytes()))
	}
	return buf.Bytes(), nil
}

// statusError maps an http status to the error taxonomy.
func statusError(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return journey.ErrAuth
	default:
		// not found, rate limited, server errors: the document may come back.
		return journey.ErrTransient
	}
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	return s
}
