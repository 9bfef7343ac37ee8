package client

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// max reply size kept for logging; successful replies are not looked at
const MAX_REPLY_BYTES = 64 << 10

// one blocking request; status and (truncated) reply body or an error
type Transport interface {
	Post(ctx context.Context, url string, contentType string, body []byte, header http.Header) (int, []byte, error)
}

type httpTransport struct {
	timeout    time.Duration
	httpClient http.Client
}

func NewHTTPTransport(timeout time.Duration) Transport {
	// t := http.DefaultTransport.(*http.Transport).Clone()
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: timeout}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       10,
		IdleConnTimeout:       60 * time.Second,
	}
	return &httpTransport{
		timeout: timeout,
		httpClient: http.Client{
			Timeout:   timeout,
			Transport: t,
		},
	}
}

func (t *httpTransport) Post(ctx context.Context, url string, contentType string, body []byte, header http.Header) (int, []byte, error) {
	ctx, fnCancel := context.WithTimeout(ctx, t.timeout)
	defer fnCancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, errors.Wrap(err, "cannot create request")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return 0, nil, errors.Wrap(err, "http request error")
	}
	defer resp.Body.Close()

	// status is what counts: reply is only for logs, so a broken body is not an error
	reply, _ := io.ReadAll(io.LimitReader(resp.Body, MAX_REPLY_BYTES))
	return resp.StatusCode, reply, nil
}
