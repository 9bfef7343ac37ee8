package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"github.com/veksh/crpt-docs-client/internal/model"
	"github.com/veksh/crpt-docs-client/internal/stats"
	"github.com/veksh/crpt-docs-client/libs/ratelimiter"
)

// to try it by hand
// curlie -v POST "https://ismp.crpt.ru/api/v3/lk/documents/create" Signature:$CRPT_SIGNATURE < doc.json

var _ model.DocumentApiClient = &Client{}

const (
	HTTP_TIMEOUT      = 10 * time.Second
	CONTENT_TYPE_JSON = "application/json"
	SIGNATURE_HEADER  = "Signature"
	// stats are best-effort: a slow backend must not hold up submits
	RECORD_TIMEOUT    = 200 * time.Millisecond
)

var (
	// bad limit, window or endpoint url: fix the setup, retrying will not help
	ErrConfiguration = ratelimiter.ErrConfiguration
	// missing document: nothing is sent and no permit is taken
	ErrInvalidInput = errors.New("invalid document")
)

type Client struct {
	gate        *ratelimiter.Gate
	transport   Transport
	serializer  Serializer
	recorder    stats.Recorder
	logger      hclog.Logger
	httpTimeout time.Duration
}

type Option func(*Client)

func WithLogger(logger hclog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

func WithSerializer(s Serializer) Option {
	return func(c *Client) { c.serializer = s }
}

func WithRecorder(r stats.Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// ignored when transport is set explicitly
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpTimeout = d }
}

// window length and max num of requests per window
func NewClient(window time.Duration, requestLimit int, opts ...Option) (*Client, error) {
	c := &Client{
		logger:      hclog.NewNullLogger(),
		httpTimeout: HTTP_TIMEOUT,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpTimeout <= 0 {
		return nil, errors.Wrapf(ErrConfiguration, "http timeout must be positive, got %s", c.httpTimeout)
	}
	gate, err := ratelimiter.NewGate(window, requestLimit,
		ratelimiter.WithLogger(c.logger.Named("gate")))
	if err != nil {
		return nil, errors.Wrap(err, "cannot create rate limiter")
	}
	c.gate = gate
	if c.transport == nil {
		c.transport = NewHTTPTransport(c.httpTimeout)
	}
	if c.serializer == nil {
		c.serializer = JSONSerializer{}
	}
	if c.recorder == nil {
		c.recorder = stats.NopRecorder{}
	}
	c.logger = c.logger.Named("submitter")
	c.logger.Debug("client ready", "capacity", requestLimit, "window", window.String())
	return c, nil
}

// stops the rate limiter refill; the client must not be used afterwards
func (c *Client) Close() {
	c.gate.Close()
}

// permits left in the current window
func (c *Client) AvailablePermits() int {
	return c.gate.Available()
}

// submits holding a permit right now
func (c *Client) InFlight() int {
	return c.gate.Outstanding()
}

// submit one document
//   - errors only for bad input or setup (ErrInvalidInput, ErrConfiguration)
//   - rate limit, http and network problems come back as the result outcome
//   - never retries
func (c *Client) Submit(ctx context.Context, endpointURL string, doc *model.Document, signature string) (model.SubmissionResult, error) {
	if doc == nil {
		return model.SubmissionResult{}, errors.Wrap(ErrInvalidInput, "document cannot be nil")
	}
	if err := checkEndpoint(endpointURL); err != nil {
		return model.SubmissionResult{}, err
	}

	logger := c.logger.With("doc_id", doc.DocID)
	if !c.gate.TryAcquire() {
		logger.Warn("request limit exceeded")
		return c.record(ctx, model.RateLimited()), nil
	}
	// own copy: caller may reuse its document once we return or in parallel
	snapshot := doc.Clone()
	res := c.send(ctx, logger, endpointURL, &snapshot, signature)
	return c.record(ctx, res), nil
}

// runs with a permit held; gives it back on any way out
func (c *Client) send(ctx context.Context, logger hclog.Logger, endpointURL string, doc *model.Document, signature string) model.SubmissionResult {
	defer c.gate.Release()

	body, err := c.serializer.Marshal(*doc)
	if err != nil {
		logger.Error("cannot serialize document", "error", err)
		return model.TransportError(errors.Wrap(err, "cannot marshal document"))
	}

	header := http.Header{}
	header.Set(SIGNATURE_HEADER, signature)
	status, respBody, err := c.transport.Post(ctx, endpointURL, CONTENT_TYPE_JSON, body, header)
	if err != nil {
		logger.Error("error sending request", "error", err)
		return model.TransportError(errors.Wrap(err, "http request error"))
	}
	if status != http.StatusOK {
		logger.Warn("document rejected", "status", status, "reply", string(respBody))
		return model.ServerRejected(status)
	}
	logger.Info("document created")
	return model.Accepted()
}

func (c *Client) record(ctx context.Context, res model.SubmissionResult) model.SubmissionResult {
	ev := stats.Event{
		Outcome:    res.Outcome,
		StatusCode: res.StatusCode,
		At:         time.Now(),
	}
	ctx, fnCancel := context.WithTimeout(ctx, RECORD_TIMEOUT)
	defer fnCancel()
	if err := c.recorder.Record(ctx, ev); err != nil {
		c.logger.Warn("cannot record stats", "error", err)
	}
	return res
}

func checkEndpoint(endpointURL string) error {
	u, err := url.Parse(endpointURL)
	if err != nil {
		return errors.Wrapf(ErrConfiguration, "bad endpoint url %q: %v", endpointURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return errors.Wrapf(ErrConfiguration, "endpoint url %q must be absolute", endpointURL)
	}
	return nil
}
