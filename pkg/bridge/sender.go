package bridge

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Result is the outcome of one dispatched request. Nobody waits on it;
// it exists for logging and for the optional OnResult hook.
type Result struct {
	Path    string
	Status  int
	Err     error
	Elapsed time.Duration
}

// OK reports whether the request reached the server and got a 2xx.
func (r Result) OK() bool {
	return r.Err == nil
}

// HTTPSender posts fire-and-forget requests relative to a base URL.
type HTTPSender struct {
	client   *resty.Client
	log      *zap.Logger
	onResult func(Result)
	wg       sync.WaitGroup
}

// SenderOption configures an HTTPSender.
type SenderOption func(*HTTPSender)

// WithSenderLogger sets the logger used for failed dispatches.
func WithSenderLogger(l *zap.Logger) SenderOption {
	return func(s *HTTPSender) {
		if l != nil {
			s.log = l
		}
	}
}

// OnResult registers a hook called with every Result. It runs on the
// dispatching goroutine.
func OnResult(fn func(Result)) SenderOption {
	return func(s *HTTPSender) {
		s.onResult = fn
	}
}

// WithTimeout bounds each request. Zero, the default, never times out.
func WithTimeout(d time.Duration) SenderOption {
	return func(s *HTTPSender) {
		s.client.SetTimeout(d)
	}
}

// NewHTTPSender creates a sender for endpoints under baseURL. Retries are
// disabled: a lost request is simply superseded by the next one.
func NewHTTPSender(baseURL string, opts ...SenderOption) *HTTPSender {
	client := resty.New().
		SetBaseURL(baseURL).
		SetRetryCount(0)

	s := &HTTPSender{
		client: client,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send implements Sender.
func (s *HTTPSender) Send(path string, body any) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.report(s.dispatch(path, body))
	}()
}

// Wait blocks until every dispatched request has finished.
func (s *HTTPSender) Wait() {
	s.wg.Wait()
}

func (s *HTTPSender) dispatch(path string, body any) Result {
	start := time.Now()
	req := s.client.R()
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Post(path)
	res := Result{Path: path, Elapsed: time.Since(start)}
	if err != nil {
		res.Err = fmt.Errorf("post %s: %w", path, err)
		return res
	}
	res.Status = resp.StatusCode()
	if !resp.IsSuccess() {
		res.Err = fmt.Errorf("post %s: unexpected status %d", path, res.Status)
	}
	return res
}

func (s *HTTPSender) report(res Result) {
	if res.OK() {
		s.log.Debug("request done",
			zap.String("path", res.Path),
			zap.Int("status", res.Status),
			zap.Duration("elapsed", res.Elapsed),
		)
	} else {
		s.log.Warn("request failed",
			zap.String("path", res.Path),
			zap.Int("status", res.Status),
			zap.Error(res.Err),
		)
	}
	if s.onResult != nil {
		s.onResult(res)
	}
}
