package whttp

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const userAgent = "reviewscope (+https://github.com/epfpro/reviewscope)"

type WHTTPHeader struct {
	Name  string
	Value string
}

type WHTTPParam struct {
	Name  string
	Value string
}

type WHTTPReq struct {
	URL     string
	Method  string
	Headers []WHTTPHeader
	// Params are appended to the URL query string. Values are escaped.
	Params []WHTTPParam
}

type WHTTPRes struct {
	StatusCode int
	BodyString string
}

// NewClient returns the HTTP client used for all upstream calls.
// Retries are disabled: a failed fetch is reported to the caller, which
// owns the retry/stale-serving policy. The timeout bounds the whole
// request including body read.
func NewClient(timeout time.Duration) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.Logger = log.New(io.Discard, "", 0)
	c.RetryMax = 0
	// Hand back the final response even when the status would normally
	// trigger a retry; status handling is the caller's job.
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.HTTPClient.Timeout = timeout
	return c
}

// SendHTTPRequest performs one request and drains the body. A non-2xx
// status is not an error here; callers inspect StatusCode.
func SendHTTPRequest(ctx context.Context, wReq *WHTTPReq, client *retryablehttp.Client) (*WHTTPRes, error) {
	if client == nil {
		client = NewClient(10 * time.Second)
	}

	reqURL := wReq.URL
	if len(wReq.Params) > 0 {
		q := url.Values{}
		for _, p := range wReq.Params {
			q.Set(p.Name, p.Value)
		}
		reqURL += "?" + q.Encode()
	}

	method := wReq.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	for _, h := range wReq.Headers {
		req.Header.Add(h.Name, h.Value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &WHTTPRes{
		StatusCode: resp.StatusCode,
		BodyString: string(bodyBytes),
	}, nil
}
