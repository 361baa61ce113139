// Package testutil provides helpers for HTTP tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequestBuilder builds and performs test HTTP requests.
type RequestBuilder struct {
	method  string
	path    string
	body    interface{}
	rawBody []byte
	headers map[string]string
	query   map[string]string
}

// NewRequest creates a request builder.
func NewRequest(method, path string) *RequestBuilder {
	return &RequestBuilder{
		method:  method,
		path:    path,
		headers: make(map[string]string),
		query:   make(map[string]string),
	}
}

// WithJSON sets a JSON body.
func (rb *RequestBuilder) WithJSON(body interface{}) *RequestBuilder {
	rb.body = body
	return rb
}

// WithBody sets a raw body.
func (rb *RequestBuilder) WithBody(body []byte) *RequestBuilder {
	rb.rawBody = body
	return rb
}

// WithHeader sets a request header.
func (rb *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	rb.headers[key] = value
	return rb
}

// WithQuery sets a query parameter.
func (rb *RequestBuilder) WithQuery(key, value string) *RequestBuilder {
	rb.query[key] = value
	return rb
}

// Perform runs the request against the router and returns the recorder.
func (rb *RequestBuilder) Perform(router *gin.Engine) *httptest.ResponseRecorder {
	path := rb.path
	if len(rb.query) > 0 {
		values := url.Values{}
		for k, v := range rb.query {
			values.Set(k, v)
		}
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		path = path + sep + values.Encode()
	}

	var reader *bytes.Reader
	switch {
	case rb.rawBody != nil:
		reader = bytes.NewReader(rb.rawBody)
	case rb.body != nil:
		data, _ := json.Marshal(rb.body)
		reader = bytes.NewReader(data)
		rb.headers["Content-Type"] = "application/json"
	default:
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(rb.method, path, reader)
	for k, v := range rb.headers {
		req.Header.Set(k, v)
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}
