package caplena_test

import (
	"context"
	"net/http"

	"github.com/caplena/caplena-go/pkg/caplena"
)

// fakeTransport records every request and replays scripted responses.
type fakeTransport struct {
	requests []*caplena.TransportRequest
	handler  func(req *caplena.TransportRequest) (*caplena.Response, error)
}

func (f *fakeTransport) Request(ctx context.Context, req *caplena.TransportRequest) (*caplena.Response, error) {
	f.requests = append(f.requests, req)

	return f.handler(req)
}

func jsonResponse(statusCode int, body string) *caplena.Response {
	return caplena.NewResponse(statusCode, http.StatusText(statusCode), body, http.Header{
		"Content-Type": []string{"application/json"},
	})
}

func newTestController(handler func(req *caplena.TransportRequest) (*caplena.Response, error)) (*caplena.BaseController, *fakeTransport) {
	transport := &fakeTransport{handler: handler}
	requestor := caplena.NewRequestor(transport, nil, "")

	controller := caplena.NewBaseController(&caplena.Config{
		APIKey:  "key-under-test",
		BaseURI: "https://api.caplena.test/v2",
	}, requestor)

	return controller, transport
}
