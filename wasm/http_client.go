//go:build js && wasm

// Package wasm lets a browser page talk to a served device.
package wasm

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"syscall/js"

	"github.com/anchorageoss/visualsign-kadena/api"
)

// FetchClient implements api.HTTPClient with the JavaScript fetch API
type FetchClient struct{}

var _ api.HTTPClient = (*FetchClient)(nil)

// NewFetchClient creates a new fetch based client
func NewFetchClient() *FetchClient {
	return &FetchClient{}
}

// Do performs an HTTP request using JavaScript fetch API
func (c *FetchClient) Do(req *http.Request) (*http.Response, error) {
	opts := js.Global().Get("Object").New()
	opts.Set("method", req.Method)

	headers := js.Global().Get("Object").New()
	for key, values := range req.Header {
		if len(values) > 0 {
			headers.Set(key, values[0])
		}
	}
	opts.Set("headers", headers)

	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		if len(body) > 0 {
			array := js.Global().Get("Uint8Array").New(len(body))
			js.CopyBytesToJS(array, body)
			opts.Set("body", array)
		}
	}

	jsResp, err := await(js.Global().Call("fetch", req.URL.String(), opts))
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	text, err := await(jsResp.Call("text"))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	respHeaders := copyHeaders(jsResp.Get("headers"))

	status := jsResp.Get("status").Int()
	return &http.Response{
		Status:     fmt.Sprintf("%d %s", status, jsResp.Get("statusText").String()),
		StatusCode: status,
		Header:     respHeaders,
		Body:       io.NopCloser(bytes.NewReader([]byte(text.String()))),
		Request:    req,
	}, nil
}

// copyHeaders reads a fetch Headers object.
func copyHeaders(headers js.Value) http.Header {
	out := make(http.Header)
	add := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		out.Add(args[1].String(), args[0].String())
		return nil
	})
	defer add.Release()
	headers.Call("forEach", add)
	return out
}

// await blocks until promise settles.
func await(promise js.Value) (js.Value, error) {
	type settled struct {
		value js.Value
		err   error
	}
	done := make(chan settled, 1)

	onSuccess := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		done <- settled{value: args[0]}
		return nil
	})
	defer onSuccess.Release()

	onError := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		msg := "unknown error"
		if len(args) > 0 {
			msg = args[0].String()
		}
		done <- settled{err: fmt.Errorf("%s", msg)}
		return nil
	})
	defer onError.Release()

	promise.Call("then", onSuccess).Call("catch", onError)
	r := <-done
	return r.value, r.err
}
