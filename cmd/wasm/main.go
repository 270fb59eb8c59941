//go:build js && wasm

package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/anchorageoss/visualsign-kadena/api"
	"github.com/anchorageoss/visualsign-kadena/cmd"
	"github.com/anchorageoss/visualsign-kadena/crypto"
	"github.com/anchorageoss/visualsign-kadena/keys"
	"github.com/anchorageoss/visualsign-kadena/verify"
	"github.com/anchorageoss/visualsign-kadena/wasm"
)

func main() {
	c := make(chan struct{})

	js.Global().Set("kadenaValidateCommand", js.FuncOf(validateCommand))
	js.Global().Set("kadenaGetPublicKey", promise(getPublicKey))
	js.Global().Set("kadenaSign", promise(sign))
	js.Global().Set("kadenaPreview", promise(preview))

	println("VisualSign Kadena WASM loaded")

	<-c
}

// promise wraps fn so that JavaScript receives a Promise of its result.
func promise(fn func(args []js.Value) (string, error)) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		handler := js.FuncOf(func(this js.Value, handlerArgs []js.Value) interface{} {
			resolve := handlerArgs[0]
			reject := handlerArgs[1]
			go func() {
				result, err := fn(args)
				if err != nil {
					reject.Invoke(js.ValueOf(err.Error()))
					return
				}
				resolve.Invoke(js.ValueOf(result))
			}()
			return nil
		})
		return js.Global().Get("Promise").New(handler)
	})
}

func stringArgs(args []js.Value, names ...string) ([]string, error) {
	if len(args) < len(names) {
		return nil, fmt.Errorf("expected %d arguments: %v", len(names), names)
	}
	out := make([]string, len(names))
	for i := range names {
		out[i] = args[i].String()
	}
	return out, nil
}

func newApp(host string) *api.App {
	return api.NewApp(api.NewClient(host, wasm.NewFetchClient()))
}

// validateCommand returns an empty string or the schema errors.
func validateCommand(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("expected 1 argument: command")
	}
	if err := api.ValidateCommand([]byte(args[0].String())); err != nil {
		return js.ValueOf(err.Error())
	}
	return js.ValueOf("")
}

func getPublicKey(args []js.Value) (string, error) {
	a, err := stringArgs(args, "host", "path")
	if err != nil {
		return "", err
	}
	path, err := cmd.ParsePath(a[1])
	if err != nil {
		return "", err
	}
	pub, err := newApp(a[0]).GetPublicKey(context.Background(), path)
	if err != nil {
		return "", err
	}
	return crypto.Address(pub), nil
}

func sign(args []js.Value) (string, error) {
	a, err := stringArgs(args, "host", "command", "path")
	if err != nil {
		return "", err
	}
	path, err := cmd.ParsePath(a[2])
	if err != nil {
		return "", err
	}
	service := verify.NewService(newApp(a[0]), api.ValidateCommand)
	result, err := service.Verify(context.Background(), &verify.VerifyRequest{Command: []byte(a[1]), Path: path})
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(verify.NewFormatter().FormatVerificationResult(result))
	return string(out), err
}

func preview(args []js.Value) (string, error) {
	a, err := stringArgs(args, "seed", "command", "path")
	if err != nil {
		return "", err
	}
	seed, err := keys.ParseSeed(a[0])
	if err != nil {
		return "", err
	}
	path, err := cmd.ParsePath(a[2])
	if err != nil {
		return "", err
	}
	p, err := verify.PreviewCommand(context.Background(), seed, []byte(a[1]), path)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(struct {
		*verify.Preview
		Signature string `json:"signature"`
	}{p, hex.EncodeToString(p.Signature)})
	return string(out), err
}
