// Package inference executes prediction batches against a loaded model. Two
// backends exist: a native evaluator for JSON-serialized linear models, and a
// remote backend that forwards batches to an external model runtime over
// HTTP. The loader picks between them by artifact file extension.
package inference

import (
	"context"
	"encoding/json"
)

// Request is one item of a prediction batch. Data is the caller's raw JSON
// input, passed through to the backend untouched.
type Request struct {
	ID   string
	Data json.RawMessage
}

// Response is the outcome of one Request. Exactly one of Result and Err is
// meaningful.
type Response struct {
	ID     string
	Result json.RawMessage
	Err    error
}

// Backend executes one batch. Implementations return one Response per
// Request; per-item failures go in Response.Err so a single bad input never
// fails its batchmates.
type Backend interface {
	PredictBatch(ctx context.Context, requests []Request) []Response
}

// errorResponses fails every request in the batch with the same error. Used
// when the failure is batch-level (transport, serialization) rather than
// per-item.
func errorResponses(requests []Request, err error) []Response {
	responses := make([]Response, len(requests))
	for i, req := range requests {
		responses[i] = Response{ID: req.ID, Err: err}
	}
	return responses
}
