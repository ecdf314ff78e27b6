package model

import "encoding/json"

// Status distinguishes a populated result from a genuinely empty one and from a failure.
type Status string

const (
	StatusOK    Status = "ok"
	StatusEmpty Status = "empty"
	StatusError Status = "error"
)

// Result carries the outcome of a reconstruction.
type Result[T any] struct {
	Status Status
	Items  []T
	Err    error
}

// OK wraps items, falling back to Empty when there are none.
func OK[T any](items []T) Result[T] {
	if len(items) == 0 {
		return Empty[T]()
	}
	return Result[T]{Status: StatusOK, Items: items}
}

func Empty[T any]() Result[T] {
	return Result[T]{Status: StatusEmpty, Items: []T{}}
}

func Failed[T any](err error) Result[T] {
	return Result[T]{Status: StatusError, Err: err}
}

func (r Result[T]) IsError() bool { return r.Status == StatusError }

func (r Result[T]) IsEmpty() bool { return r.Status == StatusEmpty }

// MarshalJSON encodes the result as {status, items, error}.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	out := struct {
		Status Status `json:"status"`
		Items  []T    `json:"items"`
		Error  string `json:"error,omitempty"`
	}{
		Status: r.Status,
		Items:  r.Items,
	}
	if out.Items == nil {
		out.Items = []T{}
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}
