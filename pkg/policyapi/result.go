package policyapi

import (
	"encoding/json"
	"net/http"
)

// Result is the envelope every endpoint responds with.
type Result[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

func OK[T any](v T, msg string) Result[T] {
	return Result[T]{Success: true, Message: msg, Result: v}
}

func Fail(msg string) Result[any] {
	return Result[any]{Success: false, Message: msg}
}

// Write encodes res with the given status.
func Write[T any](w http.ResponseWriter, status int, res Result[T]) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(res)
}

// WriteFailure writes an unsuccessful envelope carrying msg.
func WriteFailure(w http.ResponseWriter, status int, msg string) {
	_ = Write(w, status, Fail(msg))
}
