// Package api contains the HTTP API contract of the coverage service.
// Version v1 represents the current stable API version.
package api

import (
	"time"
)

// Response status values
const (
	StatusSuccess = "success"
)

// Response is the envelope of every successful JSON response.
type Response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
	Count  *int        `json:"count,omitempty"`
}

// OK wraps data in a success envelope.
func OK(data interface{}) Response {
	return Response{Status: StatusSuccess, Data: data}
}

// List wraps a collection and reports its length.
func List(data interface{}, n int) Response {
	return Response{Status: StatusSuccess, Data: data, Count: &n}
}

// UploadResponse reports an accepted dataset.
type UploadResponse struct {
	Source   string         `json:"source"`
	RawRows  int            `json:"raw_rows"`
	Records  int            `json:"records"`
	Dropped  map[string]int `json:"dropped"`
	LoadedAt time.Time      `json:"loaded_at"`
}
