package handler

import "time"

// List limits for GET /v1/cells.
const (
	DefaultListLimit = 100
	MaxListLimit     = 10000
)

// Response is the envelope of every JSON response.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// CellView is the committed state of one cell.
type CellView struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ListCellsResponse is the response body for GET /v1/cells.
type ListCellsResponse struct {
	Items []CellView `json:"items"`
	Total int        `json:"total"`
}
