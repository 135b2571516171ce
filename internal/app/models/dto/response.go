package dto

import "time"

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Success bool         `json:"success" example:"true"`
	Message string       `json:"message,omitempty" example:"Operation completed successfully"`
	Data    interface{}  `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
	// Warnings lists side effects that did not complete, such as an
	// undelivered notification. The operation itself succeeded.
	Warnings  []string  `json:"warnings,omitempty"`
	Timestamp time.Time `json:"timestamp" example:"2026-04-23T12:01:05.123Z"`
}

// NewSuccessResponse creates a standard success envelope.
func NewSuccessResponse(data interface{}, message string, warnings ...string) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Warnings:  warnings,
		Timestamp: time.Now(),
	}
}

// PaginationInfo describes one page of a listing.
type PaginationInfo struct {
	CurrentPage int   `json:"currentPage" example:"1"`
	TotalPages  int   `json:"totalPages" example:"5"`
	PageSize    int   `json:"pageSize" example:"10"`
	TotalItems  int64 `json:"totalItems" example:"42"`
}

// PaginatedResponse represents a paginated list with metadata
type PaginatedResponse struct {
	Items      interface{}    `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}
