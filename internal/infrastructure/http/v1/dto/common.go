// Package dto provides data transfer objects for HTTP API.
package dto

import (
	"corseg/internal/core/id"
)

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Deletion ---

type SetDeletionMarkRequest struct {
	Marked bool `json:"marked"`
}

// --- Claims workflow ---

// ComentarioRequest adds a comment to a claim.
type ComentarioRequest struct {
	Texto string `json:"texto" binding:"required"`
}

// --- Amounts ---

// MontoResponse returns a single monetary amount.
type MontoResponse struct {
	Monto string `json:"monto"`
}

// NetoResponse returns the net commission amounts of a payment.
type NetoResponse struct {
	ComisionCia      string `json:"comisionCia"`
	ComisionVendedor string `json:"comisionVendedor"`
}

// --- Numerator configuration ---

// NumeratorConfigRequest updates the document numerator for one document type.
type NumeratorConfigRequest struct {
	Prefix      string `json:"prefix"`
	IncludeYear bool   `json:"includeYear"`
	PadWidth    int    `json:"padWidth" binding:"min=0,max=12"`
	ResetPeriod string `json:"resetPeriod"`
}

// NumeratorConfigResponse returns the numerator settings for one document type.
type NumeratorConfigResponse struct {
	Key         string `json:"key"`
	Prefix      string `json:"prefix"`
	IncludeYear bool   `json:"includeYear"`
	PadWidth    int    `json:"padWidth"`
	ResetPeriod string `json:"resetPeriod"`
}
