package dto

// ErrorResponse is the envelope for error responses
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse is the envelope for generic success responses
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// Pagination describes the page window of a list response
type Pagination struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasMore  bool `json:"has_more"`
}

// PaginatedResponse is the envelope for paginated list responses
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// NewPaginatedResponse builds a paginated envelope. HasMore is inferred from
// a full page, so the last page of an exactly divisible total reports true;
// the follow-up request returns an empty page.
func NewPaginatedResponse(data interface{}, page, pageSize, count int) *PaginatedResponse {
	return &PaginatedResponse{
		Data: data,
		Pagination: Pagination{
			Page:     page,
			PageSize: pageSize,
			HasMore:  count == pageSize,
		},
	}
}
