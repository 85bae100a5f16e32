package dto

// CreateCafeRequest payload.
type CreateCafeRequest struct {
	Name      string `json:"name"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
}

// CreateTableRequest payload.
type CreateTableRequest struct {
	Label    string `json:"label"`
	Capacity int    `json:"capacity"`
}

// SetTableActiveRequest payload.
type SetTableActiveRequest struct {
	Active bool `json:"active"`
}
