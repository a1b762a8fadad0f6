package profile

// Profile holds body metrics of a user. Unset metrics are nil.
type Profile struct {
	UserID int      `json:"user_id"`
	Age    *int     `json:"age"`
	Weight *float64 `json:"weight"`
	Height *int     `json:"height"`
}

// UpdateParams fully replaces the stored metrics, nil clears a value.
type UpdateParams struct {
	Age    *int     `json:"age" validate:"omitempty,gt=0,lte=2147483647"`
	Weight *float64 `json:"weight" validate:"omitempty,gt=0"`
	Height *int     `json:"height" validate:"omitempty,gt=0,lte=2147483647"`
}
