package model

// CartItemRequest is the DTO for cart add/remove operations.
type CartItemRequest struct {
	ItemID string `json:"itemId" validate:"required,notblank,max=64"`
}

// CartResponse maps item ids to quantities for a user's cart.
type CartResponse struct {
	Items map[string]int `json:"items"`
}
