package dto

// UserCreateRequest finds or creates a user by phone number.
type UserCreateRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,min=5,max=32"`
	Name        string `json:"name" validate:"required,min=1,max=255"`
}
