package model

type UserDTO struct {
	ID string `json:"id"`
}
