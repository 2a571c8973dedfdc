package dto

type RegisterRequestDTO struct {
	Login    string `json:"login" validate:"required,min=3,max=50" example:"user1"`
	Password string `json:"password" validate:"required,min=8" example:"password123"`
}

type RegisterResponseDTO struct {
	Message string `json:"message"`
}

type LoginRequestDTO struct {
	Login    string `json:"login" validate:"required,min=3,max=50" example:"user1"`
	Password string `json:"password" validate:"required,min=8" example:"password123"`
}

type LoginResponseDTO struct {
	Message string `json:"message"`
}
