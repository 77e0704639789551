package domain

// ErrorResponse é a estrutura padronizada para respostas de erro na API local.
type ErrorResponse struct {
	Code     int    `json:"code"`
	Category string `json:"category"`
	Message  string `json:"message"`
}
