package dto

// OfferResponseRequest records the student's accept/decline decision.
type OfferResponseRequest struct {
	Response string `json:"response" validate:"required,oneof=accepted declined"`
	Message  string `json:"message"`
}
