package entity

// SignatureRequestPayload is the create-request body sent to the provider
type SignatureRequestPayload struct {
	Title                      string             `json:"title"`
	Message                    string             `json:"message"`
	SignatureType              string             `json:"signatureType"`
	BiometricEnabled           bool               `json:"biometricEnabled"`
	SmsVerificationEnabled     bool               `json:"smsVerificationEnabled"`
	VideoIdentificationEnabled bool               `json:"videoIdentificationEnabled"`
	Documents                  []AttachedDocument `json:"documents,omitempty"`
}

// AttachedDocument carries a base64-encoded document in the create payload
type AttachedDocument struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// SignatureRequestCreated is the create response; only the identifier is consumed
type SignatureRequestCreated struct {
	ID string `json:"id"`
}

// SignatureRequestDetail is the get response
type SignatureRequestDetail struct {
	Title     string `json:"title"`
	Message   string `json:"message"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}
