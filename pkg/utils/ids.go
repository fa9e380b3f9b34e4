package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewRequestID generates a request id
func NewRequestID() string {
	return uuid.New().String()
}

// GenerateReceiptNo generates a unique receipt number
func GenerateReceiptNo() string {
	return "REC-" + strings.ToUpper(uuid.New().String()[:8])
}
