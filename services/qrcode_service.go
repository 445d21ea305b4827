// file: services/qrcode_service.go
package services

import (
	"context"
	"errors"

	"github.com/skip2/go-qrcode"

	"go-event-checkin/store"
)

// QREncoder matches qrcode.Encode so tests can replace it.
type QREncoder func(content string, level qrcode.RecoveryLevel, size int) ([]byte, error)

// DefaultTicketSize is the PNG edge length used when none is requested.
const DefaultTicketSize = 256

// GenerateQRCode renders content as a square PNG.
func GenerateQRCode(content string, width, height int, encode QREncoder) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("invalid dimensions: width and height must be positive")
	}
	size := width
	if height < size {
		size = height
	}
	png, err := encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, err
	}
	return png, nil
}

// TicketService renders participant tickets. The QR payload is the token.
type TicketService struct {
	participants store.ParticipantRepository
	encode       QREncoder
}

// NewTicketService uses qrcode.Encode.
func NewTicketService(participants store.ParticipantRepository) *TicketService {
	return &TicketService{participants: participants, encode: qrcode.Encode}
}

// TicketPNG returns the QR image for the participant holding token.
func (s *TicketService) TicketPNG(ctx context.Context, token string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultTicketSize
	}
	if size > 1024 {
		return nil, ValidationError("QR size must be at most 1024")
	}
	participant, err := s.participants.FindParticipantByToken(ctx, token)
	if err != nil {
		return nil, fromStore("find participant", err, "Participant not found")
	}
	png, err := GenerateQRCode(participant.Token, size, size, s.encode)
	if err != nil {
		return nil, StorageError("render ticket", err)
	}
	return png, nil
}
