// file: services/qrcode_service_test.go
package services

import (
	"context"
	"errors"
	"testing"

	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-event-checkin/models"
	"go-event-checkin/store/memory"
)

// Mock encoder function (successful)
func mockQRCodeEncoderSuccess(content string, level qrcode.RecoveryLevel, size int) ([]byte, error) {
	return []byte("qr:" + content), nil
}

// Mock encoder function (failure)
func mockQRCodeEncoderFailure(content string, level qrcode.RecoveryLevel, size int) ([]byte, error) {
	return nil, errors.New("QR code generation failed")
}

func TestGenerateQRCode_Success(t *testing.T) {
	data, err := GenerateQRCode("token-1", 200, 200, mockQRCodeEncoderSuccess)

	assert.NoError(t, err)
	assert.Equal(t, "qr:token-1", string(data))
}

func TestGenerateQRCode_UsesShorterEdge(t *testing.T) {
	var got int
	_, err := GenerateQRCode("token-1", 300, 120, func(_ string, _ qrcode.RecoveryLevel, size int) ([]byte, error) {
		got = size
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 120, got)
}

func TestGenerateQRCode_InvalidDimensions(t *testing.T) {
	data, err := GenerateQRCode("token-1", -100, 200, mockQRCodeEncoderSuccess)

	assert.Error(t, err)
	assert.Nil(t, data)
	assert.Equal(t, "invalid dimensions: width and height must be positive", err.Error())
}

func TestGenerateQRCode_EncoderFails(t *testing.T) {
	data, err := GenerateQRCode("token-1", 200, 200, mockQRCodeEncoderFailure)

	assert.Error(t, err)
	assert.Nil(t, data)
	assert.Equal(t, "QR code generation failed", err.Error())
}

func TestTicketPNG(t *testing.T) {
	st := memory.New()
	p := &models.Participant{EventID: "ev", Name: "Ada", Email: "ada@example.com", Token: "tok-123"}
	require.NoError(t, st.CreateParticipants(context.Background(), []*models.Participant{p}))

	svc := NewTicketService(st)
	png, err := svc.TicketPNG(context.Background(), "tok-123", 0)
	require.NoError(t, err)
	// PNG signature
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])

	_, err = svc.TicketPNG(context.Background(), "missing", 0)
	assert.True(t, IsKind(err, KindNotFound))

	_, err = svc.TicketPNG(context.Background(), "tok-123", 4096)
	assert.True(t, IsKind(err, KindValidation))

	svc.encode = mockQRCodeEncoderFailure
	_, err = svc.TicketPNG(context.Background(), "tok-123", 64)
	assert.True(t, IsKind(err, KindStorage))
}
