package ltbs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundtrip(t *testing.T) {
	userHeader := make([]byte, UserHeaderSize)
	copy(userHeader, []byte("hello"))

	b := encodeHeader(Format24BitRGB, 1920, 1080, 256, userHeader)
	assert.Equal(t, HeaderSize, len(b))

	hdr, err := decodeHeader(b)
	require.NoError(t, err)
	assert.Equal(t, Format24BitRGB, hdr.format)
	assert.Equal(t, 1920, hdr.width)
	assert.Equal(t, 1080, hdr.height)
	assert.Equal(t, currentFormatVersion, hdr.version)
	assert.Equal(t, 256, hdr.tileDim)
	assert.Equal(t, "hello", string(hdr.userArea[:5]))
}

func TestHeaderLegacyVersionZeroTileDim(t *testing.T) {
	b := make([]byte, HeaderSize)
	// version 0, no tile dim field written.
	b[0] = byte(Format8BitGrayScale)
	b[4] = 4 // width = 4
	b[8] = 4 // height = 4
	hdr, err := decodeHeader(b)
	require.NoError(t, err)
	assert.Equal(t, legacyTileDim, hdr.tileDim)
	assert.Equal(t, uint32(0), hdr.version)
}

func TestHeaderUnknownFormatRejected(t *testing.T) {
	b := encodeHeader(PixelFormat(255), 4, 4, 8, make([]byte, UserHeaderSize))
	_, err := decodeHeader(b)
	assert.Error(t, err)
}

func TestHeaderTooShort(t *testing.T) {
	_, err := decodeHeader(make([]byte, HeaderSize-1))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
