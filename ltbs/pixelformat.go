package ltbs

import "fmt"

// PixelFormat is a tagged enumeration of the pixel formats LTBS knows how to
// size. The store treats pixel bytes as opaque fixed-size tuples; format
// codes are stable and must never be renumbered (spec §6).
type PixelFormat uint32

const (
	Format16BitGrayScale PixelFormat = 0
	Format8BitGrayScale  PixelFormat = 1
	Format24BitRGB       PixelFormat = 2
	Format32BitRGBA      PixelFormat = 3
	Format16BitA4R4G4B4  PixelFormat = 4
	FormatGeneric8       PixelFormat = 10
	FormatGeneric16      PixelFormat = 11
	FormatGeneric32      PixelFormat = 12
	FormatGeneric64      PixelFormat = 13
	FormatGeneric128     PixelFormat = 14
)

// BytesPerPixel returns the byte size of one pixel in this format, and false
// if the code is unknown. Unknown codes fail header validation with
// CorruptHeaderError on open (spec §6).
func (f PixelFormat) BytesPerPixel() (int, bool) {
	switch f {
	case Format16BitGrayScale:
		return 2, true
	case Format8BitGrayScale:
		return 1, true
	case Format24BitRGB:
		return 3, true
	case Format32BitRGBA:
		return 4, true
	case Format16BitA4R4G4B4:
		return 2, true
	case FormatGeneric8:
		return 1, true
	case FormatGeneric16:
		return 2, true
	case FormatGeneric32:
		return 4, true
	case FormatGeneric64:
		return 8, true
	case FormatGeneric128:
		return 16, true
	default:
		return 0, false
	}
}

func (f PixelFormat) String() string {
	switch f {
	case Format16BitGrayScale:
		return "16BitGrayScale"
	case Format8BitGrayScale:
		return "8BitGrayScale"
	case Format24BitRGB:
		return "24BitRGB"
	case Format32BitRGBA:
		return "32BitRGBA"
	case Format16BitA4R4G4B4:
		return "16BitA4R4G4B4"
	case FormatGeneric8:
		return "Generic8"
	case FormatGeneric16:
		return "Generic16"
	case FormatGeneric32:
		return "Generic32"
	case FormatGeneric64:
		return "Generic64"
	case FormatGeneric128:
		return "Generic128"
	default:
		return fmt.Sprintf("PixelFormat(%d)", uint32(f))
	}
}
