package ltbs

// ReadRectClamped reads the rectangle (dx,dy,dw,dh) into dst, clipping to
// the image bounds and replicating edge pixels to fill any margin that
// falls outside the image (spec §4.7). Grounded on
// original_source/Source/Core/Misc/vaLargeBitmapFile.cpp's
// ReadRectClampBorders (margin fill order: left, right, top, bottom).
func (s *Store) ReadRectClamped(dst []byte, dstPitch, dx, dy, dw, dh int, opts ...RectOption) error {
	s.mu.RLock()
	width, height, bpp := s.geo.width, s.geo.height, s.geo.bpp
	s.mu.RUnlock()

	offLeft := max(0, -dx)
	offTop := max(0, -dy)
	offRight := max(0, (dx+dw)-width)
	offBottom := max(0, (dy+dh)-height)

	effW := dw - offLeft - offRight
	effH := dh - offTop - offBottom
	if effW <= 0 || effH <= 0 {
		return ErrEmptyAfterClip
	}

	clipX := dx + offLeft
	clipY := dy + offTop
	innerOff := offTop*dstPitch + offLeft*bpp
	if err := s.ReadRect(dst[innerOff:], dstPitch, clipX, clipY, effW, effH, opts...); err != nil {
		return err
	}

	fillLeftMargin(dst, dstPitch, bpp, offLeft, offTop, effH)
	fillRightMargin(dst, dstPitch, bpp, offLeft, effW, offRight, offTop, effH)
	fillTopMargin(dst, dstPitch, offTop, dw, bpp)
	fillBottomMargin(dst, dstPitch, offTop, effH, offBottom, dw, bpp)
	return nil
}

// fillLeftMargin replicates the first valid column of each valid row into
// the offLeft columns to its left.
func fillLeftMargin(dst []byte, pitch, bpp, offLeft, offTop, effH int) {
	if offLeft == 0 {
		return
	}
	for row := 0; row < effH; row++ {
		y := offTop + row
		rowOff := y * pitch
		srcPixel := dst[rowOff+offLeft*bpp : rowOff+(offLeft+1)*bpp]
		replicatePixel(dst, rowOff, srcPixel, offLeft, bpp)
	}
}

// fillRightMargin replicates the last valid column of each valid row into
// the offRight columns to its right.
func fillRightMargin(dst []byte, pitch, bpp, offLeft, effW, offRight, offTop, effH int) {
	if offRight == 0 {
		return
	}
	lastValidCol := offLeft + effW - 1
	for row := 0; row < effH; row++ {
		y := offTop + row
		rowOff := y * pitch
		srcPixel := dst[rowOff+lastValidCol*bpp : rowOff+(lastValidCol+1)*bpp]
		destStart := rowOff + (lastValidCol+1)*bpp
		replicatePixelAt(dst, destStart, srcPixel, offRight, bpp)
	}
}

// fillTopMargin copies the first valid row wholesale into each of the
// offTop rows above it.
func fillTopMargin(dst []byte, pitch, offTop, dw, bpp int) {
	if offTop == 0 {
		return
	}
	validRowOff := offTop * pitch
	rowBytes := dw * bpp
	validRow := dst[validRowOff : validRowOff+rowBytes]
	for row := 0; row < offTop; row++ {
		copy(dst[row*pitch:row*pitch+rowBytes], validRow)
	}
}

// fillBottomMargin copies the last valid row wholesale into each of the
// offBottom rows below it.
func fillBottomMargin(dst []byte, pitch, offTop, effH, offBottom, dw, bpp int) {
	if offBottom == 0 {
		return
	}
	lastValidRow := offTop + effH - 1
	validRowOff := lastValidRow * pitch
	rowBytes := dw * bpp
	validRow := dst[validRowOff : validRowOff+rowBytes]
	for i := 1; i <= offBottom; i++ {
		row := lastValidRow + i
		copy(dst[row*pitch:row*pitch+rowBytes], validRow)
	}
}

// replicatePixel writes count copies of srcPixel starting at rowOff,
// specialized for bpp in {1,2,4} per spec §4.7, falling back to a generic
// per-pixel copy otherwise.
func replicatePixel(dst []byte, rowOff int, srcPixel []byte, count, bpp int) {
	replicatePixelAt(dst, rowOff, srcPixel, count, bpp)
}

func replicatePixelAt(dst []byte, destStart int, srcPixel []byte, count, bpp int) {
	switch bpp {
	case 1:
		v := srcPixel[0]
		for i := 0; i < count; i++ {
			dst[destStart+i] = v
		}
	case 2:
		v0, v1 := srcPixel[0], srcPixel[1]
		for i := 0; i < count; i++ {
			o := destStart + i*2
			dst[o], dst[o+1] = v0, v1
		}
	case 4:
		v0, v1, v2, v3 := srcPixel[0], srcPixel[1], srcPixel[2], srcPixel[3]
		for i := 0; i < count; i++ {
			o := destStart + i*4
			dst[o], dst[o+1], dst[o+2], dst[o+3] = v0, v1, v2, v3
		}
	default:
		for i := 0; i < count; i++ {
			copy(dst[destStart+i*bpp:destStart+(i+1)*bpp], srcPixel)
		}
	}
}
