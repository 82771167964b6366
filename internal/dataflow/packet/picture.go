package packet

import "fmt"

// simdTailPadding is appended to every plane's backing allocation so SIMD
// codec/scaler code can read past the last pixel without bounds checks.
const simdTailPadding = 16

// planeLayout describes the per-plane byte counts for a pixel format at a
// given resolution: width, height, row stride (bytes), and subsampling.
func planeLayout(format PixelFormat, width, height int) (planes int, strides []int, heights []int) {
	switch format {
	case PixelY8:
		return 1, []int{width}, []int{height}
	case PixelI420:
		return 3, []int{width, width / 2, width / 2}, []int{height, height / 2, height / 2}
	case PixelYUV420P10LE:
		return 3, []int{width * 2, width, width}, []int{height, height / 2, height / 2}
	case PixelYUV422P:
		return 3, []int{width, width / 2, width / 2}, []int{height, height, height}
	case PixelYUV422P10LE:
		return 3, []int{width * 2, width, width}, []int{height, height, height}
	case PixelYUYV422:
		return 1, []int{width * 2}, []int{height}
	case PixelNV12:
		return 2, []int{width, width}, []int{height, height / 2}
	case PixelNV12P010LE:
		return 2, []int{width * 2, width * 2}, []int{height, height / 2}
	case PixelRGB24:
		return 1, []int{width * 3}, []int{height}
	case PixelRGBA32:
		return 1, []int{width * 4}, []int{height}
	default:
		return 0, nil, nil
	}
}

// PictureSize returns the total byte size of a picture payload at the
// given resolution and pixel format, excluding SIMD tail padding.
func PictureSize(width, height int, format PixelFormat) int {
	_, strides, heights := planeLayout(format, width, height)
	total := 0
	for i := range strides {
		total += strides[i] * heights[i]
	}
	return total
}

// Picture is the planar-pixel-buffer payload variant. Storage is a single
// backing allocation sized for internalWidth/internalHeight (the "wider
// memory space" the picture might need for codec alignment); Width/Height
// describe the visible crop, and setInternalResolution ≥
// setVisibleResolution always holds.
type Picture struct {
	buf      []byte
	onRelease func()

	format PixelFormat

	internalWidth, internalHeight int
	width, height                 int

	strides []int
	planeOffsets []int
}

// NewPicture allocates a Picture payload. buf must be at least
// PictureSize(internalWidth, internalHeight, format)+simdTailPadding bytes.
func NewPicture(buf []byte, width, height, internalWidth, internalHeight int, format PixelFormat, onRelease func()) (*Picture, error) {
	if internalWidth < width || internalHeight < height {
		return nil, fmt.Errorf("packet: internal resolution %dx%d smaller than visible resolution %dx%d", internalWidth, internalHeight, width, height)
	}
	_, strides, heights := planeLayout(format, internalWidth, internalHeight)
	if len(strides) == 0 {
		return nil, fmt.Errorf("packet: unsupported pixel format %v", format)
	}
	need := 0
	offsets := make([]int, len(strides))
	for i := range strides {
		offsets[i] = need
		need += strides[i] * heights[i]
	}
	need += simdTailPadding
	if len(buf) < need {
		return nil, fmt.Errorf("packet: picture buffer too small: have %d need %d", len(buf), need)
	}
	return &Picture{
		buf:            buf,
		onRelease:      onRelease,
		format:         format,
		internalWidth:  internalWidth,
		internalHeight: internalHeight,
		width:          width,
		height:         height,
		strides:        strides,
		planeOffsets:   offsets,
	}, nil
}

// Bytes implements Payload.
func (p *Picture) Bytes() []byte { return p.buf }

// Recyclable implements Payload.
func (p *Picture) Recyclable() bool { return p.onRelease != nil }

func (p *Picture) release() {
	if p.onRelease != nil {
		p.onRelease()
	}
}

// Format returns the pixel format.
func (p *Picture) Format() PixelFormat { return p.format }

// NumPlanes returns the number of planes for this picture's pixel format.
func (p *Picture) NumPlanes() int { return len(p.strides) }

// Plane returns the byte slice for plane i, spanning its full internal
// height (including any rows cropped out of the visible resolution).
func (p *Picture) Plane(i int) []byte {
	if i < 0 || i >= len(p.planeOffsets) {
		return nil
	}
	_, _, heights := planeLayout(p.format, p.internalWidth, p.internalHeight)
	start := p.planeOffsets[i]
	end := start + p.strides[i]*heights[i]
	return p.buf[start:end]
}

// Stride returns the row stride in bytes for plane i.
func (p *Picture) Stride(i int) int {
	if i < 0 || i >= len(p.strides) {
		return 0
	}
	return p.strides[i]
}

// VisibleResolution returns the visible (cropped) width/height.
func (p *Picture) VisibleResolution() (int, int) { return p.width, p.height }

// InternalResolution returns the backing-allocation width/height.
func (p *Picture) InternalResolution() (int, int) { return p.internalWidth, p.internalHeight }

// SetVisibleResolution changes the visible crop; it must not exceed the
// internal resolution, matching the setInternalResolution ≥
// setVisibleResolution invariant.
func (p *Picture) SetVisibleResolution(width, height int) error {
	if width > p.internalWidth || height > p.internalHeight {
		return fmt.Errorf("packet: visible resolution %dx%d exceeds internal resolution %dx%d", width, height, p.internalWidth, p.internalHeight)
	}
	p.width, p.height = width, height
	return nil
}
