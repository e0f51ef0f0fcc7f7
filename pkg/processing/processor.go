package processing

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/car-studio/pkg/placer"
	"github.com/menta2k/car-studio/pkg/types"
)

// Processor handles image decoding and encoding for the compositing pipeline
type Processor struct {
	httpClient *http.Client
}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// LoadImageFromURL downloads and loads an image from a URL
func (p *Processor) LoadImageFromURL(imageURL string) (image.Image, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %v", types.ErrImageLoad, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported URL scheme: %s (only http and https are supported)", types.ErrImageLoad, parsedURL.Scheme)
	}

	req, err := http.NewRequest(http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", types.ErrImageLoad, err)
	}
	req.Header.Set("User-Agent", "Car-Studio/1.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to download image: %v", types.ErrImageLoad, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: failed to download image: HTTP %d", types.ErrImageLoad, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: URL does not point to an image (Content-Type: %s)", types.ErrImageLoad, contentType)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read image data: %v", types.ErrImageLoad, err)
	}

	return p.decodeImageFromBytes(imageData)
}

// LoadImage loads an image from a file path with WebP support. Formats
// without an alpha channel decode as fully opaque.
func (p *Processor) LoadImage(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrImageLoad, err)
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".webp") {
		if img, err := webp.Decode(f); err == nil {
			return img, nil
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrImageLoad, err)
		}
	}
	if img, _, err := image.Decode(f); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("%w: unknown format for %s", types.ErrImageLoad, path)
}

// LoadImageSmart loads an image from either a file path or URL
func (p *Processor) LoadImageSmart(source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.LoadImageFromURL(source)
	}
	return p.LoadImage(source)
}

// DecodeConfig reads only the image header, so size limits can be enforced
// before any pixel buffer is allocated.
func (p *Processor) DecodeConfig(path string) (image.Config, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", fmt.Errorf("%w: %v", types.ErrImageLoad, err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return image.Config{}, "", fmt.Errorf("%w: %s: %v", types.ErrImageLoad, path, err)
	}
	return cfg, format, nil
}

// decodeImageFromBytes decodes an image from byte data with WebP support
func (p *Processor) decodeImageFromBytes(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("%w: unknown or unsupported format", types.ErrImageLoad)
}

// PrepareImageForModel converts an image to base64 for sending to vision models
func (p *Processor) PrepareImageForModel(img image.Image, format string, maxDim int, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return "", fmt.Errorf("%w: encode png for model: %v", types.ErrIO, err)
		}
	default: // jpg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", fmt.Errorf("%w: encode jpg for model: %v", types.ErrIO, err)
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Encode writes img to w. png and lossless webp keep the alpha channel
// exactly; jpg drops it and is meant for debug output only.
func (p *Processor) Encode(w io.Writer, img image.Image, format string, quality int, lossless bool) error {
	var err error
	switch strings.ToLower(format) {
	case "webp":
		err = webp.Encode(w, img, &webp.Options{Lossless: lossless, Quality: float32(quality)})
	case "jpg", "jpeg":
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case "png", "":
		err = imaging.Encode(w, img, imaging.PNG)
	default:
		return fmt.Errorf("%w: unsupported output format: %s", types.ErrIO, format)
	}
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", types.ErrIO, format, err)
	}
	return nil
}

// SaveImage saves an image to a file with the specified format and quality
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrIO, err)
	}
	if err := p.Encode(f, img, format, quality, lossless); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrIO, err)
	}
	return nil
}

// CreateDebugOverlay draws the viewport and the placed car rectangle on a
// copy of the background.
func (p *Processor) CreateDebugOverlay(background image.Image, layout placer.Layout) image.Image {
	nrgba := imaging.Clone(background)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()

	gold := color.NRGBA{255, 204, 0, 255} // viewport
	green := color.NRGBA{0, 255, 0, 255}  // car
	red := color.NRGBA{255, 0, 0, 255}    // viewport center
	blue := color.NRGBA{0, 170, 255, 255} // floor contact line
	stroke := int(math.Max(2, 0.004*float64(minInt(w, h))))
	cross := int(math.Max(4, 0.01*float64(minInt(w, h))))

	drawRect(nrgba, layout.Viewport, gold, stroke)
	car := layout.CarRect()
	drawRect(nrgba, car, green, stroke)

	c := layout.Viewport.Min.Add(layout.Viewport.Size().Div(2))
	drawHLine(nrgba, c.Y, c.X-cross, c.X+cross, red)
	drawVLine(nrgba, c.X, c.Y-cross, c.Y+cross, red)

	drawHLine(nrgba, car.Max.Y-1, layout.Viewport.Min.X, layout.Viewport.Max.X, blue)

	return nrgba
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func drawRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA, stroke int) {
	for s := 0; s < stroke; s++ {
		drawHLine(img, r.Min.Y+s, r.Min.X, r.Max.X, c)
		drawHLine(img, r.Max.Y-1-s, r.Min.X, r.Max.X, c)
		drawVLine(img, r.Min.X+s, r.Min.Y, r.Max.Y, c)
		drawVLine(img, r.Max.X-1-s, r.Min.Y, r.Max.Y, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
