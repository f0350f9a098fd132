// Package media downloads animated images and samples their frames.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"io"
	"net/http"
	"time"

	// Registered for single-frame fallbacks (some renditions are served as stills).
	_ "image/jpeg"
	_ "image/png"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gifrank/internal/domain"
)

// Defaults.
const (
	DefaultMaxBytes = 8 << 20
	DefaultTimeout  = 10 * time.Second
)

// Config configures the decoder.
type Config struct {
	MaxBytes   int64
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Decoder fetches a GIF over HTTP and returns its leading frames fully composited.
type Decoder struct {
	http     *http.Client
	maxBytes int64
	logger   *zap.Logger
}

// NewDecoder creates a frame decoder.
func NewDecoder(cfg Config, logger *zap.Logger) *Decoder {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{http: hc, maxBytes: cfg.MaxBytes, logger: logger}
}

// DecodeFrames downloads url and returns up to maxFrames frames in display order.
func (d *Decoder) DecodeFrames(ctx context.Context, url string, maxFrames int) ([]image.Image, error) {
	if maxFrames <= 0 {
		maxFrames = 1
	}
	data, err := d.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	frames, err := DecodeGIF(data, maxFrames)
	if err == nil {
		return frames, nil
	}

	img, _, stillErr := image.Decode(bytes.NewReader(data))
	if stillErr != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMediaDecode, err)
	}
	d.logger.Debug("Media is not an animated GIF, using single frame", zap.String("url", url))
	return []image.Image{img}, nil
}

func (d *Decoder) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrMediaFetch, err)
	}
	resp, err := d.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err //nolint:wrapcheck // caller cancellation passes through untouched
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrMediaFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrMediaFetch, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", domain.ErrMediaFetch, err)
	}
	if int64(len(data)) > d.maxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", domain.ErrMediaFetch, d.maxBytes)
	}
	return data, nil
}

// DecodeGIF decodes up to maxFrames frames, compositing each onto the logical screen
// and honouring the disposal method of the previous frame.
func DecodeGIF(data []byte, maxFrames int) ([]image.Image, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, errors.New("gif has no frames")
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(bounds)

	n := min(maxFrames, len(g.Image))
	frames := make([]image.Image, 0, n)
	for i := range n {
		frame := g.Image[i]
		var restore *image.RGBA
		disposal := disposalAt(g, i)
		if disposal == gif.DisposalPrevious {
			restore = cloneRGBA(canvas)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		frames = append(frames, cloneRGBA(canvas))

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = restore
		}
	}
	return frames, nil
}

func disposalAt(g *gif.GIF, i int) byte {
	if i < len(g.Disposal) {
		return g.Disposal[i]
	}
	return gif.DisposalNone
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
