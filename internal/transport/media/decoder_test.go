package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gifrank/internal/domain"
)

func encodeGIF(t *testing.T, colors ...color.Color) []byte {
	t.Helper()
	pal := color.Palette{color.Black, color.White, color.RGBA{R: 255, A: 255}, color.RGBA{G: 255, A: 255}}
	anim := &gif.GIF{}
	for _, c := range colors {
		frame := image.NewPaletted(image.Rect(0, 0, 4, 4), pal)
		idx := uint8(pal.Index(c))
		for i := range frame.Pix {
			frame.Pix[i] = idx
		}
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 5)
		anim.Disposal = append(anim.Disposal, gif.DisposalNone)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	return buf.Bytes()
}

func serve(t *testing.T, status int, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDecodeGIF_LimitsFrames(t *testing.T) {
	data := encodeGIF(t, color.White, color.Black, color.White, color.Black, color.White, color.Black, color.White)

	frames, err := DecodeGIF(data, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 5 {
		t.Fatalf("expected 5 frames, got %d", len(frames))
	}
	r, g, b, _ := frames[1].At(0, 0).RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("expected second frame black, got %d %d %d", r, g, b)
	}
}

func TestDecodeGIF_FewerFramesThanMax(t *testing.T) {
	frames, err := DecodeGIF(encodeGIF(t, color.White, color.Black), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 2 {
		t.Errorf("expected 2 frames, got %d", len(frames))
	}
}

func TestDecodeGIF_FramesAreIndependent(t *testing.T) {
	frames, err := DecodeGIF(encodeGIF(t, color.White, color.Black), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, _, _, _ := frames[0].At(1, 1).RGBA()
	if r == 0 {
		t.Error("first frame overwritten by later compositing")
	}
}

func TestDecodeFrames_FromHTTP(t *testing.T) {
	srv := serve(t, http.StatusOK, encodeGIF(t, color.White, color.Black, color.White))
	d := NewDecoder(Config{}, zap.NewNop())

	frames, err := d.DecodeFrames(context.Background(), srv.URL, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 3 {
		t.Errorf("expected 3 frames, got %d", len(frames))
	}
}

func TestDecodeFrames_StillImageFallback(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	srv := serve(t, http.StatusOK, buf.Bytes())

	frames, err := NewDecoder(Config{}, zap.NewNop()).DecodeFrames(context.Background(), srv.URL, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 1 {
		t.Errorf("expected 1 frame, got %d", len(frames))
	}
}

func TestDecodeFrames_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   []byte
		cfg    Config
		want   error
	}{
		{"not found", http.StatusNotFound, nil, Config{}, domain.ErrMediaFetch},
		{"garbage", http.StatusOK, []byte("not an image"), Config{}, domain.ErrMediaDecode},
		{"too large", http.StatusOK, bytes.Repeat([]byte("x"), 64), Config{MaxBytes: 16}, domain.ErrMediaFetch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body)
			_, err := NewDecoder(tt.cfg, zap.NewNop()).DecodeFrames(context.Background(), srv.URL, 5)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
