package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Mix: Part 1/2", "Mix_ Part 1_2"},
		{"Road trip...", "Road trip"},
		{"a   b", "a b"},
		{"plain", "plain"},
		{"tab\there", "tab_here"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SanitizeFileName(tt.in); got != tt.want {
				t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWriteFile_CreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "mix.m3u")
	if err := WriteFile(path, []byte("#EXTM3U\n")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "#EXTM3U\n" {
		t.Errorf("content = %q", got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1 (temp file left behind?)", len(entries))
	}
}

func TestPlaceholder(t *testing.T) {
	img := Placeholder(20, 20)
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 20 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if got := img.RGBAAt(0, 0); got != PlaceholderColor {
		t.Errorf("corner = %v, want %v", got, PlaceholderColor)
	}

	white := 0
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if img.RGBAAt(x, y) == (color.RGBA{255, 255, 255, 255}) {
				white++
			}
		}
	}
	if white == 0 {
		t.Error("placeholder has no note drawn")
	}
}

func TestImageService_Cover(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 64, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			src.SetRGBA(x, y, color.RGBA{200, 10, 10, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	svc := NewImageService()
	img, err := svc.Cover(context.Background(), buf.Bytes(), 16, 16)
	if err != nil {
		t.Fatalf("Cover: %v", err)
	}
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w != 16 || h != 8 {
		t.Errorf("size = %dx%d, want 16x8", w, h)
	}

	img, err = svc.Cover(context.Background(), nil, 10, 10)
	if err != nil {
		t.Fatalf("Cover(nil): %v", err)
	}
	if got := img.RGBAAt(0, 0); got != PlaceholderColor {
		t.Errorf("empty artwork corner = %v, want placeholder", got)
	}

	if _, err := svc.Cover(context.Background(), []byte("not an image"), 10, 10); err == nil {
		t.Error("expected decode error")
	}
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, mw, mh, ww, wh int
	}{
		{100, 100, 10, 10, 10, 10},
		{200, 100, 10, 10, 10, 5},
		{100, 200, 10, 10, 5, 10},
		{0, 0, 8, 8, 8, 8},
	}
	for _, tt := range tests {
		gw, gh := fitWithin(tt.w, tt.h, tt.mw, tt.mh)
		if gw != tt.ww || gh != tt.wh {
			t.Errorf("fitWithin(%d,%d,%d,%d) = %d,%d want %d,%d", tt.w, tt.h, tt.mw, tt.mh, gw, gh, tt.ww, tt.wh)
		}
	}
}
