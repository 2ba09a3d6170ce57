package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// Fetcher downloads remote sources into memory.
type Fetcher interface {
	Fetch(ctx context.Context, url string, onProgress func(read, total int64)) ([]byte, error)
}

type decodeFunc func(io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]decodeFunc{
	".mp3": mp3.Decode,
	".wav": func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
		return wav.Decode(rc)
	},
	".flac": func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
		return flac.Decode(rc)
	},
	".ogg": vorbis.Decode,
	".oga": vorbis.Decode,
}

// Extensions returns the file extensions melody can decode.
func Extensions() []string {
	return []string{".mp3", ".wav", ".flac", ".ogg", ".oga"}
}

// IsSupported reports whether location has a decodable extension.
// location may be a path or an http(s) URL.
func IsSupported(location string) bool {
	_, ok := decoders[extOf(location)]
	return ok
}

func extOf(location string) string {
	if isRemote(location) {
		if u, err := url.Parse(location); err == nil {
			return strings.ToLower(path.Ext(u.Path))
		}
	}
	return strings.ToLower(filepath.Ext(location))
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// memFile lets an in-memory download be decoded like a file.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

// source is a decoded track, resampled to the output rate. It owns the
// decoder and the underlying file and closes both together.
type source struct {
	stream beep.StreamSeekCloser
	format beep.Format
	out    beep.Streamer
	file   io.Closer
	ended  bool
}

func decodeSource(rc io.ReadCloser, ext string, sr beep.SampleRate) (*source, error) {
	decode, ok := decoders[ext]
	if !ok {
		rc.Close()
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	stream, format, err := decode(rc)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("decode: %w", err)
	}

	var out beep.Streamer = stream
	if sr > 0 && format.SampleRate != sr {
		out = beep.Resample(4, format.SampleRate, sr, stream)
	}

	return &source{stream: stream, format: format, out: out, file: rc}, nil
}

// openSource opens a local path or fetches a remote URL and decodes it.
func openSource(ctx context.Context, location string, sr beep.SampleRate, fetcher Fetcher) (*source, error) {
	ext := extOf(location)
	if _, ok := decoders[ext]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, location)
	}

	var rc io.ReadCloser
	if isRemote(location) {
		if fetcher == nil {
			return nil, fmt.Errorf("fetch %s: no HTTP client configured", location)
		}
		data, err := fetcher.Fetch(ctx, location, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", location, err)
		}
		rc = memFile{bytes.NewReader(data)}
	} else {
		f, err := os.Open(location)
		if err != nil {
			return nil, err
		}
		rc = f
	}

	return decodeSource(rc, ext, sr)
}

func (s *source) Stream(samples [][2]float64) (int, bool) {
	return s.out.Stream(samples)
}

func (s *source) Err() error {
	return s.stream.Err()
}

func (s *source) position() time.Duration {
	return s.format.SampleRate.D(s.stream.Position())
}

func (s *source) duration() time.Duration {
	return s.format.SampleRate.D(s.stream.Len())
}

func (s *source) seek(d time.Duration) error {
	n := s.format.SampleRate.N(d)
	n = max(0, min(n, s.stream.Len()))
	s.ended = false
	return s.stream.Seek(n)
}

func (s *source) close() error {
	err := s.stream.Close()
	// Some decoders close the reader themselves; a second close is harmless.
	s.file.Close()
	return err
}

// ProbeDuration decodes the header of a local file and returns its length.
func ProbeDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}

	src, err := decodeSource(f, extOf(path), 0)
	if err != nil {
		return 0, err
	}
	defer src.close()

	return src.duration(), nil
}
