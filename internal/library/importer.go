package library

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/handiism/melody/internal/audio"
	"github.com/handiism/melody/internal/config"
	"github.com/handiism/melody/internal/model"
	"github.com/handiism/melody/internal/playlist"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents an import progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Importer turns user-selected paths into playlist tracks.
type Importer struct {
	concurrency int
	log         zerolog.Logger
	onProgress  func(ProgressEvent)

	readTags func(string) (audio.Tags, error)
	probe    func(string) (time.Duration, error)
}

// NewImporter creates an Importer. onProgress may be nil.
func NewImporter(settings *config.Settings, log zerolog.Logger, onProgress func(ProgressEvent)) *Importer {
	return &Importer{
		concurrency: max(settings.ImportConcurrency, 1),
		log:         log.With().Str("component", "importer").Logger(),
		onProgress:  onProgress,
		readTags:    audio.ReadTags,
		probe:       audio.ProbeDuration,
	}
}

// location is one candidate track found while expanding the selection.
type location struct {
	path     string
	remote   bool
	title    string
	duration time.Duration
}

// Import expands paths into tracks. Directories are walked in lexical
// order and M3U playlists are expanded; non-audio files are skipped.
// Files are probed concurrently but the result keeps selection order.
// Unreadable files are skipped with a warning.
func (im *Importer) Import(ctx context.Context, paths []string) ([]*model.Track, error) {
	locations := im.expand(paths)
	if len(locations) == 0 {
		return nil, nil
	}

	results := make([]*model.Track, len(locations))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(im.concurrency)

	for i, loc := range locations {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			track, err := im.load(loc)
			if err != nil {
				im.log.Warn().Err(err).Str("path", loc.path).Msg("Skipping unreadable file")
				im.progress(ProgressEvent{Message: fmt.Sprintf("Skipping %s: %v", loc.path, err), Level: LevelWarning})
				return nil
			}

			results[i] = track
			im.progress(ProgressEvent{Message: fmt.Sprintf("Added %s", track), Level: LevelVerbose})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	tracks := lo.Compact(results)
	im.log.Info().Int("tracks", len(tracks)).Int("candidates", len(locations)).Msg("Import finished")
	im.progress(ProgressEvent{Message: fmt.Sprintf("Imported %d track(s)", len(tracks)), Level: LevelSuccess})
	return tracks, nil
}

// expand resolves the selection into audio locations, in order.
func (im *Importer) expand(paths []string) []location {
	var out []location
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if isURL(p) {
			if audio.IsSupported(p) {
				out = append(out, location{path: p, remote: true})
			}
			continue
		}

		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}

		info, err := os.Stat(p)
		if err != nil {
			im.log.Warn().Err(err).Str("path", p).Msg("Cannot open selection")
			im.progress(ProgressEvent{Message: fmt.Sprintf("Cannot open %s: %v", p, err), Level: LevelError})
			continue
		}

		switch {
		case info.IsDir():
			out = append(out, im.walk(p)...)
		case isPlaylist(p):
			out = append(out, im.readPlaylist(p)...)
		case audio.IsSupported(p):
			out = append(out, location{path: p})
		}
	}
	return out
}

// walk collects audio files below dir. WalkDir visits entries in lexical
// order.
func (im *Importer) walk(dir string) []location {
	var out []location
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			im.log.Debug().Err(err).Str("path", p).Msg("Walk error")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && audio.IsSupported(p) {
			out = append(out, location{path: p})
		}
		return nil
	})
	if err != nil {
		im.log.Warn().Err(err).Str("dir", dir).Msg("Walking directory")
	}
	return out
}

// readPlaylist expands an M3U file. Entries resolve relative to the
// playlist's directory.
func (im *Importer) readPlaylist(p string) []location {
	f, err := os.Open(p)
	if err != nil {
		im.log.Warn().Err(err).Str("path", p).Msg("Opening playlist")
		return nil
	}
	defer f.Close()

	entries, err := playlist.ParseM3U(f, filepath.Dir(p))
	if err != nil {
		im.log.Warn().Err(err).Str("path", p).Msg("Reading playlist")
		return nil
	}

	var out []location
	for _, e := range entries {
		if !audio.IsSupported(e.Location) {
			continue
		}
		out = append(out, location{
			path:     e.Location,
			remote:   isURL(e.Location),
			title:    e.Title,
			duration: e.Duration,
		})
	}
	return out
}

// load builds a track for one location.
func (im *Importer) load(loc location) (*model.Track, error) {
	if loc.remote {
		title := loc.title
		if title == "" {
			title = titleFromURL(loc.path)
		}
		return model.NewTrack(title, "", loc.path, loc.duration), nil
	}

	duration, err := im.probe(loc.path)
	if err != nil {
		return nil, fmt.Errorf("probe duration: %w", err)
	}

	track := model.NewTrack(model.TitleFromFileName(loc.path), "", loc.path, duration)

	tags, err := im.readTags(loc.path)
	if err != nil {
		im.log.Debug().Err(err).Str("path", loc.path).Msg("No readable tags")
		return track, nil
	}
	if tags.Artist != "" {
		track.Artist = tags.Artist
	}
	if len(tags.Artwork) > 0 {
		track.Artwork = tags.Artwork
		track.CoverURL = "embedded:" + tags.ArtworkMIME
	}
	return track, nil
}

func (im *Importer) progress(ev ProgressEvent) {
	if im.onProgress != nil {
		im.onProgress(ev)
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func isPlaylist(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	return ext == ".m3u" || ext == ".m3u8"
}

func titleFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return raw
	}
	return strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path))
}
