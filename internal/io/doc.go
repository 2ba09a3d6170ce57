// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - Atomic file writing for exported playlists
//   - Filename sanitization for cross-platform compatibility
//   - Directory creation
//   - Cover art decoding, scaling and the placeholder cover
//
// # File Operations
//
//	// Write an exported playlist
//	err := ioutils.WriteFile("/music/mix.m3u", []byte(content))
//
//	// Turn a display name into a file name
//	safe := ioutils.SanitizeFileName("Mix: Part 1/2") // Returns "Mix_ Part 1_2"
//
// # Cover Art
//
// The ImageService scales embedded artwork for the terminal:
//
//	svc := ioutils.NewImageService()
//	cover, err := svc.Cover(ctx, track.Artwork, 16, 16)
//
// Tracks without artwork get Placeholder, an indigo square with a note.
package ioutils
