// Package tagreader extracts display metadata (title, artist, album) from
// audio files for a PlayItem's Metadata map, falling back to the filename
// when tags are absent or unreadable.
//
// Grounded on extractTrackMetadata in
// arung-agamani-denpa-radio/internal/playlist/track.go.
package tagreader

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"

	"github.com/drgolem/playout/pkg/playitem"
)

// Read opens path and extracts whatever tag fields are present into a
// Metadata map, keyed "title", "artist", "album", "genre", "date",
// "track", "comment", "composer", "performer", "publisher" — the ten
// fields of codecwriter.Metadata, of which a recorded MP3's ID3v1 trailer
// carries all but composer, performer and publisher. Missing or unreadable
// tags fall back to the filename for "title"; Read never fails the
// caller — an unreadable file just yields a filename-only map.
func Read(path string) playitem.Metadata {
	meta := playitem.Metadata{
		"title": titleFromFilename(path),
	}

	f, err := os.Open(path)
	if err != nil {
		slog.Warn("tagreader: could not open file", "path", path, "error", err)
		return meta
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		slog.Debug("tagreader: could not read tags", "path", path, "error", err)
		return meta
	}

	if m.Title() != "" {
		meta["title"] = m.Title()
	}
	if m.Artist() != "" {
		meta["artist"] = m.Artist()
	}
	if m.Album() != "" {
		meta["album"] = m.Album()
	}
	if m.Genre() != "" {
		meta["genre"] = m.Genre()
	}
	if m.Year() != 0 {
		meta["date"] = strconv.Itoa(m.Year())
	}
	if num, _ := m.Track(); num != 0 {
		meta["track"] = strconv.Itoa(num)
	}
	if m.Comment() != "" {
		meta["comment"] = m.Comment()
	}
	if m.Composer() != "" {
		meta["composer"] = m.Composer()
	}
	// dhowden/tag has no dedicated performer/publisher accessors; the
	// closest analogues it exposes are AlbumArtist (distinct from Artist
	// on compilation tracks) and the raw TPUB frame for ID3v2 files.
	if m.AlbumArtist() != "" {
		meta["performer"] = m.AlbumArtist()
	}
	if raw, ok := m.Raw()["TPUB"].(string); ok && raw != "" {
		meta["publisher"] = raw
	}

	return meta
}

func titleFromFilename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
