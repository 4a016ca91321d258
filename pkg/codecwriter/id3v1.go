package codecwriter

import "strconv"

// encodeID3v1 produces a 128-byte ID3v1.1 tag. dhowden/tag in the retrieved
// pack only reads tags, so the write side is hand-rolled here: the ID3v1
// layout is small and fixed, not worth pulling in a dependency for.
//
// ID3v1 has no Composer/Performer/Publisher fields; those three survive on
// the in-memory Metadata (for callers that want them, or a future ID3v2
// writer) but are not represented in the bytes this function returns.
func encodeID3v1(m Metadata) []byte {
	tag := make([]byte, 128)
	copy(tag[0:3], "TAG")
	putFixed(tag[3:33], m.Title)
	putFixed(tag[33:63], m.Artist)
	putFixed(tag[63:93], m.Album)
	putFixed(tag[93:97], m.Date)
	putFixed(tag[97:125], m.Comment)
	tag[125] = 0 // zero byte marks ID3v1.1 (track number follows)
	tag[126] = trackByte(m.Track)
	tag[127] = genreByte(m.Genre)
	return tag
}

func trackByte(track string) byte {
	n, err := strconv.Atoi(track)
	if err != nil || n <= 0 || n > 255 {
		return 0
	}
	return byte(n)
}

// id3v1Genres maps the subset of the standard ID3v1 genre list callers are
// likely to see back from dhowden/tag to their numeric code; anything else
// (including an empty Genre) falls back to 12, "Other".
var id3v1Genres = map[string]byte{
	"blues":        0,
	"classic rock": 1,
	"country":      2,
	"dance":        3,
	"disco":        4,
	"funk":         5,
	"grunge":       6,
	"hip-hop":      7,
	"jazz":         8,
	"metal":        9,
	"new age":      10,
	"oldies":       11,
	"other":        12,
	"pop":          13,
	"r&b":          14,
	"rap":          15,
	"reggae":       16,
	"rock":         17,
	"techno":       18,
	"industrial":   19,
	"alternative":  20,
	"ska":          21,
	"electronic":   52,
	"comedy":       57,
	"folk":         80,
	"classical":    32,
}

func genreByte(genre string) byte {
	if b, ok := id3v1Genres[normalizeGenre(genre)]; ok {
		return b
	}
	return 12
}

func normalizeGenre(genre string) string {
	b := make([]byte, 0, len(genre))
	for i := 0; i < len(genre); i++ {
		c := genre[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b = append(b, c)
	}
	return string(b)
}

func putFixed(dst []byte, s string) {
	b := []byte(s)
	if len(b) > len(dst) {
		b = b[:len(dst)]
	}
	copy(dst, b)
}
