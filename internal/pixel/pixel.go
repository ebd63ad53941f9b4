// Package pixel holds the pure coordinate and color arithmetic of the canvas:
// mapping global coordinates onto chunks, the 16-entry palette, and the
// packed-nibble chunk buffer layout (two pixels per byte).
package pixel

import "strings"

// Palette is the fixed 16-color palette. Index 0 is the background.
var Palette = [16]string{
	"#FFFFFF", "#E4E4E4", "#888888", "#222222",
	"#FFA7D1", "#E50000", "#E59500", "#A06A42",
	"#E5D900", "#94E044", "#02BE01", "#00D3DD",
	"#0083C7", "#0000EA", "#CF6EE4", "#820080",
}

// DefaultIndex is the background color; freshly provisioned chunks are
// zero-filled, so every pixel starts out as Palette[DefaultIndex].
const DefaultIndex uint8 = 0

var indexByHex = func() map[string]uint8 {
	m := make(map[string]uint8, len(Palette))
	for i, hex := range Palette {
		m[hex] = uint8(i)
	}
	return m
}()

// IndexOf resolves a hex color string to its palette index,
// case-insensitively. The second return value is false for unknown colors.
func IndexOf(hex string) (uint8, bool) {
	idx, ok := indexByHex[strings.ToUpper(hex)]
	return idx, ok
}

// Hex returns the canonical hex string for a palette index.
func Hex(idx uint8) string {
	return Palette[idx&0x0F]
}

// BufferLen is the packed byte length of a chunk buffer: two pixels per byte.
func BufferLen(chunkSize int) int {
	return chunkSize * chunkSize / 2
}

// ChunkOrigin truncates a global coordinate down to its chunk origin.
// Chunk origins are expressed in global pixel units, not chunk indices.
func ChunkOrigin(v, chunkSize int) int {
	return (v / chunkSize) * chunkSize
}

// Locate maps a global coordinate to its chunk origin and the local offset
// within that chunk.
func Locate(x, y, chunkSize int) (chunkX, chunkY, localX, localY int) {
	return ChunkOrigin(x, chunkSize), ChunkOrigin(y, chunkSize), x % chunkSize, y % chunkSize
}

// NibbleIndex maps a local offset to its byte index within the packed buffer.
// Pixels are laid out row-major; even pixel indices occupy the upper nibble.
func NibbleIndex(localX, localY, chunkSize int) (byteIndex int, upper bool) {
	pixelIndex := localY*chunkSize + localX
	return pixelIndex / 2, pixelIndex%2 == 0
}

// ReadNibble returns the palette index stored at a local offset.
func ReadNibble(data []byte, localX, localY, chunkSize int) uint8 {
	i, upper := NibbleIndex(localX, localY, chunkSize)
	if upper {
		return (data[i] >> 4) & 0x0F
	}
	return data[i] & 0x0F
}

// WriteNibble stores a palette index at a local offset, preserving the
// neighbouring pixel packed into the other half of the byte. Callers must
// serialize concurrent writes to the same chunk.
func WriteNibble(data []byte, localX, localY, chunkSize int, color uint8) {
	i, upper := NibbleIndex(localX, localY, chunkSize)
	if upper {
		data[i] = (data[i] & 0x0F) | (color << 4)
	} else {
		data[i] = (data[i] & 0xF0) | (color & 0x0F)
	}
}
