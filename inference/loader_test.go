package inference

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePNG encodes a solid w by h image into dir under the given name.
func writePNG(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 120, G: 120, B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
}

func TestLoadDirectoryTiles_SortsByTileNumber(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "tile-2.png", 8, 8)
	writePNG(t, dir, "tile-0.png", 4, 4)
	writePNG(t, dir, "tile-1.png", 6, 6)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	tiles, err := LoadDirectoryTiles(dir, 0, 0)
	require.NoError(t, err)
	require.Len(t, tiles, 3, "non-image entries are skipped")

	for i, tile := range tiles {
		assert.Equal(t, i, tile.Index, "tiles come back in number order")
		require.NotNil(t, tile.Image)
	}
	assert.Equal(t, 4, tiles[0].Image.Bounds().Dx(), "native sizes survive without a resize target")
	assert.Equal(t, 6, tiles[1].Image.Bounds().Dx())
	assert.Equal(t, 8, tiles[2].Image.Bounds().Dx())
}

func TestLoadDirectoryTiles_UnnumberedKeepDirectoryOrder(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "alpha.png", 4, 4)
	writePNG(t, dir, "beta.png", 4, 4)

	tiles, err := LoadDirectoryTiles(dir, 0, 0)
	require.NoError(t, err)
	require.Len(t, tiles, 2)

	assert.Equal(t, filepath.Join(dir, "alpha.png"), tiles[0].Path)
	assert.Equal(t, filepath.Join(dir, "beta.png"), tiles[1].Path)
}

func TestLoadDirectoryTiles_MissingDirectory(t *testing.T) {
	_, err := LoadDirectoryTiles(filepath.Join(t.TempDir(), "absent"), 0, 0)
	assert.Error(t, err)
}

func TestLoadDirectoryTiles_CorruptImage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tile-0.png"), []byte("not a png"), 0o644))

	_, err := LoadDirectoryTiles(dir, 0, 0)
	assert.Error(t, err)
}

func TestDecodeResizeFallback(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "tile-0.png", 16, 16)
	path := filepath.Join(dir, "tile-0.png")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	img, err := decodeResizeFallback(data, path, 8, 4)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())
}

func TestDecodeResizeFallback_Errors(t *testing.T) {
	_, err := decodeResizeFallback([]byte("not a png"), "tile-0.png", 8, 8)
	assert.Error(t, err, "corrupt bytes fail the pure-Go decode too")

	_, err = decodeResizeFallback(nil, "tile-0.webp", 8, 8)
	assert.Error(t, err, "unsupported extensions are rejected")
}
