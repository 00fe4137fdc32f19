package inference

import (
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/mapscene-ai/go-scene/images"
)

// TileFile represents one map image read from disk.
type TileFile struct {
	// Path is the path to the image file.
	Path string
	// Image is the decoded raster, resized when requested.
	Image image.Image
	// Index is the tile number parsed from a "tile-<n>" file name, or
	// the file's position in directory order.
	Index int
}

// LoadDirectoryTiles reads and decodes all map images from a directory.
//
// Files named "tile-<n>.<ext>" sort by tile number; anything else keeps
// directory order. When width and height are positive every tile is
// resized to those dimensions during decode.
//
// Arguments:
//   - dir: Directory path containing image files.
//   - width: Target width in pixels, or 0 to keep the native size.
//   - height: Target height in pixels, or 0 to keep the native size.
//
// Returns:
//   - []TileFile: The decoded tiles in index order.
//   - error: An error if reading or decoding fails.
func LoadDirectoryTiles(dir string, width, height int) ([]TileFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read tile directory %s", dir)
	}

	var tiles []TileFile
	for position, file := range files {
		if file.IsDir() {
			continue
		}

		ext := filepath.Ext(file.Name())
		switch ext {
		case ".jpg", ".jpeg", ".png":
		default:
			continue
		}

		path := filepath.Join(dir, file.Name())
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, errors.Wrapf(readErr, "failed to read %s", path)
		}

		var img image.Image
		if width > 0 && height > 0 {
			img, err = images.DecodeResize(data, width, height)
			if err != nil {
				img, err = decodeResizeFallback(data, path, width, height)
			}
		} else {
			format, formatErr := images.FormatForPath(path)
			if formatErr != nil {
				return nil, formatErr
			}
			img, err = images.Decode(data, format)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode %s", path)
		}

		tiles = append(tiles, TileFile{
			Path:  path,
			Image: img,
			Index: tileIndex(file.Name(), ext, position),
		})
	}

	sort.Slice(tiles, func(i, j int) bool {
		return tiles[i].Index < tiles[j].Index
	})

	return tiles, nil
}

// decodeResizeFallback decodes with the pure-Go codecs and resamples
// with the Lanczos kernel, for files the OpenCV decode path rejects.
func decodeResizeFallback(data []byte, path string, width, height int) (image.Image, error) {
	format, err := images.FormatForPath(path)
	if err != nil {
		return nil, err
	}
	img, err := images.Decode(data, format)
	if err != nil {
		return nil, err
	}
	return images.Resize(img, width, height, images.LanczosFilter), nil
}

// tileIndex parses the number out of a "tile-<n>" file name, falling
// back to the directory position.
func tileIndex(name, ext string, position int) int {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(name, "tile-"), ext)
	if n, err := strconv.Atoi(trimmed); err == nil {
		return n
	}
	return position
}
