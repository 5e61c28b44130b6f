package metadata

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/go-flac/flacpicture"
	goflac "github.com/go-flac/go-flac"
)

// coverArtFilenames are folder-level fallback cover images, checked in
// order when a file has no embedded art.
var coverArtFilenames = []string{
	"cover.jpg", "cover.jpeg", "cover.png",
	"folder.jpg", "folder.jpeg", "folder.png",
	"front.jpg", "front.jpeg", "front.png",
}

// CoverArt returns embedded cover art for path, falling back to a
// cover/folder/front image file in the same directory. Returns nil data
// with a nil error if no art is found anywhere.
func CoverArt(path string) (data []byte, mimeType string, err error) {
	if data, mimeType, err = embeddedCoverArt(path); err != nil {
		return nil, "", err
	}
	if data != nil {
		return data, mimeType, nil
	}
	return folderCoverArt(filepath.Dir(path))
}

func embeddedCoverArt(path string) ([]byte, string, error) {
	if strings.EqualFold(filepath.Ext(path), ".flac") {
		if data, mime, ok := flacEmbeddedCoverArt(path); ok {
			return data, mime, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		// Unreadable tags aren't fatal here: fall back to folder art.
		return nil, "", nil
	}
	pic := m.Picture()
	if pic == nil {
		return nil, "", nil
	}
	return pic.Data, pic.MIMEType, nil
}

// flacEmbeddedCoverArt reads the PICTURE metadata block directly via
// go-flac/flacpicture, which preserves the picture type (front cover
// vs. other) that dhowden/tag's generic Picture() doesn't distinguish
// between when a FLAC file carries more than one embedded image.
func flacEmbeddedCoverArt(path string) (data []byte, mimeType string, ok bool) {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return nil, "", false
	}
	for _, meta := range f.Meta {
		if meta.Type != goflac.Picture {
			continue
		}
		pic, err := flacpicture.ParseFromMetaDataBlock(*meta)
		if err != nil {
			continue
		}
		if pic.PictureType == flacpicture.PictureTypeFrontCover || data == nil {
			data, mimeType = pic.ImageData, pic.MIME
		}
		if pic.PictureType == flacpicture.PictureTypeFrontCover {
			break
		}
	}
	return data, mimeType, data != nil
}

func folderCoverArt(dir string) ([]byte, string, error) {
	for _, name := range coverArtFilenames {
		if data, mime, ok := tryReadCover(filepath.Join(dir, name)); ok {
			return data, mime, nil
		}
	}
	return nil, "", nil
}

func tryReadCover(path string) (data []byte, mimeType string, ok bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		mimeType = "image/jpeg"
	case ".png":
		mimeType = "image/png"
	default:
		mimeType = "application/octet-stream"
	}
	return data, mimeType, true
}
