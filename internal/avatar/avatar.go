// Package avatar moves uploaded user images into permanent storage,
// scaled to a fixed square size.
package avatar

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Size is the edge length, in pixels, of a stored avatar.
const Size = 250

// ErrInvalidImage is returned when an upload is not an image in a supported format.
var ErrInvalidImage = errors.New("invalid avatar image")

// Store puts an uploaded image into permanent storage and returns its public URL.
// tempPath is owned by the caller, who removes it afterwards if it still exists.
type Store interface {
	Save(userID, originalName, tempPath string) (string, error)
}

// FileName derives the stored file name from the owner and the uploaded name.
func FileName(userID, originalName string) (string, error) {
	base := filepath.Base(originalName)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "", fmt.Errorf("%w: bad file name %q", ErrInvalidImage, originalName)
	}
	if _, err := imaging.FormatFromFilename(base); err != nil {
		return "", fmt.Errorf("%w: unsupported format %q", ErrInvalidImage, base)
	}
	return userID + "_" + base, nil
}

func resize(img image.Image) image.Image {
	return imaging.Resize(img, Size, Size, imaging.Lanczos)
}

// resizeFile rewrites the image at path scaled to Size x Size.
func resizeFile(path string) error {
	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if err := imaging.Save(resize(img), path); err != nil {
		return fmt.Errorf("failed to write avatar: %w", err)
	}
	return nil
}

// resizeStream decodes r, scales it and encodes it in the format implied by name.
func resizeStream(r io.Reader, name string) ([]byte, error) {
	format, err := imaging.FormatFromFilename(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidImage, name)
	}
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resize(img), format); err != nil {
		return nil, fmt.Errorf("failed to encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}
