package storage

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"
)

// maxImagePixels bounds what a full decode may allocate.
const maxImagePixels = 89478485

var imageExtensions = map[string]bool{"jpg": true, "jpeg": true, "png": true, "gif": true}

var ErrNotAnImage = errors.New("upload a valid image. The file you uploaded was either not an image or a corrupted image")

// ImageExtension checks that data fully decodes as an image and picks the file
// extension to store it under: the original one when it is an image
// extension, otherwise one derived from the decoded format.
func ImageExtension(filename string, data []byte) (string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxImagePixels {
		return "", ErrNotAnImage
	}
	// The header alone says nothing about the pixel data that follows it.
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return "", ErrNotAnImage
	}

	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."); imageExtensions[ext] {
		return ext, nil
	}
	if format == "jpeg" {
		return "jpg", nil
	}
	return format, nil
}
