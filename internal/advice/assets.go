package advice

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
)

//go:embed assets
var bundled embed.FS

var ErrTemplateNotFound = errors.New("template not found")

// Assets supplies advice templates and letterhead images by name.
type Assets interface {
	Template(name string) (string, error)
	Image(name string) ([]byte, error)
}

// FSAssets serves assets from a file system rooted at the asset directory.
type FSAssets struct {
	fsys fs.FS
}

func NewFSAssets(fsys fs.FS) *FSAssets {
	return &FSAssets{fsys: fsys}
}

// DefaultAssets returns the templates and images compiled into the binary.
func DefaultAssets() *FSAssets {
	sub, err := fs.Sub(bundled, "assets")
	if err != nil {
		panic(err)
	}

	return NewFSAssets(sub)
}

func (a *FSAssets) Template(name string) (string, error) {
	data, err := fs.ReadFile(a.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		}

		return "", fmt.Errorf("reading template %s: %w", name, err)
	}

	return string(data), nil
}

func (a *FSAssets) Image(name string) ([]byte, error) {
	data, err := fs.ReadFile(a.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading image %s: %w", name, err)
	}

	return data, nil
}
