package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"estate-listings/internal/domain"
	"estate-listings/pkg/utils"
)

var allowedExt = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {},
}

// AllowedImage reports whether filename carries one of the accepted image extensions.
func AllowedImage(filename string) bool {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return false
	}
	_, ok := allowedExt[strings.ToLower(filename[i+1:])]
	return ok
}

// ImageStore keeps listing photos as flat files under one directory.
type ImageStore struct {
	dir     string
	max     int
	newName func() string
}

func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create upload dir: %w", err)
	}
	return &ImageStore{dir: dir, max: domain.MaxImages, newName: utils.NewID}, nil
}

func (s *ImageStore) Dir() string { return s.dir }

// Save stores at most domain.MaxImages accepted files, in upload order, under
// generated names and returns those names. Files with other extensions are skipped.
// On a write failure everything written by this call is removed.
func (s *ImageStore) Save(files []*multipart.FileHeader) ([]string, error) {
	names := make([]string, 0, min(len(files), s.max))
	for _, fh := range files {
		if len(names) >= s.max {
			break
		}
		if fh == nil || !AllowedImage(fh.Filename) {
			continue
		}
		name := s.newName() + strings.ToLower(filepath.Ext(fh.Filename))
		if err := s.write(fh, name); err != nil {
			s.Remove(names)
			return nil, domain.IO("could not save image "+fh.Filename, err)
		}
		names = append(names, name)
	}
	return names, nil
}

func (s *ImageStore) write(fh *multipart.FileHeader, name string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	path := filepath.Join(s.dir, name)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err = io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return err
	}
	return dst.Close()
}

// Remove deletes the named files. Missing files are ignored; every other
// failure is returned, one error per file, and does not stop the loop.
func (s *ImageStore) Remove(names []string) []error {
	var errs []error
	for _, name := range names {
		if name == "" || name != filepath.Base(name) {
			errs = append(errs, domain.IO("invalid image name "+name, nil))
			continue
		}
		err := os.Remove(filepath.Join(s.dir, name))
		if err == nil || errors.Is(err, os.ErrNotExist) {
			continue
		}
		errs = append(errs, domain.IO("could not remove image "+name, err))
	}
	return errs
}
