// Package services – MediaService
//
// MediaService owns the uploads directory. Uploaded images are sniffed,
// stored under a random name and recorded as domain.Image metadata. Files
// are served back under a URL prefix (default /uploads) that maps onto the
// flat uploads directory; LocalPath is the only way to turn such a URL into
// a filesystem path and it rejects anything that would escape the
// directory.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nailstudio/salon-backend/internal/domain"
	"github.com/nailstudio/salon-backend/internal/repo"
)

var allowedExt = map[string]bool{".jpeg": true, ".jpg": true, ".png": true, ".webp": true}

var allowedMIME = []string{"image/jpeg", "image/png", "image/webp"}

// UploadInput is one uploaded file.
type UploadInput struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

// DeleteUploadInput addresses a stored file and, optionally, a block whose
// image list references it.
type DeleteUploadInput struct {
	Path     string `json:"path"     form:"path"`
	BlockID  string `json:"blockId"  form:"blockId"`
	ImageURL string `json:"imageUrl" form:"imageUrl"`
}

// MediaService stores and removes uploaded images.
type MediaService struct {
	Store repo.Store
	// Dir is the uploads directory.
	Dir string
	// URLPrefix is the served path prefix, e.g. "/uploads".
	URLPrefix string
	// MaxBytes is the upload ceiling.
	MaxBytes int64
}

func (s *MediaService) prefix() string {
	p := strings.TrimRight(s.URLPrefix, "/")
	if p == "" {
		p = "/uploads"
	}
	return p
}

// LocalPath maps a served URL path onto a file inside Dir. Paths outside the
// prefix, nested paths and traversal attempts return ErrInvalidPath.
func (s *MediaService) LocalPath(urlPath string) (string, error) {
	rest, ok := strings.CutPrefix(urlPath, s.prefix()+"/")
	if !ok {
		return "", ErrInvalidPath
	}
	return s.fileIn(rest)
}

func (s *MediaService) fileIn(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name != path.Clean(name) || name == "." || name == ".." {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.Dir, name), nil
}

// Upload validates and stores one image and records its metadata.
func (s *MediaService) Upload(ctx context.Context, in UploadInput) (domain.Image, error) {
	tr := otel.Tracer("services/MediaService")
	ctx, span := tr.Start(ctx, "Upload")
	defer span.End()

	ext := strings.ToLower(filepath.Ext(in.Filename))
	if !allowedExt[ext] || !declaredImage(in.ContentType) {
		return domain.Image{}, ErrUnsupportedFile
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return domain.Image{}, fmt.Errorf("create uploads dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return domain.Image{}, fmt.Errorf("create temp upload: %w", err)
	}
	tmpName := tmp.Name()
	keep := false
	defer func() {
		if !keep {
			_ = os.Remove(tmpName)
		}
	}()

	n, err := io.Copy(tmp, io.LimitReader(in.Reader, s.MaxBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return domain.Image{}, fmt.Errorf("store upload: %w", err)
	}
	if n > s.MaxBytes {
		return domain.Image{}, ErrFileTooLarge
	}

	mt, err := mimetype.DetectFile(tmpName)
	if err != nil {
		return domain.Image{}, fmt.Errorf("sniff upload: %w", err)
	}
	if !sniffedImage(mt) {
		return domain.Image{}, ErrUnsupportedFile
	}

	name := uuid.NewString() + ext
	final := filepath.Join(s.Dir, name)
	if err := os.Rename(tmpName, final); err != nil {
		return domain.Image{}, fmt.Errorf("store upload: %w", err)
	}
	keep = true

	img, err := s.Store.Images().Create(ctx, domain.Image{
		Filename:     name,
		OriginalName: filepath.Base(in.Filename),
		Path:         s.prefix() + "/" + name,
		Size:         n,
	})
	if err != nil {
		if rerr := os.Remove(final); rerr != nil {
			log.Warn().Err(rerr).Str("file", final).Msg("remove orphaned upload")
		}
		return domain.Image{}, err
	}
	span.SetAttributes(attribute.String("image.id", img.ID), attribute.Int64("image.size", n))
	log.Info().Str("image_id", img.ID).Str("path", img.Path).Int64("size", n).Msg("image uploaded")
	return img, nil
}

func sniffedImage(mt *mimetype.MIME) bool {
	for _, m := range allowedMIME {
		if mt.Is(m) {
			return true
		}
	}
	return false
}

func declaredImage(ct string) bool {
	ct = strings.ToLower(ct)
	if !strings.HasPrefix(ct, "image/") {
		return false
	}
	for _, k := range []string{"jpeg", "jpg", "png", "webp"} {
		if strings.Contains(ct, k) {
			return true
		}
	}
	return false
}

// DeleteImage removes the metadata record and, best effort, its file.
func (s *MediaService) DeleteImage(ctx context.Context, id string) error {
	img, err := s.Store.Images().Get(ctx, id)
	if err != nil {
		return notFound(err)
	}
	if local, err := s.LocalPath(img.Path); err == nil {
		if err := os.Remove(local); err != nil {
			log.Warn().Err(err).Str("file", local).Msg("remove image file")
		}
	}
	return notFound(s.Store.Images().Delete(ctx, id))
}

// DeleteUpload removes a stored file by its served path. When BlockID and
// ImageURL are set, matching entries are dropped from that block's image
// list. Metadata records for the path are removed as well. A file that is
// already gone is not an error.
func (s *MediaService) DeleteUpload(ctx context.Context, in DeleteUploadInput) error {
	tr := otel.Tracer("services/MediaService")
	ctx, span := tr.Start(ctx, "DeleteUpload", trace.WithAttributes(attribute.String("upload.path", in.Path)))
	defer span.End()

	if strings.TrimSpace(in.Path) == "" {
		return invalid("path", "is required")
	}
	local, err := s.LocalPath(in.Path)
	if err != nil {
		return err
	}
	if err := os.Remove(local); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove upload: %w", err)
		}
		log.Warn().Str("file", local).Msg("upload already removed")
	}

	if in.BlockID != "" && in.ImageURL != "" {
		if err := s.unlinkFromBlock(ctx, in); err != nil {
			return err
		}
	}

	imgs, err := s.Store.Images().List(ctx)
	if err != nil {
		return err
	}
	for _, img := range imgs {
		if img.Path != in.Path {
			continue
		}
		if err := s.Store.Images().Delete(ctx, img.ID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
	}
	return nil
}

func (s *MediaService) unlinkFromBlock(ctx context.Context, in DeleteUploadInput) error {
	b, err := s.Store.Blocks().Get(ctx, in.BlockID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	cur := b.Images()
	kept := make([]domain.BlockImage, 0, len(cur))
	for _, im := range cur {
		if im.Path != in.ImageURL && im.Path != in.Path {
			kept = append(kept, im)
		}
	}
	if len(kept) == len(cur) {
		return nil
	}
	_, err = s.Store.Blocks().Update(ctx, b.ID, domain.BlockPatch{Images: &kept})
	return err
}
