package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nailstudio/salon-backend/internal/domain"
	"github.com/nailstudio/salon-backend/internal/repo"
)

// pngBytes is a PNG signature followed by an IHDR chunk header, enough for
// content sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00"), bytes.Repeat([]byte{0}, 64)...)

func newMediaService(t *testing.T) (*MediaService, repo.Store) {
	t.Helper()
	st := repo.NewMemory()
	return &MediaService{Store: st, Dir: t.TempDir(), URLPrefix: "/uploads", MaxBytes: 1024}, st
}

func upload(t *testing.T, svc *MediaService, name, ct string, body []byte) (domain.Image, error) {
	t.Helper()
	return svc.Upload(context.Background(), UploadInput{Filename: name, ContentType: ct, Reader: bytes.NewReader(body)})
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var names []string
	for _, e := range ents {
		names = append(names, e.Name())
	}
	return names
}

func TestUpload_StoresFileAndRecord(t *testing.T) {
	svc, st := newMediaService(t)

	img, err := upload(t, svc, "My Nails.PNG", "image/png", pngBytes)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(img.Path, "/uploads/") || !strings.HasSuffix(img.Filename, ".png") {
		t.Fatalf("unexpected image: %+v", img)
	}
	if img.OriginalName != "My Nails.PNG" || img.Size != int64(len(pngBytes)) || img.Path != "/uploads/"+img.Filename {
		t.Fatalf("unexpected metadata: %+v", img)
	}
	raw, err := os.ReadFile(filepath.Join(svc.Dir, img.Filename))
	if err != nil || !bytes.Equal(raw, pngBytes) {
		t.Fatalf("stored file mismatch: err=%v", err)
	}
	if names := dirEntries(t, svc.Dir); len(names) != 1 {
		t.Fatalf("dir = %v; want only the stored file", names)
	}
	if _, err := st.Images().Get(context.Background(), img.ID); err != nil {
		t.Fatalf("record missing: %v", err)
	}
}

func TestUpload_Rejections(t *testing.T) {
	cases := []struct {
		name, file, ct string
		body           []byte
		want           error
	}{
		{"extension", "a.gif", "image/png", pngBytes, ErrUnsupportedFile},
		{"declared type", "a.png", "text/plain", pngBytes, ErrUnsupportedFile},
		{"sniffed type", "a.png", "image/png", []byte("definitely not an image, just text"), ErrUnsupportedFile},
		{"too large", "a.png", "image/png", append(append([]byte{}, pngBytes...), make([]byte, 2048)...), ErrFileTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, st := newMediaService(t)
			_, err := upload(t, svc, tc.file, tc.ct, tc.body)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v; want %v", err, tc.want)
			}
			if names := dirEntries(t, svc.Dir); len(names) != 0 {
				t.Fatalf("leftover files: %v", names)
			}
			if imgs, _ := st.Images().List(context.Background()); len(imgs) != 0 {
				t.Fatalf("leftover records: %v", imgs)
			}
		})
	}
}

func TestLocalPath(t *testing.T) {
	svc, _ := newMediaService(t)
	ok := map[string]string{
		"/uploads/a.png": filepath.Join(svc.Dir, "a.png"),
	}
	for in, want := range ok {
		got, err := svc.LocalPath(in)
		if err != nil || got != want {
			t.Fatalf("LocalPath(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	bad := []string{
		"", "/uploads/", "/uploads", "/other/a.png", "uploads/a.png",
		"/uploads/../secret", "/uploads/..", "/uploads/sub/a.png", `/uploads/..\secret`,
	}
	for _, in := range bad {
		if _, err := svc.LocalPath(in); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("LocalPath(%q) err = %v; want ErrInvalidPath", in, err)
		}
	}
}

func TestDeleteUpload_RemovesFileRecordAndBlockReference(t *testing.T) {
	svc, st := newMediaService(t)
	ctx := context.Background()
	img, err := upload(t, svc, "a.png", "image/png", pngBytes)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	other := domain.BlockImage{Path: "/uploads/keep.png", Width: 10, Height: 10}
	b, err := st.Blocks().Create(ctx, domain.Block{
		Type:    domain.BlockAbout,
		Title:   "About",
		Enabled: true,
		Body:    domain.AboutBody{Images: []domain.BlockImage{{Path: img.Path}, other}},
	})
	if err != nil {
		t.Fatalf("create block: %v", err)
	}

	if err := svc.DeleteUpload(ctx, DeleteUploadInput{Path: img.Path, BlockID: b.ID, ImageURL: img.Path}); err != nil {
		t.Fatalf("DeleteUpload: %v", err)
	}
	if _, err := os.Stat(filepath.Join(svc.Dir, img.Filename)); !os.IsNotExist(err) {
		t.Fatalf("file still present: %v", err)
	}
	if _, err := st.Images().Get(ctx, img.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("record still present: %v", err)
	}
	got, _ := st.Blocks().Get(ctx, b.ID)
	if imgs := got.Images(); len(imgs) != 1 || imgs[0] != other {
		t.Fatalf("block images = %+v", imgs)
	}
}

func TestDeleteUpload_Errors(t *testing.T) {
	svc, _ := newMediaService(t)
	ctx := context.Background()

	var ve *ValidationError
	if err := svc.DeleteUpload(ctx, DeleteUploadInput{}); !errors.As(err, &ve) || ve.Field != "path" {
		t.Fatalf("empty path: %v", err)
	}
	if err := svc.DeleteUpload(ctx, DeleteUploadInput{Path: "/etc/passwd"}); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("outside prefix: %v", err)
	}
	if err := svc.DeleteUpload(ctx, DeleteUploadInput{Path: "/uploads/../../etc/passwd"}); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("traversal: %v", err)
	}
	if err := svc.DeleteUpload(ctx, DeleteUploadInput{Path: "/uploads/missing.png", BlockID: "nope", ImageURL: "/uploads/missing.png"}); err != nil {
		t.Fatalf("missing file and block should be tolerated: %v", err)
	}
}

func TestDeleteImage(t *testing.T) {
	svc, st := newMediaService(t)
	ctx := context.Background()

	if err := svc.DeleteImage(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	img, err := upload(t, svc, "a.png", "image/png", pngBytes)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := svc.DeleteImage(ctx, img.ID); err != nil {
		t.Fatalf("DeleteImage: %v", err)
	}
	if names := dirEntries(t, svc.Dir); len(names) != 0 {
		t.Fatalf("file not removed: %v", names)
	}

	// A record whose file is already gone is still removed.
	orphan, _ := st.Images().Create(ctx, domain.Image{Filename: "gone.png", OriginalName: "gone.png", Path: "/uploads/gone.png"})
	if err := svc.DeleteImage(ctx, orphan.ID); err != nil {
		t.Fatalf("DeleteImage orphan: %v", err)
	}
}
