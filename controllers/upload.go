package controllers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/pizzeria-app/utils"
)

const productImageDir = "products"

var allowedImageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ImageUploader stores product images on disk under Dir and hands back the
// public path they are served from.
type ImageUploader struct {
	Dir          string
	PublicPrefix string
	MaxSize      int64
	now          func() time.Time
}

func NewImageUploader(dir string, maxSize int64) *ImageUploader {
	return &ImageUploader{
		Dir:          dir,
		PublicPrefix: "/uploads",
		MaxSize:      maxSize,
		now:          time.Now,
	}
}

// Save validates the upload and writes it as <unixMillis>-<name>.
func (u *ImageUploader) Save(c *gin.Context, file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	wantType, ok := allowedImageTypes[ext]
	if !ok {
		return "", utils.NewValidationError("image must be a jpeg, jpg, png or webp file")
	}
	if file.Size > u.MaxSize {
		return "", utils.NewValidationError("image must be at most %d MB", u.MaxSize>>20)
	}

	sniffed, err := sniffContentType(file)
	if err != nil {
		return "", utils.NewValidationError("image could not be read")
	}
	if sniffed != wantType {
		return "", utils.NewValidationError("image content does not match its %s extension", ext)
	}

	// Buat direktori untuk menyimpan gambar jika belum ada
	dir := filepath.Join(u.Dir, productImageDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", utils.NewInternalError(err)
	}

	filename := fmt.Sprintf("%d-%s", u.now().UnixMilli(), sanitizeFilename(file.Filename))
	if err := c.SaveUploadedFile(file, filepath.Join(dir, filename)); err != nil {
		return "", utils.NewInternalError(err)
	}
	return path.Join(u.PublicPrefix, productImageDir, filename), nil
}

// Remove deletes a file previously returned by Save. Other paths are ignored.
func (u *ImageUploader) Remove(publicPath string) {
	prefix := path.Join(u.PublicPrefix, productImageDir) + "/"
	if !strings.HasPrefix(publicPath, prefix) {
		return
	}
	name := filepath.Base(strings.TrimPrefix(publicPath, prefix))
	if err := os.Remove(filepath.Join(u.Dir, productImageDir, name)); err != nil && !os.IsNotExist(err) {
		utils.ErrorLogger.Printf("Error removing image %s: %v", publicPath, err)
	}
}

func sniffContentType(file *multipart.FileHeader) (string, error) {
	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
