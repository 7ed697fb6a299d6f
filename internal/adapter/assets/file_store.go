package assets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BekhruzCo/soma-selecto/internal/domain"
)

// allowedExtensions — допустимые форматы изображений товаров.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// FileStore хранит изображения товаров на диске. Файл получает имя
// <id товара><расширение оригинала> и отдаётся по публичному префиксу
// (/uploads по умолчанию).
type FileStore struct {
	Dir    string
	Prefix string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &FileStore{Dir: dir, Prefix: "/uploads"}, nil
}

func (s *FileStore) Save(id string, upload domain.AssetUpload) (string, error) {
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %q (allowed: jpg, jpeg, png, webp)", domain.ErrUnsupportedMedia, ext)
	}
	dst := filepath.Join(s.Dir, id+ext)
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create asset file: %w", err)
	}
	if _, err := io.Copy(f, upload.Data); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write asset file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("close asset file: %w", err)
	}
	return s.Prefix + "/" + id + ext, nil
}

// Remove удаляет файл по публичному пути. Отсутствующий файл не ошибка.
func (s *FileStore) Remove(path string) error {
	name := strings.TrimPrefix(path, s.Prefix+"/")
	if name == "" || name == ".." || strings.Contains(name, "/") {
		return fmt.Errorf("%w: bad asset path %q", domain.ErrValidation, path)
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

var _ domain.AssetStore = (*FileStore)(nil)
