// Package fs implementa archive.BlobStore sobre el sistema de archivos local.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/archive"
)

var _ archive.BlobStore = (*Store)(nil)

// Store guarda cada clave como archivo relativo a root. Las escrituras van a un
// temporal y se renombran, así un lector nunca ve un archivo a medias.
type Store struct {
	root string
}

// New crea el directorio raíz si no existe.
func New(root string) (*Store, error) {
	if root == "" {
		root = "./archive"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("clave vacía")
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("clave inválida %q", key)
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}

func (s *Store) pathFor(key string) (string, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(k)), nil
}

// Put escribe r bajo key; falla si ya existe.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, contentType string) (archive.BlobInfo, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return archive.BlobInfo{}, err
	}
	if _, err := os.Stat(path); err == nil {
		return archive.BlobInfo{}, fmt.Errorf("el objeto %s ya existe", key)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return archive.BlobInfo{}, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return archive.BlobInfo{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		_ = tmp.Close()
		return archive.BlobInfo{}, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return archive.BlobInfo{}, err
	}
	if err := tmp.Close(); err != nil {
		return archive.BlobInfo{}, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return archive.BlobInfo{}, err
	}
	st, err := os.Stat(path)
	if err != nil {
		return archive.BlobInfo{}, err
	}
	return archive.BlobInfo{
		Key:          key,
		Size:         size,
		ContentType:  contentType,
		ETag:         hex.EncodeToString(h.Sum(nil)),
		LastModified: st.ModTime().UTC(),
	}, nil
}

// Get abre el objeto para lectura; el llamador debe cerrarlo.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// List objetos cuya clave empieza por prefix, ordenados por clave.
func (s *Store) List(ctx context.Context, prefix string) ([]archive.BlobInfo, error) {
	infos := []archive.BlobInfo{}
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}
		st, err := d.Info()
		if err != nil {
			return err
		}
		infos = append(infos, archive.BlobInfo{Key: key, Size: st.Size(), LastModified: st.ModTime().UTC()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}
