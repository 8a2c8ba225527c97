package blob

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/contracts-parser/internal/common"
)

// PutResult describes a stored object.
type PutResult struct {
	Key    string
	Size   int64
	SHA256 string
}

// LocalFS stores objects as files under Root.
type LocalFS struct {
	Root string
}

func (l LocalFS) abs(relPath string) (string, string, error) {
	clean := filepath.Clean(relPath)
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", "", common.WrapError(common.ErrInvalidInput, fmt.Sprintf("invalid blob key %q", relPath))
	}
	return clean, filepath.Join(l.Root, clean), nil
}

// Put writes r to relPath through a temp file, so readers never see a partial object.
func (l LocalFS) Put(relPath string, r io.Reader) (PutResult, error) {
	clean, abs, err := l.abs(relPath)
	if err != nil {
		return PutResult{}, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return PutResult{}, err
	}
	f, err := os.CreateTemp(filepath.Dir(abs), ".upload-*")
	if err != nil {
		return PutResult{}, err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), r)
	if err != nil {
		_ = f.Close()
		return PutResult{}, err
	}
	if err := f.Close(); err != nil {
		return PutResult{}, err
	}
	if err := os.Rename(tmp, abs); err != nil {
		return PutResult{}, err
	}
	return PutResult{Key: clean, Size: n, SHA256: hex.EncodeToString(h.Sum(nil))}, nil
}

// Open returns the object; a missing object wraps common.ErrNotFound.
func (l LocalFS) Open(relPath string) (*os.File, error) {
	_, abs, err := l.abs(relPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if errors.Is(err, os.ErrNotExist) {
		return nil, common.WrapError(common.ErrNotFound, "blob "+relPath)
	}
	return f, err
}

func (l LocalFS) Exists(relPath string) bool {
	_, abs, err := l.abs(relPath)
	if err != nil {
		return false
	}
	st, err := os.Stat(abs)
	return err == nil && !st.IsDir()
}

// Path is the absolute filesystem path of an object, for tools that need a file name.
func (l LocalFS) Path(relPath string) (string, error) {
	_, abs, err := l.abs(relPath)
	return abs, err
}
