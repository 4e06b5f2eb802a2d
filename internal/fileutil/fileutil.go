package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to a temp file beside dst and renames it into
// place, so readers never observe a partial file. Parent directories are
// created as needed.
func WriteFileAtomic(dst string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// WriteFileVerified writes data atomically and re-reads dst to confirm the
// SHA256 and size match. Removes dst on mismatch.
func WriteFileVerified(dst string, data []byte, mode os.FileMode) error {
	if err := WriteFileAtomic(dst, data, mode); err != nil {
		return err
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		return fmt.Errorf("verify read: %w", err)
	}
	if len(got) != len(data) {
		_ = os.Remove(dst)
		return fmt.Errorf("write size mismatch: expected %d bytes, found %d bytes", len(data), len(got))
	}
	want := sha256.Sum256(data)
	have := sha256.Sum256(got)
	if !bytes.Equal(want[:], have[:]) {
		_ = os.Remove(dst)
		return fmt.Errorf("write hash mismatch: file corrupted during write")
	}
	return nil
}
