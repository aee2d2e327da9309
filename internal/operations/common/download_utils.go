package common

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// ProgressFunc receives the bytes written so far and the expected total,
// which is -1 when the server did not send a length.
type ProgressFunc func(written, total int64)

// CopyWithContext copies data from src to dst with context cancellation support
func CopyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	return CopyWithProgress(ctx, dst, src, -1, nil)
}

// CopyWithProgress is CopyWithContext reporting progress after every chunk
func CopyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64, progress ProgressFunc) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64

	for {
		// Check for cancellation before each read
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		nr, readErr := src.Read(buf)
		if nr > 0 {
			nw, writeErr := dst.Write(buf[:nr])
			if nw > 0 {
				written += int64(nw)
				if progress != nil {
					progress(written, total)
				}
			}
			if writeErr != nil {
				return written, writeErr
			}
			if nr != nw {
				return written, io.ErrShortWrite
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return written, nil
			}
			return written, readErr
		}
	}
}

// MoveFile moves a file from src to dst, handling cross-device links
func MoveFile(logger *logrus.Entry, src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	logger.Debug("Rename failed, falling back to copy+delete")

	if err := CopyFile(src, dst); err != nil {
		os.Remove(dst)
		return err
	}

	if err := os.Remove(src); err != nil {
		logger.WithError(err).Warning("Failed to remove source file after copy")
	}

	return nil
}

// CopyFile copies a regular file keeping its mode bits
func CopyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return FSError("open", src, err)
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return FSError("stat", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return FSError("mkdir", filepath.Dir(dst), err)
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return FSError("create", dst, err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return FSError("copy", dst, err)
	}

	if err := dstFile.Sync(); err != nil {
		return FSError("sync", dst, err)
	}

	// OpenFile honours umask, chmod does not
	return FSError("chmod", dst, os.Chmod(dst, info.Mode().Perm()))
}

// CopyTree copies the directory src into dst. Existing files in dst are
// overwritten, symlinks are recreated rather than followed.
func CopyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return FSError("stat", src, err)
	}
	if !info.IsDir() {
		return FSError("copy", src, fmt.Errorf("not a directory"))
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return FSError("walk", path, err)
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			fi, err := d.Info()
			if err != nil {
				return FSError("stat", path, err)
			}
			if err := os.MkdirAll(target, fi.Mode().Perm()); err != nil {
				return FSError("mkdir", target, err)
			}
			return nil
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return FSError("readlink", path, err)
			}
			os.Remove(target)
			return FSError("symlink", target, os.Symlink(link, target))
		case d.Type().IsRegular():
			return CopyFile(path, target)
		default:
			return nil
		}
	})
}

// PathExists reports whether path exists, failing on errors other than
// not-exist
func PathExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, FSError("stat", path, err)
}
