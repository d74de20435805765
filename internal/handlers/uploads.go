package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// maxUploadMemory bounds the in-memory portion of multipart parsing; larger
// parts spill to disk.
const maxUploadMemory = 32 << 20

// formFile returns the named multipart file, or nil when absent.
func formFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read form file %s: %w", field, err)
	}
	return file, header, nil
}

// assetKey builds a unique object key under the provided prefix, keeping
// the original file extension.
func assetKey(prefix, filename string) string {
	return fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), filepath.Ext(filename))
}

// spoolToTemp copies an uploaded part to a temporary file so it can be
// probed and re-read. The caller must invoke cleanup.
func spoolToTemp(file multipart.File, pattern string) (path string, cleanup func(), err error) {
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", nil, fmt.Errorf("create temp upload: %w", err)
	}

	cleanup = func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}

	if _, err := io.Copy(tmp, file); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("spool upload: %w", err)
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("rewind upload: %w", err)
	}

	return tmp.Name(), cleanup, nil
}
