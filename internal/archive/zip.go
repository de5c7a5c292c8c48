package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
)

// ZipDirectory writes every regular file directly inside dir into a DEFLATE
// compressed zip at zipPath. Entries are flat: the archive name equals the
// file name, subdirectories are not descended into.
func ZipDirectory(dir, zipPath string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	f, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := addFile(zw, filepath.Join(dir, entry.Name()), entry.Name()); err != nil {
			zw.Close()
			return err
		}
	}
	return zw.Close()
}

func addFile(zw *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   name,
		Method: zip.Deflate,
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
