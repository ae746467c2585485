package container

import (
	"io"
	"os"

	"github.com/klauspost/compress/zip"

	"github.com/cookware/cargo-cook/module/cook/ingredient"
	"github.com/cookware/cargo-cook/util/common/errors"
)

// Zip is the deflate-compressed "zip" container.
type Zip struct{}

func (Zip) Name() string { return "zip" }

func (z Zip) Compress(w io.Writer, files ingredient.Manifest) (int64, error) {
	zw := zip.NewWriter(w)
	var raw int64
	for _, f := range files {
		n, err := appendZip(zw, f)
		if err != nil {
			return 0, errors.NewArchiveError(z.Name(), f.Source, err)
		}
		raw += n
	}
	if err := zw.Close(); err != nil {
		return 0, errors.NewArchiveError(z.Name(), "", err)
	}
	return raw, nil
}

func appendZip(zw *zip.Writer, entry ingredient.FileEntry) (int64, error) {
	f, err := os.Open(entry.Source)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return 0, err
	}
	hdr.Name = entry.Destination
	if info.IsDir() {
		hdr.Name += "/"
		_, err = zw.CreateHeader(hdr)
		return 0, err
	}
	hdr.Method = zip.Deflate
	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return 0, err
	}
	return io.Copy(dst, f)
}
