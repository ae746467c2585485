package container

import (
	"archive/tar"
	"io"
	"os"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/cookware/cargo-cook/module/cook/ingredient"
	"github.com/cookware/cargo-cook/util/common/errors"
)

// Tar is the uncompressed "tar" container.
type Tar struct{}

func (Tar) Name() string { return "tar" }

func (t Tar) Compress(w io.Writer, files ingredient.Manifest) (int64, error) {
	return writeTar(t.Name(), w, files)
}

func writeTar(container string, w io.Writer, files ingredient.Manifest) (int64, error) {
	cw := &countingWriter{w: w}
	tw := tar.NewWriter(cw)
	for _, f := range files {
		if err := appendTar(tw, f); err != nil {
			return 0, errors.NewArchiveError(container, f.Source, err)
		}
	}
	if err := tw.Close(); err != nil {
		return 0, errors.NewArchiveError(container, "", err)
	}
	return cw.n, nil
}

func appendTar(tw *tar.Writer, entry ingredient.FileEntry) error {
	f, err := os.Open(entry.Source)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = entry.Destination
	if info.IsDir() {
		hdr.Name += "/"
		return tw.WriteHeader(hdr)
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}

type encoderFunc func(w io.Writer) (io.WriteCloser, error)

// compressedTar streams a tar archive through a compression encoder.
type compressedTar struct {
	name   string
	encode encoderFunc
}

func newCompressedTar(name string, encode encoderFunc) compressedTar {
	return compressedTar{name: name, encode: encode}
}

func (c compressedTar) Name() string { return c.name }

func (c compressedTar) Compress(w io.Writer, files ingredient.Manifest) (int64, error) {
	enc, err := c.encode(w)
	if err != nil {
		return 0, errors.NewArchiveError(c.name, "", err)
	}
	raw, err := writeTar(c.name, enc, files)
	if err != nil {
		enc.Close()
		return 0, err
	}
	if err := enc.Close(); err != nil {
		return 0, errors.NewArchiveError(c.name, "", err)
	}
	return raw, nil
}

func gzipWriter(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(w, gzip.BestCompression)
}

func bzip2Writer(w io.Writer) (io.WriteCloser, error) {
	return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.BestCompression})
}

func xzWriter(w io.Writer) (io.WriteCloser, error) {
	return xz.NewWriter(w)
}

func zstdWriter(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression), zstd.WithEncoderConcurrency(1))
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
