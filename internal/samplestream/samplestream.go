// Package samplestream reads and writes line oriented sample files, transparently handling
// xz compressed files (".xz" extension).
package samplestream

import (
	"bufio"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

// XZExtension marks compressed sample files.
const XZExtension = ".xz"

// MaxLineSize is the longest line accepted by Lines.
var MaxLineSize = 1 << 20

// Lines returns an iterator over the lines of the file at filePath, without line terminators.
// filePath "-" reads from standard input.
//
// The file is opened when the iteration starts, so the iterator can be used more than once.
func Lines(filePath string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var r io.Reader = os.Stdin
		if filePath != "-" {
			f, err := os.Open(filePath)
			if err != nil {
				yield("", errors.Wrapf(err, "failed to open sample file %q", filePath))
				return
			}
			defer func() { _ = f.Close() }()
			r = f
		}
		if strings.HasSuffix(filePath, XZExtension) {
			xzReader, err := xz.NewReader(r)
			if err != nil {
				yield("", errors.Wrapf(err, "failed to read xz header of %q", filePath))
				return
			}
			r = xzReader
		}
		for line, err := range ReaderLines(r) {
			if err != nil {
				err = errors.WithMessagef(err, "reading %q", filePath)
			}
			if !yield(line, err) || err != nil {
				return
			}
		}
	}
}

// ReaderLines returns an iterator over the lines of r. It can only be used once.
func ReaderLines(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
		for scanner.Scan() {
			if !yield(strings.TrimSuffix(scanner.Text(), "\r"), nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", errors.Wrap(err, "failed to read line"))
		}
	}
}

// Create creates the file at filePath for writing samples, compressing them if filePath has the
// ".xz" extension. filePath "-" writes to standard output. Close must be called to flush the output.
func Create(filePath string) (io.WriteCloser, error) {
	if filePath == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %q", filePath)
	}
	if !strings.HasSuffix(filePath, XZExtension) {
		return f, nil
	}
	xzWriter, err := xz.NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "failed to create xz writer for %q", filePath)
	}
	return &xzFile{Writer: xzWriter, file: f}, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// xzFile closes both the compressor and the underlying file.
type xzFile struct {
	*xz.Writer
	file *os.File
}

func (x *xzFile) Close() error {
	if err := x.Writer.Close(); err != nil {
		_ = x.file.Close()
		return errors.Wrapf(err, "failed to flush xz stream of %q", x.file.Name())
	}
	return errors.Wrapf(x.file.Close(), "failed to close %q", x.file.Name())
}
