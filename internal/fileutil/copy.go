// Package fileutil implements the buffered file transfer shared by the
// pipeline copiers and the copy command.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/cespare/xxhash/v2"
)

const (
	DefaultBufferSize = 4096
	DefaultMode       = 0o644
)

var (
	ErrDestinationExists = errors.New("destination file already exists")
	ErrInvalidBufferSize = errors.New("buffer size must be greater than zero")
	ErrChecksumMismatch  = errors.New("copy checksum mismatch")
)

type CopyOption func(*copyConfig)

type copyConfig struct {
	bufferSize int
	force      bool
	verify     bool
	mode       os.FileMode
}

// WithBufferSize sets the number of bytes moved per read/write round.
func WithBufferSize(n int) CopyOption {
	return func(c *copyConfig) {
		c.bufferSize = n
	}
}

// WithForce truncates an existing destination instead of failing with
// ErrDestinationExists.
func WithForce(force bool) CopyOption {
	return func(c *copyConfig) {
		c.force = force
	}
}

// WithVerify re-reads the destination after the copy and compares digests.
// The destination is removed on mismatch.
func WithVerify(verify bool) CopyOption {
	return func(c *copyConfig) {
		c.verify = verify
	}
}

func WithMode(mode os.FileMode) CopyOption {
	return func(c *copyConfig) {
		c.mode = mode
	}
}

// Result describes a completed copy.
type Result struct {
	Bytes    int64
	Checksum uint64
}

// ChecksumString renders the digest the way it is stored in the manifest.
func (r Result) ChecksumString() string {
	return fmt.Sprintf("%016x", r.Checksum)
}

// CopyFile streams src to dst through a fixed-size buffer. The returned
// checksum is the xxhash64 digest of the bytes read from src.
func CopyFile(src, dst string, opts ...CopyOption) (Result, error) {
	cfg := copyConfig{
		bufferSize: DefaultBufferSize,
		mode:       DefaultMode,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.bufferSize <= 0 {
		return Result{}, ErrInvalidBufferSize
	}

	in, err := os.Open(src)
	if err != nil {
		return Result{}, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	flags := os.O_CREATE | os.O_WRONLY
	if cfg.force {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}

	out, err := os.OpenFile(dst, flags, cfg.mode)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return Result{}, fmt.Errorf("%w: %s", ErrDestinationExists, dst)
		}
		return Result{}, fmt.Errorf("open destination: %w", err)
	}
	defer func() {
		_ = out.Close()
	}()

	digest := xxhash.New()
	buf := make([]byte, cfg.bufferSize)

	// onlyWriter hides out's ReadFrom so the buffer size is honoured.
	written, err := io.CopyBuffer(onlyWriter{out}, io.TeeReader(in, digest), buf)
	if err != nil {
		return Result{}, fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return Result{}, fmt.Errorf("close destination: %w", err)
	}

	res := Result{Bytes: written, Checksum: digest.Sum64()}

	if cfg.verify {
		if err := verify(dst, res, buf); err != nil {
			_ = os.Remove(dst)
			return Result{}, err
		}
	}

	return res, nil
}

func verify(dst string, want Result, buf []byte) error {
	f, err := os.Open(dst)
	if err != nil {
		return fmt.Errorf("open copy for verification: %w", err)
	}
	defer f.Close()

	digest := xxhash.New()
	n, err := io.CopyBuffer(digest, onlyReader{f}, buf)
	if err != nil {
		return fmt.Errorf("read copy for verification: %w", err)
	}

	if n != want.Bytes {
		return fmt.Errorf("%w: source %d bytes, copied %d bytes", ErrChecksumMismatch, want.Bytes, n)
	}
	if got := digest.Sum64(); got != want.Checksum {
		return fmt.Errorf("%w: source %016x, copy %016x", ErrChecksumMismatch, want.Checksum, got)
	}
	return nil
}

type onlyWriter struct {
	io.Writer
}

type onlyReader struct {
	io.Reader
}
