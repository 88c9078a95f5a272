package zipatch

import (
	"context"
	"io"
	"os"

	"golang.org/x/xerrors"

	"github.com/distr1/zipatch/sqpack"
)

// Patch is a decoded handle onto a ZiPatch stream: its magic has been
// verified and its FHDR chunk located, but no SQPK command has been
// applied yet. ChangeSet, ActualCounts and ApplyAll each re-run the
// chunk codec over the stream from just after the magic.
type Patch struct {
	r         io.ReadSeeker
	bodyStart int64
	header    *FileHeaderChunk
}

// Open opens the file at path and decodes it as a ZiPatch stream.
func Open(path string) (*Patch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("opening patch file: %w", err)
	}
	p, err := OpenStream(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return p, nil
}

// OpenStream verifies r's magic header, locates its FHDR chunk, and
// rewinds r to the position just after the magic so later passes can
// re-decode the whole chunk sequence.
func OpenStream(r io.ReadSeeker) (*Patch, error) {
	if err := verifyMagic(r); err != nil {
		return nil, err
	}
	bodyStart, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, xerrors.Errorf("recording post-magic position: %w", err)
	}

	header, err := locateHeader(r, bodyStart)
	if err != nil {
		return nil, err
	}

	if _, err := r.Seek(bodyStart, io.SeekStart); err != nil {
		return nil, xerrors.Errorf("rewinding to post-magic position: %w", err)
	}
	return &Patch{r: r, bodyStart: bodyStart, header: header}, nil
}

// locateHeader scans chunks from r's current position (base bytes into
// the stream) until it finds FHDR, returning ErrHeaderNotFound if EOF_
// arrives first.
func locateHeader(r io.Reader, base int64) (*FileHeaderChunk, error) {
	d := newDecoder(r, base)
	for {
		chunk, err := d.decodeChunk()
		if err != nil {
			return nil, err
		}
		switch c := chunk.(type) {
		case *FileHeaderChunk:
			return c, nil
		case *EOFChunk:
			return nil, ErrHeaderNotFound
		}
	}
}

// Header returns the patch's decoded FHDR chunk.
func (p *Patch) Header() *FileHeaderChunk {
	return p.header
}

// rewind seeks back to the position just after the magic, so a fresh
// pass starts at the same place every time.
func (p *Patch) rewind() (*decoder, error) {
	if _, err := p.r.Seek(p.bodyStart, io.SeekStart); err != nil {
		return nil, xerrors.Errorf("rewinding patch stream: %w", err)
	}
	return newDecoder(p.r, p.bodyStart), nil
}

// walk decodes every chunk from just after the magic through EOF_,
// invoking visit on each one (EOF_ included).
func (p *Patch) walk(visit func(Chunk) error) error {
	d, err := p.rewind()
	if err != nil {
		return err
	}
	for {
		chunk, err := d.decodeChunk()
		if err != nil {
			return err
		}
		if err := visit(chunk); err != nil {
			return err
		}
		if _, ok := chunk.(*EOFChunk); ok {
			return nil
		}
	}
}

// ApplyAll iterates chunks from just after the magic until EOF_,
// invoking each chunk's Apply against cfg in strict stream order.
func (p *Patch) ApplyAll(cfg *sqpack.Config) error {
	return p.ApplyAllContext(context.Background(), cfg)
}

// ApplyAllContext behaves like ApplyAll but checks ctx between chunks,
// so a long apply pass over a large patch stops promptly once ctx is
// canceled (see InterruptibleContext) instead of running to completion.
func (p *Patch) ApplyAllContext(ctx context.Context, cfg *sqpack.Config) error {
	d, err := p.rewind()
	if err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, err := d.decodeChunk()
		if err != nil {
			return err
		}
		if err := chunk.Apply(cfg); err != nil {
			return err
		}
		if _, ok := chunk.(*EOFChunk); ok {
			return nil
		}
	}
}
