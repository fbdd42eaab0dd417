// Package pager implements the buffer manager: it owns the database
// file descriptor, demand-loads and writes back fixed-size pages, and
// hands out fresh page numbers. The pager is the sole owner of every
// page buffer it has materialized — callers borrow them, never free or
// reassign them directly.
package pager

import (
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
)

const (
	// PageSize is the fixed size, in bytes, of every page on disk.
	PageSize = 4096

	// TableMaxPages is a safety cap on the number of pages a single
	// database file may contain. Fetching a page beyond this is a fatal
	// invariant violation, not a recoverable condition.
	TableMaxPages = 100
)

// Page is one in-memory materialization of a PageSize-byte page. Its
// Data is mutated in place by callers (the storage package's node
// layout) and written back verbatim by FlushPage.
type Page struct {
	Data [PageSize]byte
}

// Pager owns the open file, the logical page count, and the table of
// materialized page buffers. A nil slot means the page has never been
// fetched in this process; it does not mean the page doesn't exist on
// disk (see GetPage).
type Pager struct {
	File       *os.File
	FileLength int64
	NumPages   uint32
	Pages      []*Page
	log        *slog.Logger
}

// OpenPager opens (creating if absent) the database file at path,
// validates that its length is a whole number of pages, and returns a
// Pager ready to serve GetPage/AllocatePage calls.
//
// A file whose length is not a multiple of PageSize is treated as
// corrupt and reported as a fatal error to the caller, per spec: the
// pager itself never silently truncates or pads a partial page.
func OpenPager(path string) (*Pager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, errors.Wrapf(err, "pager: open %q", path)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "pager: stat %q", path)
	}
	length := fi.Size()
	if length%PageSize != 0 {
		f.Close()
		return nil, errors.Errorf("pager: %q is not a whole number of pages (length=%d): corrupt file", path, length)
	}

	numPages := uint32(length / PageSize)
	p := &Pager{
		File:       f,
		FileLength: length,
		NumPages:   numPages,
		Pages:      make([]*Page, numPages),
		log:        slog.Default(),
	}
	return p, nil
}

// GetPage returns the page buffer for pageNum, materializing it on
// first access. A freshly materialized page beyond the on-disk range
// is zero-valued; the caller is responsible for initializing it as a
// leaf or internal node before use.
func (p *Pager) GetPage(pageNum uint32) (*Page, error) {
	if pageNum >= TableMaxPages {
		return nil, errors.Errorf("pager: page %d out of bounds (max %d)", pageNum, TableMaxPages)
	}

	if int(pageNum) < len(p.Pages) && p.Pages[pageNum] != nil {
		return p.Pages[pageNum], nil
	}

	if int(pageNum) >= len(p.Pages) {
		grown := make([]*Page, pageNum+1)
		copy(grown, p.Pages)
		p.Pages = grown
	}

	page := &Page{}
	if pageNum < p.NumPages {
		off := int64(pageNum) * PageSize
		if _, err := p.File.Seek(off, io.SeekStart); err != nil {
			return nil, errors.Wrapf(err, "pager: seek page %d", pageNum)
		}
		if _, err := io.ReadFull(p.File, page.Data[:]); err != nil {
			return nil, errors.Wrapf(err, "pager: read page %d", pageNum)
		}
		p.log.Debug("pager.get_page", "page", pageNum, "source", "disk")
	} else {
		p.log.Debug("pager.get_page", "page", pageNum, "source", "fresh")
	}

	p.Pages[pageNum] = page
	if pageNum >= p.NumPages {
		p.NumPages = pageNum + 1
	}
	return page, nil
}

// FlushPage writes exactly PageSize bytes of the named page back to
// disk at its slot. Flushing a page that was never materialized is a
// fatal invariant violation.
func (p *Pager) FlushPage(pageNum uint32) error {
	if int(pageNum) >= len(p.Pages) || p.Pages[pageNum] == nil {
		return errors.Errorf("pager: tried to flush unmaterialized page %d", pageNum)
	}
	off := int64(pageNum) * PageSize
	if _, err := p.File.Seek(off, io.SeekStart); err != nil {
		return errors.Wrapf(err, "pager: seek page %d", pageNum)
	}
	if _, err := p.File.Write(p.Pages[pageNum].Data[:]); err != nil {
		return errors.Wrapf(err, "pager: write page %d", pageNum)
	}
	p.log.Debug("pager.flush_page", "page", pageNum)
	return nil
}

// GetUnusedPageNum returns the next page number that will be allocated.
// Until page recycling is implemented, fresh pages are always appended
// to the end of the logical file.
func (p *Pager) GetUnusedPageNum() uint32 {
	return p.NumPages
}

// AllocatePage hands out a fresh page number and materializes a
// zero-valued buffer for it (the caller must initialize it as a leaf
// or internal node). The page is not on disk until the next FlushPage.
func (p *Pager) AllocatePage() (uint32, *Page, error) {
	pageNum := p.GetUnusedPageNum()
	page, err := p.GetPage(pageNum)
	if err != nil {
		return 0, nil, err
	}
	return pageNum, page, nil
}

// Close flushes every materialized page, closes the file descriptor,
// and releases all buffers. After Close the Pager must not be used.
func (p *Pager) Close() error {
	for i := uint32(0); i < p.NumPages; i++ {
		if int(i) >= len(p.Pages) || p.Pages[i] == nil {
			continue
		}
		if err := p.FlushPage(i); err != nil {
			return err
		}
		p.Pages[i] = nil
	}
	for i := range p.Pages {
		p.Pages[i] = nil
	}
	if err := p.File.Close(); err != nil {
		return errors.Wrap(err, "pager: close file")
	}
	return nil
}
