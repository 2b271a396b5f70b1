package lifecycle

import (
	"fmt"
	"os"

	"github.com/mholt/archiver/v3"

	"github.com/promopipe/promokeeper/internal/batch"
)

// Compression writes to a .partial.tar.gz sibling first and renames it into
// place only after the result verifies, so a crash at any point leaves either
// the original directory intact or both the directory and a complete archive.
// The original is deleted last, never before the archive is confirmed.

// minArchiveBytes is the smallest plausible non-empty tar.gz; anything
// shorter is treated as truncated.
const minArchiveBytes = 64

func (e *Executor) compress(b batch.Batch) error {
	if _, err := os.Stat(b.Path); err != nil {
		if os.IsNotExist(err) {
			return ErrVanished
		}
		return fmt.Errorf("stat %s: %w", b.Path, err)
	}

	final := b.Path + batch.CompressedExt
	partial := b.Path + batch.PartialExt

	// A complete archive plus a surviving directory means a previous run
	// died between verification and directory removal. Finish that
	// transition instead of recompressing.
	if info, err := os.Stat(final); err == nil && info.Size() >= minArchiveBytes {
		if err := os.RemoveAll(b.Path); err != nil {
			return fmt.Errorf("remove %s after verified archive: %w", b.Path, err)
		}
		return nil
	}

	// Stale partial from an interrupted run; the archiver refuses to
	// overwrite otherwise.
	if err := os.Remove(partial); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale partial %s: %w", partial, err)
	}

	tgz := archiver.NewTarGz()
	tgz.OverwriteExisting = true
	tgz.MkdirAll = true
	if err := tgz.Archive([]string{b.Path}, partial); err != nil {
		// Never leave a truncated result behind for the next pass to
		// mistake for a real archive.
		_ = os.Remove(partial)
		return fmt.Errorf("compress %s: %w", b.Name, err)
	}

	info, err := os.Stat(partial)
	if err != nil {
		return fmt.Errorf("verify archive %s: %w", partial, err)
	}
	if info.Size() < minArchiveBytes {
		_ = os.Remove(partial)
		return fmt.Errorf("archive %s is truncated (%d bytes)", partial, info.Size())
	}

	if err := os.Rename(partial, final); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("finalize archive %s: %w", final, err)
	}

	// Carry the original creation time onto the archive file so the purge
	// threshold keeps measuring from the scrape run, not from compression.
	if err := os.Chtimes(final, b.CreatedAt, b.CreatedAt); err != nil {
		return fmt.Errorf("set archive mtime %s: %w", final, err)
	}

	if err := os.RemoveAll(b.Path); err != nil {
		return fmt.Errorf("remove original %s after compression: %w", b.Path, err)
	}
	return nil
}
