package jobs

import (
	"context"
	"fmt"
	"time"

	"catalog/internal/metrics"
	"catalog/internal/storage"

	"github.com/rs/zerolog"
)

// ImagePathSource lists the blob paths that product rows still reference.
type ImagePathSource interface {
	ImagePaths(ctx context.Context) (map[string]struct{}, error)
}

// OrphanSweeper removes blobs under a namespace that no product references.
// Blobs younger than grace are left alone so an in-flight create or update
// never loses the blob it just stored.
type OrphanSweeper struct {
	paths     ImagePathSource
	blobStore storage.BlobStore
	namespace string
	grace     time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

func NewOrphanSweeper(paths ImagePathSource, blobStore storage.BlobStore, namespace string, grace time.Duration, log zerolog.Logger) *OrphanSweeper {
	return &OrphanSweeper{
		paths:     paths,
		blobStore: blobStore,
		namespace: namespace,
		grace:     grace,
		log:       log.With().Str("job", "orphan-sweep").Logger(),
		now:       time.Now,
	}
}

// Sweep runs one pass and returns how many blobs it deleted. A failed delete
// is logged and the pass continues.
func (s *OrphanSweeper) Sweep(ctx context.Context) (int, error) {
	blobs, err := s.blobStore.List(ctx, s.namespace+"/")
	if err != nil {
		return 0, fmt.Errorf("failed to list blobs: %w", err)
	}
	if len(blobs) == 0 {
		return 0, nil
	}

	referenced, err := s.paths.ImagePaths(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load referenced images: %w", err)
	}

	cutoff := s.now().Add(-s.grace)
	removed := 0
	for _, blob := range blobs {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if _, ok := referenced[blob.Path]; ok {
			continue
		}
		if blob.ModTime.After(cutoff) {
			continue
		}
		if err := s.blobStore.Delete(ctx, blob.Path); err != nil {
			s.log.Warn().Err(err).Str("path", blob.Path).Msg("failed to delete orphan blob")
			metrics.BlobCleanupFailures.WithLabelValues("sweep").Inc()
			continue
		}
		removed++
		metrics.OrphanBlobsRemoved.Inc()
		s.log.Debug().Str("path", blob.Path).Msg("deleted orphan blob")
	}

	return removed, nil
}

// Run is the scheduler entry point.
func (s *OrphanSweeper) Run(ctx context.Context) {
	started := s.now()
	removed, err := s.Sweep(ctx)
	if err != nil {
		s.log.Error().Err(err).Int("removed", removed).Msg("orphan sweep failed")
		return
	}
	s.log.Info().Int("removed", removed).Dur("took", s.now().Sub(started)).Msg("orphan sweep finished")
}
