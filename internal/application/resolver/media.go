package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/mapping"
	"github.com/syncbridge/backend/internal/infrastructure/cache"
	"github.com/syncbridge/backend/internal/infrastructure/destination"
	"github.com/syncbridge/backend/internal/infrastructure/sourceapi"
)

// defaultMediaFolder is used when the tenant has not configured one.
const defaultMediaFolder = "Imported Media"

// MediaResolver uploads source images to destination media. Media has no
// numeric source ID, so mappings key on a content hash of the source URL.
// Folder creation results are memoized for the lifetime of one run.
type MediaResolver struct {
	deps
	folderName string
	folders    *cache.MediaFolderCache
}

// NewMediaResolver constructs a MediaResolver. The folder cache is run
// scoped and supplied by the orchestrator.
func NewMediaResolver(store mapping.Store, dest destination.API, folderName string, folders *cache.MediaFolderCache, logger *zap.Logger) *MediaResolver {
	if folderName == "" {
		folderName = defaultMediaFolder
	}
	return &MediaResolver{
		deps:       newDeps(store, dest, logger),
		folderName: folderName,
		folders:    folders,
	}
}

// MediaSourceID derives the mapping key for an image URL.
func MediaSourceID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Resolve maps the given image links, uploading missing media into the
// tenant's destination folder. The returned lookup is keyed by URL hash.
func (r *MediaResolver) Resolve(ctx context.Context, tenantID uuid.UUID, images []sourceapi.ImageLink) (mapping.Lookup, error) {
	urlByHash := make(map[string]string, len(images))
	wanted := make([]string, 0, len(images))
	for _, img := range images {
		if img.URL == "" {
			continue
		}
		hash := MediaSourceID(img.URL)
		if _, ok := urlByHash[hash]; ok {
			continue
		}
		urlByHash[hash] = img.URL
		wanted = append(wanted, hash)
	}
	if len(wanted) == 0 {
		return mapping.Lookup{}, nil
	}

	lookup, err := r.store.GetBatch(ctx, tenantID, mapping.KindMedia, wanted)
	if err != nil {
		return nil, err
	}

	var created []*mapping.EntityMapping
	for _, hash := range wanted {
		if _, ok := lookup[hash]; ok {
			continue
		}

		folderID, err := r.folders.Resolve(ctx, r.folderName, r.folderLookup)
		if err != nil {
			r.logSkip(mapping.KindMedia, hash, err)
			continue
		}

		result, err := r.dest.CreateMediaFromURL(ctx, urlByHash[hash], folderID)
		m, err := r.createAuto(tenantID, mapping.KindMedia, hash, result, err)
		if err != nil {
			r.logSkip(mapping.KindMedia, hash, err)
			continue
		}
		created = append(created, m)
	}

	if err := r.persistCreated(ctx, created, lookup); err != nil {
		return nil, err
	}
	return lookup, nil
}

func (r *MediaResolver) folderLookup(ctx context.Context, name string) (string, error) {
	result, err := r.dest.GetOrCreateMediaFolder(ctx, name)
	if err != nil {
		return "", err
	}
	if !result.Success {
		return "", fmt.Errorf("resolver: media folder %q rejected: %s", name, result.Error)
	}
	return result.ID, nil
}
