package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgcache "github.com/ghuser/storefront/pkg/cache"
	"github.com/ghuser/storefront/pkg/logger"
	"github.com/ghuser/storefront/pkg/media"
	"github.com/ghuser/storefront/pkg/telemetry"
	catalogdomain "github.com/ghuser/storefront/services/catalog/domain"
	"github.com/ghuser/storefront/services/catalog/domain/models"
	"github.com/ghuser/storefront/services/catalog/domain/repositories"
	domainsvcs "github.com/ghuser/storefront/services/catalog/domain/services"
)

// ItemCache is the read-model cache used by GetOne. *cache.ItemCache implements it.
type ItemCache interface {
	Get(ctx context.Context, id uuid.UUID) (*pkgcache.CachedItem, error)
	Stamp(ctx context.Context, id uuid.UUID) (pkgcache.Stamp, error)
	SetIfUnchanged(ctx context.Context, item *pkgcache.CachedItem, stamp pkgcache.Stamp) error
	Delete(ctx context.Context, ids ...uuid.UUID) error
}

// cacheWarmTimeout bounds the cache write on a GetOne miss.
const cacheWarmTimeout = 500 * time.Millisecond

// OrphanReporter hands media objects that could not be deleted inline to the
// background cleanup.
type OrphanReporter interface {
	ReportOrphan(ctx context.Context, itemID uuid.UUID, url, reason string) error
}

// CreateInput carries the raw fields of a new catalog item.
type CreateInput struct {
	Name  string
	Price string
	Size  string
	Image io.Reader
}

// UpdateInput carries the raw fields of an update. Blank strings and a nil
// Image leave the stored value unchanged.
type UpdateInput struct {
	Name  string
	Price string
	Size  string
	Image io.Reader
}

// CatalogService orchestrates the catalog operations. Event publishing is
// handled by the repository (outbox pattern); media goes through media.Store.
// Reads by id are served from Redis when a cache is configured.
type CatalogService struct {
	repo    repositories.ItemRepository
	media   media.Store
	cache   ItemCache
	orphans OrphanReporter
	metrics *telemetry.CatalogMetrics
	log     logger.Logger
}

// NewCatalogService wires a CatalogService. itemCache, orphans and metrics may be nil.
func NewCatalogService(
	repo repositories.ItemRepository,
	store media.Store,
	itemCache ItemCache,
	orphans OrphanReporter,
	metrics *telemetry.CatalogMetrics,
	log logger.Logger,
) *CatalogService {
	return &CatalogService{
		repo:    repo,
		media:   store,
		cache:   itemCache,
		orphans: orphans,
		metrics: metrics,
		log:     log,
	}
}

// Create validates the input, uploads the normalized image and persists a new
// Active item. The upload happens before the duplicate check; a rejected
// item's upload is removed again.
func (s *CatalogService) Create(ctx context.Context, in CreateInput) (*models.Item, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Price) == "" ||
		strings.TrimSpace(in.Size) == "" || in.Image == nil {
		return nil, fmt.Errorf("%w: name, price, size and image are required", catalogdomain.ErrInvalidItem)
	}

	name, price, size, err := parseFields(in.Name, in.Price, in.Size)
	if err != nil {
		return nil, err
	}
	if err := domainsvcs.ValidateName(name); err != nil {
		return nil, fmt.Errorf("%w: %w", catalogdomain.ErrInvalidItem, err)
	}

	item := models.NewItem(name, price, size, "")
	url, err := s.upload(ctx, in.Image)
	if err != nil {
		return nil, err
	}
	item.Image = url

	if err := domainsvcs.ValidateItemForCreation(item); err != nil {
		s.discardMedia(ctx, item.ID, url, "create")
		return nil, fmt.Errorf("%w: %w", catalogdomain.ErrInvalidItem, err)
	}

	dup, err := s.repo.FindLiveDuplicate(ctx, item)
	if err != nil {
		s.discardMedia(ctx, item.ID, url, "create")
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if dup != nil {
		s.discardMedia(ctx, item.ID, url, "create")
		return nil, catalogdomain.ErrItemAlreadyExists
	}

	if err := s.repo.Save(ctx, item); err != nil {
		s.discardMedia(ctx, item.ID, url, "create")
		return nil, fmt.Errorf("save item: %w", err)
	}

	s.metrics.ItemCreated(ctx)
	s.log.InfoContext(ctx, "catalog item created", "item_id", item.ID, "name", item.Name)
	return item, nil
}

// ListAdmin returns every non-deleted item, newest first.
func (s *CatalogService) ListAdmin(ctx context.Context) ([]*models.Item, error) {
	return s.list(ctx, repositories.ListFilter{})
}

// ListForUsers returns the non-deleted, available items, newest first.
func (s *CatalogService) ListForUsers(ctx context.Context) ([]*models.Item, error) {
	return s.list(ctx, repositories.ListFilter{OnlyAvailable: true})
}

func (s *CatalogService) list(ctx context.Context, filter repositories.ListFilter) ([]*models.Item, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	if len(items) == 0 {
		return nil, catalogdomain.ErrNoItemsAvailable
	}
	return items, nil
}

// GetOne retrieves an Item, deleted or not, using a read-through cache.
// On a miss the item's cache stamp is taken before PostgreSQL is read, and
// the row is cached only if no invalidation happened in between; a write that
// commits during the read therefore cannot be shadowed by the older row.
func (s *CatalogService) GetOne(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var (
		stamp   pkgcache.Stamp
		canWarm bool
	)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		switch {
		case err == nil:
			if item, convErr := fromCached(cached); convErr == nil {
				return item, nil
			}
		case !errors.Is(err, redis.Nil):
			s.log.WarnContext(ctx, "item cache read failed", "item_id", id, "error", err)
		}

		if stamp, err = s.cache.Stamp(ctx, id); err != nil {
			s.log.WarnContext(ctx, "item cache stamp failed", "item_id", id, "error", err)
		} else {
			canWarm = true
		}
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	if canWarm {
		s.warm(ctx, item, stamp)
	}
	return item, nil
}

func (s *CatalogService) warm(ctx context.Context, item *models.Item, stamp pkgcache.Stamp) {
	ctx, cancel := context.WithTimeout(ctx, cacheWarmTimeout)
	defer cancel()
	switch err := s.cache.SetIfUnchanged(ctx, toCached(item), stamp); {
	case err == nil:
	case errors.Is(err, pkgcache.ErrStale):
		s.log.DebugContext(ctx, "item cache warm skipped, item changed during read", "item_id", item.ID)
	default:
		s.log.WarnContext(ctx, "item cache warm failed", "item_id", item.ID, "error", err)
	}
}

// Update applies the non-blank fields of in. A new image is uploaded before
// anything else changes; the replaced image is deleted best-effort after the
// record is saved.
func (s *CatalogService) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*models.Item, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	patch, err := buildPatch(in)
	if err != nil {
		return nil, err
	}

	oldImage := item.Image
	if in.Image != nil {
		url, err := s.upload(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		patch.Image = &url
	}

	if patch.IsEmpty() {
		return item, nil
	}

	item.Apply(patch)
	if err := s.repo.Update(ctx, item); err != nil {
		if patch.Image != nil {
			s.discardMedia(ctx, id, *patch.Image, "update")
		}
		return nil, fmt.Errorf("update item: %w", err)
	}

	if patch.Image != nil && oldImage != "" && oldImage != *patch.Image {
		s.discardMedia(ctx, id, oldImage, "update")
	}
	s.invalidate(ctx, id)
	return item, nil
}

// SoftDelete removes the item's media best-effort and marks it deleted.
// The record is kept; deleting twice is harmless.
func (s *CatalogService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}

	if item.Image != "" {
		s.discardMedia(ctx, id, item.Image, "delete")
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	s.invalidate(ctx, id)
	s.log.InfoContext(ctx, "catalog item deleted", "item_id", id)
	return nil
}

// MarkUnavailable clears the availability flag of every listed item. Live
// items become Sold; deleted ones stay removed. Unknown and already
// unavailable ids are skipped. Returns the ids that changed.
func (s *CatalogService) MarkUnavailable(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	changed, err := s.repo.MarkUnavailable(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("mark unavailable: %w", err)
	}
	s.metrics.ItemsSold(ctx, len(changed))
	s.invalidate(ctx, changed...)
	s.log.InfoContext(ctx, "catalog items marked unavailable", "requested", len(ids), "changed", len(changed))
	return changed, nil
}

// upload normalizes r and stores it. Undecodable images are invalid input;
// any storage failure is an upstream error.
func (s *CatalogService) upload(ctx context.Context, r io.Reader) (string, error) {
	img, err := media.Normalize(r)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedImage) {
			return "", fmt.Errorf("%w: %w", catalogdomain.ErrInvalidItem, err)
		}
		return "", fmt.Errorf("normalize image: %w", err)
	}
	url, err := s.media.Upload(ctx, img.Data, img.ContentType)
	if err != nil {
		return "", fmt.Errorf("%w: %w", catalogdomain.ErrMediaUpstream, err)
	}
	return url, nil
}

// discardMedia deletes url best-effort. Failures are logged, counted and
// handed to the background cleanup; they never fail the caller.
func (s *CatalogService) discardMedia(ctx context.Context, itemID uuid.UUID, url, reason string) {
	err := s.media.Delete(ctx, url)
	if err == nil {
		return
	}
	s.metrics.MediaCleanupFailed(ctx, reason)
	s.log.WarnContext(ctx, "media delete failed", "item_id", itemID, "url", url, "reason", reason, "error", err)
	if s.orphans == nil {
		return
	}
	if err := s.orphans.ReportOrphan(ctx, itemID, url, reason); err != nil {
		s.log.ErrorContext(ctx, "media orphan report failed", "item_id", itemID, "url", url, "error", err)
	}
}

func (s *CatalogService) invalidate(ctx context.Context, ids ...uuid.UUID) {
	if s.cache == nil || len(ids) == 0 {
		return
	}
	if err := s.cache.Delete(ctx, ids...); err != nil {
		s.log.WarnContext(ctx, "item cache invalidation failed", "count", len(ids), "error", err)
	}
}

func parseFields(rawName, rawPrice, rawSize string) (models.ItemName, models.Price, models.ItemSize, error) {
	name, err := models.NewItemName(rawName)
	if err != nil {
		return "", models.Price{}, "", fmt.Errorf("%w: %w", catalogdomain.ErrInvalidItem, err)
	}
	price, err := models.ParsePrice(rawPrice)
	if err != nil {
		return "", models.Price{}, "", fmt.Errorf("%w: %w", catalogdomain.ErrInvalidItem, err)
	}
	size, err := models.NewItemSize(rawSize)
	if err != nil {
		return "", models.Price{}, "", fmt.Errorf("%w: %w", catalogdomain.ErrInvalidItem, err)
	}
	return name, price, size, nil
}

func buildPatch(in UpdateInput) (models.Patch, error) {
	var p models.Patch
	if strings.TrimSpace(in.Name) != "" {
		name, err := models.NewItemName(in.Name)
		if err != nil {
			return p, fmt.Errorf("%w: %w", catalogdomain.ErrInvalidItem, err)
		}
		p.Name = &name
	}
	if strings.TrimSpace(in.Price) != "" {
		price, err := models.ParsePrice(in.Price)
		if err != nil {
			return p, fmt.Errorf("%w: %w", catalogdomain.ErrInvalidItem, err)
		}
		p.Price = &price
	}
	if strings.TrimSpace(in.Size) != "" {
		size, err := models.NewItemSize(in.Size)
		if err != nil {
			return p, fmt.Errorf("%w: %w", catalogdomain.ErrInvalidItem, err)
		}
		p.Size = &size
	}
	if err := domainsvcs.ValidatePatch(p); err != nil {
		return p, fmt.Errorf("%w: %w", catalogdomain.ErrInvalidItem, err)
	}
	return p, nil
}

func toCached(item *models.Item) *pkgcache.CachedItem {
	return &pkgcache.CachedItem{
		ID:        item.ID,
		Name:      item.Name.String(),
		Price:     item.Price.String(),
		Size:      item.Size.String(),
		Image:     item.Image,
		Available: item.Available,
		Deleted:   item.Deleted,
		CreatedAt: item.CreatedAt,
	}
}

func fromCached(c *pkgcache.CachedItem) (*models.Item, error) {
	price, err := models.ParsePrice(c.Price)
	if err != nil {
		return nil, err
	}
	return &models.Item{
		ID:        c.ID,
		Name:      models.ItemName(c.Name),
		Price:     price,
		Size:      models.ItemSize(c.Size),
		Image:     c.Image,
		Available: c.Available,
		Deleted:   c.Deleted,
		CreatedAt: c.CreatedAt,
	}, nil
}
