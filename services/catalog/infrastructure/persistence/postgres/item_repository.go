package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ghuser/storefront/pkg/database"
	"github.com/ghuser/storefront/pkg/events"
	catalogdomain "github.com/ghuser/storefront/services/catalog/domain"
	domainevents "github.com/ghuser/storefront/services/catalog/domain/events"
	"github.com/ghuser/storefront/services/catalog/domain/models"
	"github.com/ghuser/storefront/services/catalog/domain/repositories"
)

const itemsTable = "catalog_items"

var itemColumns = []string{"id", "name", "price", "size", "image", "available", "deleted", "created_at"}

// psql builds PostgreSQL-flavoured statements ($1, $2, ...).
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ItemRepository implements repositories.ItemRepository against PostgreSQL.
// Every write publishes its catalog event in the same transaction.
type ItemRepository struct {
	db  *database.Database
	bus *events.EventBus
}

// NewItemRepository returns an ItemRepository backed by the given connection pool
// and event bus. A nil bus disables event publishing.
func NewItemRepository(database *database.Database, bus *events.EventBus) *ItemRepository {
	return &ItemRepository{db: database, bus: bus}
}

var _ repositories.ItemRepository = (*ItemRepository)(nil)

// Save inserts a new Item and publishes an ItemCreatedEvent within the same transaction.
// Returns ErrItemAlreadyExists when the live-identity unique index rejects the row.
func (r *ItemRepository) Save(ctx context.Context, item *models.Item) error {
	query, args, err := psql.Insert(itemsTable).
		Columns(itemColumns...).
		Values(
			item.ID,
			item.Name.String(),
			item.Price.String(),
			item.Size.String(),
			item.Image,
			item.Available,
			item.Deleted,
			item.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err) {
				return catalogdomain.ErrItemAlreadyExists
			}
			return fmt.Errorf("insert item: %w", err)
		}
		evt := domainevents.ItemCreatedEvent{
			EventID:    uuid.New(),
			Version:    domainevents.EventVersion,
			Item:       domainevents.SnapshotOf(item),
			OccurredAt: item.CreatedAt,
		}
		return r.publish(ctx, tx, domainevents.TopicItemCreated, evt.EventID, evt)
	})
}

// GetByID retrieves an Item by ID, deleted or not. Returns ErrItemNotFound if absent.
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	query, args, err := psql.Select(itemColumns...).
		From(itemsTable).
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	item, err := scanItem(r.db.DB().QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalogdomain.ErrItemNotFound
		}
		return nil, fmt.Errorf("query item: %w", err)
	}
	return item, nil
}

// FindLiveDuplicate returns the non-deleted item with the same name, price and size.
// Prices compare numerically, so 500 and 500.00 collide.
func (r *ItemRepository) FindLiveDuplicate(ctx context.Context, item *models.Item) (*models.Item, error) {
	query, args, err := psql.Select(itemColumns...).
		From(itemsTable).
		Where(sq.Eq{
			"name":    item.Name.String(),
			"price":   item.Price.String(),
			"size":    item.Size.String(),
			"deleted": false,
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build duplicate lookup: %w", err)
	}

	dup, err := scanItem(r.db.DB().QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query duplicate: %w", err)
	}
	return dup, nil
}

// List returns non-deleted items, newest first.
func (r *ItemRepository) List(ctx context.Context, filter repositories.ListFilter) ([]*models.Item, error) {
	query, args, err := listQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	rows, err := r.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// Update persists name, price, size and image and publishes an ItemUpdatedEvent.
func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	query, args, err := psql.Update(itemsTable).
		SetMap(map[string]any{
			"name":  item.Name.String(),
			"price": item.Price.String(),
			"size":  item.Size.String(),
			"image": item.Image,
		}).
		Where(sq.Eq{"id": item.ID.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return catalogdomain.ErrItemAlreadyExists
			}
			return fmt.Errorf("update item: %w", err)
		}
		if err := expectOneRow(res); err != nil {
			return err
		}
		evt := domainevents.ItemUpdatedEvent{
			EventID:    uuid.New(),
			Version:    domainevents.EventVersion,
			Item:       domainevents.SnapshotOf(item),
			OccurredAt: time.Now().UTC(),
		}
		return r.publish(ctx, tx, domainevents.TopicItemUpdated, evt.EventID, evt)
	})
}

// SoftDelete marks the item deleted and publishes an ItemDeletedEvent.
func (r *ItemRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql.Update(itemsTable).
		Set("deleted", true).
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build soft delete: %w", err)
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("soft delete item: %w", err)
		}
		if err := expectOneRow(res); err != nil {
			return err
		}
		evt := domainevents.ItemDeletedEvent{
			EventID:    uuid.New(),
			Version:    domainevents.EventVersion,
			ItemID:     id,
			OccurredAt: time.Now().UTC(),
		}
		return r.publish(ctx, tx, domainevents.TopicItemDeleted, evt.EventID, evt)
	})
}

// MarkUnavailable flips available to false on every listed live item in a
// single statement and publishes an ItemsSoldEvent with the ids that changed.
func (r *ItemRepository) MarkUnavailable(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := markUnavailableQuery(ids)
	if err != nil {
		return nil, fmt.Errorf("build mark unavailable: %w", err)
	}

	var changed []uuid.UUID
	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("mark unavailable: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var id uuid.UUID
			if err := rows.Scan(&id); err != nil {
				return fmt.Errorf("scan id: %w", err)
			}
			changed = append(changed, id)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate ids: %w", err)
		}

		if len(changed) == 0 {
			return nil
		}
		evt := domainevents.ItemsSoldEvent{
			EventID:    uuid.New(),
			Version:    domainevents.EventVersion,
			ItemIDs:    changed,
			OccurredAt: time.Now().UTC(),
		}
		return r.publish(ctx, tx, domainevents.TopicItemsSold, evt.EventID, evt)
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

// publish writes evt to the outbox inside tx. It is a no-op without a bus.
func (r *ItemRepository) publish(ctx context.Context, tx *sql.Tx, topic string, eventID uuid.UUID, evt any) error {
	if r.bus == nil {
		return nil
	}
	msg, err := events.NewJSONMessage(eventID, domainevents.EventVersion, evt)
	if err != nil {
		return err
	}
	if err := r.bus.PublishTx(ctx, tx, topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func listQuery(filter repositories.ListFilter) (string, []any, error) {
	b := psql.Select(itemColumns...).
		From(itemsTable).
		Where(sq.Eq{"deleted": false}).
		OrderBy("created_at DESC", "id DESC")
	if filter.OnlyAvailable {
		b = b.Where(sq.Eq{"available": true})
	}
	return b.ToSql()
}

func markUnavailableQuery(ids []uuid.UUID) (string, []any, error) {
	// uuid.UUID is an array type; squirrel would expand it, so pass strings.
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}
	return psql.Update(itemsTable).
		Set("available", false).
		Where(sq.Eq{"id": strIDs}).
		Where(sq.Eq{"available": true}).
		Suffix("RETURNING id").
		ToSql()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanItem maps one catalog_items row, in itemColumns order, to a domain Item.
func scanItem(row rowScanner) (*models.Item, error) {
	var (
		item              models.Item
		name, size, image string
	)
	if err := row.Scan(
		&item.ID,
		&name,
		&item.Price,
		&size,
		&image,
		&item.Available,
		&item.Deleted,
		&item.CreatedAt,
	); err != nil {
		return nil, err
	}
	item.Name = models.ItemName(name)
	item.Size = models.ItemSize(size)
	item.Image = image
	item.CreatedAt = item.CreatedAt.UTC()
	return &item, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return catalogdomain.ErrItemNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
