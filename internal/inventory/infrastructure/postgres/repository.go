package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
)

const productColumns = `id::text, name, price_cents, stock, stock_unit, image_url, latitude, longitude,
	storekeeper_email, storekeeper_name, created_at, updated_at`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{
		log:  log,
		pool: pool,
	}
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p        domain.Product
		unit     string
		lat, lon *float64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock, &unit, &p.ImageURL, &lat, &lon,
		&p.StorekeeperEmail, &p.StorekeeperName, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Product{}, err
	}
	p.StockUnit = domain.StockUnit(unit)
	if lat != nil && lon != nil {
		p.Location = &domain.Location{Latitude: *lat, Longitude: *lon}
	}
	return p, nil
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, err
}

func (r *Repository) ListByStorekeeper(ctx context.Context, email string) ([]domain.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products WHERE storekeeper_email=$1 ORDER BY created_at, id`, email)
}

func (r *Repository) Search(ctx context.Context, name string) ([]domain.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products
		WHERE name ILIKE '%' || $1 || '%' ESCAPE '\'
		ORDER BY created_at, id`, escapeLike(name))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *Repository) query(ctx context.Context, sql string, args ...any) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *Repository) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	p.ID = uuid.NewString()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	var lat, lon *float64
	if p.Location != nil {
		lat, lon = &p.Location.Latitude, &p.Location.Longitude
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO products
		(id, name, price_cents, stock, stock_unit, image_url, latitude, longitude, storekeeper_email, storekeeper_name, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.Name, p.PriceCents, p.Stock, string(p.StockUnit), p.ImageURL, lat, lon, p.StorekeeperEmail, p.StorekeeperName, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return domain.Product{}, fmt.Errorf("insert product: %w", err)
	}
	r.log.Debug("product stored", "product_id", p.ID, "storekeeper", p.StorekeeperEmail)
	return p, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.log.Debug("product deleted", "product_id", id)
	return nil
}

func (r *Repository) SetStock(ctx context.Context, id string, stock int) (domain.StockChange, error) {
	if stock <= 0 {
		if err := r.Delete(ctx, id); err != nil {
			return domain.StockChange{}, err
		}
		return domain.StockChange{ProductID: id, Deleted: true}, nil
	}
	ct, err := r.pool.Exec(ctx, `UPDATE products SET stock=$2, updated_at=now() WHERE id=$1`, id, stock)
	if err != nil {
		return domain.StockChange{}, fmt.Errorf("update stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.StockChange{}, domain.ErrNotFound
	}
	return domain.StockChange{ProductID: id, NewStock: stock}, nil
}

func (r *Repository) DecrementIfSufficient(ctx context.Context, id string, qty int) (domain.StockChange, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.StockChange{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	change, err := DecrementInTx(ctx, tx, id, qty)
	if err != nil {
		return domain.StockChange{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.StockChange{}, fmt.Errorf("commit decrement: %w", err)
	}
	if change.Deleted {
		r.log.Info("product depleted", "product_id", id)
	}
	return change, nil
}

// DecrementInTx locks the product row for the rest of tx, checks stock against qty and
// either lowers it or deletes the row when it would reach zero. Concurrent callers on the
// same product queue on the row lock, so the check always sees committed stock.
func DecrementInTx(ctx context.Context, tx pgx.Tx, id string, qty int) (domain.StockChange, error) {
	var stock int
	err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 FOR UPDATE`, id).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StockChange{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.StockChange{}, err
	}
	if stock < qty {
		return domain.StockChange{}, &domain.InsufficientStockError{ProductID: id, Available: stock, Requested: qty}
	}

	newStock := stock - qty
	if newStock <= 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM products WHERE id=$1`, id); err != nil {
			return domain.StockChange{}, err
		}
		return domain.StockChange{ProductID: id, Deleted: true}, nil
	}
	if _, err := tx.Exec(ctx, `UPDATE products SET stock=$2, updated_at=now() WHERE id=$1`, id, newStock); err != nil {
		return domain.StockChange{}, err
	}
	return domain.StockChange{ProductID: id, NewStock: newStock}, nil
}

func (r *Repository) SetLocation(ctx context.Context, storekeeperEmail string, loc domain.Location) (int64, error) {
	ct, err := r.pool.Exec(ctx, `UPDATE products SET latitude=$2, longitude=$3, updated_at=now() WHERE storekeeper_email=$1`,
		storekeeperEmail, loc.Latitude, loc.Longitude)
	if err != nil {
		return 0, fmt.Errorf("set location: %w", err)
	}
	return ct.RowsAffected(), nil
}
