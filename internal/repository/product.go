package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stockpile/stockpile-go/internal/model"
)

const productColumns = `id, name, description, quantity, price, category, image_path, created_at, updated_at`

// likeEscaper escapes LIKE wildcards so name filters match literally.
// '!' is used as the escape character because it means the same thing in
// MySQL and SQLite.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ProductRepository handles product persistence on a SQL database.
type ProductRepository struct {
	db      *sql.DB
	dialect string
}

// NewProductRepository creates a new ProductRepository for a database of the
// given dialect.
func NewProductRepository(db *sql.DB, dialect string) *ProductRepository {
	return &ProductRepository{db: db, dialect: dialect}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(s rowScanner) (*model.Product, error) {
	p := &model.Product{}
	err := s.Scan(
		&p.ID, &p.Name, &p.Description, &p.Quantity, &p.Price,
		&p.Category, &p.Image, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func getProduct(ctx context.Context, q DBTX, id string) (*model.Product, error) {
	row := q.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// Create inserts p and sets the generated ID and timestamps on it.
func (r *ProductRepository) Create(ctx context.Context, p *model.Product) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate product id: %w", err)
	}
	now := time.Now().UTC().Truncate(time.Microsecond)

	query := `INSERT INTO products (` + productColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		id.String(), p.Name, p.Description, p.Quantity, p.Price, p.Category, p.Image, now, now,
	)
	if err != nil {
		return err
	}

	p.ID = id.String()
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	return getProduct(ctx, r.db, id)
}

// Update applies the non-nil fields of patch and returns the stored result.
func (r *ProductRepository) Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	sets, args := patchAssignments(patch)
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC().Truncate(time.Microsecond), id)
	query := `UPDATE products SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`

	var updated *model.Product
	err := WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		if _, err := getProduct(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}

		var err error
		updated, err = getProduct(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func patchAssignments(patch model.ProductPatch) ([]string, []any) {
	var sets []string
	var args []any
	add := func(column string, v any) {
		sets = append(sets, column+" = ?")
		args = append(args, v)
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Quantity != nil {
		add("quantity", *patch.Quantity)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Image != nil {
		add("image_path", *patch.Image)
	}

	return sets, args
}

// Delete removes a product and returns the record as it was before deletion.
func (r *ProductRepository) Delete(ctx context.Context, id string) (*model.Product, error) {
	var deleted *model.Product
	err := WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		var err error
		deleted, err = getProduct(ctx, tx, id)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}

// Find returns one page of products matching q, ordered by ID, together with
// the total number of matches.
func (r *ProductRepository) Find(ctx context.Context, q model.ProductQuery) ([]model.Product, int64, error) {
	q = q.Normalized()
	where, args := productWhere(q.Filter, r.dialect)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0, q.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// productWhere builds the WHERE clause for f. It returns "" when f has no constraints.
func productWhere(f model.ProductFilter, dialect string) (string, []any) {
	var conds []string
	var args []any

	if f.Name != "" {
		// Both sides are folded with Go's Unicode case mapping on SQLite.
		// MySQL's LOWER already folds utf8mb4 text.
		lower := "LOWER"
		if dialect == DialectSQLite {
			lower = sqliteFoldFunc
		}
		conds = append(conds, lower+"(name) LIKE ? ESCAPE '!'")
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(f.Name))+"%")
	}
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	switch f.StockStatus {
	case model.StockInStock:
		conds = append(conds, "quantity > 0")
	case model.StockOutOfStock:
		conds = append(conds, "quantity = 0")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
