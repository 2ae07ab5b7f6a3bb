package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"restock/api/internal/models"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepository struct {
	db DB
}

func NewProductRepository(db DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	const query = `
		INSERT INTO products (name, current_stock, min_stock, max_stock)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	return r.db.QueryRow(ctx, query,
		product.Name,
		product.CurrentStock,
		product.MinStock,
		product.MaxStock,
	).Scan(&product.ID)
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (models.Product, error) {
	const query = `
		SELECT id, name, current_stock, min_stock, max_stock
		FROM products WHERE id = $1
	`

	row := r.db.QueryRow(ctx, query, id)
	var product models.Product
	if err := row.Scan(
		&product.ID,
		&product.Name,
		&product.CurrentStock,
		&product.MinStock,
		&product.MaxStock,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Product{}, ErrProductNotFound
		}
		return models.Product{}, err
	}
	return product, nil
}

func (r *ProductRepository) List(ctx context.Context) ([]models.Product, error) {
	const query = `
		SELECT id, name, current_stock, min_stock, max_stock
		FROM products ORDER BY id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var product models.Product
		if err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.CurrentStock,
			&product.MinStock,
			&product.MaxStock,
		); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (r *ProductRepository) Update(ctx context.Context, product models.Product) error {
	const query = `
		UPDATE products
		SET name = $2, current_stock = $3, min_stock = $4, max_stock = $5
		WHERE id = $1
	`

	cmd, err := r.db.Exec(ctx, query,
		product.ID,
		product.Name,
		product.CurrentStock,
		product.MinStock,
		product.MaxStock,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	const query = `
		DELETE FROM products WHERE id = $1
	`

	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
