// Package stock is the inventory client: products, categories and
// stock movements.
package stock

import (
	"context"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/salihate/backoffice/transport"
)

type ProductStatus string

const (
	ProductOK      ProductStatus = "OK"
	ProductAlert   ProductStatus = "ALERTE"
	ProductRupture ProductStatus = "RUPTURE"
)

type MovementType string

const (
	MovementEntry MovementType = "ENTREE"
	MovementExit  MovementType = "SORTIE"
)

type CategoryRef struct {
	ID  string `json:"id"`
	Nom string `json:"nom"`
}

type Product struct {
	ID               string        `json:"id,omitempty"`
	Nom              string        `json:"nom"`
	Description      string        `json:"description,omitempty"`
	CategoryID       string        `json:"category_id,omitempty"`
	Category         *CategoryRef  `json:"category,omitempty"`
	CodeProduit      string        `json:"code_produit,omitempty"`
	Unite            string        `json:"unite"`
	QuantiteActuelle float64       `json:"quantite_actuelle"`
	SeuilAlerte      float64       `json:"seuil_alerte"`
	PrixUnitaire     float64       `json:"prix_unitaire,omitempty"`
	Statut           ProductStatus `json:"statut,omitempty"`
	DerniereMaj      string        `json:"derniere_maj,omitempty"`
	Emplacement      string        `json:"emplacement,omitempty"`
	Fournisseur      string        `json:"fournisseur,omitempty"`
}

type Category struct {
	ID           string `json:"id"`
	Nom          string `json:"nom"`
	Description  string `json:"description,omitempty"`
	IsActive     bool   `json:"is_active,omitempty"`
	ProductCount int    `json:"productCount,omitempty"`
}

type Movement struct {
	ID            string       `json:"id"`
	ProductID     string       `json:"product_id"`
	Type          MovementType `json:"type"`
	Quantite      float64      `json:"quantite"`
	QuantiteAvant float64      `json:"quantite_avant"`
	QuantiteApres float64      `json:"quantite_apres"`
	Source        string       `json:"source,omitempty"`
	Destination   string       `json:"destination,omitempty"`
	Reference     string       `json:"reference,omitempty"`
	Notes         string       `json:"notes,omitempty"`
	CreatedAt     string       `json:"created_at"`
	Product       *Product     `json:"product,omitempty"`
}

// EntryInput records product arriving on site.
type EntryInput struct {
	ProductID string  `json:"product_id"`
	Quantite  float64 `json:"quantite"`
	Source    string  `json:"source,omitempty"`
	Reference string  `json:"reference,omitempty"`
	Notes     string  `json:"notes,omitempty"`
}

// ExitInput records product leaving for a site or client.
type ExitInput struct {
	ProductID   string  `json:"product_id"`
	Quantite    float64 `json:"quantite"`
	Destination string  `json:"destination,omitempty"`
	Reference   string  `json:"reference,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

const defaultListLimit = 100

type Client struct {
	api *transport.Client
}

func New(api *transport.Client) *Client {
	return &Client{api: api}
}

// ListProducts fetches the product catalogue (paginated backend-side,
// requested with a limit wide enough for the whole catalogue).
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(defaultListLimit))

	env, err := c.api.Get(ctx, "/products", query)
	if err != nil {
		return nil, errors.Wrap(err, "[stock.ListProducts]")
	}
	return transport.Array[Product](env, "products")
}

func (c *Client) CreateProduct(ctx context.Context, product Product) (Product, error) {
	env, err := c.api.Post(ctx, "/products", product)
	if err != nil {
		return Product{}, errors.Wrap(err, "[stock.CreateProduct]")
	}
	return transport.Object[Product](env, "product")
}

func (c *Client) UpdateProduct(ctx context.Context, id string, product Product) (Product, error) {
	env, err := c.api.Put(ctx, "/products/"+id, product)
	if err != nil {
		return Product{}, errors.Wrap(err, "[stock.UpdateProduct]")
	}
	return transport.Object[Product](env, "product")
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	if _, err := c.api.Delete(ctx, "/products/"+id); err != nil {
		return errors.Wrap(err, "[stock.DeleteProduct]")
	}
	return nil
}

// Categories arrive under data.categories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	env, err := c.api.Get(ctx, "/categories", nil)
	if err != nil {
		return nil, errors.Wrap(err, "[stock.Categories]")
	}
	return transport.Array[Category](env, "categories")
}

func (c *Client) RecordEntry(ctx context.Context, input EntryInput) (Movement, error) {
	env, err := c.api.Post(ctx, "/stock/entry", input)
	if err != nil {
		return Movement{}, errors.Wrap(err, "[stock.RecordEntry]")
	}
	return transport.Object[Movement](env, "movement")
}

func (c *Client) RecordExit(ctx context.Context, input ExitInput) (Movement, error) {
	env, err := c.api.Post(ctx, "/stock/exit", input)
	if err != nil {
		return Movement{}, errors.Wrap(err, "[stock.RecordExit]")
	}
	return transport.Object[Movement](env, "movement")
}

func (c *Client) Movements(ctx context.Context, limit int) ([]Movement, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	env, err := c.api.Get(ctx, "/stock/movements", query)
	if err != nil {
		return nil, errors.Wrap(err, "[stock.Movements]")
	}
	return transport.Array[Movement](env, "movements")
}

// Inventory loads products, categories and recent movements together,
// the way the stock screen opens: the three calls run concurrently and
// the combined load fails if any one of them fails.
type Inventory struct {
	Products   []Product
	Categories []Category
	Movements  []Movement
}

func (c *Client) Inventory(ctx context.Context, movementLimit int) (Inventory, error) {
	var inv Inventory
	var errProducts, errCategories, errMovements error

	done := make(chan struct{}, 3)
	go func() {
		inv.Products, errProducts = c.ListProducts(ctx)
		done <- struct{}{}
	}()
	go func() {
		inv.Categories, errCategories = c.Categories(ctx)
		done <- struct{}{}
	}()
	go func() {
		inv.Movements, errMovements = c.Movements(ctx, movementLimit)
		done <- struct{}{}
	}()
	for i := 0; i < 3; i++ {
		<-done
	}

	for _, err := range []error{errProducts, errCategories, errMovements} {
		if err != nil {
			return Inventory{}, errors.Wrap(err, "[stock.Inventory]")
		}
	}
	return inv, nil
}
