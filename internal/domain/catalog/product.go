// Package catalog provides the product catalog: the upstream loader, the
// product model, and promo deal derivation.
package catalog

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// PlaceholderImage is served when a product carries no image URL.
const PlaceholderImage = "/img/placeholder.jpg"

// Product is a catalog item. Products are immutable once loaded; a reload
// replaces the whole catalog.
type Product struct {
	ID       int64
	Name     string
	Price    decimal.Decimal
	OldPrice decimal.Decimal
	ImageURL string
	Category string
	Stock    int
}

// Image returns the product image URL, falling back to the placeholder.
func (p Product) Image() string {
	if p.ImageURL == "" {
		return PlaceholderImage
	}
	return p.ImageURL
}

// HasOldPrice reports whether the product carries a prior price worth showing.
func (p Product) HasOldPrice() bool {
	return p.OldPrice.IsPositive()
}

// decodeProducts parses the upstream JSON array of products. Unknown fields
// are skipped so upstream schema additions don't break the storefront.
func decodeProducts(data []byte) ([]Product, error) {
	var products []Product

	d := jx.DecodeBytes(data)
	if err := d.Arr(func(d *jx.Decoder) error {
		var p Product
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "id":
				v, err := d.Int64()
				if err != nil {
					return errors.Wrap(err, "id")
				}
				p.ID = v
			case "name":
				v, err := d.Str()
				if err != nil {
					return errors.Wrap(err, "name")
				}
				p.Name = v
			case "price":
				v, err := decodeDecimal(d)
				if err != nil {
					return errors.Wrap(err, "price")
				}
				p.Price = v
			case "old_price":
				if d.Next() == jx.Null {
					return d.Null()
				}
				v, err := decodeDecimal(d)
				if err != nil {
					return errors.Wrap(err, "old_price")
				}
				p.OldPrice = v
			case "image_url":
				if d.Next() == jx.Null {
					return d.Null()
				}
				v, err := d.Str()
				if err != nil {
					return errors.Wrap(err, "image_url")
				}
				p.ImageURL = v
			case "category":
				v, err := d.Str()
				if err != nil {
					return errors.Wrap(err, "category")
				}
				p.Category = v
			case "stock_quantity":
				v, err := d.Int64()
				if err != nil {
					return errors.Wrap(err, "stock_quantity")
				}
				p.Stock = int(v)
			default:
				return d.Skip()
			}
			return nil
		}); err != nil {
			return err
		}
		products = append(products, p)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}

	return products, nil
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	n, err := d.Num()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(n.String())
}
