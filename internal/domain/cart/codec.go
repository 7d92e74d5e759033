package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// encodeItems serializes cart lines as a JSON array. The field names match
// the storefront's long-lived persisted cart format.
func encodeItems(items []Item) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(it.ID)
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("price")
		e.Num(jx.Num(it.Price.String()))
		e.FieldStart("image")
		e.Str(it.Image)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

// decodeItems parses a persisted cart. Lines with a quantity below 1 are
// normalized to 1 so a tampered entry can never violate the quantity floor.
func decodeItems(data []byte) ([]Item, error) {
	var items []Item

	d := jx.DecodeBytes(data)
	if err := d.Arr(func(d *jx.Decoder) error {
		var it Item
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "id":
				v, err := d.Int64()
				if err != nil {
					return errors.Wrap(err, "id")
				}
				it.ID = v
			case "name":
				v, err := d.Str()
				if err != nil {
					return errors.Wrap(err, "name")
				}
				it.Name = v
			case "price":
				n, err := d.Num()
				if err != nil {
					return errors.Wrap(err, "price")
				}
				v, err := decimal.NewFromString(n.String())
				if err != nil {
					return errors.Wrap(err, "price")
				}
				it.Price = v
			case "image":
				v, err := d.Str()
				if err != nil {
					return errors.Wrap(err, "image")
				}
				it.Image = v
			case "quantity":
				v, err := d.Int()
				if err != nil {
					return errors.Wrap(err, "quantity")
				}
				it.Quantity = v
			default:
				return d.Skip()
			}
			return nil
		}); err != nil {
			return err
		}
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		items = append(items, it)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode cart")
	}

	return items, nil
}
