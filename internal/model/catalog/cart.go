package catalog

import "fmt"

// LineItem is a cart line as sent to the service. Qty 0 removes the line.
type LineItem struct {
	ProductID int `json:"product_id"`
	Qty       int `json:"qty"`
}

// CartItem is a cart line as the service returns it, with the product nested.
type CartItem struct {
	ProductID int      `json:"productId"`
	Qty       int      `json:"qty"`
	Product   *Product `json:"product,omitempty"`
}

// ID returns the line's product id, falling back to the nested product.
func (i CartItem) ID() int {
	if i.ProductID == 0 && i.Product != nil {
		return i.Product.ID
	}
	return i.ProductID
}

// Name returns the nested product name, or a placeholder with the id.
func (i CartItem) Name() string {
	if i.Product == nil {
		return fmt.Sprintf("producto %d", i.ID())
	}
	return i.Product.Name
}

// Subtotal is unit price times quantity, or 0 when the product is not nested.
func (i CartItem) Subtotal() float64 {
	if i.Product == nil {
		return 0
	}
	return i.Product.Price * float64(i.Qty)
}

// Cart is owned by the Catalog/Cart Service; totals are server computed.
type Cart struct {
	ID         int        `json:"id"`
	Items      []CartItem `json:"items"`
	TotalPrice float64    `json:"totalPrice"`
	TotalItems int        `json:"totalItems,omitempty"`
}

// Line returns the cart line for productID.
func (c Cart) Line(productID int) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ID() == productID {
			return item, true
		}
	}
	return CartItem{}, false
}
