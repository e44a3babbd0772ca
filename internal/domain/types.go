package domain

// LineItem is one product's presence in the bag. Title and Name are kept as
// duplicate display labels for backward compatibility with older stored bags.
type LineItem struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Name  string  `json:"name,omitempty"`
	Price float64 `json:"price"`
	Qty   int     `json:"qty"`
}

// Subtotal returns the line total for this item.
func (li LineItem) Subtotal() float64 {
	if li.Qty <= 0 {
		return 0
	}
	return li.Price * float64(li.Qty)
}

// CartSnapshot is the full ordered line-item sequence plus the derived total.
// Total is always recomputed from Items, never stored independently. Added
// carries the line item a mutation just inserted or updated, when there is one.
type CartSnapshot struct {
	Items []LineItem `json:"items"`
	Total float64    `json:"total"`
	Added *LineItem  `json:"added,omitempty"`
}

// Snapshot builds a CartSnapshot from the given items, copying the slice so
// callers can hand it to listeners under a read-only contract.
func Snapshot(items []LineItem) CartSnapshot {
	dup := make([]LineItem, len(items))
	copy(dup, items)
	return CartSnapshot{Items: dup, Total: CartTotal(dup)}
}

// CartTotal returns the sum of price*qty over all items.
func CartTotal(items []LineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}

// TotalQuantity returns the summed quantity across all items, the value the
// badge counter displays.
func TotalQuantity(items []LineItem) int {
	var count int
	for _, item := range items {
		if item.Qty > 0 {
			count += item.Qty
		}
	}
	return count
}

// Product is a catalog entry as persisted in the flat products file.
type Product struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Category string  `json:"category,omitempty"`
	Supplier string  `json:"supplier,omitempty"`
	ImageURL string  `json:"imageUrl,omitempty"`
}

// Offer is a CMS-authored checkout promotion. Type is either "percent" or
// "flat"; Value is the percentage or the flat amount respectively.
type Offer struct {
	Code  string  `json:"code" yaml:"code"`
	Type  string  `json:"type" yaml:"type"`
	Value float64 `json:"value" yaml:"value"`
	Title string  `json:"title,omitempty" yaml:"title,omitempty"`
}

// OrderConfirmation reports a successfully placed order.
type OrderConfirmation struct {
	OrderID   string  `json:"orderId"`
	Reference string  `json:"reference"`
	Total     float64 `json:"total"`
	Discount  float64 `json:"discount"`
	PromoCode string  `json:"promoCode,omitempty"`
}

// GuestContact carries the contact details required for a guest order.
type GuestContact struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}
