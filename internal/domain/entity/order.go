package entity

import "time"

// VAT rate classes. German food service: reduced rate for food, standard
// rate for drinks.
const (
	VatRateReduced  = 0.07
	VatRateStandard = 0.19
)

// Item categories as printed on the ticket. Upstream producers send free-form
// category strings; the normalizer maps them onto these.
const (
	CategoryBurger = "Burger"
	CategoryVegan  = "Vegan/Vegetarisch"
	CategoryHotdog = "Hotdogs"
	CategoryExtras = "Extras"
	CategoryDrinks = "Getränke"
	CategorySauces = "Saucen"
	CategorySnacks = "Snacks"
	CategoryOther  = "Sonstiges"
)

// CategoryPrintOrder is the fixed category sequence on a ticket; categories
// not listed here are appended alphabetically.
var CategoryPrintOrder = []string{
	CategoryBurger,
	CategoryVegan,
	CategoryHotdog,
	CategoryExtras,
	CategoryDrinks,
	CategorySauces,
}

// LineItem is one normalized order position.
type LineItem struct {
	Name     string   `json:"name"`
	Quantity int      `json:"quantity"`
	Price    float64  `json:"price"` // unit price
	Category string   `json:"category"`
	TaxRate  float64  `json:"tax_rate"` // VatRateReduced or VatRateStandard
	Note     string   `json:"note,omitempty"`
	AddOns   []string `json:"add_ons,omitempty"`
	Removals []string `json:"removals,omitempty"`
}

// Gross returns the item's gross amount (unit price times quantity).
func (i LineItem) Gross() float64 {
	return i.Price * float64(i.Quantity)
}

// DiscountLine is a single labelled discount row.
type DiscountLine struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// PricingBreakdown is the reconciled money view of an order. The normalizer
// guarantees subtotal + fees - discount matches the grand total within one
// cent; an inconsistent explicit discount is recomputed, never trusted.
type PricingBreakdown struct {
	Subtotal      float64        `json:"subtotal"`
	DeliveryFee   float64        `json:"delivery_fee"`
	ServiceFee    float64        `json:"service_fee"`
	OtherFee      float64        `json:"other_fee"`
	DiscountTotal float64        `json:"discount_total"`
	DiscountLines []DiscountLine `json:"discount_lines,omitempty"`
	GrandTotal    float64        `json:"grand_total"`
}

// Fees returns the sum of all fee fields.
func (p PricingBreakdown) Fees() float64 {
	return p.DeliveryFee + p.ServiceFee + p.OtherFee
}

// VatBucket is the running gross/net/tax total for one rate class.
// Invariant: Net + Vat == Gross, both rounded to cents.
type VatBucket struct {
	Rate  float64 `json:"rate"`
	Gross float64 `json:"gross"`
	Net   float64 `json:"net"`
	Vat   float64 `json:"vat"`
}

// VatSummary holds both rate-class buckets. Both are always printed on the
// ticket, even when empty.
type VatSummary struct {
	Reduced  VatBucket `json:"reduced"`  // 7%
	Standard VatBucket `json:"standard"` // 19%
}

// Address is the normalized delivery address.
type Address struct {
	Street      string `json:"street,omitempty"`
	HouseNumber string `json:"house_number,omitempty"`
	Zip         string `json:"zip,omitempty"`
	City        string `json:"city,omitempty"`
}

// Lines returns the address as printable lines, empty parts skipped.
func (a Address) Lines() []string {
	var lines []string
	if a.Street != "" {
		street := a.Street
		if a.HouseNumber != "" {
			street += " " + a.HouseNumber
		}
		lines = append(lines, street)
	}
	if a.Zip != "" || a.City != "" {
		line := a.Zip
		if a.City != "" {
			if line != "" {
				line += " "
			}
			line += a.City
		}
		lines = append(lines, line)
	}
	return lines
}

// IsEmpty reports whether no address field is set.
func (a Address) IsEmpty() bool {
	return a.Street == "" && a.HouseNumber == "" && a.Zip == "" && a.City == ""
}

// NormalizedOrder is the canonical view derived from a loosely-typed order
// document. It is a print-time value object, created and discarded within a
// single request; nothing here is persisted.
type NormalizedOrder struct {
	ID          string           `json:"id"`
	PlacedAt    time.Time        `json:"placed_at"`
	Fulfillment string           `json:"fulfillment"` // "delivery" or "pickup"
	PlannedAt   *time.Time       `json:"planned_at,omitempty"`
	Items       []LineItem       `json:"items"`
	Pricing     PricingBreakdown `json:"pricing"`
	Vat         VatSummary       `json:"vat"`
	Address     Address          `json:"address"`
	Note        string           `json:"note,omitempty"`
}
