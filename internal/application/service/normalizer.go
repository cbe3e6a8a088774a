package service

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/grillwerk/printgate/internal/domain/entity"
)

// Alias precedence lists. Upstream producers use inconsistent schemas; each
// normalized field is resolved by walking its list in order and taking the
// first usable value. Extending support for a new producer means appending
// here, not touching the normalizer logic.
var (
	idAliases          = []string{"id", "orderId", "order_id", "orderNumber", "order_number", "number", "reference"}
	placedAtAliases    = []string{"createdAt", "created_at", "created", "placedAt", "timestamp", "orderDate", "date"}
	plannedAtAliases   = []string{"plannedAt", "planned_at", "plannedTime", "requestedTime", "scheduledFor", "deliveryTime"}
	fulfillmentAliases = []string{"fulfillment", "fulfillmentMethod", "orderType", "deliveryType", "type"}

	itemListAliases  = []string{"items", "lineItems", "line_items", "positions", "products", "cart"}
	itemNameAliases  = []string{"name", "title", "productName", "product_name", "label"}
	itemQtyAliases   = []string{"quantity", "qty", "amount", "count"}
	itemPriceAliases = []string{"price", "unitPrice", "unit_price", "pricePerUnit", "singlePrice"}
	itemGroupAliases = []string{"category", "group", "productType", "kind", "section"}
	itemTaxAliases   = []string{"taxRate", "tax_rate", "vat", "vatRate", "taxPercent"}
	itemNoteAliases  = []string{"note", "comment", "remark"}
	addOnAliases     = []string{"addons", "addOns", "extras", "toppings", "modifiers", "subItems"}
	removalAliases   = []string{"removals", "removed", "without", "exclusions"}
	labelAliases     = []string{"label", "name", "title", "description"}
	amountAliases    = []string{"amount", "value", "price", "total"}

	pricingContainerAliases = []string{"pricing", "price", "totals", "payment", "amounts"}
	feesContainerAliases    = []string{"fees", "charges", "costs"}

	subtotalAliases    = []string{"subtotal", "sub_total", "subTotal", "itemsTotal", "basketTotal"}
	totalAliases       = []string{"total", "grandTotal", "grand_total", "totalPrice", "totalAmount", "amountDue"}
	discountAliases    = []string{"discount", "discountTotal", "discount_total", "totalDiscount"}
	deliveryFeeAliases = []string{"deliveryFee", "delivery_fee", "deliveryCosts", "deliveryCost", "deliveryPrice", "shippingFee", "shipping"}
	serviceFeeAliases  = []string{"serviceFee", "service_fee", "serviceCharge"}
	otherFeeAliases    = []string{"otherFee", "other_fee", "handlingFee", "extraFee", "fee"}

	discountListAliases = []string{"discounts", "discountLines", "vouchers", "coupons", "promotions"}

	// chargeRowAliases are the candidate arrays scanned for a labelled
	// delivery charge when no direct field carries one.
	chargeRowAliases = []string{"fees", "charges", "surcharges", "extraCosts", "additionalCosts", "orderFees", "costs", "adjustments", "lines"}

	// notePaths is the ordered candidate list for the delivery note.
	notePaths = []string{
		"note", "comment", "customerNote", "orderNote", "deliveryNote",
		"remark", "message", "instructions",
		"customer.note", "customer.comment", "customer.message",
		"meta.note", "meta.comment",
		"delivery.note", "delivery.instructions",
		"deliveryAddress.note",
	}
)

// deliveryKeywordRe matches charge labels and document keys that denote a
// delivery-type surcharge.
var deliveryKeywordRe = regexp.MustCompile(`(?i)(deliver|liefer|shipping|versand|surcharge|zone)`)

var zipRe = regexp.MustCompile(`\b(\d{5})\b`)

// categoryKeywords maps substring matches to ticket categories; first match
// wins, so the more specific entries come first.
var categoryKeywords = []struct {
	substrings []string
	category   string
}{
	{[]string{"vegan", "vegetar"}, entity.CategoryVegan},
	{[]string{"drink", "beverage", "getränk", "getraenk"}, entity.CategoryDrinks},
	{[]string{"sauce", "soße", "sosse", "dip"}, entity.CategorySauces},
	{[]string{"snack", "side", "beilage"}, entity.CategorySnacks},
	{[]string{"hot dog", "hotdog"}, entity.CategoryHotdog},
	{[]string{"burger"}, entity.CategoryBurger},
	{[]string{"extra"}, entity.CategoryExtras},
}

var titleCaser = cases.Title(language.German)

// NormalizeOrder derives the canonical pricing/address/VAT view from a
// loosely-typed order document. An order without an identifier or without
// line items is rejected; malformed numeric fields degrade to zero.
func NormalizeOrder(raw map[string]interface{}) (*entity.NormalizedOrder, error) {
	doc := orderDoc(raw)

	id := doc.str(idAliases...)
	if id == "" {
		return nil, fmt.Errorf("order document carries no identifier")
	}

	items := normalizeItems(doc)
	if len(items) == 0 {
		return nil, fmt.Errorf("order %s carries no line items", id)
	}

	pricing := reconcilePricing(doc, items)

	order := &entity.NormalizedOrder{
		ID:          id,
		PlacedAt:    parseTime(doc.str(placedAtAliases...), time.Now()),
		Fulfillment: normalizeFulfillment(doc.str(fulfillmentAliases...)),
		Items:       items,
		Pricing:     pricing,
		Vat:         buildVatSummary(items, pricing.DeliveryFee, pricing.DiscountTotal),
		Address:     normalizeAddress(doc),
		Note:        extractNote(doc),
	}

	if planned := doc.str(plannedAtAliases...); planned != "" {
		if t := parseTime(planned, time.Time{}); !t.IsZero() {
			order.PlannedAt = &t
		}
	}

	return order, nil
}

func normalizeFulfillment(v string) string {
	l := strings.ToLower(v)
	if strings.Contains(l, "pick") || strings.Contains(l, "abhol") || strings.Contains(l, "collect") {
		return "pickup"
	}
	return "delivery"
}

func normalizeItems(doc orderDoc) []entity.LineItem {
	var items []entity.LineItem
	for _, raw := range doc.list(itemListAliases...) {
		it := entry(raw)
		if it == nil {
			continue
		}
		name := it.str(itemNameAliases...)
		if name == "" {
			continue
		}

		qty := 1
		if q, ok := it.num(itemQtyAliases...); ok && q >= 1 {
			qty = int(q)
		}
		price, _ := it.num(itemPriceAliases...)

		category := classifyCategory(it.str(itemGroupAliases...), name)

		item := entity.LineItem{
			Name:     name,
			Quantity: qty,
			Price:    price,
			Category: category,
			TaxRate:  classifyTaxRate(it, category),
			Note:     it.str(itemNoteAliases...),
			AddOns:   nameList(it.list(addOnAliases...)),
			Removals: nameList(it.list(removalAliases...)),
		}
		items = append(items, item)
	}
	return items
}

// nameList flattens an add-on/removal array whose elements may be plain
// strings or objects with a name field.
func nameList(raw []interface{}) []string {
	var names []string
	for _, v := range raw {
		if s := toString(v); s != "" {
			names = append(names, s)
			continue
		}
		if m := entry(v); m != nil {
			if s := m.str(labelAliases...); s != "" {
				names = append(names, s)
			}
		}
	}
	return names
}

// classifyCategory maps an explicit group/category field onto a ticket
// category via the keyword table; an unmatched explicit value is title-cased
// as-is, and the item name is consulted only when no explicit field exists.
func classifyCategory(explicit, name string) string {
	if explicit != "" {
		if c := matchCategory(explicit); c != "" {
			return c
		}
		return titleCaser.String(explicit)
	}
	if c := matchCategory(name); c != "" {
		return c
	}
	return entity.CategoryOther
}

func matchCategory(v string) string {
	l := strings.ToLower(v)
	for _, kw := range categoryKeywords {
		for _, sub := range kw.substrings {
			if strings.Contains(l, sub) {
				return kw.category
			}
		}
	}
	return ""
}

// classifyTaxRate puts drinks and explicit 19% overrides in the standard
// bucket; everything else is reduced-rate food.
func classifyTaxRate(it orderDoc, category string) float64 {
	if rate, ok := it.num(itemTaxAliases...); ok {
		if rate == 19 || rate == 0.19 {
			return entity.VatRateStandard
		}
		if rate == 7 || rate == 0.07 {
			return entity.VatRateReduced
		}
	}
	if category == entity.CategoryDrinks {
		return entity.VatRateStandard
	}
	return entity.VatRateReduced
}

// reconcilePricing builds a PricingBreakdown whose fields are mutually
// consistent: an explicit discount that contradicts the other four figures by
// more than a cent is recomputed from them rather than trusted.
func reconcilePricing(doc orderDoc, items []entity.LineItem) entity.PricingBreakdown {
	pricing := doc.child(pricingContainerAliases...)
	fees := doc.child(feesContainerAliases...)
	scopes := []orderDoc{doc}
	if pricing != nil {
		scopes = append(scopes, pricing)
	}
	if fees != nil {
		scopes = append(scopes, fees)
	}

	p := entity.PricingBreakdown{
		DeliveryFee: recoverDeliveryFee(doc, scopes),
		ServiceFee:  firstPositive(scopes, serviceFeeAliases),
		OtherFee:    firstPositive(scopes, otherFeeAliases),
	}

	p.Subtotal = firstPositive(scopes, subtotalAliases)
	if p.Subtotal <= 0 {
		var sum float64
		for _, it := range items {
			sum += it.Gross()
		}
		p.Subtotal = round2(sum)
	}

	p.DiscountLines = discountLines(doc)
	explicitDiscount, hasDiscount := firstNumber(scopes, discountAliases)
	if !hasDiscount {
		for _, dl := range p.DiscountLines {
			explicitDiscount += dl.Amount
		}
		explicitDiscount = round2(explicitDiscount)
	}
	p.DiscountTotal = explicitDiscount

	explicitTotal := firstPositive(scopes, totalAliases)
	if explicitTotal > 0 {
		// Trust the explicit grand total over the explicit discount: when
		// they disagree beyond a cent, the discount is recomputed.
		if math.Abs(p.Subtotal+p.Fees()-explicitTotal-p.DiscountTotal) > 0.01 {
			p.DiscountTotal = round2(math.Max(0, p.Subtotal+p.Fees()-explicitTotal))
		}
		p.GrandTotal = explicitTotal
	} else {
		p.GrandTotal = round2(p.Subtotal + p.Fees() - p.DiscountTotal)
	}
	return p
}

// recoverDeliveryFee resolves the delivery fee through a three-tier fallback:
// direct fields, labelled charge rows, then a recursive document walk.
func recoverDeliveryFee(doc orderDoc, scopes []orderDoc) float64 {
	if f := firstPositive(scopes, deliveryFeeAliases); f > 0 {
		return f
	}

	for _, scope := range scopes {
		for _, arrayKey := range chargeRowAliases {
			for _, raw := range scope.list(arrayKey) {
				row := entry(raw)
				if row == nil {
					continue
				}
				if !deliveryKeywordRe.MatchString(row.str(labelAliases...)) {
					continue
				}
				if f := row.positive(amountAliases...); f > 0 {
					return f
				}
			}
		}
	}

	return deepFindPositive(map[string]interface{}(doc), deliveryKeywordRe)
}

func discountLines(doc orderDoc) []entity.DiscountLine {
	var lines []entity.DiscountLine
	for _, raw := range doc.list(discountListAliases...) {
		row := entry(raw)
		if row == nil {
			continue
		}
		amount, ok := row.num(amountAliases...)
		if !ok || amount == 0 {
			continue
		}
		label := row.str(labelAliases...)
		if label == "" {
			label = "Rabatt"
		}
		lines = append(lines, entity.DiscountLine{Label: label, Amount: round2(math.Abs(amount))})
	}
	return lines
}

func firstPositive(scopes []orderDoc, aliases []string) float64 {
	for _, scope := range scopes {
		if f := scope.positive(aliases...); f > 0 {
			return f
		}
	}
	return 0
}

func firstNumber(scopes []orderDoc, aliases []string) (float64, bool) {
	for _, scope := range scopes {
		if f, ok := scope.num(aliases...); ok {
			return f, true
		}
	}
	return 0, false
}

// normalizeAddress prefers structured fields and falls back to parsing a
// pipe-delimited free-text address ("Hauptstr. 12|10115 Berlin").
func normalizeAddress(doc orderDoc) entity.Address {
	customer := doc.child("customer", "client", "buyer")

	candidates := []orderDoc{
		doc.child("address", "deliveryAddress", "delivery_address", "shippingAddress"),
	}
	if customer != nil {
		candidates = append(candidates, customer.child("address", "deliveryAddress"), customer)
	}
	candidates = append(candidates, doc)

	for _, c := range candidates {
		if c == nil {
			continue
		}
		addr := entity.Address{
			Street:      c.str("street", "streetName", "street_name"),
			HouseNumber: c.str("houseNumber", "house_number", "streetNumber", "houseNo"),
			Zip:         c.str("zip", "zipCode", "zip_code", "postalCode", "postcode", "plz"),
			City:        c.str("city", "town", "ort"),
		}
		if addr.Street != "" && addr.HouseNumber == "" {
			addr.Street, addr.HouseNumber = splitHouseNumber(addr.Street)
		}
		if addr.Street != "" || addr.Zip != "" {
			return addr
		}
	}

	for _, c := range candidates {
		if c == nil {
			continue
		}
		if text := c.str("address", "addressText", "fullAddress"); text != "" {
			return parseFreeTextAddress(text)
		}
	}
	return entity.Address{}
}

// splitHouseNumber peels a trailing token that starts with a digit off a
// street line ("Hauptstraße 12a" -> "Hauptstraße", "12a").
func splitHouseNumber(street string) (string, string) {
	fields := strings.Fields(street)
	if len(fields) < 2 {
		return street, ""
	}
	last := fields[len(fields)-1]
	if last[0] < '0' || last[0] > '9' {
		return street, ""
	}
	return strings.Join(fields[:len(fields)-1], " "), last
}

func parseFreeTextAddress(text string) entity.Address {
	var addr entity.Address
	parts := strings.Split(text, "|")

	addr.Street, addr.HouseNumber = splitHouseNumber(strings.TrimSpace(parts[0]))

	if len(parts) > 1 {
		rest := strings.TrimSpace(parts[1])
		if m := zipRe.FindString(rest); m != "" {
			addr.Zip = m
			rest = strings.TrimSpace(strings.Replace(rest, m, "", 1))
		}
		addr.City = rest
	}
	return addr
}

// extractNote returns the first non-empty string along the ordered candidate
// paths.
func extractNote(doc orderDoc) string {
	for _, p := range notePaths {
		if s := doc.path(p); s != "" {
			return s
		}
	}
	return ""
}

// buildVatSummary assigns each item's gross to its rate bucket, pro-rates the
// delivery fee and then the discount across the buckets by gross share, and
// derives net/tax. Every arithmetic step is rounded to cents so the result is
// reproducible.
func buildVatSummary(items []entity.LineItem, deliveryFee, discount float64) entity.VatSummary {
	var gReduced, gStandard float64
	for _, it := range items {
		g := round2(it.Gross())
		if it.TaxRate == entity.VatRateStandard {
			gStandard = round2(gStandard + g)
		} else {
			gReduced = round2(gReduced + g)
		}
	}

	gReduced, gStandard = prorate(gReduced, gStandard, deliveryFee)
	gReduced, gStandard = prorate(gReduced, gStandard, -discount)

	return entity.VatSummary{
		Reduced:  makeBucket(entity.VatRateReduced, gReduced),
		Standard: makeBucket(entity.VatRateStandard, gStandard),
	}
}

// prorate distributes amount across the two buckets proportionally to their
// current gross share. With no gross anywhere the amount lands in the
// standard bucket (a standalone delivery is standard-rated).
func prorate(gReduced, gStandard, amount float64) (float64, float64) {
	if amount == 0 {
		return gReduced, gStandard
	}
	total := gReduced + gStandard
	if total <= 0 {
		return gReduced, clampCents(gStandard + amount)
	}
	shareReduced := round2(amount * gReduced / total)
	shareStandard := round2(amount - shareReduced)
	return clampCents(gReduced + shareReduced), clampCents(gStandard + shareStandard)
}

func makeBucket(rate, gross float64) entity.VatBucket {
	net := round2(gross / (1 + rate))
	return entity.VatBucket{
		Rate:  rate,
		Gross: gross,
		Net:   net,
		Vat:   round2(gross - net),
	}
}

func clampCents(v float64) float64 {
	if v < 0 {
		return 0
	}
	return round2(v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// parseTime accepts the timestamp shapes producers actually send; fallback is
// returned when nothing parses.
func parseTime(v string, fallback time.Time) time.Time {
	if v == "" {
		return fallback
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"02.01.2006 15:04",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	if f, ok := toFloat(v); ok && f > 0 {
		sec := int64(f)
		if sec > 1e12 { // millisecond epoch
			sec /= 1000
		}
		return time.Unix(sec, 0)
	}
	return fallback
}
