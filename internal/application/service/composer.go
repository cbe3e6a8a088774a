package service

import (
	"fmt"
	"sort"

	"github.com/grillwerk/printgate/internal/domain/entity"
	"github.com/grillwerk/printgate/pkg/escpos"
	"github.com/grillwerk/printgate/pkg/raster"
)

// TicketLayout carries the static layout parameters of a ticket.
type TicketLayout struct {
	Width         int      // line width in characters
	StoreName     string   // fallback header when no logo could be rendered
	HeaderLines   []string // store address/phone lines
	BarcodeHeight int
	BarcodeModule int
}

// ComposeTicket arranges a normalized order into the final ESC/POS stream.
// A nil logo degrades to a large bold text header; everything else is
// unconditional and printed in fixed order.
func ComposeTicket(o *entity.NormalizedOrder, logo *raster.Image, layout TicketLayout) []byte {
	doc := escpos.NewDocument(layout.Width)

	doc.SetAlign(escpos.AlignCenter)
	if logo != nil {
		doc.Raster(logo.RowBytes, logo.Height, logo.Data)
		doc.LineFeed()
	} else {
		doc.SetBold(true).SetSize(2, 2).
			Text(layout.StoreName).
			SetSize(1, 1).SetBold(false)
	}

	doc.SetBold(true).SetSize(2, 2)
	if o.PlannedAt != nil {
		doc.TextF("Geplant %s", o.PlannedAt.Format("02.01. 15:04"))
	} else {
		doc.Text("Sofort")
	}
	doc.SetSize(1, 1).SetBold(false)

	for _, line := range layout.HeaderLines {
		doc.Text(line)
	}
	doc.LineFeed()

	doc.SetAlign(escpos.AlignLeft)
	doc.KeyValue("Bestellung:", o.ID)
	doc.KeyValue("Datum:", o.PlacedAt.Format("02.01.2006 15:04"))
	if o.Fulfillment == "pickup" {
		doc.KeyValue("Art:", "Abholung")
	} else {
		doc.KeyValue("Art:", "Lieferung")
	}
	doc.Separator('-')

	writeItems(doc, o.Items)

	doc.Separator('-')
	writeTotals(doc, o)

	doc.Separator('-')
	writeAddressBlock(doc, o)

	doc.LineFeed().
		SetAlign(escpos.AlignCenter).
		Barcode(o.ID, layout.BarcodeHeight, layout.BarcodeModule).
		FeedLines(3).
		Cut()

	return doc.Bytes()
}

func writeItems(doc *escpos.Document, items []entity.LineItem) {
	grouped := make(map[string][]entity.LineItem)
	for _, it := range items {
		grouped[it.Category] = append(grouped[it.Category], it)
	}

	for _, category := range orderedCategories(grouped) {
		doc.SetBold(true).Text(category).SetBold(false)
		for _, it := range grouped[category] {
			doc.ItemLine(it.Quantity, it.Name, money(round2(it.Gross())))
			if it.Quantity > 1 {
				doc.TextF("   je %s", money(it.Price))
			}
			for _, a := range it.AddOns {
				doc.TextF("   + %s", a)
			}
			for _, r := range it.Removals {
				doc.TextF("   - %s", r)
			}
			if it.Note != "" {
				doc.TextF("   Anm.: %s", it.Note)
			}
		}
	}
}

// orderedCategories returns the fixed category sequence first, then any
// remaining categories alphabetically.
func orderedCategories(grouped map[string][]entity.LineItem) []string {
	var ordered []string
	seen := make(map[string]bool)
	for _, c := range entity.CategoryPrintOrder {
		if _, ok := grouped[c]; ok {
			ordered = append(ordered, c)
			seen[c] = true
		}
	}
	var rest []string
	for c := range grouped {
		if !seen[c] {
			rest = append(rest, c)
		}
	}
	sort.Strings(rest)
	return append(ordered, rest...)
}

func writeTotals(doc *escpos.Document, o *entity.NormalizedOrder) {
	p := o.Pricing

	doc.KeyValue("Zwischensumme", money(p.Subtotal))
	if p.DeliveryFee > 0 {
		doc.KeyValue("Liefergebühr", money(p.DeliveryFee))
	}
	if p.ServiceFee > 0 {
		doc.KeyValue("Servicegebühr", money(p.ServiceFee))
	}
	if p.OtherFee > 0 {
		doc.KeyValue("Sonstige Gebühren", money(p.OtherFee))
	}
	if p.DiscountTotal > 0 {
		for _, dl := range p.DiscountLines {
			doc.KeyValue("  "+dl.Label, "-"+money(dl.Amount))
		}
		doc.KeyValue("Rabatt", "-"+money(p.DiscountTotal))
	}

	// The tax breakdown is legally required, so both rate classes are always
	// printed, zeros included.
	doc.KeyValue("Netto 7%", money(o.Vat.Reduced.Net))
	doc.KeyValue("MwSt. 7%", money(o.Vat.Reduced.Vat))
	doc.KeyValue("Netto 19%", money(o.Vat.Standard.Net))
	doc.KeyValue("MwSt. 19%", money(o.Vat.Standard.Vat))

	doc.SetBold(true).SetSize(1, 2).
		KeyValue("Gesamt", money(p.GrandTotal)).
		SetSize(1, 1).SetBold(false)
}

func writeAddressBlock(doc *escpos.Document, o *entity.NormalizedOrder) {
	if o.Fulfillment != "pickup" && !o.Address.IsEmpty() {
		doc.SetBold(true).Text("Lieferadresse").SetBold(false)
		for _, line := range o.Address.Lines() {
			doc.Text(line)
		}
	}
	if o.Note != "" {
		doc.TextF("Hinweis: %s", o.Note)
	}
}

// ComposeLines renders raw text lines with no layout beyond a trailing cut.
func ComposeLines(lines []string, width int) []byte {
	doc := escpos.NewDocument(width)
	for _, line := range lines {
		doc.Text(line)
	}
	doc.FeedLines(3).Cut()
	return doc.Bytes()
}

// ComposeBarcode renders one or more copies of a bare barcode block.
func ComposeBarcode(code string, copies int, layout TicketLayout) []byte {
	if copies < 1 {
		copies = 1
	}
	doc := escpos.NewDocument(layout.Width)
	doc.SetAlign(escpos.AlignCenter)
	for i := 0; i < copies; i++ {
		doc.Barcode(code, layout.BarcodeHeight, layout.BarcodeModule)
		doc.FeedLines(1)
	}
	doc.FeedLines(2).Cut()
	return doc.Bytes()
}

// ComposeSelfTest renders the fixed self-test ticket. The sample lines
// exercise the code-page translation: umlauts pass through, smart punctuation
// maps onto its single-byte slots.
func ComposeSelfTest(layout TicketLayout) []byte {
	doc := escpos.NewDocument(layout.Width)
	doc.SetAlign(escpos.AlignCenter).
		SetBold(true).SetSize(2, 2).
		Text("SELBSTTEST").
		SetSize(1, 1).SetBold(false).
		LineFeed().
		SetAlign(escpos.AlignLeft).
		Text("ÄÖÜ äöü ß é è ç").
		Text("Preis: 12,50€ – „Danke“ …").
		Text("Bold/Unterstrichen:").
		SetBold(true).Text("Fettdruck").SetBold(false).
		SetUnderline(true).Text("Unterstrichen").SetUnderline(false).
		KeyValue("Zweispaltig", "42.00€").
		Separator('-').
		Barcode("TEST-0001", layout.BarcodeHeight, layout.BarcodeModule).
		FeedLines(3).
		Cut()
	return doc.Bytes()
}

func money(v float64) string {
	return fmt.Sprintf("%.2f€", v)
}
