package service

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grillwerk/printgate/internal/domain/entity"
	"github.com/grillwerk/printgate/pkg/escpos"
)

func testLayout() TicketLayout {
	return TicketLayout{
		Width:         42,
		StoreName:     "GRILLWERK",
		HeaderLines:   []string{"Hauptstraße 1", "10115 Berlin"},
		BarcodeHeight: 80,
		BarcodeModule: 2,
	}
}

func sampleOrder(t *testing.T) *entity.NormalizedOrder {
	t.Helper()
	order, err := NormalizeOrder(map[string]interface{}{
		"id": "A-100",
		"items": []interface{}{
			map[string]interface{}{"name": "Classic Burger", "price": 7.90, "category": "Burger"},
			map[string]interface{}{"name": "Cola", "price": 2.00, "quantity": 2, "category": "Drinks"},
		},
		"deliveryFee": 2.50,
		"customer": map[string]interface{}{
			"address": map[string]interface{}{
				"street": "Musterweg 5",
				"zip":    "10115",
				"city":   "Berlin",
			},
		},
	})
	require.NoError(t, err)
	return order
}

func TestComposeTicketEndToEnd(t *testing.T) {
	order := sampleOrder(t)
	require.InDelta(t, 14.40, order.Pricing.GrandTotal, 1e-9)

	out := ComposeTicket(order, nil, testLayout())

	// Starts with init + code page, ends with a full cut.
	require.True(t, bytes.HasPrefix(out, []byte{0x1B, '@', 0x1B, 't', 16}))
	require.True(t, bytes.HasSuffix(out, []byte{0x1D, 'V', 0x00}))

	// No logo: the store name header is printed instead.
	require.Contains(t, string(out), "GRILLWERK")

	// Fixed section order and encoded money figures.
	for _, want := range []string{
		"Bestellung:", "A-100",
		"Burger", "Classic Burger",
		"Cola", "je 2.00",
		"Zwischensumme", "Gesamt", "14.40",
		"Lieferadresse", "Musterweg 5",
	} {
		require.Contains(t, string(out), string(escpos.Encode(want)), "missing %q", want)
	}

	// Both VAT classes appear even though the document never mentioned VAT.
	require.Contains(t, string(out), string(escpos.Encode("MwSt. 7%")))
	require.Contains(t, string(out), string(escpos.Encode("MwSt. 19%")))

	// The order ID rides out as a Code 128 barcode.
	require.NotEqual(t, -1, bytes.Index(out, []byte{0x1D, 'k', 73}))
}

func TestComposeTicketPlannedHeader(t *testing.T) {
	order, err := NormalizeOrder(map[string]interface{}{
		"id":        "A-101",
		"plannedAt": "2026-08-30T18:30:00Z",
		"items": []interface{}{
			map[string]interface{}{"name": "Burger", "price": 7.90},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, order.PlannedAt)

	out := ComposeTicket(order, nil, testLayout())
	require.Contains(t, string(out), string(escpos.Encode("Geplant 30.08. 18:30")))
	require.NotContains(t, string(out), string(escpos.Encode("Sofort")))
}

func TestComposeTicketPickupSkipsAddress(t *testing.T) {
	order, err := NormalizeOrder(map[string]interface{}{
		"id":          "A-102",
		"orderType":   "pickup",
		"items":       []interface{}{map[string]interface{}{"name": "Burger", "price": 7.90}},
		"address":     "Musterweg 5|10115 Berlin",
		"orderNote":   "",
		"deliveryFee": 0,
	})
	require.NoError(t, err)

	out := ComposeTicket(order, nil, testLayout())
	require.Contains(t, string(out), string(escpos.Encode("Abholung")))
	require.NotContains(t, string(out), string(escpos.Encode("Lieferadresse")))
}

func TestComposeTicketCategoryOrdering(t *testing.T) {
	order, err := NormalizeOrder(map[string]interface{}{
		"id": "A-103",
		"items": []interface{}{
			map[string]interface{}{"name": "Cola", "price": 2.00, "category": "Drinks"},
			map[string]interface{}{"name": "Mayo", "price": 0.50, "category": "Sauce"},
			map[string]interface{}{"name": "Cheeseburger", "price": 8.90, "category": "Burger"},
		},
	})
	require.NoError(t, err)

	out := string(ComposeTicket(order, nil, testLayout()))
	iBurger := bytes.Index([]byte(out), escpos.Encode("Cheeseburger"))
	iDrinks := bytes.Index([]byte(out), escpos.Encode("Cola"))
	iSauces := bytes.Index([]byte(out), escpos.Encode("Mayo"))
	require.True(t, iBurger >= 0 && iDrinks >= 0 && iSauces >= 0)
	require.Less(t, iBurger, iDrinks, "burgers print before drinks")
	require.Less(t, iDrinks, iSauces, "drinks print before sauces")
}

func TestComposeLines(t *testing.T) {
	out := ComposeLines([]string{"erste Zeile", "zweite Zeile"}, 42)
	require.Contains(t, string(out), string(escpos.Encode("erste Zeile")))
	require.Contains(t, string(out), string(escpos.Encode("zweite Zeile")))
	require.True(t, bytes.HasSuffix(out, []byte{0x1D, 'V', 0x00}))
}

func TestComposeBarcodeCopies(t *testing.T) {
	out := ComposeBarcode("A-200", 3, testLayout())
	require.Equal(t, 3, bytes.Count(out, []byte{0x1D, 'k', 73}))

	// Zero copies still prints one.
	out = ComposeBarcode("A-200", 0, testLayout())
	require.Equal(t, 1, bytes.Count(out, []byte{0x1D, 'k', 73}))
}

func TestComposeSelfTestExercisesCodePage(t *testing.T) {
	out := ComposeSelfTest(testLayout())
	require.Contains(t, string(out), string(escpos.Encode("SELBSTTEST")))
	require.Contains(t, string(out), string(escpos.Encode("ÄÖÜ äöü ß é è ç")))
	// The en dash and the low quotes must come out as single CP1252 bytes.
	require.Contains(t, string(out), string([]byte{0x96}))
	require.Contains(t, string(out), string([]byte{0x84}))
	require.True(t, bytes.HasSuffix(out, []byte{0x1D, 'V', 0x00}))
}
