// Package worklist decides which processing orders still need a fulfillment
// document: those without MyParcel track & trace.
package worklist

import (
	"strings"

	"autoparse/internal/model"
)

// barcodeMarker is the literal prefix of the barcode field inside a
// serialized MyParcel shipment.
const barcodeMarker = `"barcode":"`

// FilterUntracked keeps orders whose status is "processing" (any case) and
// that carry no real barcode in their _myparcel_shipments metadata.
// Relative order is preserved and the input slice is not modified.
func FilterUntracked(orders []model.Order) []model.Order {
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if !strings.EqualFold(o.Status, model.StatusProcessing) {
			continue
		}
		if HasTracking(&o) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// HasTracking reports whether any _myparcel_shipments entry on the order
// contains a non-empty barcode.
func HasTracking(o *model.Order) bool {
	for _, m := range o.MetaData {
		if m.Key != model.MetaKeyMyParcelShipments {
			continue
		}
		if _, ok := ExtractBarcode(m.ValueString()); ok {
			return true
		}
	}
	return false
}

// ExtractBarcode scans raw shipment text for the first "barcode":"…" field and
// returns its trimmed content. It is a textual scan, not a JSON parse, because
// shipment values are not guaranteed to be well-formed. A missing field, a
// missing closing quote or a blank code all yield ("", false), which callers
// treat as "no track & trace yet".
func ExtractBarcode(raw string) (string, bool) {
	idx := strings.Index(raw, barcodeMarker)
	if idx == -1 {
		return "", false
	}

	rest := raw[idx+len(barcodeMarker):]
	end := strings.IndexByte(rest, '"')
	if end == -1 {
		return "", false
	}

	code := strings.TrimSpace(rest[:end])
	if code == "" {
		return "", false
	}
	return code, true
}
