// Package model defines the order and product types shared across the service,
// along with the structured error taxonomy.
package model

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// StatusProcessing is the WooCommerce status of paid orders awaiting fulfillment.
const StatusProcessing = "processing"

// MetaKeyMyParcelShipments is the order meta key under which the MyParcel
// plugin stores shipment records, including the track & trace barcode.
const MetaKeyMyParcelShipments = "_myparcel_shipments"

// Order is a snapshot of a WooCommerce order as returned by GET /orders.
// Unknown fields in the upstream payload are ignored.
type Order struct {
	ID           int64      `json:"id"`
	Status       string     `json:"status"`
	CustomerNote string     `json:"customer_note"`
	LineItems    []LineItem `json:"line_items"`
	MetaData     []MetaData `json:"meta_data"`
}

// LineItem is a single product line on an order.
type LineItem struct {
	Name      string `json:"name"`
	ProductID *int64 `json:"product_id,omitempty"`
}

// HasProduct reports whether the line item references a product.
// WooCommerce reports 0 for lines whose product was deleted.
func (li LineItem) HasProduct() bool {
	return li.ProductID != nil && *li.ProductID != 0
}

// FirstLineItem returns the first line item, or false if the order has none.
func (o *Order) FirstLineItem() (LineItem, bool) {
	if len(o.LineItems) == 0 {
		return LineItem{}, false
	}
	return o.LineItems[0], true
}

// MetaData is an order meta entry. Value is opaque: plugins store anything
// from scalars to JSON objects to JSON documents serialized into a string.
type MetaData struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// ValueString returns the string form of the value.
// JSON strings are unquoted; objects, arrays and numbers are returned as raw
// JSON text; null or a missing value yields "".
func (m MetaData) ValueString() string {
	if len(m.Value) == 0 {
		return ""
	}
	return gjson.ParseBytes(m.Value).String()
}
