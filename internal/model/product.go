package model

import "strings"

// Product is a WooCommerce product as returned by GET /products/{id}.
type Product struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	ShortDescription string `json:"short_description"`
	Description      string `json:"description"`
}

// EffectiveDescription prefers the long description (the "Description" tab),
// falls back to the short description, and returns "" when both are blank.
func (p *Product) EffectiveDescription() string {
	if strings.TrimSpace(p.Description) != "" {
		return p.Description
	}
	if strings.TrimSpace(p.ShortDescription) != "" {
		return p.ShortDescription
	}
	return ""
}

// LookupStatus tags the outcome of a best-effort product lookup.
type LookupStatus int

const (
	// LookupAbsent means there was nothing to fetch or the store has no such product.
	LookupAbsent LookupStatus = iota
	// LookupFound means Product is set.
	LookupFound
	// LookupFailed means the fetch failed; Err holds the cause.
	LookupFailed
)

func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupFailed:
		return "failed"
	default:
		return "absent"
	}
}

// ProductLookup is the result of a product fetch. Callers that only need a
// description treat LookupAbsent and LookupFailed the same way.
type ProductLookup struct {
	Status  LookupStatus
	Product *Product
	Err     error
}

// Description returns the effective description of a found product, or "".
func (l ProductLookup) Description() string {
	if l.Status != LookupFound || l.Product == nil {
		return ""
	}
	return l.Product.EffectiveDescription()
}
