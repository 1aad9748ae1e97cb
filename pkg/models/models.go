package models

import (
	"encoding/json"
	"strconv"
)

// Columns is the fixed header of the tabular output, in row order.
var Columns = []string{
	"Laptop Name",
	"Website",
	"Main Specifications",
	"Model Type",
	"Price (PKR)",
	"URL",
}

// PriceKind tells which variant of Price is populated
type PriceKind int

const (
	// PriceAbsent means no price text was found on the listing
	PriceAbsent PriceKind = iota
	// PriceNumeric means the price text parsed to a number
	PriceNumeric
	// PriceText means the price text could not be parsed; Text holds the stripped residue
	PriceText
)

// String returns the name of the price kind
func (k PriceKind) String() string {
	switch k {
	case PriceNumeric:
		return "numeric"
	case PriceText:
		return "text"
	default:
		return "absent"
	}
}

// Price is either a parsed amount or the raw digits-and-dots text that failed to parse.
//
// An unparseable price keeps the reason it was rejected so that callers can tell
// "no price on the page" apart from "price present but not a number". A PriceText
// with an empty Text (e.g. "Call for price") is not a usable price.
type Price struct {
	Kind   PriceKind
	Amount float64
	Text   string
	Reason string
}

// NumericPrice builds a parsed price
func NumericPrice(amount float64) Price {
	return Price{Kind: PriceNumeric, Amount: amount}
}

// TextPrice builds an unparsed price holding the stripped text and the reason parsing failed
func TextPrice(text, reason string) Price {
	return Price{Kind: PriceText, Text: text, Reason: reason}
}

// IsNumeric reports whether the price parsed to a number
func (p Price) IsNumeric() bool {
	return p.Kind == PriceNumeric
}

// Present reports whether the price can satisfy the required-field check:
// numeric, or fallback text that is not empty.
func (p Price) Present() bool {
	switch p.Kind {
	case PriceNumeric:
		return true
	case PriceText:
		return p.Text != ""
	default:
		return false
	}
}

// String renders the price the way it is written to the output file
func (p Price) String() string {
	switch p.Kind {
	case PriceNumeric:
		return strconv.FormatFloat(p.Amount, 'f', -1, 64)
	case PriceText:
		return p.Text
	default:
		return ""
	}
}

// MarshalJSON encodes numeric prices as numbers, text prices as strings and absent prices as null
func (p Price) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PriceNumeric:
		return json.Marshal(p.Amount)
	case PriceText:
		return json.Marshal(p.Text)
	default:
		return []byte("null"), nil
	}
}

// ListingRecord is one laptop listing extracted from a listing page
type ListingRecord struct {
	Name      string `json:"name"`
	Website   string `json:"website"`
	Specs     string `json:"specs,omitempty"`
	Model     string `json:"model,omitempty"`
	Price     Price  `json:"price"`
	SourceURL string `json:"url"`
}

// Valid reports whether the record has both required fields
func (r ListingRecord) Valid() bool {
	return r.Name != "" && r.Price.Present()
}

// Row returns the record's cells in Columns order
func (r ListingRecord) Row() []string {
	return []string{r.Name, r.Website, r.Specs, r.Model, r.Price.String(), r.SourceURL}
}
