package catalog

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/campuspay-backend/pkg/errors"
)

// Catalog maps program names to their authoritative fee. Prices come from
// the catalog, never from the client.
type Catalog struct {
	prices map[string]decimal.Decimal
}

// Entry is one program with its fee in rupees.
type Entry struct {
	Program string
	Rupees  decimal.Decimal
}

var paisePerRupee = decimal.NewFromInt(100)

// New builds a catalog from the provided entries.
func New(entries []Entry) *Catalog {
	prices := make(map[string]decimal.Decimal, len(entries))
	for _, entry := range entries {
		prices[entry.Program] = entry.Rupees
	}
	return &Catalog{prices: prices}
}

// Default returns the program fee catalog the enrollment frontend offers.
func Default() *Catalog {
	return New([]Entry{
		{Program: "B.Tech Computer Science", Rupees: decimal.NewFromInt(55000)},
		{Program: "B.Tech Mechanical Engineering", Rupees: decimal.NewFromInt(48000)},
		{Program: "BBA", Rupees: decimal.NewFromInt(35000)},
		{Program: "MBA", Rupees: decimal.NewFromInt(72000)},
		{Program: "MCA", Rupees: decimal.NewFromInt(60000)},
		{Program: "B.Sc Nursing", Rupees: decimal.NewFromInt(42000)},
	})
}

// PriceFor returns the catalog fee in rupees for the named program.
func (c *Catalog) PriceFor(program string) (decimal.Decimal, error) {
	price, ok := c.prices[program]
	if !ok {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "unknown program").
			WithDetails(map[string]any{"program": program})
	}
	return price, nil
}

// PaiseFor returns the catalog fee converted to integer paise, the unit the
// gateway charges in.
func (c *Catalog) PaiseFor(program string) (int64, error) {
	price, err := c.PriceFor(program)
	if err != nil {
		return 0, err
	}
	return price.Mul(paisePerRupee).IntPart(), nil
}
