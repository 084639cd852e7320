package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/campuspay-backend/pkg/errors"
)

func TestPaiseForConvertsRupees(t *testing.T) {
	c := New([]Entry{{Program: "ProgX", Rupees: decimal.NewFromInt(5000)}})

	paise, err := c.PaiseFor("ProgX")
	require.NoError(t, err)
	assert.Equal(t, int64(500000), paise)
}

func TestPaiseForFractionalRupees(t *testing.T) {
	c := New([]Entry{{Program: "Cert", Rupees: decimal.RequireFromString("1499.50")}})

	paise, err := c.PaiseFor("Cert")
	require.NoError(t, err)
	assert.Equal(t, int64(149950), paise)
}

func TestUnknownProgramIsValidationError(t *testing.T) {
	c := Default()

	_, err := c.PriceFor("Underwater Basket Weaving")
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestDefaultCatalogHasPrograms(t *testing.T) {
	c := Default()

	price, err := c.PriceFor("MBA")
	require.NoError(t, err)
	assert.True(t, price.IsPositive())
}
