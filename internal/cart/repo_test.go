package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckStockCapsMergedQuantity(t *testing.T) {
	cases := []struct {
		name          string
		stock, want   int
		expectBlocked bool
	}{
		{"merge exceeds stock", 4, 5, true},
		{"merge exactly fits", 4, 4, false},
		{"merge under stock", 4, 3, false},
		{"zero stock", 0, 1, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := checkStock("Widget", c.stock, c.want)
			if !c.expectBlocked {
				assert.NoError(t, err)
				return
			}
			var sErr *StockError
			require.ErrorAs(t, err, &sErr)
			assert.Equal(t, c.stock, sErr.Available)
			assert.Equal(t, "Widget", sErr.ProductName)
		})
	}
}

func TestStockErrorNamesProduct(t *testing.T) {
	err := &StockError{ProductName: "Gadget", Available: 2}
	assert.Equal(t, "only 2 units of 'Gadget' available", err.Error())
}
