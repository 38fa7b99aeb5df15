package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProduct_PrimaryImage(t *testing.T) {
	t.Run("returns first image", func(t *testing.T) {
		p := &Product{Images: []string{"https://a/1.jpg", "https://a/2.jpg"}}
		assert.Equal(t, "https://a/1.jpg", p.PrimaryImage())
	})

	t.Run("empty when no images", func(t *testing.T) {
		p := &Product{}
		assert.Empty(t, p.PrimaryImage())
	})
}

func TestProduct_PriceString(t *testing.T) {
	tests := []struct {
		name     string
		price    decimal.Decimal
		expected string
	}{
		{"whole number", decimal.NewFromInt(299), "299.00"},
		{"two decimals", decimal.RequireFromString("89.5"), "89.50"},
		{"zero", decimal.Zero, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Product{Price: tt.price}
			assert.Equal(t, tt.expected, p.PriceString())
		})
	}
}

func TestIsDemoID(t *testing.T) {
	assert.True(t, IsDemoID("prod_001"))
	assert.False(t, IsDemoID("8123456789"))
	assert.False(t, IsDemoID(""))
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"299.00", "299.00"},
		{" 19.9 ", "19.90"},
		{"", "0.00"},
		{"free", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParsePrice(tt.input).StringFixed(2))
		})
	}
}
