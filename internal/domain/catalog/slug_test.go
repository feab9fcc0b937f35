package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hospitality Lounge":      "hospitality-lounge",
		"  Padded   Name  ":       "padded-name",
		"Café Président":          "cafe-president",
		"VIP (Gold) Package!":     "vip-gold-package",
		"UPPER":                   "upper",
		"box-seat":                "box-seat",
		"Suite 12 — River View":   "suite-12-river-view",
	}
	for input, want := range cases {
		assert.Equal(t, want, Slugify(input), input)
	}
}
