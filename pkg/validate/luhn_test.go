package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsOrderNumber(t *testing.T) {
	tests := []struct {
		name   string
		number string
		want   bool
	}{
		{"valid number", "2404815702", true},
		{"another valid number", "79927398713", true},
		{"wrong check digit", "2404815703", false},
		{"empty string", "", false},
		{"non-digit characters", "24048a5702", false},
		{"too long", strings.Repeat("0", 33), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOrderNumber(tt.number))
		})
	}
}
