package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPin(t *testing.T) {
	valid := []string{"AB123456", "zz000000", "Qx987654"}
	for _, pin := range valid {
		assert.True(t, ValidPin(pin), pin)
	}

	invalid := []string{
		"",
		"A1234567",  // one letter
		"ABC12345",  // three letters
		"AB12345",   // five digits
		"AB1234567", // seven digits
		"12345678",  // no letters
		"AB12345a",  // trailing letter
		" AB123456", // leading space
	}
	for _, pin := range invalid {
		assert.False(t, ValidPin(pin), pin)
	}
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("casey@example.org"))
	assert.True(t, ValidEmail("first.last+tag@sub.example.co"))

	assert.False(t, ValidEmail("not-an-email"))
	assert.False(t, ValidEmail("missing@tld"))
	assert.False(t, ValidEmail("@example.org"))
}
