package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("alice@example.com"))
	assert.True(t, IsValidEmail("a.b-c@sub.domain.io"))
	assert.False(t, IsValidEmail("alice"))
	assert.False(t, IsValidEmail("alice@"))
	assert.False(t, IsValidEmail("@example.com"))
	assert.False(t, IsValidEmail("alice@example"))
}

func TestIsValidPassword(t *testing.T) {
	assert.True(t, IsValidPassword("Sup3r#secret"))
	assert.True(t, IsValidPassword("aA1@aaaa"))

	// too short / too long
	assert.False(t, IsValidPassword("aA1@aaa"))
	assert.False(t, IsValidPassword("aA1@"+string(make([]byte, 30))))

	// missing character classes
	assert.False(t, IsValidPassword("alllower1@"))
	assert.False(t, IsValidPassword("ALLUPPER1@"))
	assert.False(t, IsValidPassword("NoDigits@@"))
	assert.False(t, IsValidPassword("NoSpecial11"))

	// disallowed characters
	assert.False(t, IsValidPassword("aA1@aaaa "))
}

func TestIsValidHandle(t *testing.T) {
	assert.True(t, IsValidHandle("alice"))
	assert.True(t, IsValidHandle("alice.b_99"))
	assert.False(t, IsValidHandle("al"))
	assert.False(t, IsValidHandle("has space"))
	assert.False(t, IsValidHandle("way-too-long-"+string(make([]byte, 30))))
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("+8801707104399"))
	assert.True(t, IsValidPhone("01707104399"))
	assert.False(t, IsValidPhone("12ab34"))
}
