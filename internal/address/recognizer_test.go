package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_DisguisedVariantsShareCanonicalForm(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"literal", "write to jane.doe@example.com today"},
		{"spaced at", "write to jane.doe at example.com today"},
		{"underscore at", "write to jane.doe_at_example.com today"},
		{"spaced at sign", "write to jane.doe @ example.com today"},
		{"spelled out", "write to jane dot doe at example dot com today"},
		{"underscore spelled", "write to jane_dot_doe_at_example_dot_com today"},
		{"upper case", "write to JANE.DOE@EXAMPLE.COM today"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, []string{"jane.doe@example.com"}, Extract(tt.text))
		})
	}
}

func TestExtract_MixedFragment(t *testing.T) {
	text := "contact jane_dot_doe_at_example_dot_com or john at example dot org, call 555-1234"
	assert.Equal(t, []string{"jane.doe@example.com", "john@example.org"}, Extract(text))
}

func TestExtract_KeepsMatchOrderAndRepeats(t *testing.T) {
	text := "b@example.com, a@example.com\nb@example.com"
	assert.Equal(t, []string{"b@example.com", "a@example.com", "b@example.com"}, Extract(text))
}

func TestExtract_NoAddresses(t *testing.T) {
	assert.Empty(t, Extract(""))
	assert.Empty(t, Extract("meet me at noon, call 555-123-4567"))
	assert.Empty(t, Extract("user@localhost"))
}

func TestExtract_TopLevelDomainMustEndTheToken(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"jane@example.c0m", nil},
		{"jane@example.com2x", nil},
		{"jane at example dot c0m", nil},
		{"mail jane@example.com.", []string{"jane@example.com"}},
		{"(jane@example.com)", []string{"jane@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text))
		})
	}
}

func TestNormalize_StripsPhoneRuns(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"5551234567jane@example.com", "jane@example.com"},
		{"+15551234567jane@example.com", "jane@example.com"},
		{"555-123-4567jane@example.com", "jane@example.com"},
		{"jane123@example.com", "jane123@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := Normalize(tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_PhoneGluedToAddress(t *testing.T) {
	got := Extract("tel 5551234567jane@example.com")
	assert.Equal(t, []string{"jane@example.com"}, got)
	for _, addr := range got {
		assert.NotContains(t, addr, "5551234567")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"jane.doe@example.com",
		"Jane.Doe at Example.com",
		"jane_dot_doe_at_example_dot_com",
		"john at example dot org",
		"x+tag@mail.example.co",
		"5551234567jane@example.com",
	}
	for _, in := range inputs {
		once, ok := Normalize(in)
		require.True(t, ok, in)
		twice, ok := Normalize(once)
		require.True(t, ok, once)
		assert.Equal(t, once, twice)
	}
}

func TestNormalize_Rejects(t *testing.T) {
	for _, raw := range []string{
		"",
		"jane",
		"@example.com",
		"jane@",
		"jane@example",
		"jane@@example.com",
		"jane@example..com",
		"jane at foo at example.com",
	} {
		_, ok := Normalize(raw)
		assert.False(t, ok, "expected %q to be rejected", raw)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("a@b.c"))
	assert.False(t, Valid("a@b"))
	assert.False(t, Valid("a@.c"))
	assert.False(t, Valid("a@b@c.d"))
}
