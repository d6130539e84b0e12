package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)

	assert.Len(t, a, TokenBytes*2)
	assert.NotEqual(t, a, b)
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("alice@example.com"))
	assert.False(t, IsValidEmail("alice@"))
	assert.False(t, IsValidEmail("not-an-email"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "bob@example.com", NormalizeEmail("  Bob@Example.COM "))
}

func TestIsValidColor(t *testing.T) {
	assert.True(t, IsValidColor("#fff"))
	assert.True(t, IsValidColor("#3b82f6"))
	assert.False(t, IsValidColor("blue"))
	assert.False(t, IsValidColor("#12345"))
}

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		query      string
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"", 1, 20, 0},
		{"page=3&limit=10", 3, 10, 20},
		{"page=0&limit=1000", 1, 20, 0},
		{"page=abc", 1, 20, 0},
	}

	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/?"+tc.query, nil)

		params := GetPaginationParams(c)
		assert.Equal(t, tc.wantPage, params.Page, tc.query)
		assert.Equal(t, tc.wantLimit, params.Limit, tc.query)
		assert.Equal(t, tc.wantOffset, params.Offset, tc.query)
	}
}
