package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPostgRESTFilterValue(t *testing.T) {
	t.Run("通常の投稿者名は許可される", func(t *testing.T) {
		assert.True(t, validPostgRESTFilterValue("alice"))
		assert.True(t, validPostgRESTFilterValue("user-123"))
		assert.True(t, validPostgRESTFilterValue("山田太郎"))
	})

	t.Run("フィルタ構文を壊す文字は拒否される", func(t *testing.T) {
		invalid := []string{
			"alice,visibility.eq.private",
			"alice)",
			"(alice",
			`ali"ce`,
			"ali'ce",
			`ali\ce`,
		}
		for _, value := range invalid {
			assert.False(t, validPostgRESTFilterValue(value), value)
		}
	})
}
