package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPassword(t *testing.T) {
	t.Run("set and check", func(t *testing.T) {
		user := User{ID: "alice"}
		require.NoError(t, user.SetPassword("correct horse battery staple"))

		assert.NotEmpty(t, user.PasswordHash)
		assert.NotContains(t, user.PasswordHash, "correct horse")
		assert.True(t, user.CheckPassword("correct horse battery staple"))
		assert.False(t, user.CheckPassword("wrong"))
		assert.False(t, user.CheckPassword(""))
	})

	t.Run("same password hashes differently per user", func(t *testing.T) {
		a := User{ID: "a"}
		b := User{ID: "b"}
		require.NoError(t, a.SetPassword("shared"))
		require.NoError(t, b.SetPassword("shared"))

		assert.NotEqual(t, a.PasswordHash, b.PasswordHash, "bcrypt salts must differ")
	})
}
