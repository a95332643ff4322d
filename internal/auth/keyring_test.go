package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore("")

	_, err := store.Get()
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, store.Set("ghp_secret"))
	token, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "ghp_secret", token)

	fallback := TokenFallback(store)
	token, err = fallback()
	require.NoError(t, err)
	assert.Equal(t, "ghp_secret", token)

	require.NoError(t, store.Delete())
	_, err = store.Get()
	assert.ErrorIs(t, err, ErrNoToken)

	// deleting twice is fine
	assert.NoError(t, store.Delete())
	assert.Equal(t, "system-keyring", store.Name())
}

func TestKeyringStore_SeparateAccounts(t *testing.T) {
	keyring.MockInit()
	work := NewKeyringStore("work")
	home := NewKeyringStore("home")

	require.NoError(t, work.Set("w"))
	_, err := home.Get()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestKeyringStore_RejectsEmptyToken(t *testing.T) {
	keyring.MockInit()
	assert.Error(t, NewKeyringStore("").Set(""))
}

func TestKeyringStore_Unavailable(t *testing.T) {
	keyring.MockInitWithError(errors.New("dbus: secret service not running"))
	t.Cleanup(keyring.MockInit)

	_, err := NewKeyringStore("").Get()
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ErrorTypeKeyringUnavailable, authErr.Type)
}
