package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateObserverCode(t *testing.T) {
	code, err := GenerateObserverCode("I", "Mira", "Vega", nil)
	require.NoError(t, err)
	assert.Equal(t, "Imv", code)
}

func TestGenerateObserverCodeResolvesConflicts(t *testing.T) {
	existing := map[string]struct{}{"Imv": {}}

	code, err := GenerateObserverCode("I", "Mira", "Vega", existing)
	require.NoError(t, err)
	assert.Equal(t, "Iiv", code, "second letter of the first name breaks the tie")

	existing[code] = struct{}{}
	code, err = GenerateObserverCode("I", "Mira", "Vega", existing)
	require.NoError(t, err)
	assert.Equal(t, "Irv", code)
}

func TestGenerateObserverCodeShortNamesFallBack(t *testing.T) {
	existing := map[string]struct{}{"Xay": {}, "Xae": {}}

	code, err := GenerateObserverCode("X", "A", "Ye", existing)
	require.NoError(t, err)
	assert.NotContains(t, existing, code)
	assert.Len(t, code, 3)
}

func TestGenerateObserverCodeRequiresNames(t *testing.T) {
	_, err := GenerateObserverCode("I", "", "Vega", nil)
	assert.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPassword("correct horse battery staple", hash))
	assert.False(t, CheckPassword("wrong", hash))
}
