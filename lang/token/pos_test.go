package token_test

import (
	"testing"

	"github.com/mna/meon/lang/token"
	"github.com/stretchr/testify/assert"
)

func TestPositionString(t *testing.T) {
	assert.Equal(t, "-", token.Position{}.String())
	assert.Equal(t, "3:7", token.Position{Line: 3, Column: 7}.String())
	assert.True(t, token.Position{}.Unknown())
	assert.False(t, token.Position{Line: 1, Column: 1}.Unknown())
}
