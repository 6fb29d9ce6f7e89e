package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateChapterNumber(t *testing.T) {
	assert.NoError(t, ValidateChapterNumber(1))
	assert.NoError(t, ValidateChapterNumber(9999))
	assert.Error(t, ValidateChapterNumber(0))
	assert.Error(t, ValidateChapterNumber(-1))
}

func TestValidateCoinAmount(t *testing.T) {
	assert.NoError(t, ValidateCoinAmount(1))
	assert.NoError(t, ValidateCoinAmount(MaxCoinsPerOrder))
	assert.Error(t, ValidateCoinAmount(0))
	assert.Error(t, ValidateCoinAmount(-10))
	assert.Error(t, ValidateCoinAmount(MaxCoinsPerOrder+1))
}
