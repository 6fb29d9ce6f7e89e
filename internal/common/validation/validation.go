package validation

import "fmt"

// MaxCoinsPerOrder bounds a single credit; anything above is a malformed or
// abusive request.
const MaxCoinsPerOrder = 100000

// ValidateChapterNumber checks a chapter ordinal.
func ValidateChapterNumber(number int) error {
	if number < 1 {
		return fmt.Errorf("chapter number must be positive")
	}
	return nil
}

// ValidateCoinAmount checks a coin amount for purchases and credits.
func ValidateCoinAmount(coins int64) error {
	if coins <= 0 {
		return fmt.Errorf("coin amount must be positive")
	}
	if coins > MaxCoinsPerOrder {
		return fmt.Errorf("coin amount cannot exceed %d", MaxCoinsPerOrder)
	}
	return nil
}
