package config

import "fmt"

func errTooManyExpressions(got, max int) error {
	return fmt.Errorf("too many stream expressions: %d exceeds cap %d", got, max)
}

func errExpressionsTooLong(got, max int) error {
	return fmt.Errorf("stream expressions too long: %d characters exceeds cap %d", got, max)
}
