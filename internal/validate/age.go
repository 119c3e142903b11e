package validate

import (
	"errors"
	"fmt"
	"strconv"
)

// Maternal age bounds accepted during registration.
const (
	MinAge = 10
	MaxAge = 60
)

// ErrInvalidAge indicates an age answer outside the accepted range or one
// that is not a whole number.
var ErrInvalidAge = errors.New("invalid age")

// Age parses a free-text age answer and checks it against the accepted
// maternal age range [MinAge, MaxAge].
func Age(raw string) (int, error) {
	age, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAge, raw)
	}
	if age < MinAge || age > MaxAge {
		return 0, fmt.Errorf("%w: %d outside range %d-%d", ErrInvalidAge, age, MinAge, MaxAge)
	}
	return age, nil
}
