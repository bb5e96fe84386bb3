package computer

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/ScottSallinen/lollipop-computer/utils"
)

// Operator folds a new value into the current value of a memory key.
// Operators should be associative and commutative; workers fold their partial values in any grouping.
type Operator func(current any, value any) (any, error)

func typed[T any](current any, value any) (T, T, error) {
	c, ok := current.(T)
	if !ok {
		var zero T
		return zero, zero, fmt.Errorf("%w: have %T", ErrMemoryType, current)
	}
	v, ok := value.(T)
	if !ok {
		var zero T
		return zero, zero, fmt.Errorf("%w: got %T, want %T", ErrMemoryType, value, c)
	}
	return c, v, nil
}

// The last value written wins.
func Overwrite(_ any, value any) (any, error) {
	return value, nil
}

func Sum[T utils.Number]() Operator {
	return func(current any, value any) (any, error) {
		c, v, err := typed[T](current, value)
		if err != nil {
			return nil, err
		}
		return c + v, nil
	}
}

func Min[T constraints.Ordered]() Operator {
	return func(current any, value any) (any, error) {
		c, v, err := typed[T](current, value)
		if err != nil {
			return nil, err
		}
		return utils.Min(c, v), nil
	}
}

func Max[T constraints.Ordered]() Operator {
	return func(current any, value any) (any, error) {
		c, v, err := typed[T](current, value)
		if err != nil {
			return nil, err
		}
		return utils.Max(c, v), nil
	}
}

func And(current any, value any) (any, error) {
	c, v, err := typed[bool](current, value)
	if err != nil {
		return nil, err
	}
	return c && v, nil
}

func Or(current any, value any) (any, error) {
	c, v, err := typed[bool](current, value)
	if err != nil {
		return nil, err
	}
	return c || v, nil
}
