package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression is a parsed "NdS+M" dice expression.
type Expression struct {
	Raw      string
	Count    int
	Sides    int
	Modifier int
}

// Parse parses expressions of the forms "d20", "2d6", "2d6+3" and "4d8-2".
// A bare integer such as "7" parses as a fixed value with no dice.
//
// Postcondition: on success Count >= 0, Sides >= 2 when Count > 0.
func Parse(raw string) (Expression, error) {
	s := strings.ToLower(strings.ReplaceAll(raw, " ", ""))
	if s == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}

	d := strings.IndexByte(s, 'd')
	if d < 0 {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid expression %q", raw)
		}
		return Expression{Raw: raw, Modifier: n}, nil
	}

	count := 1
	if d > 0 {
		n, err := strconv.Atoi(s[:d])
		if err != nil || n < 1 {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q", raw)
		}
		count = n
	}

	rest := s[d+1:]
	mod := 0
	if i := strings.IndexAny(rest, "+-"); i >= 0 {
		n, err := strconv.Atoi(rest[i:])
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q", raw)
		}
		mod = n
		rest = rest[:i]
	}
	sides, err := strconv.Atoi(rest)
	if err != nil || sides < 2 {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q", raw)
	}

	return Expression{Raw: raw, Count: count, Sides: sides, Modifier: mod}, nil
}

// Roll evaluates e against src.
//
// Precondition: e must come from Parse; src must be non-nil.
// Postcondition: len(result.Dice) == e.Count.
func (e Expression) Roll(src Source) Result {
	rolled := make([]int, e.Count)
	for i := range rolled {
		rolled[i] = src.Intn(e.Sides) + 1
	}
	return Result{Expression: e.Raw, Dice: rolled, Modifier: e.Modifier}
}
