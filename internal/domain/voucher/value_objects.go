package voucher

import (
	"errors"
	"slices"
	"strings"
)

var (
	ErrValueNotAllowed        = errors.New("value is not an allowed denomination")
	ErrLearnerCountOutOfRange = errors.New("learner count must be between 1 and 10")
	ErrHolderNameLength       = errors.New("holder name must be between 2 and 100 characters")
	ErrNotesTooLong           = errors.New("notes must be at most 200 characters")
)

const (
	MinLearnerCount = 1
	MaxLearnerCount = 10

	MinHolderNameLength = 2
	MaxHolderNameLength = 100

	MaxNotesLength = 200
)

// Value is a voucher face value in minor currency units. Monetary amounts
// never touch floating point.
type Value struct {
	minorUnits int64
}

func NewValue(minorUnits int64, allowed []int64) (Value, error) {
	if !slices.Contains(allowed, minorUnits) {
		return Value{}, ErrValueNotAllowed
	}
	return Value{minorUnits: minorUnits}, nil
}

// ReconstructValue bypasses the denomination whitelist; for rows already
// persisted under an older denomination set.
func ReconstructValue(minorUnits int64) Value {
	return Value{minorUnits: minorUnits}
}

func (v Value) MinorUnits() int64 {
	return v.minorUnits
}

type LearnerCount struct {
	value int
}

func NewLearnerCount(n int) (LearnerCount, error) {
	if n < MinLearnerCount || n > MaxLearnerCount {
		return LearnerCount{}, ErrLearnerCountOutOfRange
	}
	return LearnerCount{value: n}, nil
}

func (lc LearnerCount) Value() int {
	return lc.value
}

type HolderName struct {
	value string
}

func NewHolderName(s string) (HolderName, error) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < MinHolderNameLength || len(trimmed) > MaxHolderNameLength {
		return HolderName{}, ErrHolderNameLength
	}
	return HolderName{value: trimmed}, nil
}

func (h HolderName) String() string {
	return h.value
}

type Notes struct {
	value string
}

func NewNotes(s string) (Notes, error) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) > MaxNotesLength {
		return Notes{}, ErrNotesTooLong
	}
	return Notes{value: trimmed}, nil
}

func (n Notes) String() string {
	return n.value
}

func (n Notes) IsEmpty() bool {
	return n.value == ""
}
