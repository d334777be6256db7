package difficulty

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	constants "github.com/CodeAndHammer/whackamole/internal/constants"
	rng "github.com/CodeAndHammer/whackamole/internal/rng"
)

var ErrInvalidDifficulty = errors.New("invalid difficulty level")

type Level string

const (
	Easy   Level = constants.DifficultyEasy
	Normal Level = constants.DifficultyNormal
	Hard   Level = constants.DifficultyHard
)

var Levels = []Level{Easy, Normal, Hard}

var _ pflag.Value = (*Level)(nil)

func Parse(label string) (Level, error) {
	switch Level(label) {
	case Easy, Normal, Hard:
		return Level(label), nil
	default:
		return "", fmt.Errorf("%q: %w", label, ErrInvalidDifficulty)
	}
}

// Delay returns how long a mole stays up at the given level. Hard draws a
// fresh value from src on every call.
func Delay(level Level, src rng.Source) (time.Duration, error) {
	switch level {
	case Easy:
		return constants.EasyDelayMs * time.Millisecond, nil
	case Normal:
		return constants.NormalDelayMs * time.Millisecond, nil
	case Hard:
		ms, err := rng.RandomInteger(src, constants.HardMinDelayMs, constants.HardMaxDelayMs)
		if err != nil {
			return 0, err
		}
		return time.Duration(ms) * time.Millisecond, nil
	default:
		return 0, fmt.Errorf("%q: %w", string(level), ErrInvalidDifficulty)
	}
}

func (l Level) String() string {
	return string(l)
}

// Set implements pflag.Value so cobra rejects bad labels at parse time.
func (l *Level) Set(value string) error {
	parsed, err := Parse(value)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func (l *Level) Type() string {
	return "difficulty"
}

func (l *Level) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	return l.Set(raw)
}
