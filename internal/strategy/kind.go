package strategy

import (
	"fmt"
	"strings"

	"github.com/alanyoungcy/lottostats/internal/domain"
)

// Kind identifies a recommendation strategy.
type Kind int

const (
	// Hot favours frequently drawn numbers.
	Hot Kind = iota + 1
	// Balanced leans gently toward frequent numbers.
	Balanced
	// Cold favours rarely drawn numbers.
	Cold
	// Mixed combines three hot and three cold numbers.
	Mixed
	// Uniform ignores history.
	Uniform
)

var kindNames = map[Kind]string{
	Hot:      "hot",
	Balanced: "balanced",
	Cold:     "cold",
	Mixed:    "mixed",
	Uniform:  "uniform",
}

// aliases maps legacy strategy identifiers.
var aliases = map[string]Kind{
	"hot_numbers":  Hot,
	"balance":      Balanced,
	"cold_numbers": Cold,
	"mix_hot_cold": Mixed,
	"random":       Uniform,
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Kinds returns every strategy in declaration order.
func Kinds() []Kind {
	return []Kind{Hot, Balanced, Cold, Mixed, Uniform}
}

// ParseKind resolves a strategy name or alias, case-insensitively.
func ParseKind(s string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == key {
			return k, nil
		}
	}
	if k, ok := aliases[key]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("strategy %q: %w", s, domain.ErrInvalidStrategy)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("strategy: unknown kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
