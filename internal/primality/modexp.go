package primality

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"
)

// ErrUnknownStrategy is returned by StrategyByName for unregistered names.
var ErrUnknownStrategy = errors.New("unknown exponentiation strategy")

// Strategy names accepted by StrategyByName.
const (
	StrategyIterative = "iterative"
	StrategySquaring  = "squaring"
)

// Exponentiator computes a^m mod n. Implementations must agree bit for bit;
// they differ only in cost.
type Exponentiator interface {
	ExpMod(a, m, n uint64) uint64
}

// Iterative multiplies by a exactly m times, reducing after every step.
// This is O(m) and is the default: survey error rates are measured against
// this computational path.
type Iterative struct{}

// ExpMod implements Exponentiator.
func (Iterative) ExpMod(a, m, n uint64) uint64 {
	mod := uint64(1) % n
	for j := uint64(0); j < m; j++ {
		mod = mulMod(mod, a, n)
	}
	return mod
}

// Squaring is right-to-left binary exponentiation, O(log m).
type Squaring struct{}

// ExpMod implements Exponentiator.
func (Squaring) ExpMod(a, m, n uint64) uint64 {
	result := uint64(1) % n
	base := a % n
	for m > 0 {
		if m&1 == 1 {
			result = mulMod(result, base, n)
		}
		base = mulMod(base, base, n)
		m >>= 1
	}
	return result
}

var strategies = map[string]Exponentiator{
	StrategyIterative: Iterative{},
	StrategySquaring:  Squaring{},
}

// StrategyByName resolves a configured strategy name.
func StrategyByName(name string) (Exponentiator, error) {
	if name == "" {
		return Iterative{}, nil
	}
	exp, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownStrategy, name, StrategyNames())
	}
	return exp, nil
}

// StrategyNames lists the registered strategy names in sorted order.
func StrategyNames() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// mulMod returns x*y mod n with the product held in 128 bits.
func mulMod(x, y, n uint64) uint64 {
	hi, lo := bits.Mul64(x, y)
	return bits.Rem64(hi, lo, n)
}
