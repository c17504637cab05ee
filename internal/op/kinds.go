package op

import (
	"fmt"
	"strings"
)

// MutationKind selects the operator MutateInd applies.
type MutationKind uint8

const (
	MutationPoint MutationKind = iota
	MutationPositionWise
	MutationRandom
)

var mutationNames = []string{
	MutationPoint:        "point",
	MutationPositionWise: "position_wise",
	MutationRandom:       "random",
}

func (k MutationKind) String() string {
	if int(k) < len(mutationNames) {
		return mutationNames[k]
	}
	return fmt.Sprintf("mutation(%d)", uint8(k))
}

// ParseMutation resolves a configuration string such as "point".
func ParseMutation(s string) (MutationKind, error) {
	for i, name := range mutationNames {
		if strings.EqualFold(s, name) {
			return MutationKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mutation %q (want one of %s)", s, strings.Join(mutationNames, ", "))
}

// CrossoverKind selects the operator CrossoverInd applies.
type CrossoverKind uint8

const (
	CrossoverUniform CrossoverKind = iota
	CrossoverOnePoint
)

var crossoverNames = []string{
	CrossoverUniform:  "uniform",
	CrossoverOnePoint: "one_point",
}

func (k CrossoverKind) String() string {
	if int(k) < len(crossoverNames) {
		return crossoverNames[k]
	}
	return fmt.Sprintf("crossover(%d)", uint8(k))
}

// ParseCrossover resolves a configuration string such as "uniform".
func ParseCrossover(s string) (CrossoverKind, error) {
	for i, name := range crossoverNames {
		if strings.EqualFold(s, name) {
			return CrossoverKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown crossover %q (want one of %s)", s, strings.Join(crossoverNames, ", "))
}
