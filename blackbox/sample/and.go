// Package sample provides a trivial BlackBox implementation (And) used
// by the engine's integration tests and cmd/lirsim, the same role
// zeonica/samples/*/main.go's little demo kernels play for the CGRA
// core: minimal, directly verifiable behavior rather than anything
// production-grade.
package sample

import (
	"math/big"

	"github.com/sarchlab/lirsim/blackbox"
)

// And implements scenario 5 of spec §8: a black box with inputs a, b
// and output result, behaving as result = a & b.
type And struct {
	name string
	a, b *big.Int
}

// NewAndFactory returns a blackbox.Factory that builds an And instance
// per circuit instantiation.
func NewAndFactory() blackbox.Factory {
	return func(instanceName string) blackbox.BlackBox {
		return &And{name: instanceName, a: big.NewInt(0), b: big.NewInt(0)}
	}
}

func (g *And) Name() string { return g.name }

func (g *And) InputChanged(pin string, value *big.Int) {
	switch pin {
	case "a":
		g.a = value
	case "b":
		g.b = value
	}
}

func (g *And) ClockChanged(blackbox.Transition, string) {}

func (g *And) GetOutput(outputName string) *big.Int {
	if outputName != "result" {
		return big.NewInt(0)
	}
	return new(big.Int).And(g.a, g.b)
}

func (g *And) OutputDependencies(outputName string) []string {
	if outputName != "result" {
		return nil
	}
	return []string{"a", "b"}
}

func (g *And) Dependencies() map[string][]string {
	return map[string][]string{"result": {"a", "b"}}
}
