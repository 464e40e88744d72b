package lir

import (
	"fmt"
	"math/big"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlCircuit mirrors the on-disk fixture format used by cmd/lirsim and
// the engine integration tests. It is deliberately small: it covers the
// statement and expression forms this package models, not general LIR
// or FIRRTL syntax, which is out of scope per spec.
//
// Grounded on zeonica/core/program.go's YAMLRoot/LoadProgramFileFromYAML,
// which loads CGRA programs the same way.
type yamlCircuit struct {
	Top     string                 `yaml:"top"`
	Modules map[string]yamlModule  `yaml:"modules"`
}

type yamlModule struct {
	Ports      []yamlPort `yaml:"ports"`
	Nodes      []yamlNode `yaml:"nodes"`
	Connects   []yamlConn `yaml:"connects"`
	Regs       []yamlReg  `yaml:"regs"`
	Mems       []yamlMem  `yaml:"mems"`
	Insts      []yamlInst `yaml:"insts"`
	BlackBoxes []yamlBB   `yaml:"black_boxes"`
	Stops      []yamlStop `yaml:"stops"`
}

type yamlPort struct {
	Name   string `yaml:"name"`
	Dir    string `yaml:"dir"` // "input" | "output"
	Width  int    `yaml:"width"`
	Signed bool   `yaml:"signed"`
	Clock  bool   `yaml:"clock"`
}

type yamlNode struct {
	Name   string      `yaml:"name"`
	Width  int         `yaml:"width"`
	Signed bool        `yaml:"signed"`
	Expr   yamlExpr    `yaml:"expr"`
}

type yamlConn struct {
	Dest   string   `yaml:"dest"`
	Source yamlExpr `yaml:"source"`
}

type yamlReg struct {
	Name      string    `yaml:"name"`
	Width     int       `yaml:"width"`
	Signed    bool      `yaml:"signed"`
	Clock     string    `yaml:"clock"`
	Next      yamlExpr  `yaml:"next"`
	ResetCond *yamlExpr `yaml:"reset_cond,omitempty"`
	ResetVal  *yamlExpr `yaml:"reset_val,omitempty"`
}

type yamlMemPort struct {
	Name   string    `yaml:"name"`
	Addr   yamlExpr  `yaml:"addr"`
	Data   *yamlExpr `yaml:"data,omitempty"`
	Enable *yamlExpr `yaml:"enable,omitempty"`
	Clock  string    `yaml:"clock,omitempty"`
}

type yamlMem struct {
	Name       string        `yaml:"name"`
	Width      int           `yaml:"width"`
	Signed     bool          `yaml:"signed"`
	Depth      int           `yaml:"depth"`
	ReadPorts  []yamlMemPort `yaml:"read_ports"`
	WritePorts []yamlMemPort `yaml:"write_ports"`
}

type yamlInst struct {
	Name   string `yaml:"name"`
	Module string `yaml:"module"`
}

type yamlBB struct {
	Name    string         `yaml:"name"`
	Defname string         `yaml:"defname"`
	Inputs  []string       `yaml:"inputs"`
	Outputs []string       `yaml:"outputs"`
	Clocks  []string       `yaml:"clocks"`
	Widths  map[string]int `yaml:"widths,omitempty"`
}

type yamlStop struct {
	Name       string   `yaml:"name"`
	Clock      string   `yaml:"clock"`
	Cond       yamlExpr `yaml:"cond"`
	ResultCode int      `yaml:"result_code"`
}

// yamlExpr is a loosely-typed expression node: exactly one of
// BlackBoxInst/OutputPin, Ref, Lit, or Op/Args is set.
type yamlExpr struct {
	Ref string `yaml:"ref,omitempty"`

	Lit    *int64 `yaml:"lit,omitempty"`
	Width  int    `yaml:"width,omitempty"`
	Signed bool   `yaml:"signed,omitempty"`

	Op   string     `yaml:"op,omitempty"`
	Args []yamlExpr `yaml:"args,omitempty"`
	Hi   int        `yaml:"hi,omitempty"`
	Lo   int        `yaml:"lo,omitempty"`

	BlackBoxInst string `yaml:"bb_inst,omitempty"`
	OutputPin    string `yaml:"bb_pin,omitempty"`
}

var opNames = map[string]PrimOp{
	"and": OpAnd, "or": OpOr, "xor": OpXor, "not": OpNot,
	"shl": OpShl, "shr": OpShr, "dshl": OpDynShl, "dshr": OpDynShr,
	"add": OpAdd, "sub": OpSub, "mul": OpMul,
	"div_u": OpDivU, "div_s": OpDivS, "rem_u": OpRemU, "rem_s": OpRemS,
	"eq": OpEq, "neq": OpNeq,
	"lt_u": OpLtU, "lt_s": OpLtS, "le_u": OpLeU, "le_s": OpLeS,
	"gt_u": OpGtU, "gt_s": OpGtS, "ge_u": OpGeU, "ge_s": OpGeS,
	"bits": OpBits, "cat": OpCat, "head": OpHead, "tail": OpTail,
	"mux": OpMux, "as_uint": OpAsUInt, "as_sint": OpAsSInt,
	"as_clock": OpAsClock, "valid_if": OpValidIf,
}

func (e yamlExpr) toExpr() (*Expr, error) {
	switch {
	case e.BlackBoxInst != "":
		return BlackBoxOutput(e.BlackBoxInst, e.OutputPin), nil
	case e.Ref != "":
		return Ref(e.Ref), nil
	case e.Lit != nil:
		return Lit(big.NewInt(*e.Lit), Type{Width: Width(e.Width), Signed: e.Signed}), nil
	case e.Op != "":
		op, ok := opNames[e.Op]
		if !ok {
			return nil, fmt.Errorf("lir: unknown op %q", e.Op)
		}
		args := make([]*Expr, len(e.Args))
		for i, a := range e.Args {
			ax, err := a.toExpr()
			if err != nil {
				return nil, err
			}
			args[i] = ax
		}
		return &Expr{Kind: OpExpr, Op: op, Args: args, Hi: e.Hi, Lo: e.Lo}, nil
	default:
		return nil, fmt.Errorf("lir: empty expression")
	}
}

// LoadCircuitYAML reads a fixture circuit from disk. This is a
// convenience format for test/sample circuits, not a general LIR
// parser (see package doc).
func LoadCircuitYAML(path string) (*Circuit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lir: reading %s: %w", path, err)
	}

	var root yamlCircuit
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("lir: parsing %s: %w", path, err)
	}

	circuit := &Circuit{TopModule: root.Top, Modules: make(map[string]*Module)}
	for name, m := range root.Modules {
		mod, err := m.toModule(name)
		if err != nil {
			return nil, err
		}
		circuit.Modules[name] = mod
	}
	return circuit, nil
}

func (m yamlModule) toModule(name string) (*Module, error) {
	mod := &Module{Name: name}

	for _, p := range m.Ports {
		dir := Input
		if p.Dir == "output" {
			dir = Output
		}
		typ := Type{Width: Width(p.Width), Signed: p.Signed, IsClock: p.Clock}
		if p.Clock {
			typ = Clock()
		}
		mod.Ports = append(mod.Ports, Port{Name: p.Name, Direction: dir, Type: typ})
	}

	for _, n := range m.Nodes {
		ex, err := n.Expr.toExpr()
		if err != nil {
			return nil, err
		}
		mod.Statements = append(mod.Statements, Node{
			Name: n.Name, Type: Type{Width: Width(n.Width), Signed: n.Signed}, Expr: ex,
		})
	}

	for _, c := range m.Connects {
		ex, err := c.Source.toExpr()
		if err != nil {
			return nil, err
		}
		mod.Statements = append(mod.Statements, Connect{Dest: c.Dest, Source: ex})
	}

	for _, r := range m.Regs {
		next, err := r.Next.toExpr()
		if err != nil {
			return nil, err
		}
		reg := Reg{
			Name: r.Name, Type: Type{Width: Width(r.Width), Signed: r.Signed},
			Clock: r.Clock, Next: next,
		}
		if r.ResetCond != nil {
			cond, err := r.ResetCond.toExpr()
			if err != nil {
				return nil, err
			}
			val, err := r.ResetVal.toExpr()
			if err != nil {
				return nil, err
			}
			reg.ResetCond, reg.ResetVal = cond, val
		}
		mod.Statements = append(mod.Statements, reg)
	}

	for _, mm := range m.Mems {
		mem := Mem{Name: mm.Name, Type: Type{Width: Width(mm.Width), Signed: mm.Signed}, Depth: mm.Depth}
		for _, rp := range mm.ReadPorts {
			addr, err := rp.Addr.toExpr()
			if err != nil {
				return nil, err
			}
			var en *Expr
			if rp.Enable != nil {
				en, err = rp.Enable.toExpr()
				if err != nil {
					return nil, err
				}
			}
			mem.ReadPorts = append(mem.ReadPorts, MemReadPort{Name: rp.Name, Addr: addr, Enable: en})
		}
		for _, wp := range mm.WritePorts {
			addr, err := wp.Addr.toExpr()
			if err != nil {
				return nil, err
			}
			data, err := wp.Data.toExpr()
			if err != nil {
				return nil, err
			}
			var en *Expr
			if wp.Enable != nil {
				en, err = wp.Enable.toExpr()
				if err != nil {
					return nil, err
				}
			}
			mem.WritePorts = append(mem.WritePorts, MemWritePort{
				Name: wp.Name, Clock: wp.Clock, Addr: addr, Data: data, Enable: en,
			})
		}
		mod.Statements = append(mod.Statements, mem)
	}

	for _, i := range m.Insts {
		mod.Statements = append(mod.Statements, Inst{Name: i.Name, Module: i.Module})
	}

	for _, bb := range m.BlackBoxes {
		var widths map[string]Type
		if len(bb.Widths) > 0 {
			widths = make(map[string]Type, len(bb.Widths))
			for pin, w := range bb.Widths {
				widths[pin] = UInt(w)
			}
		}
		mod.Statements = append(mod.Statements, BlackBoxInst{
			Name: bb.Name, Defname: bb.Defname, InputPins: bb.Inputs,
			OutputPins: bb.Outputs, ClockPins: bb.Clocks, PinWidths: widths,
		})
	}

	for _, s := range m.Stops {
		cond, err := s.Cond.toExpr()
		if err != nil {
			return nil, err
		}
		mod.Statements = append(mod.Statements, Stop{Name: s.Name, Clock: s.Clock, Cond: cond, ResultCode: s.ResultCode})
	}

	return mod, nil
}
