package models

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var ErrUnknownParameter = errors.New("unknown parameter")

// Value is a raw, user-entered numeric field. It keeps whatever the user
// typed so that a transiently empty or malformed field never fails an edit.
type Value string

// Num formats f as a Value.
func Num(f float64) Value {
	return Value(strconv.FormatFloat(f, 'f', -1, 64))
}

// Float coerces the value to a number. Empty, non-numeric, NaN and infinite
// inputs all become 0.
func (v Value) Float() float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// CutterLayer is one concentric cutter ring.
type CutterLayer struct {
	Thickness Value
	Depth     Value
}

// StampWall is the outer wall around the stamp.
type StampWall struct {
	Offset  Value
	Extrude Value
}

// Parameters are the user-adjustable dimensions of a model, in millimetres.
// All fields are values, so assigning a Parameters copies it completely.
type Parameters struct {
	Size             Value
	MinLineThickness Value

	Blade   CutterLayer
	Support CutterLayer
	Base    CutterLayer

	Wall             StampWall
	ProtrusionHeight Value
	DepressionHeight Value

	// Gap between stamp and cutter; only used in ModeBoth.
	Gap Value
}

func DefaultParameters() Parameters {
	return Parameters{
		Size:             "90",
		MinLineThickness: "0.6",
		Blade:            CutterLayer{Thickness: "0.7", Depth: "20"},
		Support:          CutterLayer{Thickness: "1.3", Depth: "10"},
		Base:             CutterLayer{Thickness: "2", Depth: "2"},
		Wall:             StampWall{Offset: "2", Extrude: "2"},
		ProtrusionHeight: "5",
		DepressionHeight: "2",
		Gap:              "1",
	}
}

var parameterFields = map[string]func(p *Parameters) *Value{
	"size":              func(p *Parameters) *Value { return &p.Size },
	"min-thickness":     func(p *Parameters) *Value { return &p.MinLineThickness },
	"blade-thickness":   func(p *Parameters) *Value { return &p.Blade.Thickness },
	"blade-depth":       func(p *Parameters) *Value { return &p.Blade.Depth },
	"support-thickness": func(p *Parameters) *Value { return &p.Support.Thickness },
	"support-depth":     func(p *Parameters) *Value { return &p.Support.Depth },
	"base-thickness":    func(p *Parameters) *Value { return &p.Base.Thickness },
	"base-depth":        func(p *Parameters) *Value { return &p.Base.Depth },
	"wall-offset":       func(p *Parameters) *Value { return &p.Wall.Offset },
	"wall-extrude":      func(p *Parameters) *Value { return &p.Wall.Extrude },
	"protrusion":        func(p *Parameters) *Value { return &p.ProtrusionHeight },
	"depression":        func(p *Parameters) *Value { return &p.DepressionHeight },
	"gap":               func(p *Parameters) *Value { return &p.Gap },
}

// ParameterNames lists the names accepted by Set, sorted.
func ParameterNames() []string {
	names := make([]string, 0, len(parameterFields))
	for n := range parameterFields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Set assigns the raw value of the named field. The value is stored as typed;
// coercion happens at compile time.
func (p *Parameters) Set(name string, raw string) error {
	field, ok := parameterFields[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	*field(p) = Value(strings.TrimSpace(raw))
	return nil
}

// Get returns the raw value of the named field.
func (p Parameters) Get(name string) (Value, error) {
	field, ok := parameterFields[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	return *field(&p), nil
}

// Snapshot records the settings that produced an artifact.
type Snapshot struct {
	Mode   Mode
	Params Parameters
}
