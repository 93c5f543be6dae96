// Non-linear pressure advance compensation models
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package extruder

import (
	"math"
	"strings"

	"klipper-motion-core/pkg/errors"
)

// Model selects how smoothed extrusion velocity maps to a position
// compensation. Linear scales velocity by the advance gain; the non-linear
// models saturate, scaling a shaped response by the configured offset.
type Model int

const (
	ModelLinear Model = iota
	ModelTanH
	ModelExp
	ModelRecip
	ModelSigmoid
)

// sigmoidClamp bounds the normalized velocity before exponentiation so the
// logistic curve cannot overflow.
const sigmoidClamp = 20.0

// String returns the command-layer name of the model.
func (m Model) String() string {
	switch m {
	case ModelLinear:
		return "linear"
	case ModelTanH:
		return "tanh"
	case ModelExp:
		return "exp"
	case ModelRecip:
		return "recip"
	case ModelSigmoid:
		return "sigmoid"
	default:
		return "unknown"
	}
}

// ParseModel maps a command-layer model name to its tag.
func ParseModel(name string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear":
		return ModelLinear, nil
	case "tanh":
		return ModelTanH, nil
	case "exp":
		return ModelExp, nil
	case "recip", "reciprocal":
		return ModelRecip, nil
	case "sigmoid":
		return ModelSigmoid, nil
	default:
		return ModelLinear, errors.UnknownModelError(name)
	}
}

// nonlinearAdvance evaluates a non-linear compensation model. Any numeric
// degeneracy (non-finite velocity, offset or reference velocity, or a zero
// offset or reference velocity) yields zero compensation rather than an
// error: this runs on the step generation hot path.
func nonlinearAdvance(model Model, offset, refVelocity, velocity float64) float64 {
	if !isFinite(velocity) || !isFinite(offset) || offset == 0 ||
		!isFinite(refVelocity) || refVelocity == 0 {
		return 0
	}
	relV := velocity / refVelocity
	switch model {
	case ModelTanH:
		return offset * math.Tanh(relV)
	case ModelExp:
		sign := 1.0
		if relV < 0 {
			sign = -1.0
		}
		return offset * sign * (1.0 - math.Exp(-math.Abs(relV)))
	case ModelRecip:
		return offset * relV / (1.0 + math.Abs(relV))
	case ModelSigmoid:
		if relV > sigmoidClamp {
			relV = sigmoidClamp
		} else if relV < -sigmoidClamp {
			relV = -sigmoidClamp
		}
		return offset * (2.0/(1.0+math.Exp(-relV)) - 1.0)
	default:
		return 0
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
