// Extended G-code command dispatch for the motion core
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package gcode parses extended G-code command lines and dispatches the
// configuration commands the motion core accepts. It is the only external
// mutator of a stepper's pressure-advance parameter history.
package gcode

import (
	"strconv"
	"strings"

	"klipper-motion-core/pkg/errors"
	"klipper-motion-core/pkg/extruder"
	"klipper-motion-core/pkg/log"
)

// MaxSmoothTime bounds the SMOOTH_TIME parameter. Larger windows would
// force the solver to walk unboundedly many queue segments per query.
const MaxSmoothTime = 0.200

// Command is a parsed extended G-code line.
type Command struct {
	Name string
	Args map[string]string
	Raw  string
}

// ParseLine parses one extended G-code line into a command name and its
// KEY=VALUE arguments. Comments after ';' are stripped; a blank or
// comment-only line yields a nil command and no error.
func ParseLine(line string) (*Command, error) {
	ln := strings.TrimSpace(line)
	if idx := strings.IndexByte(ln, ';'); idx >= 0 {
		ln = strings.TrimSpace(ln[:idx])
	}
	if ln == "" {
		return nil, nil
	}
	fields := strings.Fields(ln)
	cmd := &Command{
		Name: strings.ToUpper(fields[0]),
		Args: map[string]string{},
		Raw:  line,
	}
	for _, f := range fields[1:] {
		kv := strings.SplitN(f, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return nil, errors.CommandParseError(line, "expected KEY=VALUE, got "+f)
		}
		cmd.Args[strings.ToUpper(kv[0])] = kv[1]
	}
	return cmd, nil
}

func floatArg(cmd *Command, key string, def float64) (float64, error) {
	raw, ok := cmd.Args[key]
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.InvalidParamError(cmd.Name, key, raw, "not a number")
	}
	return f, nil
}

// Dispatcher routes configuration commands to registered extruder steppers.
type Dispatcher struct {
	logger   *log.Logger
	steppers map[string]*extruder.Stepper
}

// NewDispatcher creates a command dispatcher.
func NewDispatcher(logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.GetLogger("gcode")
	}
	return &Dispatcher{
		logger:   logger,
		steppers: map[string]*extruder.Stepper{},
	}
}

// RegisterExtruder binds a stepper context to an extruder name.
func (d *Dispatcher) RegisterExtruder(name string, es *extruder.Stepper) {
	d.steppers[name] = es
}

// Execute parses and runs one command line at the given print time.
// Commands must be executed in non-decreasing print-time order; that
// ordering is the command stream's responsibility.
func (d *Dispatcher) Execute(line string, printTime float64) error {
	cmd, err := ParseLine(line)
	if err != nil {
		return err
	}
	if cmd == nil {
		return nil
	}
	switch cmd.Name {
	case "SET_PRESSURE_ADVANCE":
		return d.cmdSetPressureAdvance(cmd, printTime)
	default:
		return errors.UnknownCommandError(cmd.Name)
	}
}

// cmdSetPressureAdvance handles:
//
//	SET_PRESSURE_ADVANCE [EXTRUDER=<name>] [ADVANCE=<gain>]
//	    [SMOOTH_TIME=<secs>] [MODEL=<linear|tanh|exp|recip|sigmoid>]
//	    [OFFSET=<scale>] [VELOCITY=<mm/s>]
//
// Omitted parameters keep their current values, so a bare ADVANCE= change
// does not reset the model or window.
func (d *Dispatcher) cmdSetPressureAdvance(cmd *Command, printTime float64) error {
	name := cmd.Args["EXTRUDER"]
	if name == "" {
		name = "extruder"
	}
	es, ok := d.steppers[name]
	if !ok {
		return errors.InvalidParamError(cmd.Name, "EXTRUDER", name, "not a registered extruder")
	}

	// Current configuration supplies the defaults.
	hist := es.History()
	cur := hist[len(hist)-1]

	advance, err := floatArg(cmd, "ADVANCE", cur.Advance)
	if err != nil {
		return err
	}
	smoothTime, err := floatArg(cmd, "SMOOTH_TIME", es.SmoothTime())
	if err != nil {
		return err
	}
	offset, err := floatArg(cmd, "OFFSET", cur.Offset)
	if err != nil {
		return err
	}
	refVelocity, err := floatArg(cmd, "VELOCITY", cur.RefVelocity)
	if err != nil {
		return err
	}
	model := cur.Model
	if raw, ok := cmd.Args["MODEL"]; ok {
		model, err = extruder.ParseModel(raw)
		if err != nil {
			return err
		}
	}

	if advance < 0 {
		return errors.InvalidParamError(cmd.Name, "ADVANCE",
			cmd.Args["ADVANCE"], "must be >= 0")
	}
	if smoothTime < 0 || smoothTime > MaxSmoothTime {
		return errors.InvalidParamError(cmd.Name, "SMOOTH_TIME",
			cmd.Args["SMOOTH_TIME"], "must be between 0.0 and 0.200")
	}
	if refVelocity <= 0 {
		return errors.InvalidParamError(cmd.Name, "VELOCITY",
			cmd.Args["VELOCITY"], "must be above 0")
	}

	if err := es.SetPressureAdvance(printTime, advance, smoothTime,
		model, offset, refVelocity); err != nil {
		return err
	}
	d.logger.WithFields(log.Fields{
		"extruder":    name,
		"advance":     advance,
		"smooth_time": smoothTime,
		"model":       model.String(),
	}).Info("pressure advance updated")
	return nil
}
