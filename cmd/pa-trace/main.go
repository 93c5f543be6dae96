// pa-trace replays a trapezoidal extrusion profile through the pressure
// advance position solver and reports the compensated stepper positions a
// pulse generator would be commanded to hit.
//
// Usage:
//
//	pa-trace [options]
//
// Options:
//
//	-distance float     Extrusion distance in mm (default 50)
//	-velocity float     Cruise velocity in mm/s (default 40)
//	-accel float        Acceleration in mm/s^2 (default 1000)
//	-advance float      Linear pressure advance gain (default 0.05)
//	-smooth-time float  Smoothing window in seconds (default 0.04)
//	-model string       Compensation model (default "linear")
//	-offset float       Saturation scale for non-linear models
//	-pa-velocity float  Velocity normalization for non-linear models
//	-interval float     Sampling interval in seconds (default 0.001)
//	-serve string       Stream samples on a websocket address instead of stdout
//	-realtime           Lock memory and raise priority for the sampling loop
//
// Examples:
//
//	# Print a TSV trace of a linear-PA extrusion move
//	pa-trace -advance 0.06 -smooth-time 0.04
//
//	# Compare a saturating model
//	pa-trace -model tanh -offset 0.8 -pa-velocity 30
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"klipper-motion-core/pkg/extruder"
	"klipper-motion-core/pkg/gcode"
	"klipper-motion-core/pkg/log"
	"klipper-motion-core/pkg/motionreport"
	"klipper-motion-core/pkg/rt"
	"klipper-motion-core/pkg/trapq"
)

func main() {
	distance := flag.Float64("distance", 50, "Extrusion distance in mm")
	velocity := flag.Float64("velocity", 40, "Cruise velocity in mm/s")
	accel := flag.Float64("accel", 1000, "Acceleration in mm/s^2")
	advance := flag.Float64("advance", 0.05, "Linear pressure advance gain")
	smoothTime := flag.Float64("smooth-time", 0.04, "Smoothing window in seconds")
	model := flag.String("model", "linear", "Compensation model (linear, tanh, exp, recip, sigmoid)")
	offset := flag.Float64("offset", 0, "Saturation scale for non-linear models")
	paVelocity := flag.Float64("pa-velocity", 1, "Velocity normalization for non-linear models")
	interval := flag.Float64("interval", 0.001, "Sampling interval in seconds")
	serve := flag.String("serve", "", "Stream samples on a websocket address instead of stdout")
	realtime := flag.Bool("realtime", false, "Lock memory and raise priority for the sampling loop")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	logger := log.New("pa-trace")
	if *verbose {
		logger.SetLevel(log.DEBUG)
	}
	log.SetDefaultLogger(logger)

	if *distance <= 0 || *velocity <= 0 || *accel <= 0 || *interval <= 0 {
		fmt.Fprintln(os.Stderr, "Error: distance, velocity, accel and interval must be positive")
		flag.Usage()
		os.Exit(1)
	}

	if *realtime {
		if err := rt.LockMemory(); err != nil {
			logger.WithError(err).Warn("could not lock memory")
		}
		if err := rt.RaisePriority(-10); err != nil {
			logger.WithError(err).Warn("could not raise priority")
		}
	}

	tq := trapq.New()
	accelT, cruiseT, totalV := planTrapezoid(*distance, *velocity, *accel)
	// Extruder queue convention: X carries the extruder position, a
	// non-zero Y ratio marks extruding segments.
	tq.Append(0, accelT, cruiseT, accelT,
		trapq.Coord{}, trapq.Coord{X: 1, Y: 1}, 0, totalV, *accel)

	es := extruder.NewStepper()
	es.SetTrapQ(tq, 1.0)
	dispatcher := gcode.NewDispatcher(logger.WithPrefix("gcode"))
	dispatcher.RegisterExtruder("extruder", es)

	line := fmt.Sprintf(
		"SET_PRESSURE_ADVANCE ADVANCE=%g SMOOTH_TIME=%g MODEL=%s OFFSET=%g VELOCITY=%g",
		*advance, *smoothTime, *model, *offset, *paVelocity)
	if err := dispatcher.Execute(line, 0); err != nil {
		logger.WithError(err).Error("configuration rejected")
		os.Exit(1)
	}

	var server *motionreport.Server
	if *serve != "" {
		server = motionreport.New(logger.WithPrefix("motionreport"))
		if err := server.Start(*serve); err != nil {
			logger.WithError(err).Error("could not start motion report server")
			os.Exit(1)
		}
		defer server.Stop()
		// Give frontends a moment to connect before the replay starts.
		time.Sleep(200 * time.Millisecond)
	}

	emit := func(s motionreport.Sample) {
		if server != nil {
			server.Broadcast(s)
			return
		}
		fmt.Printf("%.6f\t%.9f\t%.9f\n", s.Time, s.Position, s.Velocity)
	}

	if server == nil {
		fmt.Println("time\tposition\tvelocity")
	}

	h, ok := tq.First()
	if !ok {
		logger.Error("empty move queue")
		os.Exit(1)
	}
	prevPos := 0.0
	first := true
	for t := 0.0; ; t += *interval {
		m := tq.Move(h)
		for t > m.PrintTime+m.MoveT {
			next, ok := tq.Next(h)
			if !ok {
				m = nil
				break
			}
			h = next
			m = tq.Move(h)
		}
		if m == nil {
			break
		}
		pos := es.CalcPosition(tq, h, t-m.PrintTime)
		vel := 0.0
		if !first {
			vel = (pos - prevPos) / *interval
		}
		emit(motionreport.Sample{Time: t, Position: pos, Velocity: vel})
		prevPos = pos
		first = false
		es.NoteFlushTime(t)
	}
	logger.Debug("trace complete")
}

// planTrapezoid splits a move into accelerate/cruise/decelerate phases,
// collapsing to a triangular profile when the distance is too short to
// reach the requested velocity.
func planTrapezoid(distance, velocity, accel float64) (accelT, cruiseT, cruiseV float64) {
	accelDist := velocity * velocity / (2 * accel)
	if 2*accelDist >= distance {
		// Triangular profile
		cruiseV = math.Sqrt(distance * accel)
		return cruiseV / accel, 0, cruiseV
	}
	accelT = velocity / accel
	cruiseT = (distance - 2*accelDist) / velocity
	return accelT, cruiseT, velocity
}
