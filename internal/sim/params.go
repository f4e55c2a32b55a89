package sim

import (
	"fmt"
	"io"
	"strings"
)

// Params are the model parameters. Durations are in days.
type Params struct {
	Time      float64
	Transient float64

	// Seed of the random number generator; nil draws one at random.
	Seed *uint64

	DailySessions float64
	HourlyEdits   float64
	SessionEdits  int

	LongLife  float64
	ShortLife float64

	NumUsers   int
	NumPages   int
	DailyUsers float64
	DailyPages float64

	Confidence   float64
	Speed        float64
	RollbackProb float64

	ConstSucc float64
	ConstPop  float64
}

// DefaultParams returns the parameters used when no option is given.
func DefaultParams() Params {
	return Params{
		DailySessions: 1,
		HourlyEdits:   1,
		SessionEdits:  1,
		LongLife:      100,
		ShortLife:     1.0 / 24.0,
		DailyUsers:    1,
		DailyPages:    1,
		Confidence:    0.2,
		Speed:         0.5,
		RollbackProb:  0.5,
		ConstSucc:     1,
		ConstPop:      1,
	}
}

// ParamError reports an invalid parameter value.
type ParamError struct {
	Msg string
}

func (e *ParamError) Error() string { return e.Msg }

// Kind implements the interface used to name masked errors.
func (e *ParamError) Kind() string { return "ValueError" }

func paramErrorf(format string, args ...interface{}) error {
	return &ParamError{Msg: fmt.Sprintf(format, args...)}
}

// Check validates p.
func (p Params) Check() error {
	switch {
	case p.Time < 0:
		return paramErrorf("simulation duration cannot be negative: %g", p.Time)
	case p.Confidence < 0 || p.Confidence > 1:
		return paramErrorf("confidence must be in [0,1] (-c/--confidence)")
	case p.RollbackProb < 0 || p.RollbackProb > 1:
		return paramErrorf("rollback_prob must be in [0,1] (--rollback-prob)")
	case p.Speed < 0 || p.Speed > 0.5:
		return paramErrorf("speed must be in [0, 0.5] (--speed)")
	case p.LongLife <= 0:
		return paramErrorf("long life must be positive (-L/--long-life)")
	case p.ShortLife <= 0:
		return paramErrorf("short life must be positive (-l/--short-life)")
	case p.ConstSucc <= 0:
		return paramErrorf("base user successes must be positive (--const-succ)")
	}
	return nil
}

// Warnings lists the parameter values that switch part of the model off or
// make it degenerate.
func (p Params) Warnings() []string {
	var w []string
	if p.Seed == nil {
		w = append(w, "no seed was specified")
	}
	if p.DailySessions == 0 {
		w = append(w, "turning off editing sessions")
	}
	if p.HourlyEdits == 0 {
		w = append(w, "setting edits/hour to 0")
	}
	if p.SessionEdits == 0 {
		w = append(w, "setting average edits/session to 0")
	}
	if p.DailyUsers == 0 {
		w = append(w, "turning off new users arrival")
	}
	if p.DailyPages == 0 {
		w = append(w, "turning off page creation")
	}
	switch p.Confidence {
	case 0:
		w = append(w, "edits will always result in failure")
	case 1:
		w = append(w, "edits always result in success")
	}
	switch p.RollbackProb {
	case 0:
		w = append(w, "no rollback edits")
	case 1:
		w = append(w, "always do rollback edits")
	}
	if p.Speed == 0 {
		w = append(w, "turning off opinion update")
	}
	return w
}

// pStopLong and pStopShort are the daily stop rates of users with only
// successes and only failures.
func (p Params) pStopLong() float64  { return 1 / p.LongLife }
func (p Params) pStopShort() float64 { return 1 / p.ShortLife }

// stopRate interpolates the stop rate on the user's success ratio.
func (p Params) stopRate(u *User) float64 {
	r := u.Ratio()
	return r*p.pStopLong() + (1-r)*p.pStopShort()
}

// WriteBanner prints a summary of p, framed by rules width columns wide.
// info names the info file, if any.
func (p Params) WriteBanner(w io.Writer, width int, info string) {
	rule := strings.Repeat("-", width)
	seed := "None"
	if p.Seed != nil {
		seed = fmt.Sprint(*p.Seed)
	}
	if info == "" {
		info = "None"
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "TIME.\tSimulation: %g (days).\tTransient: %g (days).\n", p.Time, p.Transient)
	fmt.Fprintf(w, "USERS.\tInitial: %d (users).\tIn-rate: %g (users/day).\n", p.NumUsers, p.DailyUsers)
	fmt.Fprintf(w, "\tLong life: %g (days)\tShort life: %g (days)\n", p.LongLife, p.ShortLife)
	fmt.Fprintf(w, "EDITS.\tSessions/Day: %g.\tEdits/Hour: %g.\tEdits/Session: %d.\n",
		p.DailySessions, p.HourlyEdits, p.SessionEdits)
	fmt.Fprintf(w, "PAGES.\tInitial: %d (pages).\tIn-rate: %g (pages/day).\n", p.NumPages, p.DailyPages)
	fmt.Fprintf(w, "PAIRS.\tBase success: %g.\tBase popularity: %g.\n", p.ConstSucc, p.ConstPop)
	fmt.Fprintf(w, "EDITS.\tConfidence: %g.\tSpeed: %g.\t\tRollback-prob.: %g.\n",
		p.Confidence, p.Speed, p.RollbackProb)
	fmt.Fprintf(w, "MISC.\tSeed: %s\t\tInfo file: %s.\n", seed, info)
	for _, msg := range p.Warnings() {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
	fmt.Fprintln(w, rule)
}
