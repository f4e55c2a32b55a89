package sim

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/peers-abm/peers"
)

func seed(s uint64) *uint64 { return &s }

func TestParamsCheck(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Params)
		ok     bool
	}{
		{name: "defaults", modify: func(*Params) {}, ok: true},
		{name: "negative time", modify: func(p *Params) { p.Time = -1 }},
		{name: "confidence above one", modify: func(p *Params) { p.Confidence = 1.5 }},
		{name: "negative rollback", modify: func(p *Params) { p.RollbackProb = -0.1 }},
		{name: "speed above half", modify: func(p *Params) { p.Speed = 0.6 }},
		{name: "speed at half", modify: func(p *Params) { p.Speed = 0.5 }, ok: true},
		{name: "zero short life", modify: func(p *Params) { p.ShortLife = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)
			err := p.Check()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("expected error")
				}
				if got := peers.Kind(err); got != "ValueError" {
					t.Fatalf("expected ValueError kind, got %q", got)
				}
			}
		})
	}
}

func TestWarnings(t *testing.T) {
	p := DefaultParams()
	p.Speed = 0
	p.Confidence = 1
	w := strings.Join(p.Warnings(), "\n")
	for _, want := range []string{"no seed was specified", "turning off opinion update", "edits always result in success"} {
		if !strings.Contains(w, want) {
			t.Fatalf("missing warning %q in %q", want, w)
		}
	}
	p.Seed = seed(1)
	p.Speed = 0.5
	p.Confidence = 0.2
	if got := p.Warnings(); len(got) != 0 {
		t.Fatalf("expected no warnings, got %v", got)
	}
}

func TestSimulationIsDeterministic(t *testing.T) {
	p := DefaultParams()
	p.Seed = seed(11)
	p.NumUsers = 20
	p.NumPages = 10
	p.DailySessions = 3
	p.SessionEdits = 4

	run := func() (string, int) {
		var out bytes.Buffer
		s := New(p)
		s.Edits = &out
		n, err := s.Run(context.Background(), 0, 5, true)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return out.String(), n
	}
	a, na := run()
	b, nb := run()
	if a != b || na != nb {
		t.Fatal("same seed produced different runs")
	}
	if na == 0 {
		t.Fatal("expected some edits")
	}
	if lines := strings.Count(a, "\n"); lines != na {
		t.Fatalf("expected %d edit lines, got %d", na, lines)
	}
}

func TestRunWithoutOutputWritesNothing(t *testing.T) {
	p := DefaultParams()
	p.Seed = seed(5)
	p.NumUsers = 5
	p.NumPages = 5

	var out, info bytes.Buffer
	s := New(p)
	s.Edits = &out
	s.Info = &info
	if _, err := s.Run(context.Background(), 0, 2, false); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no edit output, got %q", out.String())
	}
	if info.Len() == 0 {
		t.Fatal("expected info lines")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	p := DefaultParams()
	p.Seed = seed(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(p).Run(ctx, 0, 1e9, false); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRemoveUserKeepsTablesAligned(t *testing.T) {
	p := DefaultParams()
	p.Seed = seed(2)
	p.NumUsers = 4
	s := New(p)
	gone := s.users[1]
	s.removeUser(1)

	if gone.index != -1 {
		t.Fatalf("removed user still indexed at %d", gone.index)
	}
	if len(s.users) != 3 || len(s.pActiv) != 3 || len(s.pStop) != 3 {
		t.Fatalf("tables out of sync: %d %d %d", len(s.users), len(s.pActiv), len(s.pStop))
	}
	for i, u := range s.users {
		if u.index != i {
			t.Fatalf("user %d has index %d", i, u.index)
		}
	}
}

func TestFlagsRejectNegativeValues(t *testing.T) {
	c := NewCommand()
	fs := pflag.NewFlagSet("sim", pflag.ContinueOnError)
	c.Flags(fs)
	if err := fs.Parse([]string{"--users", "-3"}); err == nil {
		t.Fatal("expected error for negative users")
	}
}

func TestCommandDryRunPrintsBanner(t *testing.T) {
	c := NewCommand()
	fs := pflag.NewFlagSet("sim", pflag.ContinueOnError)
	c.Flags(fs)
	if err := fs.Parse([]string{"-n", "-u", "3", "10", "42"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	var stdout, stderr bytes.Buffer
	env := &peers.Env{Stdout: &stdout, Stderr: &stderr, Log: zap.NewNop(), Width: 50}
	if err := c.Run(context.Background(), env, fs.Args()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if stdout.Len() != 0 {
		t.Fatalf("dry run produced edits: %q", stdout.String())
	}
	banner := stderr.String()
	if !strings.HasPrefix(banner, strings.Repeat("-", 50)+"\n") {
		t.Fatalf("banner not framed by rule: %q", banner)
	}
	if !strings.Contains(banner, "Initial: 3 (users)") || !strings.Contains(banner, "Seed: 42") {
		t.Fatalf("banner missing values: %q", banner)
	}
}

func TestCommandLogsWarningsAtWarnLevel(t *testing.T) {
	c := NewCommand()
	fs := pflag.NewFlagSet("sim", pflag.ContinueOnError)
	c.Flags(fs)
	if err := fs.Parse([]string{"-q", "-n", "--speed", "0", "10", "42"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	core, logs := observer.New(zapcore.WarnLevel)
	env := &peers.Env{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}, Log: zap.New(core), Width: 80}
	if err := c.Run(context.Background(), env, fs.Args()); err != nil {
		t.Fatalf("run: %v", err)
	}
	warnings := logs.FilterMessage("parameter warning").All()
	if len(warnings) == 0 {
		t.Fatal("no parameter warning logged at warn level")
	}
	var found bool
	for _, e := range warnings {
		if e.Level != zapcore.WarnLevel {
			t.Errorf("warning logged at %s", e.Level)
		}
		if w, _ := e.ContextMap()["warning"].(string); strings.Contains(w, "turning off opinion update") {
			found = true
		}
	}
	if !found {
		t.Fatalf("speed warning missing from %v", warnings)
	}
}

func TestCommandRequiresTime(t *testing.T) {
	env := &peers.Env{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}, Log: zap.NewNop(), Width: 80}
	err := NewCommand().Run(context.Background(), env, nil)
	if _, ok := err.(*peers.UsageError); !ok {
		t.Fatalf("expected usage error, got %T %v", err, err)
	}
}
