package lhd

import (
	"bytes"
	"context"
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/peers-abm/peers"
	"github.com/peers-abm/peers/internal/randx"
)

func seed(s uint64) *uint64 { return &s }

func TestGenerateIsLatin(t *testing.T) {
	d, err := Generate(randx.New(seed(1)), 3, 7, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for dim := 0; dim < 3; dim++ {
		col := make([]float64, len(d.Points))
		for i, p := range d.Points {
			col[i] = p[dim]
		}
		sort.Float64s(col)
		for i, x := range col {
			if x != float64(i) {
				t.Fatalf("dimension %d is not a permutation: %v", dim, col)
			}
		}
	}
	if d.MinDist < 1 {
		t.Fatalf("grid points closer than one cell: %g", d.MinDist)
	}
}

func TestGenerateMapsToRangeCentres(t *testing.T) {
	d, err := Generate(randx.New(seed(2)), 1, 4, []Range{{Min: 0, Max: 1}})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	var got []float64
	for _, p := range d.Points {
		got = append(got, p[0])
	}
	sort.Float64s(got)
	want := []float64{0.125, 0.375, 0.625, 0.875}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestGenerateValidates(t *testing.T) {
	rng := randx.New(seed(1))
	if _, err := Generate(rng, 2, 5, []Range{{0, 1}}); err == nil {
		t.Fatal("expected error for wrong number of ranges")
	}
	if _, err := Generate(rng, 0, 5, nil); err == nil {
		t.Fatal("expected error for zero dimensions")
	}
	if _, err := Generate(rng, 2, 1, nil); err == nil {
		t.Fatal("expected error for a single point")
	}
}

func TestValidationErrorsAreValueErrors(t *testing.T) {
	rng := randx.New(seed(1))
	_, genErr := Generate(rng, 0, 5, nil)
	_, maxErr := Maximin(context.Background(), rng, 2, 5, 0, nil)
	for _, err := range []error{genErr, maxErr} {
		if err == nil {
			t.Fatal("expected an error")
		}
		if k := peers.Kind(err); k != "ValueError" {
			t.Errorf("%v: kind %q, want ValueError", err, k)
		}
	}
}

func TestCommandRejectsNonPositiveNum(t *testing.T) {
	for _, args := range [][]string{
		{"lhd", "--num", "0", "2", "5"},
		{"lhd", "--num", "-3", "2", "5"},
		{"lhd", "--maximin", "--num", "0", "2", "5"},
	} {
		var stdout, stderr bytes.Buffer
		d := &peers.Dispatcher{
			Prog: "peers",
			Registry: peers.MustRegistry(peers.Entry{Name: "lhd", New: func() peers.Command {
				return NewCommand()
			}}),
			Stdout: &stdout,
			Stderr: &stderr,
			Width:  80,
			Log:    zap.NewNop(),
		}
		if code := d.Main(context.Background(), args); code != 2 {
			t.Errorf("%q: exit status %d, want 2", args, code)
		}
		if stdout.Len() != 0 {
			t.Errorf("%q: unexpected output %q", args, stdout.String())
		}
		if want := "peers: error: ValueError: number of designs must be positive"; !strings.Contains(stderr.String(), want) {
			t.Errorf("%q: stderr %q lacks %q", args, stderr.String(), want)
		}
	}
}

func TestMaximinKeepsBest(t *testing.T) {
	best, err := Maximin(context.Background(), randx.New(seed(3)), 2, 6, 50, nil)
	if err != nil {
		t.Fatalf("maximin: %v", err)
	}
	rng := randx.New(seed(3))
	for i := 0; i < 50; i++ {
		d, _ := Generate(rng, 2, 6, nil)
		if d.MinDist > best.MinDist {
			t.Fatalf("design %d beats maximin: %g > %g", i, d.MinDist, best.MinDist)
		}
	}
}

func TestCommandWritesDesign(t *testing.T) {
	c := NewCommand()
	fs := pflag.NewFlagSet("lhd", pflag.ContinueOnError)
	c.Flags(fs)
	if err := fs.Parse([]string{"--seed", "4", "-r", "0,10", "-r", "5,6", "2", "5"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	var out bytes.Buffer
	env := &peers.Env{Stdout: &out, Stderr: &bytes.Buffer{}, Log: zap.NewNop(), Width: 80}
	if err := c.Run(context.Background(), env, fs.Args()); err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 5 points and a comment, got %q", out.String())
	}
	if !strings.HasPrefix(lines[5], "# min-dist: ") {
		t.Fatalf("missing min-dist comment: %q", lines[5])
	}
	if f := strings.Fields(lines[0]); len(f) != 2 {
		t.Fatalf("expected 2 coordinates, got %q", lines[0])
	}
}

func TestCommandRejectsBadRange(t *testing.T) {
	c := NewCommand()
	c.ranges = []string{"1"}
	env := &peers.Env{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}, Log: zap.NewNop(), Width: 80}
	err := c.Run(context.Background(), env, []string{"1", "3"})
	if _, ok := err.(*peers.UsageError); !ok {
		t.Fatalf("expected usage error, got %v", err)
	}
}
