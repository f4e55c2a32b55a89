package regression

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/peers-abm/peers"
)

func TestStandardize(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	if err := Standardize(x); err != nil {
		t.Fatalf("standardize: %v", err)
	}
	var sum, ss float64
	for _, v := range x {
		sum += v
		ss += v * v
	}
	if math.Abs(sum) > 1e-12 || math.Abs(ss/4-1) > 1e-12 {
		t.Fatalf("not standardized: %v", x)
	}
	if err := Standardize([]float64{2, 2}); err == nil {
		t.Fatal("expected zero variance error")
	}
}

func TestSRCRecoversLinearModel(t *testing.T) {
	// y = 3 a - b, with a and b uncorrelated and of equal variance.
	x := [][]float64{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}, {2, 0}, {-2, 0}, {0, 2}, {0, -2}}
	y := make([]float64, len(x))
	for i, r := range x {
		y[i] = 3*r[0] - r[1]
	}
	res, err := SRC(x, y)
	if err != nil {
		t.Fatalf("src: %v", err)
	}
	norm := math.Sqrt(10)
	want := []float64{3 / norm, -1 / norm}
	for i := range want {
		if math.Abs(res.Coef[i]-want[i]) > 1e-9 {
			t.Fatalf("coef %d: expected %g, got %g", i, want[i], res.Coef[i])
		}
	}
	if math.Abs(res.R2-1) > 1e-9 {
		t.Fatalf("expected perfect fit, got R2 %g", res.R2)
	}
}

func TestSRCRejectsCollinearInputs(t *testing.T) {
	x := [][]float64{{1, 2}, {2, 4}, {3, 6}, {4, 8}}
	y := []float64{1, 3, 2, 5}
	if _, err := SRC(x, y); err == nil {
		t.Fatal("expected collinearity error")
	}
}

func TestCommandPrintsNamedTable(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data.csv")
	names := filepath.Join(dir, "names.csv")
	content := "1,1,2\n1,-1,4\n-1,1,-4\n-1,-1,-2\n2,0,6\n0,2,-2\n"
	if err := os.WriteFile(data, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(names, []byte("speed,confidence\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	c := NewCommand()
	fs := pflag.NewFlagSet("regression", pflag.ContinueOnError)
	c.Flags(fs)
	if err := fs.Parse([]string{"-p", names, data}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	var out bytes.Buffer
	env := &peers.Env{Stdout: &out, Stderr: &bytes.Buffer{}, Log: zap.NewNop(), Width: 80}
	if err := c.Run(context.Background(), env, fs.Args()); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	for _, want := range []string{"N = 6", "speed", "confidence", "std err"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
}

func TestCommandNameCountMismatch(t *testing.T) {
	dir := t.TempDir()
	names := filepath.Join(dir, "names.csv")
	if err := os.WriteFile(names, []byte("a,b,c\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c := NewCommand()
	c.paramsFile = names
	if _, err := c.names(2); err == nil {
		t.Fatal("expected mismatch error")
	}
}
