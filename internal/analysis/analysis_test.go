package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/softbody/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestDominantFrequency(t *testing.T) {
	tests := []struct {
		name string
		hz   float64
		dt   float64
		n    int
	}{
		{"2 Hz", 2, 0.01, 500},
		{"0.5 Hz", 0.5, 0.1, 200},
		{"offset sine", 4, 0.005, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]float64, tt.n)
			for i := range data {
				data[i] = 3 + math.Sin(2*math.Pi*tt.hz*float64(i)*tt.dt)
			}
			got, power := DominantFrequency(data, tt.dt)
			if math.Abs(got-tt.hz) > 1e-9 {
				t.Errorf("expected %f Hz, got %f", tt.hz, got)
			}
			if power <= 0 {
				t.Errorf("expected positive power, got %f", power)
			}
		})
	}
}

func TestDominantFrequencyDegenerate(t *testing.T) {
	if f, p := DominantFrequency([]float64{1, 2}, 0.01); f != 0 || p != 0 {
		t.Errorf("short series: got %f, %f", f, p)
	}
	if f, _ := DominantFrequency([]float64{1, 1, 1, 1, 1, 1}, 0.01); f != 0 {
		t.Errorf("constant series: got %f", f)
	}
	if f, _ := DominantFrequency([]float64{1, 2, 3, 4}, 0); f != 0 {
		t.Errorf("zero dt: got %f", f)
	}
}

func TestPowerSpectrum(t *testing.T) {
	if ps := PowerSpectrum([]float64{1}); ps != nil {
		t.Errorf("expected nil for one sample, got %v", ps)
	}

	ps := PowerSpectrum([]float64{1, 1, 1, 1, 1, 1, 1, 1})
	if len(ps) != 5 {
		t.Fatalf("expected 5 coefficients, got %d", len(ps))
	}
	if math.Abs(ps[0]-8) > 1e-12 {
		t.Errorf("expected DC magnitude 8, got %f", ps[0])
	}
	for k := 1; k < len(ps); k++ {
		if ps[k] > 1e-12 {
			t.Errorf("expected no power at bin %d, got %f", k, ps[k])
		}
	}
}

func frames() []dynamo.Frame {
	return []dynamo.Frame{
		{Step: 0, Time: 0, Particles: []dynamo.Particle{
			{Pos: r2.Vec{X: 0, Y: 0}},
			{Pos: r2.Vec{X: 2, Y: 0}, Vel: r2.Vec{X: 1}},
		}},
		{Step: 10, Time: 0.1, Particles: []dynamo.Particle{
			{Pos: r2.Vec{X: 0, Y: 1}, Vel: r2.Vec{Y: 10}},
			{Pos: r2.Vec{X: 2, Y: 3}, Vel: r2.Vec{Y: -2}},
		}},
	}
}

func TestParticleSeries(t *testing.T) {
	ys, err := ParticleSeries(frames(), 1, PosY)
	if err != nil {
		t.Fatal(err)
	}
	if ys[0] != 0 || ys[1] != 3 {
		t.Errorf("unexpected series %v", ys)
	}

	vys, err := ParticleSeries(frames(), 0, VelY)
	if err != nil {
		t.Fatal(err)
	}
	if vys[1] != 10 {
		t.Errorf("unexpected velocity series %v", vys)
	}

	if _, err := ParticleSeries(frames(), 5, PosX); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestParseComponent(t *testing.T) {
	for _, c := range []Component{PosX, PosY, VelX, VelY} {
		got, err := ParseComponent(c.String())
		if err != nil || got != c {
			t.Errorf("round trip of %s: got %v, %v", c, got, err)
		}
	}
	if _, err := ParseComponent("z"); err == nil {
		t.Error("expected error for unknown component")
	}
}

func TestCentroidAndInterval(t *testing.T) {
	c := CentroidSeries(frames())
	if c[0] != (r2.Vec{X: 1, Y: 0}) || c[1] != (r2.Vec{X: 1, Y: 2}) {
		t.Errorf("unexpected centroids %v", c)
	}
	if dt := SampleInterval(frames()); math.Abs(dt-0.1) > 1e-15 {
		t.Errorf("expected interval 0.1, got %f", dt)
	}
	if dt := SampleInterval(frames()[:1]); dt != 0 {
		t.Errorf("expected 0 for a single frame, got %f", dt)
	}
}

func TestEnergySeries(t *testing.T) {
	p := dynamo.Params{Mass: 2}
	bonds := []dynamo.Bond{{I: 0, J: 1, RestLength: 2, Stiffness: 4}}

	e := EnergySeries(frames(), bonds, p)
	// frame 0: KE 1, spring at rest
	if math.Abs(e[0]-1) > 1e-12 {
		t.Errorf("frame 0: expected 1, got %f", e[0])
	}
	// frame 1: KE 100+4, bond length sqrt(8)
	stretch := math.Sqrt(8) - 2
	want := 104 + 0.5*4*stretch*stretch
	if math.Abs(e[1]-want) > 1e-12 {
		t.Errorf("frame 1: expected %f, got %f", want, e[1])
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if math.Abs(s.Mean-5) > 1e-12 || s.Min != 2 || s.Max != 9 {
		t.Errorf("unexpected summary %+v", s)
	}
	// sample standard deviation
	if math.Abs(s.StdDev-math.Sqrt(32.0/7)) > 1e-12 {
		t.Errorf("unexpected std dev %f", s.StdDev)
	}

	if s := Summarize(nil); s != (Summary{}) {
		t.Errorf("expected zero summary, got %+v", s)
	}
	if s := Summarize([]float64{3}); s.Mean != 3 || s.StdDev != 0 {
		t.Errorf("single value: %+v", s)
	}
}

func TestPathToASCII(t *testing.T) {
	points := []r2.Vec{{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 10, Y: 10}}
	out := PathToASCII(points, 11, 11)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 11 {
		t.Fatalf("expected 11 rows, got %d", len(lines))
	}
	if []rune(lines[0])[0] != '.' {
		t.Errorf("expected first point top-left, got %q", lines[0])
	}
	if []rune(lines[10])[10] != '•' {
		t.Errorf("expected last point bottom-right, got %q", lines[10])
	}
	if PathToASCII(nil, 10, 10) != "" {
		t.Error("expected empty plot for no points")
	}
}
