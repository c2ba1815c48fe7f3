package sim_test

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/metrics"
	"github.com/san-kum/softbody/internal/sim"
)

type countingObserver struct {
	steps []int
}

func (c *countingObserver) OnStep(f dynamo.Frame) { c.steps = append(c.steps, f.Step) }

func unstableParams() dynamo.Params {
	p := restParams(1, 2)
	p.RestLength = 4
	p.Stiffness = 1e6
	p.TimeStep = 0
	return p
}

var _ = Describe("Runner", func() {
	var s *sim.Simulation

	BeforeEach(func() {
		p := dynamo.DefaultParams()
		p.Rows, p.Cols = 4, 4
		p.Damping = 0.2
		var err error
		s, err = sim.New(p, []dynamo.Obstacle{dynamo.Circle(8, 40, 10)})
		Expect(err).NotTo(HaveOccurred())
	})

	It("records the initial frame and every Nth step", func() {
		obs := &countingObserver{}
		r := sim.NewRunner(s)
		r.AddObserver(obs)

		res, err := r.Run(context.Background(), dynamo.RunConfig{Dt: 0.01, Steps: 100, RecordEvery: 10})
		Expect(err).NotTo(HaveOccurred())

		Expect(res.StepsTaken).To(Equal(100))
		Expect(res.Frames).To(HaveLen(11))
		Expect(res.Frames[0].Step).To(Equal(0))
		Expect(res.Frames[10].Step).To(Equal(100))
		Expect(obs.steps).To(HaveLen(100))
		Expect(obs.steps[0]).To(Equal(1))
		Expect(s.Steps()).To(Equal(100))
	})

	It("records no frames when the interval is zero", func() {
		res, err := sim.NewRunner(s).Run(context.Background(), dynamo.RunConfig{Dt: 0.01, Steps: 20})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Frames).To(BeEmpty())
		Expect(res.StepsTaken).To(Equal(20))
	})

	It("reports metric values by name", func() {
		r := sim.NewRunner(s)
		for _, m := range metrics.Standard(s.Params(), s.Bonds(), s.ObstacleList()) {
			r.AddMetric(m)
		}

		res, err := r.Run(context.Background(), dynamo.DefaultRunConfig())
		Expect(err).NotTo(HaveOccurred())

		Expect(res.Metrics).To(HaveKey("energy"))
		Expect(res.Metrics).To(HaveKey("energy_drift"))
		Expect(res.Metrics["stability"]).To(Equal(1.0))
		Expect(res.Metrics["max_penetration"]).To(BeNumerically("<", 1e-9))
		Expect(res.Metrics["energy"]).To(BeNumerically("~", s.Energy(), 1e-9))
	})

	It("stops before stepping when the context is canceled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res, err := sim.NewRunner(s).Run(ctx, dynamo.DefaultRunConfig())
		Expect(errors.Is(err, dynamo.ErrContextCanceled)).To(BeTrue())
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(res.StepsTaken).To(Equal(0))
		Expect(s.Phase()).To(Equal(sim.Constructed))
	})

	It("stops at the first non-finite state", func() {
		u, err := sim.New(unstableParams(), nil)
		Expect(err).NotTo(HaveOccurred())

		res, err := sim.NewRunner(u).Run(context.Background(), dynamo.RunConfig{Dt: 0.1, Steps: 1000, ValidateState: true})
		Expect(errors.Is(err, dynamo.ErrUnstable)).To(BeTrue())

		var simErr *dynamo.SimulationError
		Expect(errors.As(err, &simErr)).To(BeTrue())
		Expect(simErr.Step).To(Equal(res.StepsTaken + 1))
		Expect(res.StepsTaken).To(BeNumerically("<", 1000))
		Expect(res.Errors).To(HaveLen(1))
	})

	It("keeps a finite energy drift when the state diverges", func() {
		u, err := sim.New(unstableParams(), nil)
		Expect(err).NotTo(HaveOccurred())

		res, err := sim.NewRunner(u).Run(context.Background(), dynamo.RunConfig{Dt: 0.1, Steps: 1000, ValidateState: true, RecordEvery: 1})
		Expect(errors.Is(err, dynamo.ErrUnstable)).To(BeTrue())
		Expect(math.IsNaN(res.EnergyDrift)).To(BeFalse())
		Expect(math.IsInf(res.EnergyDrift, 0)).To(BeFalse())
		for _, f := range res.Frames {
			Expect(f.IsValid()).To(BeTrue())
		}
	})

	It("does not copy particles on steps nobody reads", func() {
		q, err := sim.New(restParams(3, 3), nil)
		Expect(err).NotTo(HaveOccurred())

		allocs := func(steps int) float64 {
			return testing.AllocsPerRun(5, func() {
				_, _ = sim.NewRunner(q).Run(context.Background(), dynamo.RunConfig{Dt: 0.01, Steps: steps, ValidateState: true})
			})
		}
		Expect(allocs(500)).To(Equal(allocs(10)))
	})

	DescribeTable("rejects invalid run configurations",
		func(cfg dynamo.RunConfig) {
			_, err := sim.NewRunner(s).Run(context.Background(), cfg)
			Expect(err).To(HaveOccurred())
			Expect(s.Steps()).To(Equal(0))
		},
		Entry("zero dt", dynamo.RunConfig{Dt: 0, Steps: 10}),
		Entry("negative dt", dynamo.RunConfig{Dt: -0.01, Steps: 10}),
		Entry("zero steps", dynamo.RunConfig{Dt: 0.01, Steps: 0}),
		Entry("negative interval", dynamo.RunConfig{Dt: 0.01, Steps: 10, RecordEvery: -1}),
	)
})

var _ = Describe("Ensemble", func() {
	trials := func(stiffness ...float64) []sim.Trial {
		out := make([]sim.Trial, 0, len(stiffness))
		for _, k := range stiffness {
			p := restParams(3, 3)
			p.Stiffness = k
			p.Gravity.Y = 50
			out = append(out, sim.Trial{
				Params:    p,
				Obstacles: []dynamo.Obstacle{dynamo.Box(5, 40, 20, 10)},
				Metrics: func() []dynamo.Metric {
					return []dynamo.Metric{metrics.NewStability(metrics.DefaultStabilityThreshold)}
				},
			})
		}
		return out
	}

	It("returns results in trial order", func() {
		cfg := dynamo.RunConfig{Dt: 0.01, Steps: 200, ValidateState: true, RecordEvery: 50}
		results, err := sim.NewEnsemble(2).Run(context.Background(), trials(5, 10, 20, 40), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(4))

		for i, k := range []float64{5, 10, 20, 40} {
			single, err := sim.New(trials(k)[0].Params, trials(k)[0].Obstacles)
			Expect(err).NotTo(HaveOccurred())
			for j := 0; j < cfg.Steps; j++ {
				single.Step(cfg.Dt)
			}
			Expect(results[i].StepsTaken).To(Equal(200))
			Expect(results[i].Frames).To(HaveLen(5))
			Expect(results[i].Frames[4].Particles).To(Equal(single.Particles()))
			Expect(results[i].Metrics["stability"]).To(Equal(1.0))
		}
	})

	It("keeps diverged trials without failing the ensemble", func() {
		ts := trials(10)
		ts = append(ts, sim.Trial{Params: unstableParams()})

		results, err := sim.NewEnsemble(0).Run(context.Background(), ts, dynamo.RunConfig{Dt: 0.1, Steps: 1000, ValidateState: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(results[0].StepsTaken).To(Equal(1000))
		Expect(results[1].Errors).To(HaveLen(1))
	})

	It("uses a trial's own run config when set", func() {
		ts := trials(10, 10)
		ts[1].Run = &dynamo.RunConfig{Dt: 0.005, Steps: 40, ValidateState: true, RecordEvery: 10}

		results, err := sim.NewEnsemble(2).Run(context.Background(), ts, dynamo.RunConfig{Dt: 0.01, Steps: 100, ValidateState: true, RecordEvery: 50})
		Expect(err).NotTo(HaveOccurred())
		Expect(results[0].StepsTaken).To(Equal(100))
		Expect(results[0].Frames).To(HaveLen(3))
		Expect(results[1].StepsTaken).To(Equal(40))
		Expect(results[1].Frames).To(HaveLen(5))
		Expect(results[1].Frames[4].Time).To(BeNumerically("~", 0.2, 1e-9))
	})

	It("fails on an invalid trial", func() {
		ts := trials(10)
		ts[0].Params.Mass = 0

		_, err := sim.NewEnsemble(1).Run(context.Background(), ts, dynamo.DefaultRunConfig())
		Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
	})
})
