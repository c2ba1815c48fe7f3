package sim_test

import (
	"bytes"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/logging"
	"github.com/san-kum/softbody/internal/physics"
	"github.com/san-kum/softbody/internal/sim"
	"github.com/san-kum/softbody/internal/topology"
	"gonum.org/v1/gonum/spatial/r2"
)

func restParams(rows, cols int) dynamo.Params {
	return dynamo.Params{
		Rows:       rows,
		Cols:       cols,
		Spacing:    5,
		Stiffness:  10,
		RestLength: 5,
		Mass:       1,
		TimeStep:   0.01,
	}
}

var _ = Describe("Simulation", func() {
	Describe("construction", func() {
		It("lays the grid out row-major from the origin", func() {
			p := restParams(2, 3)
			p.Origin = r2.Vec{X: 10, Y: 20}
			s, err := sim.New(p, nil)
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Phase()).To(Equal(sim.Constructed))
			Expect(s.Positions()).To(Equal([]dynamo.Position{
				{X: 10, Y: 20}, {X: 15, Y: 20}, {X: 20, Y: 20},
				{X: 10, Y: 25}, {X: 15, Y: 25}, {X: 20, Y: 25},
			}))
			for _, p := range s.Particles() {
				Expect(p.Vel).To(Equal(r2.Vec{}))
			}
		})

		It("derives the canonical topology", func() {
			s, err := sim.New(restParams(3, 3), nil)
			Expect(err).NotTo(HaveOccurred())

			bonds := s.Bonds()
			Expect(bonds).To(HaveLen(12))
			Expect(topology.Degrees(9, bonds)).To(Equal([]int{2, 3, 2, 3, 4, 3, 2, 3, 2}))
		})

		It("accepts a custom bond list", func() {
			p := restParams(2, 2)
			s, err := sim.New(p, nil, sim.WithBonds(topology.Complete(4, 5, 10)))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Bonds()).To(HaveLen(6))

			_, err = sim.New(p, nil, sim.WithBonds([]dynamo.Bond{{I: 0, J: 9}}))
			Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
		})

		DescribeTable("rejects invalid parameters",
			func(mutate func(*dynamo.Params)) {
				p := restParams(2, 2)
				mutate(&p)
				_, err := sim.New(p, nil)
				Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue(), "got %v", err)
			},
			Entry("zero rows", func(p *dynamo.Params) { p.Rows = 0 }),
			Entry("negative cols", func(p *dynamo.Params) { p.Cols = -1 }),
			Entry("zero spacing", func(p *dynamo.Params) { p.Spacing = 0 }),
			Entry("zero mass", func(p *dynamo.Params) { p.Mass = 0 }),
			Entry("negative stiffness", func(p *dynamo.Params) { p.Stiffness = -1 }),
			Entry("negative damping", func(p *dynamo.Params) { p.Damping = -0.1 }),
			Entry("NaN rest length", func(p *dynamo.Params) { p.RestLength = math.NaN() }),
			Entry("infinite gravity", func(p *dynamo.Params) { p.Gravity.Y = math.Inf(1) }),
		)

		DescribeTable("rejects invalid obstacles",
			func(o dynamo.Obstacle) {
				_, err := sim.New(restParams(2, 2), []dynamo.Obstacle{o})
				Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue(), "got %v", err)
			},
			Entry("zero radius", dynamo.Circle(0, 0, 0)),
			Entry("negative radius", dynamo.Circle(0, 0, -3)),
			Entry("flat box", dynamo.Box(0, 0, 4, 0)),
			Entry("unknown kind", dynamo.Obstacle{Kind: dynamo.ObstacleKind(7)}),
		)

		It("allows a single particle with no spacing", func() {
			p := restParams(1, 1)
			p.Spacing = 0
			s, err := sim.New(p, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Bonds()).To(BeEmpty())
		})
	})

	Describe("stepping", func() {
		It("keeps a rest-length mesh in equilibrium", func() {
			s, err := sim.New(restParams(2, 2), nil)
			Expect(err).NotTo(HaveOccurred())
			before := s.Particles()

			for i := 0; i < 100; i++ {
				s.Step(0.01)
			}

			Expect(s.Phase()).To(Equal(sim.Stepped))
			Expect(s.Steps()).To(Equal(100))
			Expect(s.Particles()).To(Equal(before))
		})

		It("applies equal and opposite bond forces at every step", func() {
			p := restParams(1, 2)
			p.Spacing = 7
			p.Damping = 0.3
			s, err := sim.New(p, nil)
			Expect(err).NotTo(HaveOccurred())

			forces := make([]r2.Vec, 2)
			for i := 0; i < 200; i++ {
				physics.Accumulate(forces, s.Particles(), s.Bonds(), s.Params())
				Expect(r2.Add(forces[0], forces[1])).To(Equal(r2.Vec{}))

				s.Step(0.01)
				Expect(physics.Momentum(s.Particles(), p.Mass)).To(Equal(r2.Vec{}))
			}
		})

		It("bounces off a circle with unchanged speed", func() {
			p := restParams(1, 1)
			p.Origin = r2.Vec{X: 0, Y: -12}
			s, err := sim.New(p, []dynamo.Obstacle{dynamo.Circle(0, 0, 10)}, sim.WithVelocity(r2.Vec{Y: 10}))
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 3; i++ {
				s.Step(0.1)
			}
			Expect(s.Contacts()).To(Equal(1))

			got := s.Particles()[0]
			Expect(got.Vel.Y).To(BeNumerically("<", 0))
			Expect(r2.Norm(got.Vel)).To(BeNumerically("~", 10, 1e-12))
			Expect(r2.Norm(got.Pos)).To(BeNumerically(">=", 10-1e-12))

			for i := 0; i < 20; i++ {
				s.Step(0.1)
			}
			Expect(r2.Norm(s.Particles()[0].Vel)).To(BeNumerically("~", 10, 1e-12))
		})

		It("is deterministic", func() {
			p := dynamo.DefaultParams()
			p.Rows, p.Cols = 6, 6
			p.Damping = 0.2
			p.Origin = r2.Vec{X: 10, Y: 0}
			obstacles := []dynamo.Obstacle{dynamo.Circle(25, 60, 15), dynamo.Box(25, 110, 40, 5)}

			a, err := sim.New(p, obstacles)
			Expect(err).NotTo(HaveOccurred())
			b, err := sim.New(p, obstacles)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 500; i++ {
				a.Step(0.01)
				b.Step(0.01)
			}

			Expect(a.Positions()).To(Equal(b.Positions()))
			Expect(a.Particles()).To(Equal(b.Particles()))
		})

		It("keeps particles outside circular obstacles after every step", func() {
			p := dynamo.DefaultParams()
			p.Rows, p.Cols = 8, 8
			p.Damping = 0.1
			obstacles := []dynamo.Obstacle{dynamo.Circle(10, 70, 12), dynamo.Circle(80, 70, 12)}

			s, err := sim.New(p, obstacles)
			Expect(err).NotTo(HaveOccurred())

			contacts := 0
			for i := 0; i < 400; i++ {
				s.Step(0.01)
				contacts += s.Contacts()
				for _, pt := range s.Particles() {
					for _, o := range obstacles {
						d := r2.Norm(r2.Sub(pt.Pos, o.Center))
						Expect(d).To(BeNumerically(">=", o.Radius-1e-9))
					}
				}
			}
			Expect(contacts).To(BeNumerically(">", 0))
		})

		It("keeps every particle finite under a stable configuration", func() {
			p := dynamo.DefaultParams()
			p.Damping = 0.5
			s, err := sim.New(p, []dynamo.Obstacle{dynamo.Box(25, 80, 60, 4)})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Warnings()).To(BeEmpty())

			for i := 0; i < 1000; i++ {
				s.Step(p.TimeStep)
			}
			Expect(s.Frame().IsValid()).To(BeTrue())
			Expect(s.Time()).To(BeNumerically("~", 10, 1e-9))
		})
	})

	Describe("snapshots", func() {
		It("returns copies that never alias the state", func() {
			s, err := sim.New(restParams(2, 2), []dynamo.Obstacle{dynamo.Circle(1, 2, 3)})
			Expect(err).NotTo(HaveOccurred())

			pos := s.Positions()
			pos[0].X = 999
			parts := s.Particles()
			parts[0].Pos.X = 999

			Expect(s.Positions()[0].X).To(Equal(float32(0)))
			Expect(s.Particles()[0].Pos.X).To(Equal(0.0))
		})

		It("describes obstacles for the renderer", func() {
			obstacles := []dynamo.Obstacle{dynamo.Circle(1, 2, 3), dynamo.Box(4, 5, 6, 7)}
			s, err := sim.New(restParams(1, 1), obstacles)
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Obstacles()).To(Equal([]dynamo.ObstacleDescriptor{
				{Kind: dynamo.KindCircle, X: 1, Y: 2, Radius: 3},
				{Kind: dynamo.KindBox, X: 4, Y: 5, HalfWidth: 6, HalfHeight: 7},
			}))

			s.Step(0.01)
			Expect(s.Obstacles()).To(HaveLen(2))
		})
	})

	Describe("stability check", func() {
		It("warns through the logger when dt exceeds the spring limit", func() {
			var buf bytes.Buffer
			p := restParams(2, 2)
			p.Stiffness = 400
			p.TimeStep = 0.2

			s, err := sim.New(p, nil, sim.WithLogger(logging.New(&buf, logging.LevelWarn)))
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Warnings()).NotTo(BeEmpty())
			Expect(s.Warnings()[0].Kind).To(Equal("spring"))
			Expect(s.Warnings()[0].Limit).To(BeNumerically("~", 0.1, 1e-12))
			Expect(buf.String()).To(ContainSubstring("[WARN] stability: spring"))
		})

		DescribeTable("reports each limit",
			func(mutate func(*dynamo.Params), dt float64, kind string) {
				p := restParams(3, 3)
				mutate(&p)
				warnings := sim.CheckStability(p, topology.Grid(p.Rows, p.Cols, p.RestLength, p.Stiffness), dt)
				kinds := make([]string, 0, len(warnings))
				for _, w := range warnings {
					kinds = append(kinds, w.Kind)
				}
				if kind == "" {
					Expect(kinds).To(BeEmpty())
				} else {
					Expect(kinds).To(ContainElement(kind))
				}
			},
			Entry("stable", func(p *dynamo.Params) {}, 0.01, ""),
			Entry("non-positive dt", func(p *dynamo.Params) {}, 0.0, "timestep"),
			Entry("single spring", func(p *dynamo.Params) { p.Stiffness = 10000 }, 0.05, "spring"),
			Entry("mesh", func(p *dynamo.Params) { p.Stiffness = 100 }, 0.1, "mesh"),
			Entry("damping", func(p *dynamo.Params) { p.Damping = 200 }, 0.01, "damping"),
			Entry("cutoff", func(p *dynamo.Params) { p.Cutoff = 4 }, 0.01, "cutoff"),
		)
	})
})
