package sim_test

import (
	"errors"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/vesselsim/internal/dynamo"
	"github.com/san-kum/vesselsim/internal/integrators"
	"github.com/san-kum/vesselsim/internal/metrics"
	"github.com/san-kum/vesselsim/internal/physics"
	"github.com/san-kum/vesselsim/internal/schedule"
	"github.com/san-kum/vesselsim/internal/sim"
)

// recordingSolver returns x0, a decoy and a shifted final state, and records
// every call.
type recordingSolver struct {
	spans  [][2]float64
	inputs []dynamo.Control
}

func (r *recordingSolver) Integrate(sys dynamo.System, x0 dynamo.State, span [2]float64, u dynamo.Control) ([]dynamo.State, error) {
	r.spans = append(r.spans, span)
	r.inputs = append(r.inputs, u)
	final := x0.Clone()
	final[physics.Volume] += 1
	return []dynamo.State{x0.Clone(), {-1, -1, -1}, final}, nil
}

func linspace(start, end float64, n int) []float64 {
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = start + (end-start)*float64(i)/float64(n-1)
	}
	return grid
}

func constantSchedule(n int, q, qf, caf, tf float64) *schedule.Schedule {
	s, err := schedule.NewConstant(n, physics.NewInputs(q, qf, caf, tf))
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("Simulator", func() {
	var (
		simulator *sim.Simulator
		x0        dynamo.State
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(GinkgoWriter, &slog.HandlerOptions{Level: slog.LevelDebug}))
		simulator = sim.New(physics.NewVessel(), logger)
		x0 = physics.NewState(1.0, 0.0, 350.0)
	})

	Describe("scenarios", func() {
		It("keeps a balanced vessel at its initial state (scenario A)", func() {
			res, err := simulator.Run(sim.Config{
				InitialState: x0,
				Grid:         []float64{0, 1},
				Schedule:     constantSchedule(2, 5.0, 5.0, 0.0, 350.0),
				Solver:       integrators.NewDopri(1.49012e-8, 1.49012e-8),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Len()).To(Equal(2))

			final := res.Final()
			Expect(final[physics.Volume]).To(BeNumerically("~", 1.0, 1e-9))
			Expect(final[physics.Concentration]).To(BeNumerically("~", 0.0, 1e-9))
			Expect(final[physics.Temperature]).To(BeNumerically("~", 350.0, 1e-9))
		})

		It("grows the volume by the net inflow (scenario B)", func() {
			res, err := simulator.Run(sim.Config{
				InitialState: x0,
				Grid:         []float64{0, 0.1},
				Schedule:     constantSchedule(2, 5.0, 5.2, 0.0, 350.0),
				Solver:       integrators.NewDopri(1.49012e-8, 1.49012e-8),
			})
			Expect(err).NotTo(HaveOccurred())

			dV := res.Final()[physics.Volume] - x0[physics.Volume]
			Expect(dV).To(BeNumerically("~", (5.2-5.0)*0.1, 1e-9))
		})

		It("runs the 100-point step-change scenario (scenario C)", func() {
			grid := linspace(0, 10, 100)
			sched := constantSchedule(100, 5.0, 5.2, 1.0, 300.0)
			Expect(sched.StepAt(schedule.InletFlow, 50, 5.1)).To(Succeed())
			Expect(sched.StepAt(schedule.FeedConcentration, 30, 0.5)).To(Succeed())
			Expect(sched.StepAt(schedule.FeedTemperature, 70, 325.0)).To(Succeed())

			res, err := simulator.Run(sim.Config{
				InitialState: x0,
				Grid:         grid,
				Schedule:     sched,
				Solver:       integrators.NewDopri(1.49012e-8, 1.49012e-8),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Len()).To(Equal(100))
			Expect(res.StepsTaken).To(Equal(99))

			// dV/dt is piecewise constant: 0.2 for 50 intervals, 0.1 for 49.
			expectedV := 1.0 + 0.2*grid[50] + 0.1*(grid[99]-grid[50])
			Expect(res.Final()[physics.Volume]).To(BeNumerically("~", expectedV, 1e-8))

			for _, x := range res.States {
				Expect(x.IsValid()).To(BeTrue())
				Expect(x[physics.Concentration]).To(BeNumerically(">=", 0))
				Expect(x[physics.Concentration]).To(BeNumerically("<=", 1.0))
			}
			// The feed temperature steps up late; the vessel ends between the two feeds.
			Expect(res.Final()[physics.Temperature]).To(BeNumerically(">", 300.0))
			Expect(res.Final()[physics.Temperature]).To(BeNumerically("<", 325.0))
		})
	})

	Describe("trajectory guarantees", func() {
		DescribeTable("matches the grid length",
			func(n int) {
				res, err := simulator.Run(sim.Config{
					InitialState: x0,
					Grid:         linspace(0, 2, n),
					Schedule:     constantSchedule(n, 5.0, 5.1, 1.0, 300.0),
					Solver:       integrators.NewFixed(integrators.NewRK4(), 20),
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(res.States).To(HaveLen(n))
				Expect(res.Times).To(HaveLen(n))
				Expect(res.Schedule.Len()).To(Equal(n))
			},
			Entry("two points", 2),
			Entry("ten points", 10),
			Entry("hundred points", 100),
		)

		It("returns a single state for a one-point grid", func() {
			solver := &recordingSolver{}
			res, err := simulator.Run(sim.Config{
				InitialState: x0,
				Grid:         []float64{3},
				Schedule:     constantSchedule(1, 5, 5, 1, 300),
				Solver:       solver,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.States).To(Equal([]dynamo.State{x0}))
			Expect(solver.spans).To(BeEmpty())
		})

		It("stores an exact copy of the initial condition", func() {
			initial := physics.NewState(1.234567890123, 0.1, 333.3)
			res, err := simulator.Run(sim.Config{
				InitialState: initial,
				Grid:         linspace(0, 1, 5),
				Schedule:     constantSchedule(5, 5.0, 5.3, 1.0, 300.0),
				Solver:       integrators.NewDopri(1e-8, 1e-8),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.States[0]).To(Equal(initial))

			initial[physics.Volume] = 42
			Expect(res.States[0][physics.Volume]).To(Equal(1.234567890123))
		})

		It("keeps the volume constant when the flows balance", func() {
			sched := constantSchedule(20, 4.0, 4.0, 1.0, 300.0)
			Expect(sched.StepAt(schedule.FeedConcentration, 7, 0.2)).To(Succeed())
			Expect(sched.StepAt(schedule.FeedTemperature, 12, 380)).To(Succeed())

			res, err := simulator.Run(sim.Config{
				InitialState: physics.NewState(2.5, 0.4, 320.0),
				Grid:         linspace(0, 5, 20),
				Schedule:     sched,
				Solver:       integrators.NewDopri(1e-8, 1e-8),
			})
			Expect(err).NotTo(HaveOccurred())
			for _, v := range res.Series(physics.Volume) {
				Expect(v).To(Equal(2.5))
			}
		})

		It("stays at a steady state", func() {
			steady := physics.NewState(1.5, 0.7, 310.0)
			res, err := simulator.Run(sim.Config{
				InitialState: steady,
				Grid:         linspace(0, 3, 30),
				Schedule:     constantSchedule(30, 2.0, 2.0, 0.7, 310.0),
				Solver:       integrators.NewDopri(1e-8, 1e-8),
			})
			Expect(err).NotTo(HaveOccurred())
			for _, x := range res.States {
				Expect(x.Sub(steady).Norm()).To(BeNumerically("<", 1e-9))
			}
		})

		It("chains the last solver state and samples inputs at the left end", func() {
			solver := &recordingSolver{}
			grid := []float64{0, 0.5, 1.5, 2.0}
			sched := constantSchedule(4, 5.0, 5.2, 1.0, 300.0)
			Expect(sched.StepAt(schedule.InletFlow, 2, 6.0)).To(Succeed())

			res, err := simulator.Run(sim.Config{InitialState: x0, Grid: grid, Schedule: sched, Solver: solver})
			Expect(err).NotTo(HaveOccurred())

			Expect(solver.spans).To(Equal([][2]float64{{0, 0.5}, {0.5, 1.5}, {1.5, 2.0}}))
			Expect(solver.inputs).To(Equal([]dynamo.Control{sched.At(0), sched.At(1), sched.At(2)}))
			Expect(res.Series(physics.Volume)).To(Equal([]float64{1, 2, 3, 4}))
		})

		It("is deterministic", func() {
			run := func() *sim.Result {
				sched := constantSchedule(40, 5.0, 5.2, 1.0, 300.0)
				Expect(sched.StepAt(schedule.FeedConcentration, 15, 0.5)).To(Succeed())
				res, err := simulator.Run(sim.Config{
					InitialState: x0,
					Grid:         linspace(0, 4, 40),
					Schedule:     sched,
					Solver:       integrators.NewDopri(1e-8, 1e-8),
				})
				Expect(err).NotTo(HaveOccurred())
				return res
			}

			Expect(run().States).To(Equal(run().States))
		})

		It("reports metrics", func() {
			simulator.AddMetric(metrics.NewMinVolume())
			simulator.AddMetric(metrics.NewHoldup(physics.NewVessel()))

			res, err := simulator.Run(sim.Config{
				InitialState: x0,
				Grid:         linspace(0, 1, 11),
				Schedule:     constantSchedule(11, 5.0, 4.8, 1.0, 300.0),
				Solver:       integrators.NewDopri(1e-8, 1e-8),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Metrics).To(HaveKey("min_volume"))
			Expect(res.Metrics["min_volume"]).To(BeNumerically("~", 0.8, 1e-9))
			Expect(res.Metrics["mean_holdup"]).To(BeNumerically(">", 0))
		})
	})

	Describe("preconditions", func() {
		var solver *recordingSolver

		BeforeEach(func() {
			solver = &recordingSolver{}
		})

		DescribeTable("rejects the configuration before running",
			func(mutate func(*sim.Config), target error) {
				cfg := sim.Config{
					InitialState: x0,
					Grid:         linspace(0, 1, 5),
					Schedule:     constantSchedule(5, 5, 5, 1, 300),
					Solver:       solver,
				}
				mutate(&cfg)

				res, err := simulator.Run(cfg)
				Expect(err).To(MatchError(target))
				Expect(res).To(BeNil())
				Expect(solver.spans).To(BeEmpty())
			},
			Entry("schedule shorter than grid", func(c *sim.Config) {
				c.Schedule = constantSchedule(4, 5, 5, 1, 300)
			}, dynamo.ErrDimensionMismatch),
			Entry("schedule longer than grid", func(c *sim.Config) {
				c.Schedule = constantSchedule(6, 5, 5, 1, 300)
			}, dynamo.ErrDimensionMismatch),
			Entry("missing schedule", func(c *sim.Config) { c.Schedule = nil }, dynamo.ErrDimensionMismatch),
			Entry("wrong state dimension", func(c *sim.Config) { c.InitialState = dynamo.State{1, 2} }, dynamo.ErrDimensionMismatch),
			Entry("empty grid", func(c *sim.Config) {
				c.Grid = nil
				c.Schedule = constantSchedule(0, 5, 5, 1, 300)
			}, dynamo.ErrInvalidGrid),
			Entry("non-increasing grid", func(c *sim.Config) { c.Grid = []float64{0, 1, 1, 2, 3} }, dynamo.ErrInvalidGrid),
			Entry("missing solver", func(c *sim.Config) { c.Solver = nil }, dynamo.ErrNoSolver),
			Entry("non-positive volume", func(c *sim.Config) { c.InitialState = physics.NewState(0, 0, 350) }, dynamo.ErrInvalidState),
		)
	})

	Describe("numerical failure", func() {
		It("aborts when the vessel drains empty", func() {
			res, err := simulator.Run(sim.Config{
				InitialState: physics.NewState(1.0, 0.5, 350.0),
				Grid:         []float64{0, 0.1, 0.2, 0.3, 0.4},
				Schedule:     constantSchedule(5, 5.0, 0.0, 1.0, 300.0),
				Solver:       integrators.NewDopri(1e-8, 1e-8),
			})
			Expect(res).To(BeNil())
			Expect(errors.Is(err, dynamo.ErrInvalidState)).To(BeTrue())

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Step).To(BeNumerically(">=", 1))
		})

		It("rejects a finite negative volume from a coarse step", func() {
			res, err := simulator.Run(sim.Config{
				InitialState: physics.NewState(1.0, 0.5, 350.0),
				Grid:         []float64{0, 0.3},
				Schedule:     constantSchedule(2, 5.0, 0.0, 1.0, 300.0),
				Solver:       integrators.NewFixed(integrators.NewEuler(), 1),
			})
			Expect(res).To(BeNil())
			Expect(errors.Is(err, dynamo.ErrInvalidState)).To(BeTrue())

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Step).To(Equal(0))
			Expect(simErr.State[physics.Volume]).To(Equal(1.0))
		})
	})

	Describe("result ownership", func() {
		It("keeps its input series when the caller edits the schedule", func() {
			sched := constantSchedule(3, 5.0, 5.0, 1.0, 300.0)
			res, err := simulator.Run(sim.Config{
				InitialState: x0,
				Grid:         []float64{0, 0.1, 0.2},
				Schedule:     sched,
				Solver:       integrators.NewDopri(1e-8, 1e-8),
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(sched.StepAt(schedule.InletFlow, 1, 9.0)).To(Succeed())
			Expect(res.Schedule.Series(schedule.InletFlow)).To(Equal([]float64{5.0, 5.0, 5.0}))
		})
	})
})
