package sim_test

import (
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/vesselsim/internal/dynamo"
	"github.com/san-kum/vesselsim/internal/integrators"
	"github.com/san-kum/vesselsim/internal/physics"
	"github.com/san-kum/vesselsim/internal/sim"
)

var _ = Describe("Ensemble", func() {
	var ensemble *sim.Ensemble

	BeforeEach(func() {
		ensemble = sim.NewEnsemble(physics.NewVessel(), slog.New(slog.NewTextHandler(GinkgoWriter, nil)), 2)
	})

	config := func(qf float64, solver dynamo.Solver) sim.Config {
		return sim.Config{
			InitialState: physics.NewState(1.0, 0.0, 350.0),
			Grid:         linspace(0, 1, 11),
			Schedule:     constantSchedule(11, 5.0, qf, 1.0, 300.0),
			Solver:       solver,
		}
	}

	It("returns results in configuration order", func() {
		cfgs := []sim.Config{
			config(5.0, integrators.NewDopri(1e-8, 1e-8)),
			config(5.5, integrators.NewFixed(integrators.NewRK4(), 50)),
			config(6.0, integrators.NewDopri(1e-8, 1e-8)),
		}

		results, err := ensemble.Run(context.Background(), cfgs)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))

		for i, qf := range []float64{5.0, 5.5, 6.0} {
			Expect(results[i].Final()[physics.Volume]).To(BeNumerically("~", 1.0+(qf-5.0), 1e-6))
		}
	})

	It("matches a sequential run", func() {
		results, err := ensemble.Run(context.Background(), []sim.Config{config(5.2, integrators.NewDopri(1e-8, 1e-8))})
		Expect(err).NotTo(HaveOccurred())

		single, err := sim.New(physics.NewVessel(), nil).Run(config(5.2, integrators.NewDopri(1e-8, 1e-8)))
		Expect(err).NotTo(HaveOccurred())
		Expect(results[0].States).To(Equal(single.States))
	})

	It("fails when any run fails", func() {
		bad := config(5.0, integrators.NewDopri(1e-8, 1e-8))
		bad.Grid = bad.Grid[:5]

		_, err := ensemble.Run(context.Background(), []sim.Config{config(5.0, integrators.NewDopri(1e-8, 1e-8)), bad})
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
	})
})
