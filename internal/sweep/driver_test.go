package sweep_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rdsweep/internal/formula"
	"github.com/san-kum/rdsweep/internal/summary"
	"github.com/san-kum/rdsweep/internal/sweep"
	"github.com/san-kum/rdsweep/internal/template"
)

func beamRatioPlan(sizes, ratios []float64) *sweep.Plan {
	return &sweep.Plan{
		Variables: []sweep.Variable{
			{Name: "size", Values: sizes},
			{Name: "ratio", Values: ratios},
		},
		Derived: []sweep.Derived{
			{Name: "ppm", Formula: formula.MustCompile("20 / size")},
			{Name: "beamSize", Formula: formula.MustCompile("size * ratio")},
		},
		Placeholders: []sweep.Placeholder{
			{Token: "$", Source: "size"},
			{Token: "?", Source: "ppm"},
			{Token: "@", Source: "beamSize"},
		},
		Metrics: []string{"DWD", "DiffractionEfficiency"},
		Columns: []sweep.Column{
			{Source: "size"},
			{Source: "ppm"},
			{Source: "beamSize"},
			{Source: "ratio"},
			{Source: "DWD"},
			{Source: "DiffractionEfficiency"},
		},
	}
}

var _ = Describe("Driver", func() {
	var (
		dir  string
		stub *stubSimulator
		tmpl *template.Template
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		stub = newStub(dir)
		tmpl = template.Parse("X=$ P=? B=@\n")
		tmpl.Path = "input.txt"
	})

	newDriver := func(plan *sweep.Plan, mutate ...func(*sweep.Config)) *sweep.Driver {
		cfg := sweep.Config{Plan: plan, Template: tmpl, Invoker: stub, WorkDir: dir}
		for _, m := range mutate {
			m(&cfg)
		}
		d, err := sweep.New(cfg)
		Expect(err).NotTo(HaveOccurred())
		return d
	}

	It("produces one row per combination with derived quantities", func() {
		table, err := newDriver(beamRatioPlan([]float64{1, 2}, []float64{1.0})).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(table.Header).To(Equal([]string{"size", "ppm", "beamSize", "ratio", "DWD", "DiffractionEfficiency"}))
		Expect(table.Rows).To(Equal([]sweep.Row{
			{1, 20.0, 1.0, 1.0, 3.0, 0.9},
			{2, 10.0, 2.0, 1.0, 3.0, 0.9},
		}))
	})

	It("renders the substituted input before each invocation", func() {
		_, err := newDriver(beamRatioPlan([]float64{1, 2}, []float64{1.0})).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(stub.inputs).To(Equal([]string{"X=1 P=20 B=1\n", "X=2 P=10 B=2\n"}))
		Expect(stub.names).To(Equal([]string{"input-updated.txt", "input-updated.txt"}))
		Expect(filepath.Join(dir, "input-updated.txt")).To(BeAnExistingFile())
	})

	It("iterates the first variable as the outer loop", func() {
		table, err := newDriver(beamRatioPlan([]float64{1, 2, 5}, []float64{0.5, 1, 2, 4})).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Rows).To(HaveLen(12))

		sizes, _ := table.Column("size")
		ratios, _ := table.Column("ratio")
		Expect(sizes).To(Equal([]float64{1, 1, 1, 1, 2, 2, 2, 2, 5, 5, 5, 5}))
		Expect(ratios).To(Equal([]float64{0.5, 1, 2, 4, 0.5, 1, 2, 4, 0.5, 1, 2, 4}))

		beams, _ := table.Column("beamSize")
		Expect(beams[11]).To(BeNumerically("~", 20, 1e-9))
	})

	It("names inputs per point when requested", func() {
		d := newDriver(beamRatioPlan([]float64{1, 2}, []float64{1.0}), func(c *sweep.Config) { c.PerPoint = true })
		_, err := d.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(stub.names).To(Equal([]string{"input-0001.txt", "input-0002.txt"}))
		Expect(filepath.Join(dir, "input-0001.txt")).To(BeAnExistingFile())
		Expect(filepath.Join(dir, "input-0002.txt")).To(BeAnExistingFile())
	})

	It("notifies observers after every point", func() {
		d := newDriver(beamRatioPlan([]float64{1, 2}, []float64{0.5, 1.0}))
		var events []sweep.Event
		d.AddObserver(sweep.ObserverFunc(func(ev sweep.Event) { events = append(events, ev) }))

		_, err := d.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(events).To(HaveLen(4))
		Expect(events[3].Point.Index).To(Equal(3))
		Expect(events[3].Total).To(Equal(4))
		Expect(events[3].Values).To(HaveKeyWithValue("ppm", 10.0))
		Expect(events[3].Err).NotTo(HaveOccurred())
	})

	Context("when the summary lacks a requested metric", func() {
		It("aborts with a lookup error at the first point", func() {
			plan := beamRatioPlan([]float64{1, 2}, []float64{1.0})
			plan.Metrics = []string{"DWD", "NotAColumn"}
			plan.Columns = nil

			table, err := newDriver(plan).Run(context.Background())
			Expect(table).To(BeNil())
			Expect(errors.Is(err, summary.ErrMissingColumn)).To(BeTrue())

			var pe *sweep.PointError
			Expect(errors.As(err, &pe)).To(BeTrue())
			Expect(pe.Point.Index).To(Equal(0))
			Expect(stub.inputs).To(HaveLen(1))
		})
	})

	Context("when the simulator leaves no summary", func() {
		It("does not reuse the previous point's summary", func() {
			stub.writeLimit = 1

			_, err := newDriver(beamRatioPlan([]float64{1, 2}, []float64{1.0})).Run(context.Background())
			Expect(errors.Is(err, sweep.ErrReportMissing)).To(BeTrue())

			var pe *sweep.PointError
			Expect(errors.As(err, &pe)).To(BeTrue())
			Expect(pe.Point.Index).To(Equal(1))
			Expect(pe.Completion.Command).To(ContainElement("input-updated.txt"))
		})
	})

	Context("when the simulator exits non-zero", func() {
		BeforeEach(func() { stub.exitCode = 2 })

		It("keeps going while a summary is produced", func() {
			table, err := newDriver(beamRatioPlan([]float64{1}, []float64{1.0})).Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Rows).To(HaveLen(1))
		})

		It("aborts when exit codes are enforced", func() {
			d := newDriver(beamRatioPlan([]float64{1}, []float64{1.0}), func(c *sweep.Config) { c.FailOnExit = true })
			_, err := d.Run(context.Background())
			Expect(errors.Is(err, sweep.ErrSimulatorExit)).To(BeTrue())
		})
	})

	It("stops before the next point once the context is canceled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		d := newDriver(beamRatioPlan([]float64{1, 2, 5}, []float64{1.0}))
		d.AddObserver(sweep.ObserverFunc(func(sweep.Event) { cancel() }))

		_, err := d.Run(ctx)
		Expect(err).To(MatchError(context.Canceled))
		Expect(stub.inputs).To(HaveLen(1))
	})

	It("is deterministic across reruns", func() {
		plan := beamRatioPlan([]float64{1, 2, 5}, []float64{0.01, 0.25, 1.5})
		first, err := newDriver(plan).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		second, err := newDriver(plan).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first))
	})

	It("renders a single point without invoking the simulator", func() {
		d := newDriver(beamRatioPlan([]float64{1, 2}, []float64{0.5}))
		pt, err := sweep.PointAt(d.Plan().Variables, 1)
		Expect(err).NotTo(HaveOccurred())

		path, err := d.Render(pt)
		Expect(err).NotTo(HaveOccurred())
		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("X=2 P=10 B=1\n"))
		Expect(stub.inputs).To(BeEmpty())
	})

	It("rejects an invalid plan", func() {
		plan := beamRatioPlan([]float64{1}, nil)
		_, err := sweep.New(sweep.Config{Plan: plan, Template: tmpl, Invoker: stub})
		Expect(errors.Is(err, sweep.ErrInvalidPlan)).To(BeTrue())
	})
})
