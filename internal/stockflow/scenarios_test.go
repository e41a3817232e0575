package stockflow_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/stockflow/internal/rules"
	"github.com/san-kum/stockflow/internal/stockflow"
)

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}

var _ = Describe("SIR model", func() {
	var (
		m       *stockflow.Model
		s, i, r int
	)

	BeforeEach(func() {
		m = stockflow.New("sir")
		s = m.AddState("S", 990, "#4e79a7")
		i = m.AddState("I", 10, "#e15759")
		r = m.AddState("R", 0, "#59a14f")
		m.SetParameter("beta", 0.3)
		m.SetParameter("gamma", 0.1)
		m.SetParameter("n", 1000)

		infection, err := rules.Lua("beta * S * I / n", "S", "I", "beta", "n")
		Expect(err).NotTo(HaveOccurred())

		_, err = m.AddTransition(s, i, infection,
			stockflow.StateRef(s), stockflow.StateRef(i), stockflow.ParamRef("beta"), stockflow.ParamRef("n"))
		Expect(err).NotTo(HaveOccurred())
		_, err = m.AddTransition(i, r, rules.Binary(func(g, x float64) float64 { return g * x }),
			stockflow.ParamRef("gamma"), stockflow.StateRef(i))
		Expect(err).NotTo(HaveOccurred())
	})

	It("conserves the total population at every step", func() {
		traj, err := m.Run(100)
		Expect(err).NotTo(HaveOccurred())
		Expect(traj).To(HaveLen(100))
		for _, rec := range traj {
			Expect(sum(rec.States)).To(BeNumerically("~", 1000, 1e-6))
		}
	})

	It("matches the hand-computed first step", func() {
		traj, err := m.Run(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(traj[0].Flows[0]).To(BeNumerically("~", 2.97, 1e-9))
		// recovery sees I after infection has already been applied
		Expect(traj[0].Flows[1]).To(BeNumerically("~", 0.1*12.97, 1e-9))
	})

	It("changes the recovery flow when the run order is reversed", func() {
		forward, err := m.Run(1)
		Expect(err).NotTo(HaveOccurred())

		Expect(m.SetRunOrder([]int{1, 0})).To(Succeed())
		backward, err := m.Run(1)
		Expect(err).NotTo(HaveOccurred())

		Expect(backward[0].Flows[1]).To(BeNumerically("~", 1.0, 1e-9))
		Expect(backward[0].Flows[1]).NotTo(BeNumerically("~", forward[0].Flows[1], 1e-9))
	})

	It("applies a lockdown without touching the baseline", func() {
		m.On(stockflow.AtStep(9), func(m *stockflow.Model, step int) error {
			m.SetParameter("beta", 0)
			return nil
		})

		traj, err := m.Run(20)
		Expect(err).NotTo(HaveOccurred())
		Expect(traj[9].Flows[0]).To(BeNumerically(">", 0))
		for _, rec := range traj[10:] {
			Expect(rec.Flows[0]).To(BeZero())
		}

		beta, _ := m.Parameter("beta")
		Expect(beta).To(Equal(0.3))
		Expect(m.Values()).To(Equal([]float64{990, 10, 0}))
	})

	It("lets a cloned scenario diverge", func() {
		branch := m.Copy("no-recovery")
		branch.SetParameter("gamma", 0)

		original, err := m.RunTable(30)
		Expect(err).NotTo(HaveOccurred())
		diverged, err := branch.RunTable(30)
		Expect(err).NotTo(HaveOccurred())

		col := original.ColumnIndex("R")
		Expect(diverged.Column(col)).To(HaveEach(BeZero()))
		Expect(original.Rows[29][col]).To(BeNumerically(">", 0))

		gamma, _ := m.Parameter("gamma")
		Expect(gamma).To(Equal(0.1))
	})
})

var _ = Describe("external flows", func() {
	It("changes the total only by the inflow from an untracked source", func() {
		m := stockflow.New("tub")
		tap := m.AddState("Tap", 0, "")
		tub := m.AddState("Tub", 0, "")
		_, err := m.AddTransition(tap, tub, rules.Constant(5))
		Expect(err).NotTo(HaveOccurred())

		traj, err := m.Run(4)
		Expect(err).NotTo(HaveOccurred())
		Expect(traj[3].States[tub]).To(Equal(20.0))
		Expect(traj[3].States[tap]).To(Equal(-20.0))
		Expect(traj[3].States[tub] - 0).To(Equal(sum(traj[0].Flows) * 4))
	})
})

var _ = Describe("configuration errors", func() {
	It("rejects a rule whose arity disagrees with its dependencies", func() {
		m := stockflow.New("bad")
		a := m.AddState("A", 1, "")
		_, err := m.AddTransition(a, a, rules.Proportional(1))
		Expect(err).NotTo(HaveOccurred())

		_, err = m.Run(1)
		Expect(err).To(MatchError(stockflow.ErrArity))

		var se *stockflow.StepError
		Expect(err).To(BeAssignableToTypeOf(se))
	})
})
