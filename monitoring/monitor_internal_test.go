package monitoring

import (
	"encoding/json"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pdbj/sst-core/sim"
)

var _ = Describe("Monitor", func() {
	var (
		m      *Monitor
		engine *sim.Engine
	)

	BeforeEach(func() {
		m = NewMonitor()
		engine = sim.NewEngine("Thread[0]")
		m.RegisterEngine(engine)
	})

	It("should report the current time of every engine", func() {
		rec := httptest.NewRecorder()

		m.now(rec, nil)

		times := make(map[string]sim.SimTime)
		Expect(json.Unmarshal(rec.Body.Bytes(), &times)).To(Succeed())
		Expect(times).To(HaveKeyWithValue("Thread[0]", sim.SimTime(0)))
	})

	It("should list registered engines", func() {
		m.RegisterEngine(sim.NewEngine("Thread[1]"))

		rec := httptest.NewRecorder()
		m.listEngines(rec, nil)

		var names []string
		Expect(json.Unmarshal(rec.Body.Bytes(), &names)).To(Succeed())
		Expect(names).To(Equal([]string{"Thread[0]", "Thread[1]"}))
	})

	It("should return 404 for an unknown engine", func() {
		rec := httptest.NewRecorder()

		Expect(m.findEngineOr404(rec, "NoSuchEngine")).To(BeNil())
		Expect(rec.Code).To(Equal(404))
	})

	It("should find a registered engine by name", func() {
		rec := httptest.NewRecorder()

		Expect(m.findEngineOr404(rec, "Thread[0]")).
			To(BeIdenticalTo(engine))
	})

	It("should report one profile per sync coordinator", func() {
		rec := httptest.NewRecorder()

		m.syncProfiles(rec, nil)

		Expect(rec.Body.String()).To(Equal("[]"))
	})

	It("should track progress bars", func() {
		bar := m.CreateProgressBar("untimed data", 100)
		bar.IncrementInProgress(10)
		bar.MoveInProgressToFinished(4)

		Expect(bar.InProgress).To(Equal(uint64(6)))
		Expect(bar.Finished).To(Equal(uint64(4)))

		rec := httptest.NewRecorder()
		m.listProgressBars(rec, nil)

		var bars []*ProgressBar
		Expect(json.Unmarshal(rec.Body.Bytes(), &bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("untimed data"))

		m.CompleteProgressBar(bar)
		Expect(m.progressBars).To(BeEmpty())
	})

	It("should fall back to a random port for privileged ports", func() {
		m.WithPortNumber(80)

		Expect(m.portNumber).To(Equal(0))
	})
})
