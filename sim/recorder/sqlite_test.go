package recorder

import (
	"database/sql"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mac-sim/mac-sim/sim"
)

var _ = Describe("SQLiteRecorder", func() {
	var (
		dir   string
		path  string
		clock *sim.Simulator
		r     *SQLiteRecorder
	)

	countSamples := func(where string, args ...any) int {
		db, err := sql.Open("sqlite3", path)
		Expect(err).NotTo(HaveOccurred())
		defer db.Close()
		var n int
		Expect(db.QueryRow("SELECT COUNT(*) FROM samples "+where, args...).Scan(&n)).To(Succeed())
		return n
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		path = filepath.Join(dir, "run.sqlite3")
		clock = sim.NewSimulator(1000)
		r = NewSQLiteRecorder(path, clock).WithBatchSize(4)
		Expect(r.Init()).To(Succeed())
	})

	AfterEach(func() {
		Expect(r.Close()).To(Succeed())
	})

	It("should refuse to overwrite an existing file", func() {
		other := NewSQLiteRecorder(path, clock)
		Expect(other.Init()).To(HaveOccurred())
	})

	It("should buffer samples until the batch is full", func() {
		r.Emit("a", 1)
		r.Emit("a", 2)
		r.Emit("b", 3)

		Expect(r.Written()).To(BeZero())
		Expect(countSamples("")).To(Equal(0))

		r.Emit("b", 4)

		Expect(r.Written()).To(Equal(int64(4)))
		Expect(countSamples("WHERE name = ?", "b")).To(Equal(2))
	})

	It("should stamp samples with the run ID and the virtual time", func() {
		clock.Clock = 750
		r.Emit(sim.SamplePacketDelay, 250)
		Expect(r.Flush()).To(Succeed())

		db, err := sql.Open("sqlite3", path)
		Expect(err).NotTo(HaveOccurred())
		defer db.Close()

		var runID, name string
		var at int64
		var value float64
		Expect(db.QueryRow("SELECT run_id, time, name, value FROM samples").
			Scan(&runID, &at, &name, &value)).To(Succeed())
		Expect(runID).To(Equal(r.RunID()))
		Expect(at).To(Equal(int64(750)))
		Expect(name).To(Equal(sim.SamplePacketDelay))
		Expect(value).To(Equal(250.0))
	})

	It("should store the run configuration as YAML", func() {
		cfg, err := sim.NewUniformConfig(3, 2, 0, 500).Expand()
		Expect(err).NotTo(HaveOccurred())
		Expect(r.RecordRun(cfg)).To(Succeed())

		db, err := sql.Open("sqlite3", path)
		Expect(err).NotTo(HaveOccurred())
		defer db.Close()

		var seed int64
		var doc string
		Expect(db.QueryRow("SELECT seed, config FROM runs WHERE run_id = ?", r.RunID()).
			Scan(&seed, &doc)).To(Succeed())
		Expect(seed).To(Equal(cfg.Seed))
		Expect(doc).To(ContainSubstring("slot_duration: 1000"))
		Expect(doc).To(ContainSubstring("mean_interarrival: 500"))
	})

	It("should flush the remainder on Close and tolerate a second Close", func() {
		r.Emit("x", 1)
		r.Emit("x", 2)

		Expect(r.Close()).To(Succeed())
		Expect(r.Close()).To(Succeed())
		Expect(countSamples("")).To(Equal(2))

		r.Emit("x", 3)
		Expect(r.Written()).To(Equal(int64(2)))
	})

	It("should record a whole network run", func() {
		cfg := sim.NewUniformConfig(3, 1, 0, 2000)
		cfg.Horizon = 20_000
		n, err := sim.NewNetwork(cfg, sim.WithSimulator(clock), sim.WithStats(r))
		Expect(err).NotTo(HaveOccurred())

		m := n.Run()
		Expect(r.Flush()).To(Succeed())

		Expect(countSamples("WHERE name = ?", sim.SamplePacketDelay)).To(Equal(int(m.Delivered)))
		Expect(countSamples("WHERE name = ?", sim.QueueLengthSample(2))).To(Equal(20))
		Expect(countSamples("WHERE name LIKE 'channel_throughput%' AND (value < 0 OR value > 1)")).To(Equal(0))
	})
})

var _ = Describe("SQLiteRecorder without a path", func() {
	It("should name the database after the run ID", func() {
		wd, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(GinkgoT().TempDir())).To(Succeed())
		DeferCleanup(os.Chdir, wd)

		r := NewSQLiteRecorder("", sim.NewSimulator(10))
		Expect(r.Init()).To(Succeed())
		DeferCleanup(r.Close)

		Expect(r.Path()).To(Equal("mac_sim_" + r.RunID() + ".sqlite3"))
		_, err = os.Stat(r.Path())
		Expect(err).NotTo(HaveOccurred())
	})
})
