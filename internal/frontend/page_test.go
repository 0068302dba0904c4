package frontend_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/atsform/internal/backend"
	"github.com/san-kum/atsform/internal/form"
	"github.com/san-kum/atsform/internal/frontend"
	"github.com/san-kum/atsform/internal/session"
)

type scheduled struct {
	delay time.Duration
	fn    func()
}

type fakeScheduler struct {
	mu    sync.Mutex
	calls []scheduled
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return true }

func (s *fakeScheduler) schedule(d time.Duration, f func()) frontend.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, scheduled{delay: d, fn: f})
	return noopTimer{}
}

func (s *fakeScheduler) fire() {
	s.mu.Lock()
	calls := s.calls
	s.mu.Unlock()
	for _, c := range calls {
		c.fn()
	}
}

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
}

func (n *recordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type scriptedSubmitter struct {
	mu       sync.Mutex
	requests []form.Request
	respond  func(req form.Request) backend.Result
}

func (s *scriptedSubmitter) Submit(ctx context.Context, req form.Request) backend.Result {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	return s.respond(req)
}

func (s *scriptedSubmitter) last() form.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func statusResult(status string) backend.Result {
	return backend.Result{Kind: backend.KindOK, Status: status}
}

var _ = Describe("Page", func() {
	var (
		store     *session.Memory
		sched     *fakeScheduler
		nav       *recordingNavigator
		submitter *scriptedSubmitter
		page      *frontend.Page
	)

	newPage := func() *frontend.Page {
		return frontend.New(store, submitter, nav, frontend.Options{
			Layout:    form.FullLayout(),
			Rand:      rand.New(rand.NewSource(42)),
			Scheduler: sched.schedule,
		})
	}

	BeforeEach(func() {
		store = session.NewMemory()
		sched = &fakeScheduler{}
		nav = &recordingNavigator{}
		submitter = &scriptedSubmitter{respond: func(form.Request) backend.Result {
			return statusResult(form.StatusDone)
		}}
		page = newPage()
	})

	Describe("Load", func() {
		It("randomizes a fresh session and mirrors every persisted key", func() {
			st, err := page.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Status).To(Equal(form.StatusRandomized))

			snap, _ := store.Snapshot()
			Expect(snap).NotTo(HaveKey(form.StatusKey))
			for _, id := range form.PersistedFields(form.FullLayout()) {
				v, _ := st.Value(id)
				Expect(snap).To(HaveKeyWithValue(id.Key(), v))
			}
		})

		It("restores the values of the last finished run", func() {
			_, err := page.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(page.SetField(form.Fak(2, form.PartB), "0.15")).To(Succeed())
			_, err = page.Submit(context.Background())
			Expect(err).NotTo(HaveOccurred())
			submitted := page.State()

			reloaded := newPage()
			st, err := reloaded.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Status).To(Equal(form.StatusDone))
			Expect(st.Faks).To(Equal(submitted.Faks))
			Expect(st.Equations).To(Equal(submitted.Equations))
			Expect(st.Initial).To(Equal(submitted.Initial))
			Expect(st.Faks[1].B).To(Equal("0.15"))
		})

		It("randomizes again after a failed run", func() {
			submitter.respond = func(form.Request) backend.Result { return statusResult("Ошибка") }
			_, _ = page.Load()
			_, _ = page.Submit(context.Background())

			st, err := newPage().Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Status).To(Equal(form.StatusRandomized))
		})
	})

	Describe("Submit", func() {
		It("sends the documented defaults when nothing was filled in", func() {
			_, err := page.Submit(context.Background())
			Expect(err).NotTo(HaveOccurred())

			req := submitter.last()
			Expect(req.Faks).To(HaveLen(form.FakCount))
			for _, f := range req.Faks {
				Expect(f).To(Equal([2]float64{0.5, 0.0}))
			}
			Expect(req.Equations).To(HaveLen(form.EquationCount))
			for _, e := range req.Equations {
				Expect(e).To(Equal([2]float64{0.3, 0.5}))
			}
			Expect(req.InitialEquations).To(HaveLen(form.InitialCount))
			Expect(req.InitialEquations).To(HaveEach(0.5))
			Expect(req.Restrictions).To(HaveEach(1.0))

			snap, _ := store.Snapshot()
			Expect(snap).To(HaveKeyWithValue("fak1_a", "0.5"))
			Expect(snap).To(HaveKeyWithValue("f18_b", "0.5"))
			Expect(snap).To(HaveKeyWithValue("init-eq-8", "0.5"))
			Expect(snap).NotTo(HaveKey("restrictions-1"))
		})

		It("navigates to the results page once, only after the delay", func() {
			res, err := page.Submit(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Done()).To(BeTrue())

			Expect(sched.calls).To(HaveLen(1))
			Expect(sched.calls[0].delay).To(Equal(time.Second))
			Expect(nav.Paths()).To(BeEmpty())

			sched.fire()
			Expect(nav.Paths()).To(Equal([]string{"/graphic"}))
			Expect(page.State().Status).To(Equal(form.StatusDone))
			v, _, _ := store.Get(form.StatusKey)
			Expect(v).To(Equal(form.StatusDone))
		})

		It("shows any other status verbatim and stays on the page", func() {
			submitter.respond = func(form.Request) backend.Result { return statusResult("Ошибка") }
			_, err := page.Submit(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(sched.calls).To(BeEmpty())
			Expect(page.State().Status).To(Equal("Ошибка"))
			v, _, _ := store.Get(form.StatusKey)
			Expect(v).To(Equal("Ошибка"))
		})

		It("writes a failure status when the service cannot be reached", func() {
			submitter.respond = func(form.Request) backend.Result {
				return backend.Result{
					Kind:   backend.KindNetwork,
					Status: form.StatusFailed + ": сервер недоступен",
					Err:    errors.New("connection refused"),
				}
			}
			res, err := page.Submit(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Kind).To(Equal(backend.KindNetwork))
			Expect(page.State().Status).To(HavePrefix(form.StatusFailed))
			Expect(sched.calls).To(BeEmpty())
		})

		It("marks the status pending while the request is in flight", func() {
			inFlight := make(chan struct{})
			release := make(chan struct{})
			submitter.respond = func(form.Request) backend.Result {
				close(inFlight)
				<-release
				return statusResult(form.StatusDone)
			}

			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				_, _ = page.Submit(context.Background())
				close(done)
			}()

			Eventually(inFlight).Should(BeClosed())
			Expect(page.State().Status).To(Equal(form.StatusPending))
			close(release)
			Eventually(done).Should(BeClosed())
			Expect(page.State().Status).To(Equal(form.StatusDone))
		})

		It("lets the last response to arrive win for overlapping submissions", func() {
			first := make(chan struct{})
			var calls int
			var mu sync.Mutex
			submitter.respond = func(form.Request) backend.Result {
				mu.Lock()
				calls++
				n := calls
				mu.Unlock()
				if n == 1 {
					<-first
					return statusResult("Ошибка")
				}
				return statusResult(form.StatusDone)
			}

			slow := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				_, _ = page.Submit(context.Background())
				close(slow)
			}()
			Eventually(func() int {
				mu.Lock()
				defer mu.Unlock()
				return calls
			}).Should(Equal(1))

			_, err := page.Submit(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(page.State().Status).To(Equal(form.StatusDone))

			close(first)
			Eventually(slow).Should(BeClosed())
			Expect(page.State().Status).To(Equal("Ошибка"))
			v, _, _ := store.Get(form.StatusKey)
			Expect(v).To(Equal("Ошибка"))
		})
	})

	Describe("Resume", func() {
		It("keeps stored values even when the last run did not finish", func() {
			Expect(store.Set("fak3_a", "0.42")).To(Succeed())
			Expect(store.Set(form.StatusKey, "Ошибка")).To(Succeed())

			st, err := page.Resume()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Faks[2].A).To(Equal("0.42"))
			Expect(st.Faks[2].B).To(BeEmpty())
			Expect(st.Status).To(Equal("Ошибка"))
			Expect(page.State()).To(Equal(st))
		})
	})

	Describe("ApplyPreset", func() {
		It("fills the reference coefficients", func() {
			st, err := page.ApplyPreset("document")
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Faks[3]).To(Equal(form.Pair{A: "0.51", B: "0.46"}))
		})

		It("rejects unknown presets without touching the form", func() {
			_, err := page.ApplyPreset("nope")
			Expect(err).To(MatchError(form.ErrUnknownPreset))
			Expect(page.State().Faks[0].A).To(BeEmpty())
		})
	})
})
