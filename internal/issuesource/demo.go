package issuesource

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

var (
	demoEmployees = []string{"Alice Moreno", "Bilal Khan", "Chen Wei", "Dana Osei", "Emeka Obi", "Freya Lund"}
	demoCustomers = []string{"Acme Corp", "Globex", "Initech", "Umbrella", "Hooli", "Stark Industries", "Wayne Enterprises"}
	demoSubjects  = []string{"printer", "VPN", "payroll export", "checkout page", "email relay", "badge reader", "build server"}
	demoProblems  = []string{"is offline", "keeps timing out", "returns errors", "is slow", "rejects logins", "needs a restart"}
	demoStatuses  = []model.Status{model.StatusCritical, model.StatusWarning, model.StatusOk, model.StatusDisabled, model.StatusUnknown}
)

// DemoConfig controls the demo generator.
type DemoConfig struct {
	// Initial is the number of issues emitted immediately.
	Initial int
	// Interval between further issues; zero emits only the initial batch.
	Interval time.Duration
	// Seed makes output reproducible when non-zero.
	Seed uint64
	// Now anchors generated submission times. Defaults to time.Now.
	Now func() time.Time
}

// DemoSource generates plausible issues for trying the browser without a feed.
type DemoSource struct {
	ch       chan model.IngestEnvelope
	cancel   context.CancelFunc
	rng      *rand.Rand
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

// NewDemoSource starts the generator.
func NewDemoSource(ctx context.Context, conf DemoConfig) *DemoSource {
	seed := conf.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	now := conf.Now
	if now == nil {
		now = time.Now
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &DemoSource{
		ch:     make(chan model.IngestEnvelope, max(conf.Initial, 1)),
		cancel: cancel,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:    now,
		done:   make(chan struct{}),
	}
	go s.run(ctx, conf.Initial, conf.Interval)
	return s
}

func (s *DemoSource) run(ctx context.Context, initial int, interval time.Duration) {
	defer close(s.done)
	defer close(s.ch)

	for i := 0; i < initial; i++ {
		if !s.emit(ctx) {
			return
		}
	}
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.emit(ctx) {
				return
			}
		}
	}
}

func (s *DemoSource) emit(ctx context.Context) bool {
	line, err := json.Marshal(s.Generate())
	if err != nil {
		return false
	}
	select {
	case s.ch <- model.IngestEnvelope{Source: s.Name(), Line: string(line)}:
		return true
	case <-ctx.Done():
		return false
	}
}

// Generate builds one random issue. Roughly one in twenty lacks a customer
// to exercise malformed-record handling downstream.
func (s *DemoSource) Generate() model.Issue {
	submitted := s.now().Add(-time.Duration(s.rng.IntN(30*24)) * time.Hour).UTC().Truncate(time.Second)
	issue := model.Issue{
		ID:          uuid.NewString(),
		Submitted:   submitted,
		Status:      demoStatuses[s.rng.IntN(len(demoStatuses))],
		Active:      s.rng.IntN(3) != 0,
		Employee:    &model.Person{Name: pick(s.rng, demoEmployees)},
		Description: fmt.Sprintf("%s %s", pick(s.rng, demoSubjects), pick(s.rng, demoProblems)),
		Source:      s.Name(),
	}
	if s.rng.IntN(20) != 0 {
		issue.Customer = &model.Person{Name: pick(s.rng, demoCustomers)}
	}
	if !issue.Active {
		closed := submitted.Add(time.Duration(1+s.rng.IntN(72)) * time.Hour)
		issue.Closed = &closed
	}
	return issue
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.IntN(len(values))]
}

func (s *DemoSource) Envelopes() <-chan model.IngestEnvelope { return s.ch }
func (s *DemoSource) Name() string                           { return "demo" }

// Stop ends generation and waits for the generator goroutine.
func (s *DemoSource) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		<-s.done
	})
}
