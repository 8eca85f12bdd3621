package sensor

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Faultbox/gyrosphere/internal/attitude"
	"github.com/Faultbox/gyrosphere/pkg/math"
)

// manualProvider delivers samples only when the test emits them.
type manualProvider struct {
	mu           sync.Mutex
	missing      map[Kind]bool
	subs         map[Kind]func(Sample)
	subscribed   int
	unsubscribed int
	failOn       Kind
	fail         error
}

func newManualProvider(missing ...Kind) *manualProvider {
	p := &manualProvider{
		missing: make(map[Kind]bool),
		subs:    make(map[Kind]func(Sample)),
		failOn:  -1,
	}
	for _, k := range missing {
		p.missing[k] = true
	}
	return p
}

func (p *manualProvider) Has(kind Kind) bool { return !p.missing[kind] }

func (p *manualProvider) Subscribe(kind Kind, fn func(Sample)) error {
	if kind == p.failOn {
		return p.fail
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs[kind] = fn
	p.subscribed++
	return nil
}

func (p *manualProvider) Unsubscribe(kind Kind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.subs[kind]; ok {
		delete(p.subs, kind)
		p.unsubscribed++
	}
}

func (p *manualProvider) emit(kind Kind, v math.Vec3) {
	p.mu.Lock()
	fn := p.subs[kind]
	p.mu.Unlock()
	if fn != nil {
		fn(Sample{Kind: kind, Values: v, Timestamp: time.Now()})
	}
}

func (p *manualProvider) active(kind Kind) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.subs[kind]
	return ok
}

var (
	testGravity  = math.Vec3{X: 1, Y: 2, Z: 9}
	testMagnetic = math.Vec3{X: 5, Y: 20, Z: -30}
)

func TestGravityOnlyNeverEstimates(t *testing.T) {
	p := newManualProvider()
	s := NewSource(p)

	calls := 0
	s.SetListener(ListenerFunc(func(math.Mat4, attitude.Orientation) { calls++ }))
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		p.emit(KindGravity, testGravity)
	}

	if calls != 0 {
		t.Errorf("expected no estimates from gravity alone, got %d", calls)
	}
	if s.rotation != math.Identity() {
		t.Errorf("expected rotation unchanged, got %v", s.rotation)
	}
}

func TestEstimatePublishedToListener(t *testing.T) {
	p := newManualProvider()
	s := NewSource(p)

	var got math.Mat4
	var gotOrientation attitude.Orientation
	calls := 0
	s.SetListener(ListenerFunc(func(m math.Mat4, o attitude.Orientation) {
		got, gotOrientation = m, o
		calls++
	}))
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	p.emit(KindMagnetic, testMagnetic)
	if calls != 0 {
		t.Fatal("expected no estimate before gravity arrives")
	}
	p.emit(KindGravity, testGravity)

	want, wantOrientation, _ := attitude.Estimate(&testGravity, &testMagnetic, false)
	if calls != 1 {
		t.Fatalf("expected one estimate, got %d", calls)
	}
	if got != want || gotOrientation != wantOrientation {
		t.Errorf("listener got %v %+v, want %v %+v", got, gotOrientation, want, wantOrientation)
	}
	if s.rotation != want || s.LastOrientation() != wantOrientation {
		t.Error("expected the stored rotation and LastOrientation to match the last estimate")
	}

	// Each later sample re-estimates with the other buffered value
	p.emit(KindMagnetic, testMagnetic)
	if calls != 2 {
		t.Errorf("expected a second estimate, got %d", calls)
	}
}

func TestAxisInversionChangesEstimate(t *testing.T) {
	p := newManualProvider()
	s := NewSource(p)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	p.emit(KindGravity, testGravity)
	p.emit(KindMagnetic, testMagnetic)
	plain := s.rotation

	s.SetAxisInversion(true)
	if !s.AxisInversion() {
		t.Fatal("expected inversion enabled")
	}
	p.emit(KindMagnetic, testMagnetic)

	if s.rotation.ApproxEqual(plain, 1e-4) {
		t.Error("expected axis inversion to change the rotation")
	}
}

func TestStartResetsRotation(t *testing.T) {
	p := newManualProvider()
	s := NewSource(p)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	p.emit(KindGravity, testGravity)
	p.emit(KindMagnetic, testMagnetic)
	if s.rotation == math.Identity() {
		t.Fatal("expected a non-identity rotation")
	}

	s.Stop()
	if err := s.Start(); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if s.rotation != math.Identity() {
		t.Errorf("expected identity after restart, got %v", s.rotation)
	}
}

func TestStartTwiceSubscribesOnce(t *testing.T) {
	p := newManualProvider()
	s := NewSource(p)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if p.subscribed != 2 {
		t.Errorf("expected 2 subscriptions, got %d", p.subscribed)
	}
}

func TestStopUnsubscribes(t *testing.T) {
	p := newManualProvider()
	s := NewSource(p)

	// Not started: nothing to do
	s.Stop()
	if p.unsubscribed != 0 {
		t.Errorf("expected no unsubscriptions before Start, got %d", p.unsubscribed)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s.Stop()
	s.Stop()

	if p.active(KindGravity) || p.active(KindMagnetic) {
		t.Error("expected both kinds unsubscribed")
	}
	if p.unsubscribed != 2 {
		t.Errorf("expected 2 unsubscriptions, got %d", p.unsubscribed)
	}
}

func TestUnavailableKindSkipped(t *testing.T) {
	p := newManualProvider(KindMagnetic)
	s := NewSource(p)

	if err := s.Start(); err != nil {
		t.Fatalf("expected degraded start to succeed, got %v", err)
	}
	if !p.active(KindGravity) {
		t.Error("expected gravity subscribed")
	}
	if p.active(KindMagnetic) {
		t.Error("expected missing magnetometer not subscribed")
	}
}

func TestStartSubscribeError(t *testing.T) {
	p := newManualProvider()
	p.failOn = KindMagnetic
	p.fail = errors.New("device busy")
	s := NewSource(p)

	err := s.Start()
	if !errors.Is(err, p.fail) {
		t.Fatalf("expected wrapped subscribe error, got %v", err)
	}
	if p.active(KindGravity) {
		t.Error("expected gravity unsubscribed after failed start")
	}
}

func TestSourceWithSim(t *testing.T) {
	sim := NewSim(fastSimConfig())
	s := NewSource(sim)

	got := make(chan math.Mat4, 1)
	s.SetListener(ListenerFunc(func(m math.Mat4, _ attitude.Orientation) {
		select {
		case got <- m:
		default:
		}
	}))
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	select {
	case m := <-got:
		up := m.Column(2)
		if l := up.Length(); l < 0.999 || l > 1.001 {
			t.Errorf("expected unit up column, got length %v", l)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no estimate from the simulated device")
	}
}
