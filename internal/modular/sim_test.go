package modular

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

type body struct {
	Base
	s, sd float64
	v, vd float64
	f, m  float64

	updates int
}

func (b *body) Init(*Sim) error {
	b.MakeState(&b.s, &b.sd)
	b.MakeState(&b.v, &b.vd)
	return nil
}

func (b *body) Update(*Sim) error {
	b.updates++
	b.f = 0
	b.sd = b.v
	return nil
}

func (b *body) Apply(*Sim) error {
	if b.m > 0 {
		b.vd = b.f / b.m
	} else {
		b.vd = 0
	}
	return nil
}

type spring struct {
	Base
	b0, b1 Link[*body]
	k, l0  float64
}

func (sp *spring) Init(s *Sim) error {
	b0, err := sp.b0.Get(s)
	if err != nil {
		return err
	}
	b1, err := sp.b1.Get(s)
	if err != nil {
		return err
	}
	sp.l0 = b1.s - b0.s
	return nil
}

func (sp *spring) Update(s *Sim) error {
	b0, err := sp.b0.Get(s)
	if err != nil {
		return err
	}
	b1, err := sp.b1.Get(s)
	if err != nil {
		return err
	}
	f := sp.k * (sp.l0 + b0.s - b1.s)
	b0.f -= f
	b1.f += f
	return nil
}

type loop struct {
	Base
	name  string
	other Link[*loop]
	phase Phase
}

func (l *loop) Name() string { return l.name }

func (l *loop) Init(s *Sim) error {
	if l.phase == PhaseInit {
		_, err := l.other.Get(s)
		return err
	}
	return nil
}

func (l *loop) Update(s *Sim) error {
	if l.phase == PhaseUpdate {
		_, err := l.other.Get(s)
		return err
	}
	return nil
}

type tracer struct {
	Base
	log *[]string
	tag string
}

func (tr *tracer) Link(*Sim) error     { *tr.log = append(*tr.log, tr.tag+":link"); return nil }
func (tr *tracer) Init(*Sim) error     { *tr.log = append(*tr.log, tr.tag+":init"); return nil }
func (tr *tracer) Update(*Sim) error   { *tr.log = append(*tr.log, tr.tag+":update"); return nil }
func (tr *tracer) Apply(*Sim) error    { *tr.log = append(*tr.log, tr.tag+":apply"); return nil }
func (tr *tracer) PostProp(*Sim) error { *tr.log = append(*tr.log, tr.tag+":postprop"); return nil }
func (tr *tracer) PostCalc(*Sim) error { *tr.log = append(*tr.log, tr.tag+":postcalc"); return nil }

type SimSuite struct {
	suite.Suite
}

func TestSimSuite(t *testing.T) {
	suite.Run(t, new(SimSuite))
}

func (s *SimSuite) TestLinkForcesTargetInitFirst() {
	b0 := &body{m: 1}
	b1 := &body{m: 1, s: 1}
	sp := &spring{b0: NewLink(b0), b1: NewLink(b1), k: 10}

	sim := New(sp, b0, b1)
	s.Require().NoError(sim.Start())
	s.Equal(1.0, sp.l0)
	s.Len(sim.States(), 4)
}

func (s *SimSuite) TestLinkForcesTargetUpdateFirst() {
	b0 := &body{m: 1}
	b1 := &body{m: 2, s: 1}
	sp := &spring{b0: NewLink(b0), b1: NewLink(b1), k: 10}

	// spring first: bodies must still clear their force before it is added
	sim := New(sp, b0, b1)
	s.Require().NoError(sim.Start())
	b1.s = 1.5

	s.Require().NoError(sim.Update())
	s.Require().NoError(sim.Apply())
	s.Equal(5.0, b0.f)
	s.Equal(-5.0, b1.f)
	s.Equal(5.0, b0.vd)
	s.Equal(-2.5, b1.vd)
	s.Equal(1, b0.updates)
	s.Equal(1, b1.updates)
}

func (s *SimSuite) TestUpdateOncePerSweep() {
	b := &body{m: 1}
	sim := New(b)
	for i := 0; i < 3; i++ {
		s.Require().NoError(sim.Update())
	}
	s.Equal(3, b.updates)
}

func (s *SimSuite) TestCircularUpdate() {
	a := &loop{name: "a", phase: PhaseUpdate}
	b := &loop{name: "b", phase: PhaseUpdate}
	a.other.Set(b)
	b.other.Set(a)

	sim := New(a, b)
	s.Require().NoError(sim.Start())
	err := sim.Update()
	s.Require().ErrorIs(err, ErrCircularDependency)

	var dep *DependencyError
	s.Require().True(errors.As(err, &dep))
	s.Equal("a", dep.Module)
	s.Equal(PhaseUpdate, dep.Phase)
	s.Contains(err.Error(), "module a during update")
}

func (s *SimSuite) TestCircularInit() {
	a := &loop{name: "a", phase: PhaseInit}
	b := &loop{name: "b", phase: PhaseInit}
	a.other.Set(b)
	b.other.Set(a)

	err := New(a, b).Start()
	s.Require().ErrorIs(err, ErrCircularDependency)
	var dep *DependencyError
	s.Require().ErrorAs(err, &dep)
	s.Equal(PhaseInit, dep.Phase)
}

func (s *SimSuite) TestSelfLinkInUpdate() {
	a := &loop{name: "self", phase: PhaseUpdate}
	a.other.Set(a)
	sim := New(a)
	s.ErrorIs(sim.Update(), ErrCircularDependency)
}

func (s *SimSuite) TestNilLink() {
	var l Link[*body]
	s.False(l.Bound())
	_, err := l.Get(New())
	s.ErrorIs(err, ErrNilLink)

	var nb *body
	l.Set(nb)
	s.False(l.Bound())

	l.Set(&body{})
	s.True(l.Bound())
	l.Reset()
	s.False(l.Bound())
}

func (s *SimSuite) TestLinkOutsideSchedulingPhases() {
	b := &body{}
	l := NewLink(b)
	got, err := l.Get(New(b))
	s.Require().NoError(err)
	s.Same(b, got)
	s.Zero(b.updates)
}

func (s *SimSuite) TestRunFirstOrdering() {
	var log []string
	a := &tracer{log: &log, tag: "a"}
	b := &tracer{log: &log, tag: "b"}

	sim := New(a, b)
	sim.RunFirst(b)
	s.Equal(2, sim.Len())
	s.Require().NoError(sim.Start())
	log = log[:0]
	s.Require().NoError(sim.Update())
	s.Equal([]string{"b:update", "a:update"}, log)

	c := &tracer{log: &log, tag: "c"}
	sim.RunFirst(c)
	s.Equal(3, sim.Len())
	s.Same(c, sim.Modules()[0].(*tracer))
}

func (s *SimSuite) TestStepPhaseOrder() {
	var log []string
	tr := &tracer{log: &log, tag: "m"}
	sim := New(tr)
	t := 0.0
	s.Require().NoError(NewRK2().Step(sim, &t, 0.1))

	s.Equal([]string{
		"m:link", "m:init",
		"m:update", "m:apply", "m:postprop",
		"m:update", "m:apply", "m:postprop",
		"m:postcalc",
	}, log)
	s.InDelta(0.1, t, 1e-15)
	s.Equal(PhaseIdle, sim.Phase())
}

func (s *SimSuite) TestStartLinksOnce() {
	var log []string
	tr := &tracer{log: &log, tag: "m"}
	sim := New(tr)
	s.Require().NoError(sim.Start())
	s.Require().NoError(sim.Start())
	s.Equal([]string{"m:link", "m:init"}, log)
}

func (s *SimSuite) TestModuleAddedLaterIsInitialized() {
	b0 := &body{}
	sim := New(b0)
	s.Require().NoError(sim.Start())

	b1 := &body{}
	sim.Add(b1)
	s.Require().NoError(sim.Start())
	s.Len(sim.States(), 4)
}

type lateLinker struct {
	Base
	target *body
	dep    Link[*body]
	x, xd  float64
}

func (l *lateLinker) Link(*Sim) error {
	l.dep.Set(l.target)
	return nil
}

func (l *lateLinker) Init(s *Sim) error {
	b, err := l.dep.Get(s)
	if err != nil {
		return err
	}
	l.x = b.s
	l.MakeState(&l.x, &l.xd)
	return nil
}

func (s *SimSuite) TestModuleAddedLaterIsLinked() {
	var log []string
	first := &tracer{log: &log, tag: "a"}
	b0 := &body{s: 2}
	sim := New(first, b0)
	s.Require().NoError(sim.Start())

	late := &lateLinker{target: b0}
	second := &tracer{log: &log, tag: "b"}
	sim.Add(late, second)
	s.Require().NoError(sim.Start())

	s.True(late.dep.Bound())
	s.Equal(2.0, late.x)
	s.Len(sim.States(), 3)
	s.Equal([]string{"a:link", "a:init", "b:link", "b:init"}, log)
}

func (s *SimSuite) TestPhaseString() {
	s.Equal("update", PhaseUpdate.String())
	s.Equal("postcalc", PhasePostcalc.String())
}
