package sim

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"

	"github.com/peers-abm/peers/internal/randx"
)

// ctxCheckEvery is the number of events between two context checks.
const ctxCheckEvery = 4096

// Event kinds, in the order their rates are drawn from.
const (
	eventSession = iota
	eventStop
	eventNewUser
	eventNewPage
)

// Simulation holds the state of one run of the model.
type Simulation struct {
	p   Params
	rng *rand.Rand

	users []*User
	pages []*Page

	// Per-user activation and stop rates, and per-page edit counts used as
	// selection weights; they run parallel to users and pages.
	pActiv []float64
	pStop  []float64
	pPage  []float64

	activRate float64
	stopRate  float64

	queue editQueue
	seq   uint64

	nextUser int
	nextPage int

	// Edits receives one "t user page" line per edit when set.
	Edits io.Writer

	// Info receives one "t users pages" line per event when set.
	Info io.Writer
}

// New seeds the population of a simulation with p.NumUsers users and
// p.NumPages pages of random opinion.
func New(p Params) *Simulation {
	s := &Simulation{p: p, rng: randx.New(p.Seed)}
	for i := 0; i < p.NumUsers; i++ {
		s.addUser(s.rng.Float64())
	}
	for i := 0; i < p.NumPages; i++ {
		s.addPage(p.ConstPop, s.rng.Float64())
	}
	return s
}

// Users returns the active users.
func (s *Simulation) Users() []*User { return s.users }

// Pages returns the pages.
func (s *Simulation) Pages() []*Page { return s.pages }

func (s *Simulation) addUser(opinion float64) *User {
	u := &User{
		ID:            s.nextUser,
		Opinion:       opinion,
		Edits:         s.p.ConstSucc,
		Successes:     s.p.ConstSucc,
		DailySessions: s.p.DailySessions,
		HourlyEdits:   s.p.HourlyEdits,
		SessionEdits:  float64(s.p.SessionEdits),
		index:         len(s.users),
	}
	s.nextUser++
	stop := s.p.stopRate(u)
	s.users = append(s.users, u)
	s.pActiv = append(s.pActiv, u.DailySessions)
	s.pStop = append(s.pStop, stop)
	s.activRate += u.DailySessions
	s.stopRate += stop
	return u
}

func (s *Simulation) removeUser(i int) {
	u := s.users[i]
	s.activRate -= s.pActiv[i]
	s.stopRate -= s.pStop[i]
	last := len(s.users) - 1
	if i != last {
		s.users[i] = s.users[last]
		s.users[i].index = i
		s.pActiv[i] = s.pActiv[last]
		s.pStop[i] = s.pStop[last]
	}
	s.users = s.users[:last]
	s.pActiv = s.pActiv[:last]
	s.pStop = s.pStop[:last]
	u.index = -1
	if len(s.users) == 0 {
		// Avoid carrying rounding residue into an empty population.
		s.activRate, s.stopRate = 0, 0
	}
}

func (s *Simulation) addPage(edits, opinion float64) *Page {
	pg := &Page{ID: s.nextPage, Opinion: opinion, Edits: edits}
	s.nextPage++
	s.pages = append(s.pages, pg)
	s.pPage = append(s.pPage, edits)
	return pg
}

// Run advances the simulation from tstart to tstop and returns the number of
// edits performed. Edits are written to s.Edits only when output is set.
func (s *Simulation) Run(ctx context.Context, tstart, tstop float64, output bool) (int, error) {
	var edits, info *bufio.Writer
	if output && s.Edits != nil {
		edits = bufio.NewWriter(s.Edits)
		defer edits.Flush()
	}
	if s.Info != nil {
		info = bufio.NewWriter(s.Info)
		defer info.Flush()
	}

	t := tstart
	n := 0
	for step := 0; ; step++ {
		if step%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return n, err
			}
		}

		rate := s.activRate + s.stopRate + s.p.DailyUsers + s.p.DailyPages
		if rate <= 0 {
			break
		}
		dt := s.rng.ExpFloat64() / rate
		if t+dt > tstop {
			break
		}

		n += s.performEdits(t+dt, edits)

		t += dt
		switch randx.Weighted([]float64{s.activRate, s.stopRate, s.p.DailyUsers, s.p.DailyPages}, s.rng) {
		case eventSession:
			s.startSession(t)
		case eventStop:
			if i := randx.Weighted(s.pStop, s.rng); i >= 0 {
				s.removeUser(i)
			}
		case eventNewUser:
			s.addUser(s.rng.Float64())
		case eventNewPage:
			if len(s.users) > 0 {
				u := s.users[s.rng.IntN(len(s.users))]
				s.addPage(s.p.ConstPop+1, u.Opinion)
			}
		}
		if info != nil {
			fmt.Fprintf(info, "%g %d %d\n", t, len(s.users), len(s.pages))
		}
	}
	return n, nil
}

// startSession schedules an editing session of a user drawn by activity.
func (s *Simulation) startSession(t float64) {
	i := randx.Weighted(s.pActiv, s.rng)
	if i < 0 {
		return
	}
	u := s.users[i]
	s.schedule(t, u)
	k := randx.Poisson(u.SessionEdits, s.rng)
	if k == 0 || u.HourlyEdits <= 0 {
		return
	}
	tt := t
	for j := 0; j < k; j++ {
		// Inter-edit times are in hours.
		tt += s.rng.ExpFloat64() / u.HourlyEdits / 24
		s.schedule(tt, u)
	}
}

func (s *Simulation) schedule(t float64, u *User) {
	s.queue.push(pendingEdit{t: t, seq: s.seq, user: u})
	s.seq++
}

// performEdits carries out the queued edits scheduled before until and
// returns how many took place.
func (s *Simulation) performEdits(until float64, out *bufio.Writer) int {
	n := 0
	for {
		next, ok := s.queue.peek()
		if !ok || next.t >= until {
			return n
		}
		s.queue.pop()
		u := next.user
		if u.index < 0 || len(s.pages) == 0 {
			continue
		}
		j := randx.Weighted(s.pPage, s.rng)
		if j < 0 {
			continue
		}
		s.edit(u, s.pages[j], j)
		if out != nil {
			fmt.Fprintf(out, "%.12g %d %d\n", next.t, u.ID, s.pages[j].ID)
		}
		n++
	}
}

// edit applies the bounded-confidence interaction between u and the page at
// index j.
func (s *Simulation) edit(u *User, pg *Page, j int) {
	i := u.index
	s.stopRate -= s.pStop[i]

	u.Edits++
	pg.Edits++
	if math.Abs(u.Opinion-pg.Opinion) < s.p.Confidence {
		u.Successes++
		u.Opinion += s.p.Speed * (pg.Opinion - u.Opinion)
		pg.Opinion += s.p.Speed * (u.Opinion - pg.Opinion)
	} else if s.rng.Float64() < s.p.RollbackProb {
		pg.Opinion += s.p.Speed * (u.Opinion - pg.Opinion)
	}

	stop := s.p.stopRate(u)
	s.pStop[i] = stop
	s.stopRate += stop
	s.pPage[j]++
}
