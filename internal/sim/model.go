package sim

import "container/heap"

// User is an editor.
type User struct {
	ID int

	// Opinion lies in [0, 1].
	Opinion float64

	// Edits and Successes start at the success constant so that Ratio is
	// always defined.
	Edits     float64
	Successes float64

	DailySessions float64
	HourlyEdits   float64
	SessionEdits  float64

	// Position in the simulation's user table, -1 once the user stopped.
	index int
}

// Ratio returns the fraction of successful edits.
func (u *User) Ratio() float64 { return u.Successes / u.Edits }

// Page is an article.
type Page struct {
	ID      int
	Opinion float64
	Edits   float64
}

type pendingEdit struct {
	t    float64
	seq  uint64
	user *User
}

// editQueue is a min-heap of scheduled edits.
type editQueue []pendingEdit

func (q editQueue) Len() int { return len(q) }

func (q editQueue) Less(i, j int) bool {
	if q[i].t != q[j].t {
		return q[i].t < q[j].t
	}
	return q[i].seq < q[j].seq
}

func (q editQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *editQueue) Push(x interface{}) { *q = append(*q, x.(pendingEdit)) }

func (q *editQueue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	*q = old[:n-1]
	return e
}

func (q *editQueue) push(e pendingEdit) { heap.Push(q, e) }

func (q *editQueue) pop() pendingEdit { return heap.Pop(q).(pendingEdit) }

func (q editQueue) peek() (pendingEdit, bool) {
	if len(q) == 0 {
		return pendingEdit{}, false
	}
	return q[0], true
}
