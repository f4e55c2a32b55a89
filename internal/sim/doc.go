// Package sim implements the Peers agent-based model of peer production.
//
// Users and pages carry an opinion in [0, 1]. Users open editing sessions at
// a constant daily rate; each session is a Poisson number of edits spread
// over the following hours. An edit picks a page with probability
// proportional to its number of edits. When user and page opinions are
// closer than the confidence threshold the edit succeeds and both opinions
// move towards each other; otherwise the page may still be rolled back
// towards the user's opinion. Users with many failures leave sooner. New
// users and new pages arrive at constant daily rates.
//
// The model is simulated in continuous time: the next event is drawn from the
// total rate of the four event kinds (session, user stop, new user, new page)
// and edits are kept in a queue ordered by time.
package sim
