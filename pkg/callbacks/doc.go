// Package callbacks provides per-iteration hooks for the layout solver.
//
// [RoomShaker] is a modifier: it nudges rooms whose centers coincide, where
// the overlap and push gradients vanish and the solver would stall.
// [SnapshotWriter] and [ProgressReporter] are readers: they observe a copy of
// the variables after each outer iteration, for SVG snapshots and progress
// display respectively.
//
// Method values plug straight into the solver options:
//
//	shaker := callbacks.NewRoomShaker(m, random.New(seed))
//	opts := solver.Options{
//	    Modifiers: []solver.Modifier{shaker.Shake},
//	    Readers:   []solver.Reader{snapshots.Read},
//	}
package callbacks
