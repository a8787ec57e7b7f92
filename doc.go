// Package deferloop provides a deterministic, single-threaded deferred task
// scheduler, modelling the callback ordering of a JavaScript-style event
// loop: microtasks (process.nextTick), timers (setTimeout), immediates
// (setImmediate) and I/O completion callbacks.
//
// # Execution Model
//
// [Scheduler.Run] executes the synchronous program body, then repeats turns
// until every queue is empty. Each turn visits the macrotask phases in a
// fixed order:
//  1. I/O completion callbacks ([Scheduler.ScheduleIOCompletion], [Scheduler.RequestIO])
//  2. Timers ([Scheduler.ScheduleTimer]), earliest virtual fire time first
//  3. Immediates ([Scheduler.ScheduleImmediate])
//
// Every task, the synchronous body included, is followed by a full drain of
// the microtask queue ([Scheduler.ScheduleMicrotask]), before any other task
// runs. Microtasks scheduled during the drain are run by the same drain.
//
// Each phase visit runs a snapshot: the tasks queued when the visit began.
// Work scheduled into the phase being visited waits for the next turn.
//
// Time is virtual. The clock only moves when no I/O or immediate work is
// queued and no timer is due, at which point it jumps to the earliest timer.
// Nothing ever sleeps.
//
// # Markers
//
// The observable output of a program is its ordered sequence of execution
// markers, emitted via [Scheduler.Mark] to a [Tracer], such as [Trace].
//
// # Errors
//
// A callback that returns an error, or panics, halts the loop. [Scheduler.Run]
// returns a [*TaskError] identifying the task, and every remaining task is
// discarded. Panics are wrapped in [PanicError].
//
// # Usage
//
//	trace := deferloop.NewTrace(os.Stdout)
//	s, err := deferloop.New(deferloop.WithTracer(trace))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = s.Run(context.Background(), func() error {
//	    s.Mark("start")
//	    _, _ = s.ScheduleTimer("timeout", 0, func() error {
//	        s.Mark("timeout")
//	        return nil
//	    })
//	    _, _ = s.ScheduleMicrotask("tick", func() error {
//	        s.Mark("tick")
//	        return nil
//	    })
//	    s.Mark("end")
//	    return nil
//	})
//	// prints start, end, tick, timeout
package deferloop
