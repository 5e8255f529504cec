package validate

import (
	"fmt"

	"github.com/waymark-dev/waymark/internal/history"
	"github.com/waymark-dev/waymark/internal/track"
)

// Replay walks the session journal and proves the no-orphan-changes
// invariant: every change event was journaled while its task was
// between a task_start and the matching task_complete. It also
// cross-checks that the journal saw at least as many change events per
// task as the document's ledger holds.
//
// Replay is an integrity check on top of the ordered checks in Run; it
// only runs when the operator asks for it.
func Replay(events []history.Event, d *track.Document) error {
	active := ""
	counts := make(map[string]int)

	for _, ev := range events {
		switch ev.Kind {
		case history.EventTaskStart:
			if active != "" && active != ev.TaskID {
				return fmt.Errorf("replay: task %q started while %q was in progress (event #%d)", ev.TaskID, active, ev.ID)
			}
			active = ev.TaskID
		case history.EventChange, history.EventAck:
			if ev.TaskID != active {
				return fmt.Errorf("replay: change to %q recorded against task %q which was not in progress (event #%d)", ev.Path, ev.TaskID, ev.ID)
			}
			if ev.Kind == history.EventChange {
				counts[ev.TaskID]++
			}
		case history.EventTaskComplete:
			if ev.TaskID != active {
				return fmt.Errorf("replay: task %q completed without being in progress (event #%d)", ev.TaskID, ev.ID)
			}
			active = ""
		}
	}

	for _, rec := range d.Ledger {
		counts[rec.TaskID]--
	}
	for id, n := range counts {
		if n < 0 {
			return fmt.Errorf("replay: ledger holds changes for task %q the journal never saw", id)
		}
	}
	return nil
}
