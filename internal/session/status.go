package session

import "github.com/waymark-dev/waymark/internal/track"

// PhaseStatus is a derived per-phase progress view.
type PhaseStatus struct {
	Name     string `json:"name"`
	Done     int    `json:"done"`
	Total    int    `json:"total"`
	Complete bool   `json:"complete"`
}

// Summary is the read-only workflow status consumed by the status
// command, the TUI board, and the MCP status tool.
type Summary struct {
	PlanName  string                `json:"plan_name"`
	PlanID    string                `json:"plan_id"`
	SessionID string                `json:"session_id"`
	Active    string                `json:"active,omitempty"`
	Ready     []string              `json:"ready,omitempty"`
	Done      int                   `json:"done"`
	Total     int                   `json:"total"`
	Changes   int                   `json:"changes"`
	Finalized bool                  `json:"finalized"`
	Phases    []PhaseStatus         `json:"phases"`
	Items     []track.ChecklistItem `json:"items"`
}

// Status assembles the current workflow summary. Phase completion is
// recomputed here, never read from storage.
func (s *Session) Status() Summary {
	doc := s.Document()
	sum := Summary{
		PlanName:  s.Plan.Name,
		PlanID:    s.Plan.ID,
		SessionID: s.ws.SessionID,
		Active:    doc.Active(),
		Ready:     s.Tracker.Ready(),
		Total:     len(doc.Items),
		Changes:   len(doc.Ledger),
		Finalized: doc.Finalized(),
		Items:     append([]track.ChecklistItem(nil), doc.Items...),
	}
	for _, it := range doc.Items {
		if it.Status == track.StatusComplete {
			sum.Done++
		}
	}
	for _, ph := range s.Plan.Phases {
		ps := PhaseStatus{Name: ph.Name, Total: len(ph.Tasks), Complete: doc.PhaseComplete(ph)}
		for _, t := range ph.Tasks {
			if doc.Status(t.ID) == track.StatusComplete {
				ps.Done++
			}
		}
		sum.Phases = append(sum.Phases, ps)
	}
	return sum
}
