package session

import (
	"fmt"

	"github.com/spigell/career-assistant/internal/tools"
)

// Restore rebuilds a conversation from persisted turns and actions without
// re-recording them. Accepted profile updates are replayed onto the owned
// profile and match scores refill the window; the profile score stays unknown
// so the next gate check recomputes it.
func (c *Context) Restore(turns []Turn, actions []Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.chat = append(c.chat, turns...)
	for _, a := range actions {
		if a.Tool == tools.UpdateProfile && a.Success {
			if _, err := tools.ApplyProfileUpdate(c.profile, a.Args); err != nil {
				return fmt.Errorf("replay profile update: %w", err)
			}
		}
		c.actions = append(c.actions, a)
		c.applyLocked(a)
	}
	c.scoreKnown = false
	c.scoreStale = false
	return nil
}
