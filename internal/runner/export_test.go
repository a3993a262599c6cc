package runner

import "time"

func CleanupOldSessions(m *SessionManager, now time.Time) {
	m.cleanupOldSessions(now)
}
