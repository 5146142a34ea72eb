package player

// logBuffer collects engine reports and player actions for the log view.
// The backlog is bounded; old entries fall off the front.
type logBuffer struct {
	entries []logEntry
	scroll  int // offset from the tail, 0 follows new entries
}

type logEntry struct {
	text  string
	isErr bool
}

const logBacklog = 500

func (l *logBuffer) add(text string) { l.push(logEntry{text: text}) }

func (l *logBuffer) addError(text string) { l.push(logEntry{text: text, isErr: true}) }

func (l *logBuffer) push(e logEntry) {
	l.entries = append(l.entries, e)
	if len(l.entries) > logBacklog {
		l.entries = l.entries[len(l.entries)-logBacklog:]
	}
}

// scrollBy moves the window up (positive) into the backlog or back down
// toward the tail.
func (l *logBuffer) scrollBy(delta, visible int) {
	l.scroll = min(l.scroll+delta, max(len(l.entries)-visible, 0))
	l.scroll = max(l.scroll, 0)
}

// window returns the visible entries, the newest ones when not scrolled.
func (l *logBuffer) window(visible int) []logEntry {
	end := len(l.entries) - l.scroll
	start := max(end-visible, 0)
	return l.entries[start:end]
}
