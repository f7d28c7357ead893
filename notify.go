package optima

// Notifier receives "rows changed in table X" events. Emission is
// synchronous and fire-and-forget: implementations must not block the
// CRUD call that raised the event. Persistence collaborators (autosave
// scheduling and the like) live entirely behind this interface.
type Notifier interface {
	Changed(table string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(table string)

func (f NotifierFunc) Changed(table string) { f(table) }

// ChannelNotifier delivers change events on a buffered channel,
// dropping events when no consumer keeps up rather than blocking the
// writer.
type ChannelNotifier struct {
	C chan string
}

// NewChannelNotifier returns a notifier with the given buffer size.
func NewChannelNotifier(size int) *ChannelNotifier {
	return &ChannelNotifier{C: make(chan string, size)}
}

func (n *ChannelNotifier) Changed(table string) {
	select {
	case n.C <- table:
	default:
	}
}
