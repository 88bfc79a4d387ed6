package variant

// Event is a single watch notification. The set of implementations is closed.
type Event interface {
	// EventPath returns the absolute path the event refers to.
	EventPath() string
	isEvent()
}

// UpdateEvent reports that the entity at Path was created or modified.
type UpdateEvent struct {
	Path string
}

// RemoveEvent reports that the entity at Path was deleted or renamed away.
// Its former kind is unknown.
type RemoveEvent struct {
	Path string
}

// OtherEvent carries notifications the reconciler does not act on, such as
// permission changes.
type OtherEvent struct {
	Path string
	Op   string
}

func (e UpdateEvent) EventPath() string { return e.Path }
func (e RemoveEvent) EventPath() string { return e.Path }
func (e OtherEvent) EventPath() string  { return e.Path }

func (UpdateEvent) isEvent() {}
func (RemoveEvent) isEvent() {}
func (OtherEvent) isEvent()  {}
