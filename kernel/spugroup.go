package kernel

// GroupState is an SPU thread group's lifecycle state (spec.md §4.6).
type GroupState uint8

const (
	GroupInitialized GroupState = iota
	GroupReady
	GroupRunning
	GroupSuspended
	GroupDestroyed
)

// SpuGroup is a co-scheduled set of SPU threads sharing a priority and a
// lifecycle (spec.md §4.6). The group state is bookkeeping only: the
// scheduler does not start, stop or suspend member threads as a group.
type SpuGroup struct {
	Priority int32
	State    GroupState
	Members  []ThreadID
}

// NewSpuGroup creates an empty, Initialized group at the given priority.
func NewSpuGroup(priority int32) *SpuGroup {
	return &SpuGroup{Priority: priority, State: GroupInitialized}
}

// AddThread attaches an SPU thread to the group before it starts
// running. Adding to a Running or Suspended group is rejected: membership
// is fixed once the group has been started (spec.md §4.6).
func (g *SpuGroup) AddThread(id ThreadID) error {
	if g.State == GroupRunning || g.State == GroupSuspended {
		return &BadAttributeError{Detail: "cannot add thread to a started group"}
	}
	for _, m := range g.Members {
		if m == id {
			return &AlreadyExistsError{}
		}
	}
	g.Members = append(g.Members, id)
	return nil
}

// Start transitions an Initialized/Ready group to Running and returns its
// member list; it does not change the members' scheduling state.
func (g *SpuGroup) Start() ([]ThreadID, error) {
	if g.State != GroupInitialized && g.State != GroupReady {
		return nil, &BadAttributeError{Detail: "group not in a startable state"}
	}
	g.State = GroupRunning
	return g.Members, nil
}

// Suspend and Resume toggle the whole group's runnability together.
func (g *SpuGroup) Suspend() error {
	if g.State != GroupRunning {
		return &BadAttributeError{Detail: "group not running"}
	}
	g.State = GroupSuspended
	return nil
}

func (g *SpuGroup) Resume() error {
	if g.State != GroupSuspended {
		return &BadAttributeError{Detail: "group not suspended"}
	}
	g.State = GroupRunning
	return nil
}

// Destroy marks the group torn down; it is a BadAttributeError to
// destroy a group still Running.
func (g *SpuGroup) Destroy() error {
	if g.State == GroupRunning {
		return &BadAttributeError{Detail: "cannot destroy a running group"}
	}
	g.State = GroupDestroyed
	return nil
}
