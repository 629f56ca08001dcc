package hook

// Op identifies a store mutation.
type Op uint8

const (
	OpSet Op = iota + 1
	OpDelete
)

// String returns a human-readable name for the operation.
func (o Op) String() string {
	switch o {
	case OpSet:
		return "set"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// DestroyReason records why a binding was destroyed.
type DestroyReason uint8

const (
	// ReasonExplicit is a direct Destroy call.
	ReasonExplicit DestroyReason = iota + 1

	// ReasonKeyDeleted means a subscribed key was deleted from the store.
	ReasonKeyDeleted

	// ReasonOwnerReleased means the last owner of the binding went away.
	ReasonOwnerReleased

	// ReasonStoreClosed means the store was closed.
	ReasonStoreClosed
)

// String returns a human-readable name for the reason.
func (r DestroyReason) String() string {
	switch r {
	case ReasonExplicit:
		return "explicit"
	case ReasonKeyDeleted:
		return "key_deleted"
	case ReasonOwnerReleased:
		return "owner_released"
	case ReasonStoreClosed:
		return "store_closed"
	default:
		return "unknown"
	}
}

// WriteEvent describes a store write about to fan out to its subscribers.
type WriteEvent struct {
	StoreID     uint64
	Store       string
	Key         string
	Op          Op
	Subscribers int
}

// EmitEvent describes one binding emission.
type EmitEvent struct {
	BindingID uint64
	Kind      Kind
	StoreID   uint64
	Store     string

	// Skipped is true when the destination or callback was already gone.
	Skipped bool

	// Err is the *CallbackError of a failed emission.
	Err error
}

// DestroyEvent describes a binding destruction.
type DestroyEvent struct {
	BindingID uint64
	Kind      Kind
	StoreID   uint64
	Store     string
	Reason    DestroyReason
}

// BindEvent describes a newly subscribed binding.
type BindEvent struct {
	BindingID uint64
	Kind      Kind
	StoreID   uint64
	Store     string
	Keys      []string
}

// Observer receives engine diagnostics. Implementations must be cheap and
// must not write to stores.
type Observer interface {
	// OnWrite is called before a write fans out. The returned function, if
	// non-nil, is called after every subscriber has run.
	OnWrite(WriteEvent) func()

	OnEmit(EmitEvent)
	OnDestroy(DestroyEvent)
	OnBind(BindEvent)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) OnWrite(WriteEvent) func() { return nil }
func (NopObserver) OnEmit(EmitEvent)          {}
func (NopObserver) OnDestroy(DestroyEvent)    {}
func (NopObserver) OnBind(BindEvent)          {}

// MultiObserver fans diagnostics out to several observers. Nil entries are
// skipped.
func MultiObserver(observers ...Observer) Observer {
	list := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	if len(list) == 1 {
		return list[0]
	}
	return list
}

type multiObserver []Observer

func (m multiObserver) OnWrite(ev WriteEvent) func() {
	var dones []func()
	for _, o := range m {
		if done := o.OnWrite(ev); done != nil {
			dones = append(dones, done)
		}
	}
	if len(dones) == 0 {
		return nil
	}
	return func() {
		for i := len(dones) - 1; i >= 0; i-- {
			dones[i]()
		}
	}
}

func (m multiObserver) OnEmit(ev EmitEvent) {
	for _, o := range m {
		o.OnEmit(ev)
	}
}

func (m multiObserver) OnDestroy(ev DestroyEvent) {
	for _, o := range m {
		o.OnDestroy(ev)
	}
}

func (m multiObserver) OnBind(ev BindEvent) {
	for _, o := range m {
		o.OnBind(ev)
	}
}
