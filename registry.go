package cifx

import "sync"

// HandlerFunc processes one dequeued frame: it receives the buffer (header
// plus request payload in Payload[:UsedLength]) and must fill the reply
// payload in place, returning the number of reply bytes it produced. Any
// marshaller-level error code (§7.2) is the handler's own responsibility to
// encode into the reply payload (e.g. MarshallerHeader.Error); the registry
// itself is data-type agnostic and does not interpret payload contents.
type HandlerFunc func(buf *Buffer) (replyLen int)

// handlerDescriptor is a registry slot (§4.5): a data type, its handler and
// an opaque user pointer, modeled here as an `any` for handlers that need
// per-registration context instead of closing over it. It carries no poll
// or deinit hooks; Tick polls connectors only, never registered transports.
type handlerDescriptor struct {
	dataType DataType
	handler  HandlerFunc
	user     any
}

// TransportRegistry maps a 16-bit data-type to a handler descriptor (§4.5,
// C5). Registration and lookup are both protected by a single mutex; N is
// expected to stay small so linear lookup is fine.
type TransportRegistry struct {
	mu    sync.RWMutex
	slots []handlerDescriptor
}

func newTransportRegistry() *TransportRegistry {
	return &TransportRegistry{}
}

// Register installs a handler for dataType. It fails with
// ErrAlreadyRegistered if dataType already has one.
func (tr *TransportRegistry) Register(dataType DataType, handler HandlerFunc, user any) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	for _, s := range tr.slots {
		if s.dataType == dataType {
			return ErrAlreadyRegistered
		}
	}
	tr.slots = append(tr.slots, handlerDescriptor{dataType: dataType, handler: handler, user: user})
	return nil
}

// Unregister removes the handler for dataType, if any.
func (tr *TransportRegistry) Unregister(dataType DataType) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	for i, s := range tr.slots {
		if s.dataType == dataType {
			tr.slots = append(tr.slots[:i], tr.slots[i+1:]...)
			return
		}
	}
}

func (tr *TransportRegistry) lookup(dataType DataType) (handlerDescriptor, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	for _, s := range tr.slots {
		if s.dataType == dataType {
			return s, true
		}
	}
	return handlerDescriptor{}, false
}

// RegisteredTypes returns every registered data-type, used by QueryServer
// to advertise the server's datatype_count/ausDataTypes list (§4.6).
func (tr *TransportRegistry) RegisteredTypes() []DataType {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	out := make([]DataType, 0, len(tr.slots))
	for _, s := range tr.slots {
		out = append(out, s.dataType)
	}
	return out
}
