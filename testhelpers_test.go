package cifx

import (
	"sync"
	"testing"
)

// fakeConnector is a Connector test double that records every transmitted
// frame instead of writing to a real socket.
type fakeConnector struct {
	mu  sync.Mutex
	out []TransportHeader
	payloads [][]byte

	m     *Marshaller
	index int
}

func (f *fakeConnector) bind(m *Marshaller, index int) { f.m = m; f.index = index }

func (f *fakeConnector) Transmit(buf *Buffer) error {
	f.mu.Lock()
	f.out = append(f.out, buf.Header)
	payload := append([]byte(nil), buf.Payload[:buf.UsedLength]...)
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()
	f.m.TxComplete(f.index, buf)
	return nil
}

func (f *fakeConnector) Deinit() {}

func (f *fakeConnector) last() (TransportHeader, []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.out) == 0 {
		return TransportHeader{}, nil
	}
	return f.out[len(f.out)-1], f.payloads[len(f.payloads)-1]
}

func (f *fakeConnector) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.out)
}

// newTestMarshaller builds a Marshaller with a fakeDriver and one connector
// registered against a fakeConnector, returning both for assertions.
func newTestMarshaller(t *testing.T) (*Marshaller, *fakeConnector, int) {
	return newTestMarshallerWithDriver(t, newFakeDriver())
}

// newTestMarshallerWithDriver is newTestMarshaller for callers that need a
// Driver exposing a particular capability interface.
func newTestMarshallerWithDriver(t *testing.T, d Driver) (*Marshaller, *fakeConnector, int) {
	m, err := NewMarshaller(MarshallerParams{Driver: d})
	if err != nil {
		t.Fatalf("NewMarshaller: %v", err)
	}
	fc := &fakeConnector{}
	idx, err := m.RegisterConnector(ConnectorParams{
		Conn: fc, RxCount: 4, RxSize: 256, TxCount: 4, TxSize: 256, FrameTimeoutMs: 2000,
	})
	if err != nil {
		t.Fatalf("RegisterConnector: %v", err)
	}
	return m, fc, idx
}
