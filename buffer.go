package cifx

import "sync"

// BufferType names one of the four typed free-lists a connector maintains
// (§4.1). It is fixed at allocation time and must not change until release.
type BufferType int

const (
	BufRx BufferType = iota
	BufTx
	BufAck
	BufKeepAlive
)

// KeepAlivePayloadSize is sizeof(KeepAlivePayload): a single 32-bit ComID.
const KeepAlivePayloadSize = 4

// Buffer carries a transport header, a payload area, and bookkeeping used
// while the frame travels from ingress through dispatch to egress. A Buffer
// is owned by exactly one of: its free-list, a connector's current-Rx slot,
// the request queue, or the transmit pipeline (§3.2).
type Buffer struct {
	typ      BufferType
	capacity int

	Header     TransportHeader
	Payload    []byte // len(Payload) == capacity; use UsedLength for the valid prefix
	UsedLength int
	SendOffset int

	// Connector is the index of the owning connector, filled in by the pool
	// that allocated this buffer. Dispatchers use it to route replies back to
	// the connector that asked for them.
	Connector int

	next *Buffer // free-list intrusive link
}

// Type returns the buffer's allocated type.
func (b *Buffer) Type() BufferType { return b.typ }

// Capacity returns the buffer's fixed payload capacity.
func (b *Buffer) Capacity() int { return b.capacity }

// reset clears used-length, send-offset and zeroes the header, as required
// on every acquire.
func (b *Buffer) reset() {
	b.UsedLength = 0
	b.SendOffset = 0
	b.Header = TransportHeader{}
}

type freeList struct {
	head *Buffer
}

func (f *freeList) push(b *Buffer) {
	b.next = f.head
	f.head = b
}

func (f *freeList) pop() *Buffer {
	b := f.head
	if b == nil {
		return nil
	}
	f.head = b.next
	b.next = nil
	return b
}

// BufferPoolParams parameterises BufferPool construction (§4.1).
type BufferPoolParams struct {
	RxCount int
	RxSize  int
	TxCount int
	TxSize  int
}

// BufferPool is a per-connector set of four typed free-lists with O(1)
// acquire/release under a single mutex, matching the locking granularity the
// reference gives the whole pool (§4.1, §5).
type BufferPool struct {
	mu    sync.Mutex
	lists [4]freeList

	connector      int
	rxSize, txSize int
}

// NewBufferPool allocates the fixed pool for one connector: RxCount Rx
// buffers of RxSize, TxCount Tx buffers of TxSize, RxCount+TxCount+2 Ack
// buffers (header-only), and one KeepAlive buffer.
func NewBufferPool(connector int, p BufferPoolParams) *BufferPool {
	bp := &BufferPool{connector: connector, rxSize: p.RxSize, txSize: p.TxSize}

	for i := 0; i < p.RxCount; i++ {
		bp.lists[BufRx].push(&Buffer{typ: BufRx, capacity: p.RxSize, Payload: make([]byte, p.RxSize), Connector: connector})
	}
	for i := 0; i < p.TxCount; i++ {
		bp.lists[BufTx].push(&Buffer{typ: BufTx, capacity: p.TxSize, Payload: make([]byte, p.TxSize), Connector: connector})
	}
	ackCount := p.RxCount + p.TxCount + 2
	for i := 0; i < ackCount; i++ {
		bp.lists[BufAck].push(&Buffer{typ: BufAck, capacity: 0, Connector: connector})
	}
	bp.lists[BufKeepAlive].push(&Buffer{typ: BufKeepAlive, capacity: KeepAlivePayloadSize, Payload: make([]byte, KeepAlivePayloadSize), Connector: connector})

	return bp
}

// Acquire pops a buffer off the free-list for typ. It returns
// (nil, ErrPoolExhausted) if the list is empty.
func (bp *BufferPool) Acquire(typ BufferType) (*Buffer, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	b := bp.lists[typ].pop()
	if b == nil {
		return nil, ErrPoolExhausted
	}
	b.reset()
	return b, nil
}

// Release pushes b back onto the free-list matching its allocated type. A
// buffer whose type tag names none of the four lists, or that was allocated
// by another connector's pool, is refused with ErrWrongFreeList rather than
// corrupting this pool's lists.
func (bp *BufferPool) Release(b *Buffer) error {
	if b == nil {
		return nil
	}
	if b.typ < BufRx || b.typ > BufKeepAlive || b.Connector != bp.connector {
		return ErrWrongFreeList
	}
	bp.mu.Lock()
	defer bp.mu.Unlock()

	b.reset()
	bp.lists[b.typ].push(b)
	return nil
}

// Counts returns the number of buffers currently sitting on each free-list,
// for tests asserting buffer-pool conservation (§8).
func (bp *BufferPool) Counts() (rx, tx, ack, keepAlive int) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	count := func(t BufferType) int {
		n := 0
		for b := bp.lists[t].head; b != nil; b = b.next {
			n++
		}
		return n
	}
	return count(BufRx), count(BufTx), count(BufAck), count(BufKeepAlive)
}

// rxCapacity returns the configured Rx buffer capacity, reported in the
// QueryServer admin reply's buffer_size field (§4.6).
func (bp *BufferPool) rxCapacity() int { return bp.rxSize }
