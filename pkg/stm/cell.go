package stm

import (
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
)

// CellIDPrefix is the prefix of the textual form of a CellID.
const CellIDPrefix = "cell-"

// CellID identifies a memory cell. IDs are ULIDs minted from a
// process-wide monotonic source and are never reused.
type CellID ulid.ULID

func newCellID() CellID {
	return CellID(ulid.Make())
}

// ParseCellID parses the textual form produced by CellID.String.
func ParseCellID(s string) (CellID, error) {
	if !strings.HasPrefix(s, CellIDPrefix) {
		return CellID{}, ErrInvalidCellID.WithDetails(s)
	}
	id, err := ulid.ParseStrict(strings.ToUpper(s[len(CellIDPrefix):]))
	if err != nil {
		return CellID{}, ErrInvalidCellID.WithDetails(s).WithCause(err)
	}
	return CellID(id), nil
}

// String returns cell-{ulid_lowercase}.
func (id CellID) String() string {
	return CellIDPrefix + strings.ToLower(ulid.ULID(id).String())
}

// Bytes returns the binary form of the ID.
func (id CellID) Bytes() []byte {
	return ulid.ULID(id).Bytes()
}

// IsZero reports whether id is the zero ID, which no cell ever has.
func (id CellID) IsZero() bool {
	return id == CellID{}
}

// memoryCell is the unit of shared state. The stored value is only ever
// replaced wholesale while the write lock is held.
type memoryCell struct {
	id    CellID
	mu    sync.RWMutex
	value Value
}

func newMemoryCell(v Value) *memoryCell {
	return &memoryCell{
		id:    newCellID(),
		value: v,
	}
}

// read returns a deep copy of the stored value.
func (c *memoryCell) read() Value {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyValue(c.value)
}

// write replaces the stored value. A nil value is ignored.
func (c *memoryCell) write(v Value) {
	if isNil(v) {
		return
	}
	c.mu.Lock()
	c.value = v
	c.mu.Unlock()
}

// matches compares the stored value with v without copying it.
func (c *memoryCell) matches(v Value) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return valuesEqual(c.value, v)
}
