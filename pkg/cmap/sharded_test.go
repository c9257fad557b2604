package cmap

import (
	"encoding/binary"
	"fmt"
	"sync"
	"testing"
)

type strKey string

func (k strKey) Bytes() []byte { return []byte(k) }

type intKey int

func (k intKey) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(k))
	return b[:]
}

func TestNew(t *testing.T) {
	m := New[strKey, int]()
	if m == nil {
		t.Fatal("New() returned nil")
	}
	if len(m.shards) != DefaultShardCount {
		t.Errorf("shard count = %d, want %d", len(m.shards), DefaultShardCount)
	}
}

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},
		{-1, DefaultShardCount},
		{3, DefaultShardCount},
		{1, 1},
		{2, 2},
		{8, 8},
		{64, 64},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			m := NewWithShards[strKey, int](tt.input)
			if len(m.shards) != tt.expected {
				t.Errorf("NewWithShards(%d) shard count = %d, want %d",
					tt.input, len(m.shards), tt.expected)
			}
		})
	}
}

func TestSetIfAbsentAndGet(t *testing.T) {
	m := New[strKey, int]()

	if !m.SetIfAbsent("key1", 100) {
		t.Fatal("SetIfAbsent(key1) on empty map should succeed")
	}
	if m.SetIfAbsent("key1", 200) {
		t.Error("SetIfAbsent(key1) on existing key should fail")
	}

	val, ok := m.Get("key1")
	if !ok || val != 100 {
		t.Errorf("Get(key1) = (%d, %v), want (100, true)", val, ok)
	}

	val, ok = m.Get("nonexistent")
	if ok {
		t.Errorf("Get(nonexistent) = (%d, %v), want (0, false)", val, ok)
	}
}

func TestPop(t *testing.T) {
	m := New[strKey, int]()
	m.SetIfAbsent("key1", 100)

	val, ok := m.Pop("key1")
	if !ok || val != 100 {
		t.Errorf("Pop(key1) = (%d, %v), want (100, true)", val, ok)
	}
	if m.Has("key1") {
		t.Error("key1 should not exist after Pop")
	}

	if _, ok := m.Pop("key1"); ok {
		t.Error("second Pop(key1) should report absent")
	}
}

func TestCount(t *testing.T) {
	m := New[strKey, int]()
	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0", m.Count())
	}

	m.SetIfAbsent("a", 1)
	m.SetIfAbsent("b", 2)
	m.SetIfAbsent("c", 3)
	if m.Count() != 3 {
		t.Errorf("Count() = %d, want 3", m.Count())
	}

	m.Pop("b")
	if m.Count() != 2 {
		t.Errorf("Count() = %d, want 2", m.Count())
	}
}

func TestShardDistribution(t *testing.T) {
	m := NewWithShards[intKey, int](4)
	for i := 0; i < 1000; i++ {
		m.SetIfAbsent(intKey(i), i)
	}

	for i, s := range m.shards {
		if len(s.items) == 0 {
			t.Errorf("shard %d is empty after 1000 inserts", i)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[intKey, int]()
	var wg sync.WaitGroup
	numGoroutines := 50
	numOps := 500

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				m.SetIfAbsent(intKey(base*numOps+j), j)
			}
		}(i)
	}
	wg.Wait()

	if m.Count() != numGoroutines*numOps {
		t.Errorf("Count() = %d, want %d", m.Count(), numGoroutines*numOps)
	}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				key := intKey(base*numOps + j)
				m.Get(key)
				m.Pop(key)
				m.Has(key)
			}
		}(i)
	}
	wg.Wait()

	if m.Count() != 0 {
		t.Errorf("Count() after concurrent Pop = %d, want 0", m.Count())
	}
}

func TestSetIfAbsent_SingleWinner(t *testing.T) {
	m := New[strKey, int]()
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			if m.SetIfAbsent("contended", v) {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("SetIfAbsent winners = %d, want 1", winners)
	}
}
