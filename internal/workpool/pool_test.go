package workpool

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestRunVisitsEveryIndexOnce(t *testing.T) {
	p := New(4)
	defer p.Close()

	const n = 1000
	hits := make([]int32, n)
	p.Run(n, func(i int) {
		atomic.AddInt32(&hits[i], 1)
	})
	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d ran %d times", i, h)
		}
	}
}

func TestRunFromSeveralGoroutines(t *testing.T) {
	p := New(3)
	defer p.Close()

	var total atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Run(50, func(int) { total.Add(1) })
		}()
	}
	wg.Wait()
	if total.Load() != 400 {
		t.Errorf("total = %d", total.Load())
	}
}

func TestNilAndClosedPoolsRunInline(t *testing.T) {
	var nilPool *Pool
	sum := 0
	nilPool.Run(4, func(i int) { sum += i })
	if sum != 6 {
		t.Errorf("nil pool sum = %d", sum)
	}

	p := New(2)
	p.Close()
	p.Close()
	sum = 0
	p.Run(3, func(i int) { sum += i })
	if sum != 3 {
		t.Errorf("closed pool sum = %d", sum)
	}
	if nilPool.Workers() != 1 || p.Workers() != 2 {
		t.Error("worker counts wrong")
	}
}
