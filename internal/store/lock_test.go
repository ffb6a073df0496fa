//go:build unix

package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestWriteLocker_AcquireRelease(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, dirName), 0755); err != nil {
		t.Fatal(err)
	}

	locker := newWriteLocker(dir)
	if err := locker.acquire(500 * time.Millisecond); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, dirName, lockFileName))
	if err != nil {
		t.Fatalf("read lock file: %v", err)
	}
	if len(data) == 0 {
		t.Error("lock file should contain holder info")
	}

	if err := locker.release(); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestWriteLocker_Timeout(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, dirName), 0755)

	holder := newWriteLocker(dir)
	if err := holder.acquire(time.Second); err != nil {
		t.Fatal(err)
	}
	defer holder.release()

	other := newWriteLocker(dir)
	if err := other.acquire(30 * time.Millisecond); err == nil {
		other.release()
		t.Fatal("expected timeout while lock is held")
	}
}

// Two handles on the same directory stand in for two processes sharing a queue.
func TestConcurrentEnqueueLosesNothing(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	a.lockTimeout = 10 * time.Second
	b.lockTimeout = 10 * time.Second

	const perWriter = 10
	var wg sync.WaitGroup
	for _, s := range []*Store{a, b} {
		wg.Add(1)
		go func(s *Store) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if err := s.Enqueue(report("X", float64(i))); err != nil {
					t.Errorf("enqueue: %v", err)
					return
				}
			}
		}(s)
	}
	wg.Wait()

	if n, _ := a.Count(); n != 2*perWriter {
		t.Fatalf("count: got %d, want %d", n, 2*perWriter)
	}
}
