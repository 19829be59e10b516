package sources

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sudorandom/dc-globe/pkg/globe"
	"github.com/sudorandom/dc-globe/pkg/utils"
)

type scriptedFetcher struct {
	results [][]globe.Facility
	errs    []error
	calls   int
}

func (f *scriptedFetcher) Fetch(ctx context.Context) ([]globe.Facility, error) {
	i := min(f.calls, len(f.errs)-1)
	f.calls++
	if f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return f.results[i], nil
}

func openSnapshots(t *testing.T) *utils.SnapshotStore {
	t.Helper()
	store, err := utils.OpenSnapshotStore(filepath.Join(t.TempDir(), "snap"))
	if err != nil {
		t.Fatalf("OpenSnapshotStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

var (
	dsA = []globe.Facility{{ID: "a", Region: "US,Ohio", TotalNodes: 1}}
	dsB = []globe.Facility{{ID: "b", Region: "FR,Paris", TotalNodes: 2}}
)

func TestFeedOnceFallsBackToSnapshot(t *testing.T) {
	store := openSnapshots(t)
	boom := errors.New("offline")

	feed := NewFeed(&scriptedFetcher{results: [][]globe.Facility{dsA, nil}, errs: []error{nil, boom}}, store, 0)

	got, fromSnap, err := feed.Once(context.Background())
	if err != nil || fromSnap || len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("first Once = %v %v %v", got, fromSnap, err)
	}
	got, fromSnap, err = feed.Once(context.Background())
	if err != nil || !fromSnap || len(got) != 1 || got[0] != dsA[0] {
		t.Errorf("offline Once = %v %v %v, want snapshot", got, fromSnap, err)
	}
}

func TestFeedOnceNoSnapshot(t *testing.T) {
	boom := errors.New("offline")
	for _, store := range []Snapshots{nil, openSnapshots(t)} {
		feed := NewFeed(&scriptedFetcher{errs: []error{boom}}, store, 0)
		if _, _, err := feed.Once(context.Background()); !errors.Is(err, boom) {
			t.Errorf("err = %v, want fetch error", err)
		}
	}
}

func TestFeedRunKeepsNewest(t *testing.T) {
	src := &scriptedFetcher{
		results: [][]globe.Facility{dsA, dsB},
		errs:    []error{nil, nil},
	}
	feed := NewFeed(src, nil, time.Millisecond)
	out := make(chan []globe.Facility, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		feed.Run(ctx, out)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-out:
			if got[0].ID == "b" {
				cancel()
				<-done
				return
			}
		case <-deadline:
			cancel()
			t.Fatal("refresh never delivered the newer dataset")
		}
	}
}

func TestFeedRunSingleShot(t *testing.T) {
	feed := NewFeed(&scriptedFetcher{results: [][]globe.Facility{dsA}, errs: []error{nil}}, nil, 0)
	out := make(chan []globe.Facility, 1)
	feed.Run(context.Background(), out)

	select {
	case got := <-out:
		if got[0].ID != "a" {
			t.Errorf("delivered %v", got)
		}
	default:
		t.Fatal("nothing delivered")
	}
}

func TestDeliverReplacesPending(t *testing.T) {
	out := make(chan int, 1)
	deliver(out, 1)
	deliver(out, 2)
	if got := <-out; got != 2 {
		t.Errorf("got %d, want newest value 2", got)
	}
}
