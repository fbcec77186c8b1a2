package pipeline

import (
	"errors"
	"sort"
	"sync"

	"github.com/dgallion1/lsearchy/internal/document"
)

// ErrSealed is returned when inserting into a ResultSet after Seal.
var ErrSealed = errors.New("result set is sealed")

// Finding is one normalized address seen in a document.
type Finding struct {
	Address      string
	MatchesQuery bool
}

// Snapshot is the immutable outcome of a scan.
type Snapshot struct {
	Addresses []string          `json:"addresses"`
	Records   []document.Record `json:"records"`
	Counters  Counters          `json:"counters"`
}

// Counters summarize what a scan touched.
type Counters struct {
	Discovered  int            `json:"discovered"`
	Processed   int            `json:"processed"`
	Failed      int            `json:"failed"`
	Unsupported int            `json:"unsupported"`
	FailedBy    map[string]int `json:"failed_by,omitempty"`
}

type recordKey struct {
	address string
	path    string
}

// ResultSet accumulates addresses and per-document records from concurrent
// workers. The zero value is not usable; call NewResultSet.
type ResultSet struct {
	mu        sync.Mutex
	seen      map[string]struct{}
	recorded  map[recordKey]struct{}
	addresses []string
	records   []document.Record
	counters  Counters
	sealed    bool
}

func NewResultSet() *ResultSet {
	return &ResultSet{
		seen:     make(map[string]struct{}),
		recorded: make(map[recordKey]struct{}),
		counters: Counters{FailedBy: make(map[string]int)},
	}
}

// Insert adds one address found in doc. It reports whether the address was
// new to the set. A record is appended once per (address, document) pair.
func (r *ResultSet) Insert(addr string, doc document.Document, matches bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return false, ErrSealed
	}
	return r.insertLocked(addr, doc, matches), nil
}

// InsertDocument adds all findings of one document under a single lock and
// returns the findings whose address was new to the set, in finding order.
func (r *ResultSet) InsertDocument(doc document.Document, findings []Finding) ([]Finding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return nil, ErrSealed
	}
	var fresh []Finding
	for _, f := range findings {
		if r.insertLocked(f.Address, doc, f.MatchesQuery) {
			fresh = append(fresh, f)
		}
	}
	return fresh, nil
}

func (r *ResultSet) insertLocked(addr string, doc document.Document, matches bool) bool {
	_, known := r.seen[addr]
	if !known {
		r.seen[addr] = struct{}{}
		r.addresses = append(r.addresses, addr)
	}
	key := recordKey{address: addr, path: doc.Path}
	if _, dup := r.recorded[key]; !dup {
		r.recorded[key] = struct{}{}
		r.records = append(r.records, document.Record{
			Address:      addr,
			Document:     doc,
			MatchesQuery: matches,
		})
	}
	return !known
}

// countDiscovered, countProcessed and countFailure are bookkeeping used by the engine.
func (r *ResultSet) countDiscovered(n int) {
	r.mu.Lock()
	r.counters.Discovered += n
	r.mu.Unlock()
}

func (r *ResultSet) countProcessed() {
	r.mu.Lock()
	r.counters.Processed++
	r.mu.Unlock()
}

func (r *ResultSet) countUnsupported() {
	r.mu.Lock()
	r.counters.Unsupported++
	r.mu.Unlock()
}

func (r *ResultSet) countFailure(kind string) {
	r.mu.Lock()
	r.counters.Failed++
	r.counters.FailedBy[kind]++
	r.mu.Unlock()
}

// Len returns the number of distinct addresses.
func (r *ResultSet) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.addresses)
}

// Seal stops further inserts and returns a copy of the contents with
// addresses sorted. Records keep insertion order. Sealing twice returns the
// same contents.
func (r *ResultSet) Seal() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true

	addrs := make([]string, len(r.addresses))
	copy(addrs, r.addresses)
	sort.Strings(addrs)

	recs := make([]document.Record, len(r.records))
	copy(recs, r.records)

	counters := r.counters
	counters.FailedBy = make(map[string]int, len(r.counters.FailedBy))
	for k, v := range r.counters.FailedBy {
		counters.FailedBy[k] = v
	}

	return Snapshot{Addresses: addrs, Records: recs, Counters: counters}
}
