// Package vocab maps surface words to token ids and back.
//
// A Dict starts mutable: converting an unseen word assigns it the next id.
// After Freeze, unseen words map to the reserved unknown id instead.
package vocab

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// Reserved surface forms registered first by Build, in this order.
const (
	Unknown = "<unk>"
	SOS     = "<s>"
	EOS     = "</s>"
)

// ErrFrozen is returned when adding to a frozen Dict.
var ErrFrozen = errors.New("vocabulary is frozen")

// Dict is a bidirectional word <-> id mapping. It is safe for concurrent
// use.
type Dict struct {
	mu     sync.RWMutex
	words  []string
	ids    map[string]int
	frozen bool
	unk    int
}

// New returns an empty mutable Dict.
func New() *Dict {
	return &Dict{ids: make(map[string]int), unk: -1}
}

// Convert returns the id for word. A mutable Dict assigns new ids to unseen
// words; a frozen Dict returns the unknown id, or -1 if it has none.
func (d *Dict) Convert(word string) int {
	d.mu.RLock()
	id, ok := d.ids[word]
	frozen, unk := d.frozen, d.unk
	d.mu.RUnlock()
	if ok {
		return id
	}
	if frozen {
		return unk
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.ids[word]; ok {
		return id
	}
	if d.frozen {
		return d.unk
	}
	return d.add(word)
}

// Add registers word and returns its id. It fails on a frozen Dict.
func (d *Dict) Add(word string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.ids[word]; ok {
		return id, nil
	}
	if d.frozen {
		return 0, fmt.Errorf("add %q: %w", word, ErrFrozen)
	}
	return d.add(word), nil
}

func (d *Dict) add(word string) int {
	id := len(d.words)
	d.words = append(d.words, word)
	d.ids[word] = id
	if word == Unknown {
		d.unk = id
	}
	return id
}

// Word returns the surface form of id, or the empty string if id is out of
// range.
func (d *Dict) Word(id int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if id < 0 || id >= len(d.words) {
		return ""
	}
	return d.words[id]
}

// Contains reports whether word has an id of its own.
func (d *Dict) Contains(word string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.ids[word]
	return ok
}

// Size returns the number of words.
func (d *Dict) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.words)
}

// Freeze makes the Dict read-only.
func (d *Dict) Freeze() {
	d.mu.Lock()
	d.frozen = true
	d.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (d *Dict) Frozen() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.frozen
}

// UnknownID returns the id unseen words map to once frozen, or -1.
func (d *Dict) UnknownID() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.unk
}

// Encode converts whitespace-separated text to ids.
func (d *Dict) Encode(text string) []int {
	fields := strings.Fields(text)
	ids := make([]int, len(fields))
	for i, w := range fields {
		ids[i] = d.Convert(w)
	}
	return ids
}

// Decode joins the surface forms of ids with single spaces.
func (d *Dict) Decode(ids []int) string {
	words := make([]string, len(ids))
	for i, id := range ids {
		words[i] = d.Word(id)
	}
	return strings.Join(words, " ")
}

type fileFormat struct {
	Words  []string `json:"words"`
	Frozen bool     `json:"frozen"`
}

// Save writes the Dict as JSON.
func (d *Dict) Save(path string) error {
	d.mu.RLock()
	payload := fileFormat{Words: append([]string(nil), d.words...), Frozen: d.frozen}
	d.mu.RUnlock()

	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode vocabulary: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}

// Load reads a Dict written by Save. The result is always frozen.
func Load(path string) (*Dict, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var payload fileFormat
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}
	d := New()
	for i, w := range payload.Words {
		if _, dup := d.ids[w]; dup {
			return nil, fmt.Errorf("vocabulary %s: duplicate word %q at %d", path, w, i)
		}
		d.add(w)
	}
	d.frozen = true
	return d, nil
}

// Side selects which half of a "source ||| target" corpus line Build reads.
type Side int

const (
	SourceSide Side = iota
	TargetSide
)

func (s Side) String() string {
	if s == TargetSide {
		return "target"
	}
	return "source"
}

// ParseSide maps "source" or "target" to a Side.
func ParseSide(name string) (Side, error) {
	switch name {
	case "source", "":
		return SourceSide, nil
	case "target":
		return TargetSide, nil
	}
	return SourceSide, fmt.Errorf("unknown corpus side %q (want source or target)", name)
}

// pick returns the words of line that belong to side. A line without a
// separator is all source text.
func (s Side) pick(line string) string {
	src, tgt, found := strings.Cut(line, "|||")
	if s == TargetSide {
		if !found {
			return ""
		}
		return tgt
	}
	return src
}

// Build reads a corpus with one sentence per line and returns a frozen Dict
// holding the reserved words followed by every word on the chosen side of
// the optional "|||" separator, in first-seen order.
func Build(r io.Reader, side Side) (*Dict, error) {
	d := New()
	for _, w := range []string{Unknown, SOS, EOS} {
		d.add(w)
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		for _, w := range strings.Fields(side.pick(sc.Text())) {
			d.Convert(w)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	d.Freeze()
	return d, nil
}
