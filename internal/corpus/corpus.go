package corpus

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/RoaringBitmap/roaring"
	"github.com/spf13/cast"

	"github.com/agentic-research/facet/internal/frame"
)

// ErrFrozen is returned when an entry is added after Freeze.
var ErrFrozen = errors.New("corpus is frozen")

// EntryID is a dense internal identifier assigned in insertion order.
type EntryID = uint32

// Entry is one text record of a dataset.
type Entry struct {
	ID      EntryID
	PKey    string
	AgeDays int
	Text    string
}

// TokenInfo is the occurrence metadata the text processor yields per token.
type TokenInfo struct {
	Dep string // dependency role (dobj, pobj, ROOT, appos, ...)
	POS string // part of speech
	Tag string // fine-grained tag
}

// TokenOccurrence pairs a token string with its metadata, in extraction
// order. Order matters: the category builder's tie-breaks are stable in
// first-seen order.
type TokenOccurrence struct {
	Token string
	Info  TokenInfo
}

// Processor extracts token occurrences from raw text. The production
// implementation wraps an external NLP engine; RuleProcessor is the
// deterministic built-in.
type Processor interface {
	Process(text string, id EntryID) []TokenOccurrence
}

// TokenEntry is one indexed token occurrence.
type TokenEntry struct {
	Entry EntryID
	Age   int // age in weeks
	Dep   string
	POS   string
	Tag   string
	Token string
}

// Corpus indexes parsed text entries by token, dependency role and
// recency bucket. Entries are append-only during construction and the
// corpus is frozen before any model is built over it.
type Corpus struct {
	processor Processor

	idsByAge map[int]*roaring.Bitmap // age in weeks -> entry ids

	pkeyByID map[EntryID]string
	idByPKey map[string]EntryID

	tokenEntries map[string][]TokenEntry
	tokensByID   map[EntryID][]string
	textByID     map[EntryID]string

	minAgeWeeks int
	maxAgeWeeks int

	frozen bool
}

// New returns an empty corpus fed by the given processor.
func New(p Processor) *Corpus {
	return &Corpus{
		processor:    p,
		idsByAge:     make(map[int]*roaring.Bitmap),
		pkeyByID:     make(map[EntryID]string),
		idByPKey:     make(map[string]EntryID),
		tokenEntries: make(map[string][]TokenEntry),
		tokensByID:   make(map[EntryID][]string),
		textByID:     make(map[EntryID]string),
		minAgeWeeks:  520000,
		maxAgeWeeks:  -1,
	}
}

// AddEntry processes and indexes one entry.
func (c *Corpus) AddEntry(e Entry) error {
	if c.frozen {
		return ErrFrozen
	}

	ageWeeks := e.AgeDays / 7

	bm, ok := c.idsByAge[ageWeeks]
	if !ok {
		bm = roaring.New()
		c.idsByAge[ageWeeks] = bm
	}
	bm.Add(e.ID)

	if ageWeeks > c.maxAgeWeeks {
		c.maxAgeWeeks = ageWeeks
	}
	if ageWeeks < c.minAgeWeeks {
		c.minAgeWeeks = ageWeeks
	}

	c.pkeyByID[e.ID] = e.PKey
	c.idByPKey[e.PKey] = e.ID
	c.textByID[e.ID] = e.Text

	for _, occ := range c.processor.Process(e.Text, e.ID) {
		c.tokenEntries[occ.Token] = append(c.tokenEntries[occ.Token], TokenEntry{
			Entry: e.ID,
			Age:   ageWeeks,
			Dep:   occ.Info.Dep,
			POS:   occ.Info.POS,
			Tag:   occ.Info.Tag,
			Token: occ.Token,
		})
		c.tokensByID[e.ID] = append(c.tokensByID[e.ID], occ.Token)
	}
	return nil
}

// Freeze marks the corpus immutable. Model building requires a frozen
// corpus so it never interleaves with mutation.
func (c *Corpus) Freeze() { c.frozen = true }

// Frozen reports whether the corpus accepts no more entries.
func (c *Corpus) Frozen() bool { return c.frozen }

// MinAgeWeeks returns the youngest entry age seen, in weeks.
func (c *Corpus) MinAgeWeeks() int { return c.minAgeWeeks }

// MaxAgeWeeks returns the oldest entry age seen, in weeks.
func (c *Corpus) MaxAgeWeeks() int { return c.maxAgeWeeks }

// Len returns the number of entries.
func (c *Corpus) Len() int { return len(c.textByID) }

// IDsByAge returns the entry ids recorded for an age (in weeks).
func (c *Corpus) IDsByAge(ageWeeks int) *roaring.Bitmap {
	return c.idsByAge[ageWeeks]
}

// TokensFor returns the token strings of an entry, in extraction order.
func (c *Corpus) TokensFor(id EntryID) []string { return c.tokensByID[id] }

// Occurrences returns the indexed occurrences of a token string.
func (c *Corpus) Occurrences(token string) []TokenEntry { return c.tokenEntries[token] }

// PKeyFor maps an internal id back to its dataset primary key.
func (c *Corpus) PKeyFor(id EntryID) (string, bool) {
	pk, ok := c.pkeyByID[id]
	return pk, ok
}

// FromFrame builds a corpus from a frame's primary-key, text and age
// columns. Entry ids are assigned in row order.
func FromFrame(f *frame.Frame, pkeyCol, textCol, ageCol string, p Processor) (*Corpus, error) {
	for _, col := range []string{pkeyCol, textCol, ageCol} {
		if !f.HasColumn(col) {
			return nil, fmt.Errorf("corpus: frame has no column %q", col)
		}
	}

	c := New(p)
	start := time.Now()
	for i, row := range f.Rows {
		age, err := cast.ToIntE(row[ageCol])
		if err != nil {
			return nil, fmt.Errorf("corpus: row %d: bad age %v: %w", i, row[ageCol], err)
		}
		entry := Entry{
			ID:      EntryID(i),
			PKey:    frame.String(row[pkeyCol]),
			AgeDays: age,
			Text:    frame.String(row[textCol]),
		}
		if err := c.AddEntry(entry); err != nil {
			return nil, err
		}
	}
	log.Printf("corpus: processed %d rows in %.1f sec", f.Len(), time.Since(start).Seconds())
	return c, nil
}
