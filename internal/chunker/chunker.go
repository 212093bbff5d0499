// Package chunker groups document blocks into bounded-size, context-aware
// chunks suitable for a single LLM call. Chunks split on paragraph and
// sentence boundaries, never mid-word, and carry a small overlap of trailing
// context from the previous chunk so cross-boundary suggestions stay
// coherent.
package chunker

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/m2ix4i/korrekturtool/internal/core"
)

// Chunker splits normalized document text into DocumentChunks.
type Chunker struct {
	maxChars int
	overlap  int
	logger   *slog.Logger
}

// New creates a Chunker. maxChars bounds a chunk's own span; overlap is the
// amount of trailing context prepended from the previous chunk.
func New(maxChars, overlap int, logger *slog.Logger) (*Chunker, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("max chunk size must be positive, got %d", maxChars)
	}
	if overlap < 0 || overlap >= maxChars {
		return nil, fmt.Errorf("overlap must be in [0, maxChars), got %d", overlap)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chunker{maxChars: maxChars, overlap: overlap, logger: logger}, nil
}

// Chunk splits text along the given blocks. Consecutive chunk spans are
// contiguous, non-overlapping and cover [0, len(text)) exactly; no chunk is
// empty. Headings are hard chunk boundaries: a heading never shares a chunk
// with surrounding paragraphs and never leaks into the next chunk's overlap
// prefix. A paragraph larger than maxChars is split at sentence boundaries
// with a non-fatal warning.
func (c *Chunker) Chunk(text string, blocks []core.Block) ([]core.DocumentChunk, error) {
	if len(blocks) == 0 || text == "" {
		return nil, fmt.Errorf("nothing to chunk: document has no text")
	}

	// Cut points are block ends; oversized blocks contribute internal
	// sentence-boundary cuts.
	var chunks []core.DocumentChunk
	cursor := 0 // start offset of the chunk being accumulated
	minCtx := 0 // overlap prefixes never reach back past this offset
	var (
		firstBlock core.Block
		haveBlock  bool
	)

	flush := func(end int) {
		if end <= cursor {
			return
		}
		chunks = append(chunks, c.newChunk(text, cursor, end, firstBlock, minCtx))
		cursor = end
		haveBlock = false
	}

	for _, block := range blocks {
		if !haveBlock {
			firstBlock = block
			haveBlock = true
		}

		if block.Type == core.ElementHeading {
			if block.Start > cursor {
				flush(block.Start)
				firstBlock = block
				haveBlock = true
			}
			for block.End-cursor > c.maxChars {
				flush(c.findCut(text, cursor, block.End))
				firstBlock = block
				haveBlock = true
			}
			flush(block.End)
			minCtx = block.End
			continue
		}

		blockLen := block.End - block.Start
		if blockLen > c.maxChars {
			// Emit what has accumulated before the oversized paragraph,
			// then split the paragraph itself at sentence boundaries.
			if block.Start > cursor {
				flush(block.Start)
				firstBlock = block
				haveBlock = true
			}
			c.logger.Warn("paragraph exceeds chunk size, splitting at sentence boundaries",
				"paragraph", block.Index,
				"size", blockLen,
				"max", c.maxChars,
			)
			for cursor < block.End && block.End-cursor > c.maxChars {
				cut := c.findCut(text, cursor, block.End)
				flush(cut)
				firstBlock = block
				haveBlock = true
			}
			continue
		}

		// Would this block push the chunk past the limit?
		if block.End-cursor > c.maxChars {
			flush(block.Start)
			firstBlock = block
			haveBlock = true
		}
	}
	flush(len(text))

	// The final flush runs to the end of text (trailing separator included),
	// so spans tile the document completely.
	return chunks, nil
}

func (c *Chunker) newChunk(text string, start, end int, first core.Block, minStart int) core.DocumentChunk {
	ctxStart := start - c.overlap
	if ctxStart < minStart {
		ctxStart = minStart
	}
	// Never start the overlap mid-rune or mid-word.
	for ctxStart > minStart && !utf8.RuneStart(text[ctxStart]) {
		ctxStart--
	}
	if ctxStart > 0 {
		if idx := strings.IndexFunc(text[ctxStart:start], unicode.IsSpace); idx >= 0 {
			ctxStart += idx + 1
		}
	}

	return core.DocumentChunk{
		Text:           text[ctxStart:end],
		StartOffset:    start,
		EndOffset:      end,
		OverlapChars:   start - ctxStart,
		ParagraphIndex: first.Index,
		ElementType:    first.Type,
	}
}

// findCut picks the best split position in (cursor, limit] at most maxChars
// ahead: the last sentence boundary, else the last word boundary, else a hard
// cut at a rune boundary.
func (c *Chunker) findCut(text string, cursor, limit int) int {
	window := cursor + c.maxChars
	if window > limit {
		window = limit
	}
	for window > cursor && !utf8.RuneStart(text[window-1]) {
		window--
	}
	slice := text[cursor:window]

	if cut := lastSentenceEnd(slice); cut > 0 {
		return cursor + cut
	}
	if cut := strings.LastIndexFunc(slice, unicode.IsSpace); cut > 0 {
		return cursor + cut + 1
	}
	c.logger.Warn("no sentence or word boundary found, hard-splitting", "offset", cursor)
	return window
}

// lastSentenceEnd returns the offset just past the last sentence-ending
// punctuation followed by whitespace, or 0. Common German abbreviations are
// not treated as sentence ends.
func lastSentenceEnd(s string) int {
	best := 0
	for i := 0; i < len(s)-1; i++ {
		switch s[i] {
		case '.', '!', '?':
			if !isSpaceByte(s[i+1]) {
				continue
			}
			if s[i] == '.' && isAbbreviation(s[:i+1]) {
				continue
			}
			best = i + 2
		}
	}
	if best > len(s) {
		best = len(s)
	}
	return best
}

// Single letters cover the first dot of spaced abbreviations like "z. B.".
var abbreviations = []string{"z. B", "z.B", "bzw", "ca", "d. h", "d.h", "etc", "evtl", "ggf", "u. a", "u.a", "vgl", "Nr", "S", "Abb", "Tab", "z", "u", "d"}

func isAbbreviation(prefix string) bool {
	trimmed := strings.TrimSuffix(prefix, ".")
	for _, abbr := range abbreviations {
		if !strings.HasSuffix(trimmed, abbr) {
			continue
		}
		// The abbreviation must stand alone, not be the tail of a word.
		if rest := len(trimmed) - len(abbr); rest == 0 || !isWordByte(trimmed[rest-1]) {
			return true
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b >= 0x80
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
