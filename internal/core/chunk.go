package core

// ElementType classifies a document block by its role in the thesis.
type ElementType string

const (
	ElementParagraph ElementType = "paragraph"
	ElementHeading   ElementType = "heading"
	ElementListItem  ElementType = "list-item"
)

// Block is one body paragraph of the source document mapped into the
// normalized document text. Start and End are byte offsets; the separator
// between consecutive blocks belongs to neither of them.
type Block struct {
	Index int
	Start int
	End   int
	Type  ElementType
	Style string
}

// Text slices the block's content out of the full document text.
func (b Block) Text(full string) string { return full[b.Start:b.End] }

// DocumentChunk is a contiguous span of the normalized document text sized
// for a single LLM call. StartOffset/EndOffset delimit the chunk's own span;
// consecutive chunk spans are contiguous and together cover the document
// exactly. Text additionally carries OverlapChars bytes of trailing context
// from the previous chunk so cross-boundary suggestions stay coherent.
// Chunks are immutable after creation.
type DocumentChunk struct {
	Text         string
	StartOffset  int
	EndOffset    int
	OverlapChars int

	// ParagraphIndex is the index of the first block in the chunk.
	ParagraphIndex int
	ElementType    ElementType
}

// Span returns the chunk's own span, excluding the overlap prefix.
func (c DocumentChunk) Span() Span { return Span{Start: c.StartOffset, End: c.EndOffset} }

// SearchRegion returns the span a matcher may search for this chunk's
// suggestions: the chunk plus its overlap prefix.
func (c DocumentChunk) SearchRegion() Span {
	return Span{Start: c.StartOffset - c.OverlapChars, End: c.EndOffset}
}
