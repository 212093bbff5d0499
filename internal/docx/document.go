// Package docx reads and writes OOXML WordprocessingML packages. The parser
// produces a flat normalized text string together with a byte-accurate
// mapping back into word/document.xml; the integrator uses that mapping to
// anchor native Word review comments at matched text ranges.
package docx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/m2ix4i/korrekturtool/internal/core"
)

// segment is one <w:t> text node of the document body: the decoded text
// mapped into Document.Text plus its raw byte placement inside
// word/document.xml. rawStart/rawEnd delimit the character data (excluding
// the surrounding tags); tagStart is where the opening <w:t ...> tag begins,
// so a splice can rewrite the tag itself; runStart/runEnd delimit the
// enclosing <w:r> element.
type segment struct {
	docStart int
	docEnd   int
	tagStart int
	rawStart int
	rawEnd   int
	runStart int
	runEnd   int
	runProps string
	para     int
}

// Document is a parsed DOCX: the normalized full text, the paragraph blocks
// addressing it, and the run mapping the integrator needs. The text string is
// owned by the Document for the run's lifetime; chunks and suggestions hold
// offsets into it, never copies that could desync.
type Document struct {
	Path   string
	Text   string
	Blocks []core.Block

	segments []segment
	docXML   []byte
}

// Parse reads the DOCX package at path and extracts the document body in
// document order. Run texts are joined without introducing characters not
// present in the original; paragraphs are separated by a single newline that
// belongs to no block. Malformed or non-DOCX input yields a *core.ParseError.
func Parse(path string) (*Document, error) {
	raw, err := readDocumentXML(path)
	if err != nil {
		return nil, err
	}

	doc := &Document{Path: path, docXML: raw}
	if err := doc.parseBody(); err != nil {
		return nil, &core.ParseError{Path: path, Reason: "malformed word/document.xml", Err: err}
	}
	return doc, nil
}

//nolint:gocognit // token-stream walk over the body; splitting it would scatter the offset bookkeeping
func (d *Document) parseBody() error {
	dec := xml.NewDecoder(bytes.NewReader(d.docXML))

	var text strings.Builder

	var (
		inPara     bool
		paraStart  int
		paraStyle  string
		paraIsList bool
	)
	var (
		inRun       bool
		runStart    int
		runProps    string
		runFirstSeg int
	)
	var (
		inT       bool
		tTagStart int
		tRawStart int
		tDocStart int
		tText     strings.Builder
	)

	for {
		prev := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				paraStart = text.Len()
				paraStyle = ""
				paraIsList = false
			case "pStyle":
				if inPara && !inRun {
					for _, attr := range t.Attr {
						if attr.Name.Local == "val" {
							paraStyle = attr.Value
						}
					}
				}
			case "numPr":
				if inPara && !inRun {
					paraIsList = true
				}
			case "r":
				if inPara && !inT {
					inRun = true
					runStart = int(prev)
					runProps = ""
					runFirstSeg = len(d.segments)
				}
			case "rPr":
				if inRun {
					rprStart := prev
					if err := dec.Skip(); err != nil {
						return err
					}
					runProps = string(d.docXML[rprStart:dec.InputOffset()])
				}
			case "t":
				if inRun {
					inT = true
					tTagStart = int(prev)
					tRawStart = int(dec.InputOffset())
					tDocStart = text.Len()
					tText.Reset()
				}
			case "tab":
				if inRun && !inT {
					text.WriteByte('\t')
				}
			case "br", "cr":
				if inRun && !inT {
					text.WriteByte('\n')
				}
			}

		case xml.CharData:
			if inT {
				tText.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				if inT {
					inT = false
					s := tText.String()
					if s != "" {
						text.WriteString(s)
						d.segments = append(d.segments, segment{
							docStart: tDocStart,
							docEnd:   text.Len(),
							tagStart: tTagStart,
							rawStart: tRawStart,
							rawEnd:   int(prev),
							para:     len(d.Blocks),
						})
					}
				}
			case "r":
				if inRun {
					inRun = false
					runEnd := int(dec.InputOffset())
					for i := runFirstSeg; i < len(d.segments); i++ {
						d.segments[i].runStart = runStart
						d.segments[i].runEnd = runEnd
						d.segments[i].runProps = runProps
					}
				}
			case "p":
				if inPara {
					inPara = false
					d.Blocks = append(d.Blocks, core.Block{
						Index: len(d.Blocks),
						Start: paraStart,
						End:   text.Len(),
						Type:  blockType(paraStyle, paraIsList),
						Style: paraStyle,
					})
					text.WriteByte('\n')
				}
			}
		}
	}

	if len(d.Blocks) == 0 {
		return errors.New("document body contains no paragraphs")
	}
	d.Text = text.String()
	return nil
}

func blockType(style string, isList bool) core.ElementType {
	if headingLevel(style) > 0 {
		return core.ElementHeading
	}
	if isList {
		return core.ElementListItem
	}
	return core.ElementParagraph
}

// headingLevel extracts the heading level from a paragraph style name,
// covering the English and German style names Word produces. German Word
// strips the umlaut from the style ID, so both spellings occur in the wild.
// e.g. "Heading1" -> 1, "berschrift2" -> 2, "Title" -> 1.
func headingLevel(style string) int {
	lower := strings.ToLower(style)

	if lower == "title" || lower == "titel" {
		return 1
	}
	if lower == "subtitle" || lower == "untertitel" {
		return 2
	}

	for _, prefix := range []string{"heading", "überschrift", "berschrift"} {
		if strings.HasPrefix(lower, prefix) {
			rest := lower[len(prefix):]
			if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '9' {
				return int(rest[0] - '0')
			}
		}
	}
	return 0
}

// coveringSegments returns the segments whose text overlaps span, in document
// order. An empty result means the span lies entirely in text the package has
// no run for (tabs, breaks, paragraph separators).
func (d *Document) coveringSegments(span core.Span) []segment {
	var covering []segment
	for _, seg := range d.segments {
		if seg.docStart < span.End && span.Start < seg.docEnd {
			covering = append(covering, seg)
		}
	}
	return covering
}
