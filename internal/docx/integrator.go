package docx

import (
	"archive/zip"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/m2ix4i/korrekturtool/internal/core"
)

// Anchor pairs a resolved match with the comment body to attach at its span.
type Anchor struct {
	Match   core.MatchResult
	Comment core.FormattedComment
}

// IntegrationReport counts per-comment outcomes of one integration run.
type IntegrationReport struct {
	Attempted int
	Succeeded int
	Failed    int
}

// Integrator writes matched suggestions into a DOCX package as native Word
// review comments. One bad anchor never fails the whole document: the comment
// is skipped and counted. Only terminal IO failures (re-zip, disk) abort with
// a *core.IntegrationError.
type Integrator struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewIntegrator creates an Integrator.
func NewIntegrator(logger *slog.Logger) *Integrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Integrator{logger: logger, now: time.Now}
}

// interiorMarker is a comment boundary that falls inside a text segment and
// requires splitting the run at decoded offset k.
type interiorMarker struct {
	k     int
	xml   string
	order int
}

// edit is a byte-level splice into word/document.xml: replace [start,end)
// with text. Insertions have start == end.
type edit struct {
	start int
	end   int
	text  string
}

// Integrate anchors the given comments in document order and writes the
// resulting package to outputPath. The input file is never mutated. With no
// anchors the package is copied through byte for byte.
func (it *Integrator) Integrate(doc *Document, anchors []Anchor, outputPath string) (*IntegrationReport, error) {
	report := &IntegrationReport{Attempted: len(anchors)}

	if len(anchors) == 0 {
		if err := copyFile(doc.Path, outputPath); err != nil {
			return report, &core.IntegrationError{Op: "copy", Err: err}
		}
		return report, nil
	}

	existingComments, contentTypes, rels, err := it.readParts(doc.Path)
	if err != nil {
		return report, &core.IntegrationError{Op: "read package parts", Err: err}
	}

	id := nextCommentID(existingComments)
	date := it.now().UTC().Format("2006-01-02T15:04:05Z")

	var (
		rendered      []string
		interiorBySeg = make(map[int][]interiorMarker)
		insertsAt     = make(map[int][]string)
		insertOrder   []int
		order         int
	)

	addInsert := func(pos int, xml string) {
		if _, seen := insertsAt[pos]; !seen {
			insertOrder = append(insertOrder, pos)
		}
		insertsAt[pos] = append(insertsAt[pos], xml)
	}

	for _, anchor := range anchors {
		span := anchor.Match.Span
		covering := it.coveringFor(doc, span)
		if covering == nil {
			report.Failed++
			it.logger.Warn("comment anchor has no run coverage, skipping",
				"span_start", span.Start,
				"span_end", span.End,
				"category", anchor.Match.Suggestion.Category,
			)
			continue
		}

		first, last := covering[0], covering[len(covering)-1]
		rangeStart := fmt.Sprintf(`<w:commentRangeStart w:id="%d"/>`, id)
		rangeEnd := fmt.Sprintf(
			`<w:commentRangeEnd w:id="%d"/><w:r><w:rPr><w:rStyle w:val="CommentReference"/></w:rPr><w:commentReference w:id="%d"/></w:r>`,
			id, id)

		if span.Start <= first.seg.docStart {
			addInsert(first.seg.runStart, rangeStart)
		} else {
			interiorBySeg[first.idx] = append(interiorBySeg[first.idx], interiorMarker{
				k: span.Start - first.seg.docStart, xml: rangeStart, order: order,
			})
		}
		order++

		if span.End >= last.seg.docEnd {
			addInsert(last.seg.runEnd, rangeEnd)
		} else {
			interiorBySeg[last.idx] = append(interiorBySeg[last.idx], interiorMarker{
				k: span.End - last.seg.docStart, xml: rangeEnd, order: order,
			})
		}
		order++

		rendered = append(rendered, renderComment(
			id, anchor.Comment.Author, authorInitials(anchor.Comment.Author), date, anchor.Comment.Text))
		report.Succeeded++
		id++
	}

	if report.Succeeded == 0 {
		if err := copyFile(doc.Path, outputPath); err != nil {
			return report, &core.IntegrationError{Op: "copy", Err: err}
		}
		return report, nil
	}

	edits := it.buildEdits(doc, interiorBySeg, insertsAt, insertOrder)
	newDocXML := applyEdits(doc.docXML, edits)

	commentsXML, err := appendComments(existingComments, rendered)
	if err != nil {
		return report, &core.IntegrationError{Op: "build comments part", Err: err}
	}

	replaced := map[string][]byte{
		documentPartName: newDocXML,
		commentsPartName: commentsXML,
	}
	if ct, changed, err := ensureContentType(contentTypes); err != nil {
		return report, &core.IntegrationError{Op: "register content type", Err: err}
	} else if changed {
		replaced[contentTypesName] = ct
	}
	if r, changed, err := ensureRelationship(rels); err != nil {
		return report, &core.IntegrationError{Op: "register relationship", Err: err}
	} else if changed {
		replaced[documentRelsName] = r
	}

	if err := writePackage(doc.Path, outputPath, replaced); err != nil {
		return report, &core.IntegrationError{Op: "rezip", Err: err}
	}

	it.logger.Info("comments integrated",
		"attempted", report.Attempted,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"output", outputPath,
	)
	return report, nil
}

type indexedSegment struct {
	idx int
	seg segment
}

// coveringFor returns the segments overlapping span with their indices, or
// nil when the span touches no run text.
func (it *Integrator) coveringFor(doc *Document, span core.Span) []indexedSegment {
	var covering []indexedSegment
	for i, seg := range doc.segments {
		if seg.docStart < span.End && span.Start < seg.docEnd {
			covering = append(covering, indexedSegment{idx: i, seg: seg})
		}
	}
	return covering
}

// buildEdits turns planned markers into byte-level edits. Interior markers in
// the same segment are merged into one rebuilt replacement so overlapping
// splices cannot occur; boundary insertions at the same byte position are
// concatenated in anchor order.
func (it *Integrator) buildEdits(doc *Document, interiorBySeg map[int][]interiorMarker, insertsAt map[int][]string, insertOrder []int) []edit {
	var edits []edit

	for segIdx, markers := range interiorBySeg {
		seg := doc.segments[segIdx]
		sort.SliceStable(markers, func(i, j int) bool {
			if markers[i].k != markers[j].k {
				return markers[i].k < markers[j].k
			}
			return markers[i].order < markers[j].order
		})

		segText := doc.Text[seg.docStart:seg.docEnd]
		reopen := "<w:r>" + seg.runProps + `<w:t xml:space="preserve">`

		// The splice starts at the opening <w:t> tag: every fragment,
		// including the first, gets xml:space="preserve" so leading or
		// trailing spaces around a split survive strict consumers.
		var b strings.Builder
		b.WriteString(`<w:t xml:space="preserve">`)
		last := 0
		for _, m := range markers {
			b.WriteString(xmlEscape(segText[last:m.k]))
			b.WriteString(`</w:t></w:r>`)
			b.WriteString(m.xml)
			b.WriteString(reopen)
			last = m.k
		}
		b.WriteString(xmlEscape(segText[last:]))

		edits = append(edits, edit{start: seg.tagStart, end: seg.rawEnd, text: b.String()})
	}

	for _, pos := range insertOrder {
		edits = append(edits, edit{start: pos, end: pos, text: strings.Join(insertsAt[pos], "")})
	}
	return edits
}

// applyEdits splices edits into raw, applying from the back so earlier
// offsets stay valid. Edit ranges never overlap by construction.
func applyEdits(raw []byte, edits []edit) []byte {
	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })

	out := make([]byte, len(raw))
	copy(out, raw)
	for _, e := range edits {
		var b []byte
		b = append(b, out[:e.start]...)
		b = append(b, e.text...)
		b = append(b, out[e.end:]...)
		out = b
	}
	return out
}

// readParts loads the package parts the integrator may need to rewrite.
func (it *Integrator) readParts(path string) (comments, contentTypes, rels []byte, err error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reopen package: %w", err)
	}
	defer zr.Close()

	if comments, _, err = readPart(&zr.Reader, commentsPartName); err != nil {
		return nil, nil, nil, err
	}
	var ok bool
	if contentTypes, ok, err = readPart(&zr.Reader, contentTypesName); err != nil {
		return nil, nil, nil, err
	} else if !ok {
		return nil, nil, nil, fmt.Errorf("%s missing from package", contentTypesName)
	}
	if rels, _, err = readPart(&zr.Reader, documentRelsName); err != nil {
		return nil, nil, nil, err
	}
	return comments, contentTypes, rels, nil
}
