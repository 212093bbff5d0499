package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	commentsPartName    = "word/comments.xml"
	contentTypesName    = "[Content_Types].xml"
	documentRelsName    = "word/_rels/document.xml.rels"
	commentsContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.comments+xml"
	commentsRelType     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments"
	wordprocessingmlNS  = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

var (
	commentIDRegexp = regexp.MustCompile(`w:id="(\d+)"`)
	relIDRegexp     = regexp.MustCompile(`Id="rId(\d+)"`)
)

// nextCommentID returns the first free comment ID in an existing
// comments.xml part, or 0 for a document without comments. IDs of the
// comments we add must continue after the existing maximum so both sets stay
// visible in Word.
func nextCommentID(existing []byte) int {
	maxID := -1
	for _, m := range commentIDRegexp.FindAllSubmatch(existing, -1) {
		if id, err := strconv.Atoi(string(m[1])); err == nil && id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

// renderComment builds one <w:comment> element. The body is a single
// paragraph; Word derives the comment bubble from author, initials and date.
func renderComment(id int, author, initials, date, body string) string {
	return fmt.Sprintf(
		`<w:comment w:id="%d" w:author="%s" w:date="%s" w:initials="%s">`+
			`<w:p><w:r><w:rPr><w:rStyle w:val="CommentReference"/></w:rPr><w:annotationRef/></w:r>`+
			`<w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p></w:comment>`,
		id, xmlEscape(author), xmlEscape(date), xmlEscape(initials), xmlEscape(body))
}

// appendComments splices rendered <w:comment> elements into an existing
// comments part, or creates the part from scratch.
func appendComments(existing []byte, rendered []string) ([]byte, error) {
	if len(existing) == 0 {
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
		b.WriteString(`<w:comments xmlns:w="` + wordprocessingmlNS + `">`)
		for _, c := range rendered {
			b.WriteString(c)
		}
		b.WriteString(`</w:comments>`)
		return []byte(b.String()), nil
	}

	idx := bytes.LastIndex(existing, []byte("</w:comments>"))
	if idx < 0 {
		return nil, fmt.Errorf("existing %s has no closing comments element", commentsPartName)
	}
	var b bytes.Buffer
	b.Write(existing[:idx])
	for _, c := range rendered {
		b.WriteString(c)
	}
	b.Write(existing[idx:])
	return b.Bytes(), nil
}

// ensureContentType registers the comments part in [Content_Types].xml if it
// is not declared yet. Returns the (possibly updated) part and whether it
// changed.
func ensureContentType(ct []byte) ([]byte, bool, error) {
	if bytes.Contains(ct, []byte(`PartName="/`+commentsPartName+`"`)) {
		return ct, false, nil
	}
	idx := bytes.LastIndex(ct, []byte("</Types>"))
	if idx < 0 {
		return nil, false, fmt.Errorf("%s has no closing Types element", contentTypesName)
	}
	override := `<Override PartName="/` + commentsPartName + `" ContentType="` + commentsContentType + `"/>`
	var b bytes.Buffer
	b.Write(ct[:idx])
	b.WriteString(override)
	b.Write(ct[idx:])
	return b.Bytes(), true, nil
}

// ensureRelationship registers the document-to-comments relationship,
// assigning the next free rId. A missing rels part is created, though every
// Word-produced package carries one.
func ensureRelationship(rels []byte) ([]byte, bool, error) {
	if bytes.Contains(rels, []byte(commentsRelType)) {
		return rels, false, nil
	}
	if len(rels) == 0 {
		content := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Type="` + commentsRelType + `" Target="comments.xml"/>` +
			`</Relationships>`
		return []byte(content), true, nil
	}

	maxID := 0
	for _, m := range relIDRegexp.FindAllSubmatch(rels, -1) {
		if id, err := strconv.Atoi(string(m[1])); err == nil && id > maxID {
			maxID = id
		}
	}
	idx := bytes.LastIndex(rels, []byte("</Relationships>"))
	if idx < 0 {
		return nil, false, fmt.Errorf("%s has no closing Relationships element", documentRelsName)
	}
	rel := fmt.Sprintf(`<Relationship Id="rId%d" Type="%s" Target="comments.xml"/>`, maxID+1, commentsRelType)
	var b bytes.Buffer
	b.Write(rels[:idx])
	b.WriteString(rel)
	b.Write(rels[idx:])
	return b.Bytes(), true, nil
}

// authorInitials derives comment initials from the configured author name,
// e.g. "Max Mustermann" -> "MM".
func authorInitials(author string) string {
	var b strings.Builder
	for _, field := range strings.Fields(author) {
		for _, r := range field {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
	}
	if b.Len() == 0 {
		return "KT"
	}
	return b.String()
}

func xmlEscape(s string) string {
	var b bytes.Buffer
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}
