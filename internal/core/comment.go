package core

// FormattedComment is the final human-readable body of one Word review
// comment. It keeps a back-reference to the originating suggestion but does
// not own it; the comment is discarded once written into the package.
type FormattedComment struct {
	Text   string
	Author string

	Suggestion *Suggestion
}
