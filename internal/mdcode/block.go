package mdcode

// Block is a code block recognised by a [Scanner].
type Block struct {
	Lang    string
	Code    string
	Offset  int // byte offset of Code within the document
	Line    int // 1-based line of the first line of Code
	Options Options
	Comment string
}

type Blocks []*Block
