package client

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/emersion/go-message"

	imap "github.com/mailflow-dev/imapengine"
)

// BuildFetchItems renders a FetchOptions into the parenthesized FETCH item
// list the wire protocol expects, e.g. "(FLAGS UID BODY.PEEK[])".
func BuildFetchItems(opts *imap.FetchOptions) string {
	if opts == nil {
		return "(FLAGS)"
	}

	var items []string
	if opts.Envelope {
		items = append(items, "ENVELOPE")
	}
	if opts.BodyStructure {
		items = append(items, "BODYSTRUCTURE")
	}
	if opts.Flags {
		items = append(items, "FLAGS")
	}
	if opts.InternalDate {
		items = append(items, "INTERNALDATE")
	}
	if opts.RFC822Size {
		items = append(items, "RFC822.SIZE")
	}
	if opts.UID {
		items = append(items, "UID")
	}
	if opts.ModSeq {
		items = append(items, "MODSEQ")
	}
	if opts.SaveDate {
		items = append(items, "SAVEDATE")
	}
	if opts.EmailID {
		items = append(items, "EMAILID")
	}
	if opts.ThreadID {
		items = append(items, "THREADID")
	}
	if opts.Preview {
		if opts.PreviewLazy {
			items = append(items, "PREVIEW (LAZY)")
		} else {
			items = append(items, "PREVIEW")
		}
	}
	for _, bs := range opts.BodySection {
		items = append(items, bodySectionItem(bs))
	}
	for _, bs := range opts.BinarySection {
		items = append(items, binarySectionItem(bs))
	}
	for _, parts := range opts.BinarySizeSection {
		items = append(items, "BINARY.SIZE["+joinParts(parts)+"]")
	}

	if len(items) == 0 {
		items = []string{"FLAGS"}
	}
	return "(" + strings.Join(items, " ") + ")"
}

func joinParts(parts []int) string {
	strs := make([]string, len(parts))
	for i, p := range parts {
		strs[i] = strconv.Itoa(p)
	}
	return strings.Join(strs, ".")
}

func bodySectionItem(bs *imap.FetchItemBodySection) string {
	name := "BODY"
	if bs.Peek {
		name += ".PEEK"
	}
	var spec strings.Builder
	if len(bs.Part) > 0 {
		spec.WriteString(joinParts(bs.Part))
	}
	if bs.Specifier != "" {
		if spec.Len() > 0 {
			spec.WriteByte('.')
		}
		spec.WriteString(bs.Specifier)
		if len(bs.Fields) > 0 {
			if bs.NotFields {
				spec.WriteString(".NOT")
			}
			spec.WriteString(" (" + strings.Join(bs.Fields, " ") + ")")
		}
	}
	item := name + "[" + spec.String() + "]"
	if bs.Partial != nil {
		item += fmt.Sprintf("<%d.%d>", bs.Partial.Offset, bs.Partial.Count)
	}
	return item
}

func binarySectionItem(bs *imap.FetchItemBinarySection) string {
	name := "BINARY"
	if bs.Peek {
		name += ".PEEK"
	}
	item := name + "[" + joinParts(bs.Part) + "]"
	if bs.Partial != nil {
		item += fmt.Sprintf("<%d.%d>", bs.Partial.Offset, bs.Partial.Count)
	}
	return item
}

// DecodeBodyLiteral parses a FETCH BODY[] literal as a MIME message and
// returns its header and a reader over the (possibly transfer-encoded)
// body, handing the decoding work to the same message parser MIME-aware
// callers already depend on rather than re-implementing RFC 2045 here.
func DecodeBodyLiteral(literal []byte) (message.Header, io.Reader, error) {
	entity, err := message.Read(strings.NewReader(string(literal)))
	if err != nil && !message.IsUnknownCharset(err) {
		return message.Header{}, nil, imap.ParseError("decoding body literal: %v", err)
	}
	if entity == nil {
		return message.Header{}, nil, imap.ParseError("decoding body literal: empty entity")
	}
	return entity.Header, entity.Body, nil
}
