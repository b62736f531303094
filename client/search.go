package client

import (
	"fmt"
	"strconv"
	"strings"

	imap "github.com/mailflow-dev/imapengine"
)

const searchDateLayout = "02-Jan-2006"

// BuildSearchCriteria renders a SearchCriteria tree into IMAP SEARCH wire
// syntax, the inverse of what a server's SEARCH grammar accepts.
func BuildSearchCriteria(c *imap.SearchCriteria) string {
	var terms []string
	if c.SeqNum != nil && !c.SeqNum.IsEmpty() {
		terms = append(terms, c.SeqNum.String())
	}
	if c.UID != nil && !c.UID.IsEmpty() {
		terms = append(terms, "UID "+c.UID.String())
	}

	if !c.Since.IsZero() {
		terms = append(terms, "SINCE "+c.Since.Format(searchDateLayout))
	}
	if !c.Before.IsZero() {
		terms = append(terms, "BEFORE "+c.Before.Format(searchDateLayout))
	}
	if !c.SentSince.IsZero() {
		terms = append(terms, "SENTSINCE "+c.SentSince.Format(searchDateLayout))
	}
	if !c.SentBefore.IsZero() {
		terms = append(terms, "SENTBEFORE "+c.SentBefore.Format(searchDateLayout))
	}
	if !c.SentOn.IsZero() {
		terms = append(terms, "SENTON "+c.SentOn.Format(searchDateLayout))
	}
	if !c.On.IsZero() {
		terms = append(terms, "ON "+c.On.Format(searchDateLayout))
	}

	for _, h := range c.Header {
		terms = append(terms, fmt.Sprintf("HEADER %s %s", quoteArg(h.Key), quoteArg(h.Value)))
	}
	for _, b := range c.Body {
		terms = append(terms, "BODY "+quoteArg(b))
	}
	for _, t := range c.Text {
		terms = append(terms, "TEXT "+quoteArg(t))
	}

	if c.Larger > 0 {
		terms = append(terms, "LARGER "+strconv.FormatInt(c.Larger, 10))
	}
	if c.Smaller > 0 {
		terms = append(terms, "SMALLER "+strconv.FormatInt(c.Smaller, 10))
	}

	for _, f := range c.Flag {
		terms = append(terms, flagSearchTerm(f, true))
	}
	for _, f := range c.NotFlag {
		terms = append(terms, flagSearchTerm(f, false))
	}

	if c.ModSeq != nil {
		term := "MODSEQ "
		if c.ModSeq.MetadataName != "" {
			term += fmt.Sprintf("%s %s ", quoteArg(c.ModSeq.MetadataName), c.ModSeq.MetadataType)
		}
		term += strconv.FormatUint(c.ModSeq.ModSeq, 10)
		terms = append(terms, term)
	}

	for _, pair := range c.Or {
		terms = append(terms, fmt.Sprintf("OR (%s) (%s)", BuildSearchCriteria(&pair[0]), BuildSearchCriteria(&pair[1])))
	}
	for _, n := range c.Not {
		terms = append(terms, "NOT ("+BuildSearchCriteria(&n)+")")
	}

	if c.Younger > 0 {
		terms = append(terms, "YOUNGER "+strconv.FormatInt(c.Younger, 10))
	}
	if c.Older > 0 {
		terms = append(terms, "OLDER "+strconv.FormatInt(c.Older, 10))
	}

	if c.Fuzzy {
		terms = append(terms, "FUZZY")
	}

	if len(terms) == 0 {
		return "ALL"
	}
	return strings.Join(terms, " ")
}

func flagSearchTerm(f imap.Flag, positive bool) string {
	name := strings.TrimPrefix(string(f), "\\")
	switch {
	case strings.EqualFold(name, "Seen"):
		name = "SEEN"
	case strings.EqualFold(name, "Answered"):
		name = "ANSWERED"
	case strings.EqualFold(name, "Flagged"):
		name = "FLAGGED"
	case strings.EqualFold(name, "Deleted"):
		name = "DELETED"
	case strings.EqualFold(name, "Draft"):
		name = "DRAFT"
	default:
		if positive {
			return "KEYWORD " + name
		}
		return "UNKEYWORD " + name
	}
	if positive {
		return name
	}
	return "UN" + name
}

func buildReturnOptions(opts *imap.SearchOptions) string {
	if opts == nil {
		return ""
	}
	var parts []string
	if opts.ReturnMin {
		parts = append(parts, "MIN")
	}
	if opts.ReturnMax {
		parts = append(parts, "MAX")
	}
	if opts.ReturnAll {
		parts = append(parts, "ALL")
	}
	if opts.ReturnCount {
		parts = append(parts, "COUNT")
	}
	if opts.ReturnSave {
		parts = append(parts, "SAVE")
	}
	if opts.ReturnPartial != nil {
		parts = append(parts, fmt.Sprintf("PARTIAL %d:%d", opts.ReturnPartial.Offset, opts.ReturnPartial.Offset+int32(opts.ReturnPartial.Count)-1))
	}
	if len(parts) == 0 {
		return ""
	}
	return "RETURN (" + strings.Join(parts, " ") + ") "
}

// SearchWithCriteria sends SEARCH (or ESEARCH when opts requests structured
// return data, RFC 4731/9394) built from a structured SearchCriteria tree.
func (c *Client) SearchWithCriteria(criteria *imap.SearchCriteria, opts *imap.SearchOptions) (*imap.SearchData, error) {
	c.collectUntagged()

	wire := buildReturnOptions(opts) + BuildSearchCriteria(criteria)

	result, err := c.execute("SEARCH", wire)
	if err != nil {
		return nil, err
	}
	if result.status != "OK" {
		return nil, commandResultError(result)
	}

	data := &imap.SearchData{}
	for _, line := range c.collectUntagged() {
		switch {
		case strings.HasPrefix(line, "SEARCH"):
			data.AllSeqNums = parseSearchResults([]string{line})
		case strings.HasPrefix(line, "ESEARCH"):
			parseESearchResponse(line[len("ESEARCH"):], data)
		}
	}
	return data, nil
}

func parseESearchResponse(s string, data *imap.SearchData) {
	s = strings.TrimPrefix(s, " ")
	if strings.HasPrefix(s, "(") {
		_, rest := extractParenthesized(s)
		s = strings.TrimPrefix(rest, " ")
	}
	fields := strings.Fields(s)
	for i := 0; i < len(fields); i++ {
		switch strings.ToUpper(fields[i]) {
		case "UID":
			data.UID = true
		case "MIN":
			if i+1 < len(fields) {
				i++
				if v, err := strconv.ParseUint(fields[i], 10, 32); err == nil {
					data.Min = uint32(v)
				}
			}
		case "MAX":
			if i+1 < len(fields) {
				i++
				if v, err := strconv.ParseUint(fields[i], 10, 32); err == nil {
					data.Max = uint32(v)
				}
			}
		case "COUNT":
			if i+1 < len(fields) {
				i++
				if v, err := strconv.ParseUint(fields[i], 10, 32); err == nil {
					data.Count = uint32(v)
				}
			}
		case "MODSEQ":
			if i+1 < len(fields) {
				i++
				if v, err := strconv.ParseUint(fields[i], 10, 64); err == nil {
					data.ModSeq = v
				}
			}
		case "ALL":
			if i+1 < len(fields) {
				i++
				if set, err := imap.ParseSeqSet(fields[i]); err == nil {
					data.All = set
				}
			}
		}
	}
}
