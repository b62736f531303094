package client

import (
	"strconv"
	"strings"

	imap "github.com/mailflow-dev/imapengine"
)

func buildSortCriteria(criteria []imap.SortCriterion) string {
	var parts []string
	for _, sc := range criteria {
		if sc.Reverse {
			parts = append(parts, "REVERSE "+string(sc.Key))
		} else {
			parts = append(parts, string(sc.Key))
		}
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// SortWithOptions sends the SORT command (RFC 5256) built from structured
// sort criteria and an optional search filter.
func (c *Client) SortWithOptions(opts *imap.SortOptions) (*imap.SortData, error) {
	if !c.HasCap(imap.CapSort) {
		return nil, imap.NotSupported(imap.CapSort)
	}

	c.collectUntagged()

	charset := opts.Charset
	if charset == "" {
		charset = "UTF-8"
	}

	filter := "ALL"
	if opts.SearchCriteria != nil {
		filter = BuildSearchCriteria(opts.SearchCriteria)
	}

	result, err := c.execute("SORT", buildSortCriteria(opts.SortCriteria), charset, filter)
	if err != nil {
		return nil, err
	}
	if result.status != "OK" {
		return nil, commandResultError(result)
	}

	data := &imap.SortData{}
	for _, line := range c.collectUntagged() {
		if strings.HasPrefix(line, "SORT ") {
			for _, f := range strings.Fields(line[len("SORT "):]) {
				if n, err := strconv.ParseUint(f, 10, 32); err == nil {
					data.AllNums = append(data.AllNums, uint32(n))
				}
			}
		}
	}
	return data, nil
}

// ThreadWithOptions sends the THREAD command (RFC 5256) using the given
// algorithm and search filter, returning the parsed thread tree.
func (c *Client) ThreadWithOptions(algorithm imap.ThreadAlgorithm, criteria *imap.SearchCriteria, charset string) (*imap.ThreadData, error) {
	if !c.HasCap(imap.CapThread) {
		return nil, imap.NotSupported(imap.CapThread)
	}

	c.collectUntagged()

	if charset == "" {
		charset = "UTF-8"
	}
	filter := "ALL"
	if criteria != nil {
		filter = BuildSearchCriteria(criteria)
	}

	result, err := c.execute("THREAD", string(algorithm), charset, filter)
	if err != nil {
		return nil, err
	}
	if result.status != "OK" {
		return nil, commandResultError(result)
	}

	data := &imap.ThreadData{}
	for _, line := range c.collectUntagged() {
		if strings.HasPrefix(line, "THREAD ") {
			data.Threads = append(data.Threads, parseThreadList(line[len("THREAD "):])...)
		}
	}
	return data, nil
}

// parseThreadList parses a sequence of parenthesized thread nodes, e.g.
// "(1)(2 3)(4 (5)(6))".
func parseThreadList(s string) []imap.Thread {
	var threads []imap.Thread
	s = strings.TrimSpace(s)
	for s != "" {
		inner, rest := extractParenthesized(s)
		if inner == "" {
			break
		}
		threads = append(threads, parseThreadNode(inner))
		s = strings.TrimSpace(rest)
	}
	return threads
}

// parseThreadNode parses the contents of one parenthesized thread: a
// leading run of bare numbers forms a chain, optionally followed by
// parenthesized sibling sub-threads.
func parseThreadNode(inner string) imap.Thread {
	inner = strings.TrimSpace(inner)
	var nums []uint32
	for {
		inner = strings.TrimSpace(inner)
		if inner == "" || strings.HasPrefix(inner, "(") {
			break
		}
		fields := strings.SplitN(inner, " ", 2)
		if n, err := strconv.ParseUint(fields[0], 10, 32); err == nil {
			nums = append(nums, uint32(n))
		}
		if len(fields) < 2 {
			inner = ""
			break
		}
		inner = fields[1]
	}

	children := parseThreadList(inner)

	if len(nums) == 0 {
		if len(children) == 1 {
			return children[0]
		}
		return imap.Thread{Children: children}
	}

	root := imap.Thread{Num: nums[0]}
	cur := &root
	for _, n := range nums[1:] {
		child := imap.Thread{Num: n}
		cur.Children = []imap.Thread{child}
		cur = &cur.Children[0]
	}
	cur.Children = append(cur.Children, children...)
	return root
}
