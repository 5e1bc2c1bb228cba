package cluster

import "strings"

// counter is a frequency table that remembers first-seen order for ties.
type counter struct {
	counts map[string]int
	order  []string
}

func (c *counter) add(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	if _, ok := c.counts[s]; !ok {
		c.order = append(c.order, s)
	}
	c.counts[s]++
}

// top returns the most frequent value; the earliest seen wins ties.
func (c *counter) top() string {
	best, bestN := "", 0
	for _, s := range c.order {
		if n := c.counts[s]; n > bestN {
			best, bestN = s, n
		}
	}
	return best
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func (o *orderedSet) add(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if o.seen == nil {
		o.seen = map[string]struct{}{}
	}
	if _, ok := o.seen[s]; ok {
		return
	}
	o.seen[s] = struct{}{}
	o.items = append(o.items, s)
}

func (o *orderedSet) list() []string {
	if o.items == nil {
		return []string{}
	}
	return append([]string(nil), o.items...)
}
