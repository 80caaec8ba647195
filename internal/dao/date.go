package dao

import "strings"

// Date is a normalized date split into the parts ArchivesSpace expects
type Date struct {
	Normal     string `json:"normal,omitempty" yaml:"normal,omitempty"`
	Begin      string `json:"begin,omitempty" yaml:"begin,omitempty"`
	End        string `json:"end,omitempty" yaml:"end,omitempty"`
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// IsZero reports whether no date was supplied
func (d Date) IsZero() bool {
	return d.Begin == ""
}

// IsRange reports whether the date has a distinct end
func (d Date) IsRange() bool {
	return d.End != "" && d.End != d.Begin
}

// ParseDate splits an EAD normal date ("1920" or "1920/1925").
// A range whose ends are equal collapses to a single date, and an open
// start takes the end as its only date.
func ParseDate(normal string) Date {
	normal = strings.TrimSpace(normal)
	if normal == "" {
		return Date{}
	}

	begin, end, found := strings.Cut(normal, "/")
	begin = strings.TrimSpace(begin)
	end = strings.TrimSpace(end)
	if begin == "" {
		// open start ("/1925"): anchor on the end
		begin = end
	}
	if begin == "" {
		return Date{}
	}
	if !found || end == "" || end == begin {
		return Date{Normal: normal, Begin: begin, Expression: begin}
	}

	return Date{Normal: normal, Begin: begin, End: end, Expression: begin + "-" + end}
}
