package models

import (
	"fmt"
	"time"
)

// SortDirection of a SortSpec
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

func (d SortDirection) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

// SortSpec orders a result by one column. A nil *SortSpec means "no sort".
type SortSpec struct {
	Column    string
	Direction SortDirection
}

// PageRequest is the structured table+filter+sort request handed to drivers
type PageRequest struct {
	Table  TableRef
	Filter string // raw predicate text, empty means no filter
	Sort   *SortSpec
}

// ResultPage is one bounded, offset-addressed slice of a query's rows
type ResultPage struct {
	Columns       []string
	Rows          []Row
	Offset        int
	TotalEstimate *int64
	HasMore       bool
	Statement     string
	Duration      time.Duration
}

// TotalString formats the total estimate, "-" when unknown
func (p *ResultPage) TotalString() string {
	if p == nil || p.TotalEstimate == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *p.TotalEstimate)
}
