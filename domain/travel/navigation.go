package travel

// PageNavigation describes where a page sits among its travel's pages
type PageNavigation struct {
	HasPrevious    bool   `json:"hasPrevious"`
	HasNext        bool   `json:"hasNext"`
	PreviousPageID *int64 `json:"previousPageId"`
	NextPageID     *int64 `json:"nextPageId"`
	CurrentIndex   int    `json:"currentIndex"`
	TotalPages     int    `json:"totalPages"`
}

// ComputeNavigation locates pageID within orderedPageIDs, which must be
// sorted by creation time ascending. CurrentIndex is 1-based.
//
// A page missing from the list yields CurrentIndex 0 with the first page
// as next, the same answer the web client has always received.
func ComputeNavigation(orderedPageIDs []int64, pageID int64) PageNavigation {
	idx := -1
	for i, id := range orderedPageIDs {
		if id == pageID {
			idx = i
			break
		}
	}

	total := len(orderedPageIDs)
	nav := PageNavigation{
		HasPrevious:  idx > 0,
		HasNext:      idx < total-1,
		CurrentIndex: idx + 1,
		TotalPages:   total,
	}
	if nav.HasPrevious {
		prev := orderedPageIDs[idx-1]
		nav.PreviousPageID = &prev
	}
	if nav.HasNext {
		next := orderedPageIDs[idx+1]
		nav.NextPageID = &next
	}
	return nav
}
