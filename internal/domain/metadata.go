package domain

// Metadata describes one page of a listing.
type Metadata struct {
	CurrentPage  int
	FirstPage    int
	LastPage     int
	PageSize     int
	TotalRecords int
}

// NewMetadata builds page metadata. A page size below one yields no pages.
func NewMetadata(totalRecords, page, pageSize int) *Metadata {
	metadata := &Metadata{
		CurrentPage:  page,
		FirstPage:    1,
		PageSize:     pageSize,
		TotalRecords: totalRecords,
	}

	if pageSize > 0 {
		metadata.LastPage = (totalRecords + pageSize - 1) / pageSize
	}

	return metadata
}
