package domain

// Page is a slice of results plus the paging metadata the console expects.
type Page[T any] struct {
	PageNum         int   `json:"pageNum"`
	PageSize        int   `json:"pageSize"`
	Size            int   `json:"size"`
	Total           int64 `json:"total"`
	Pages           int   `json:"pages"`
	List            []T   `json:"list"`
	StartRow        int64 `json:"startRow"`
	EndRow          int64 `json:"endRow"`
	PrePage         int   `json:"prePage"`
	NextPage        int   `json:"nextPage"`
	IsFirstPage     bool  `json:"isFirstPage"`
	IsLastPage      bool  `json:"isLastPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
	HasNextPage     bool  `json:"hasNextPage"`
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// NormalizePage clamps paging parameters to sane bounds.
func NormalizePage(pageNum, pageSize int) (int, int) {
	if pageNum < 1 {
		pageNum = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return pageNum, pageSize
}

// NewPage builds a Page from one page of items and the total match count.
func NewPage[T any](items []T, total int64, pageNum, pageSize int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}

	p := Page[T]{
		PageNum:         pageNum,
		PageSize:        pageSize,
		Size:            len(items),
		Total:           total,
		Pages:           pages,
		List:            items,
		IsFirstPage:     pageNum == 1,
		IsLastPage:      pageNum >= pages,
		HasPreviousPage: pageNum > 1,
		HasNextPage:     pageNum < pages,
	}
	if len(items) > 0 {
		p.StartRow = int64(pageNum-1)*int64(pageSize) + 1
		p.EndRow = p.StartRow + int64(len(items)) - 1
	}
	if p.HasPreviousPage {
		p.PrePage = pageNum - 1
	}
	if p.HasNextPage {
		p.NextPage = pageNum + 1
	}
	return p
}
