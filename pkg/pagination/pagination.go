package pagination

const (
	// DefaultLimit is the catalog page size when a limit is not provided.
	DefaultLimit = 8
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Skip  int
	Limit int
}

// Normalize clamps skip at zero and applies the limit bounds with the given default.
func (p Params) Normalize(defaultLimit int) Params {
	if p.Skip < 0 {
		p.Skip = 0
	}
	p.Limit = NormalizeLimitWithDefault(p.Limit, defaultLimit)
	return p
}

// Page is the pagination metadata returned next to list payloads.
type Page struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Skip    int   `json:"skip"`
	HasMore bool  `json:"has_more"`
}

// OffsetPage is Page for endpoints that call the offset "offset".
type OffsetPage struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

// NewPage builds the metadata for a window over total rows.
func NewPage(p Params, total int64) Page {
	return Page{Total: total, Limit: p.Limit, Skip: p.Skip, HasMore: HasMore(p.Skip, p.Limit, total)}
}

// NewOffsetPage is NewPage with offset naming.
func NewOffsetPage(p Params, total int64) OffsetPage {
	return OffsetPage{Total: total, Limit: p.Limit, Offset: p.Skip, HasMore: HasMore(p.Skip, p.Limit, total)}
}

// HasMore reports whether rows remain past the window [skip, skip+limit).
func HasMore(skip, limit int, total int64) bool {
	return int64(skip)+int64(limit) < total
}

// NormalizeLimit enforces the default and maximum limits.
func NormalizeLimit(limit int) int {
	return NormalizeLimitWithDefault(limit, DefaultLimit)
}

// NormalizeLimitWithDefault is NormalizeLimit with a caller-chosen default.
func NormalizeLimitWithDefault(limit, defaultLimit int) int {
	if defaultLimit <= 0 || defaultLimit > MaxLimit {
		defaultLimit = DefaultLimit
	}
	if limit <= 0 {
		return defaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
