package types

// SortMethod selects the key the discovered user list is ordered by.
//
//go:generate go tool enumer -type=SortMethod -trimprefix=SortMethod -linecomment
type SortMethod int

const (
	SortMethodName     SortMethod = iota // NAME
	SortMethodKarma                      // KARMA
	SortMethodPostDate                   // POST_DATE
)

// SortOrder is the direction of a sort.
//
//go:generate go tool enumer -type=SortOrder -trimprefix=SortOrder -linecomment
type SortOrder int

const (
	SortOrderAsc  SortOrder = iota // ASC
	SortOrderDesc                  // DESC
)

// TimeWindow bounds how far back the top listing of a subreddit reaches.
// The zero value is the default window of a week.
//
//go:generate go tool enumer -type=TimeWindow -trimprefix=TimeWindow -linecomment
type TimeWindow int

const (
	TimeWindowWeek  TimeWindow = iota // WEEK
	TimeWindowHour                    // HOUR
	TimeWindowDay                     // DAY
	TimeWindowMonth                   // MONTH
	TimeWindowYear                    // YEAR
	TimeWindowAll                     // ALL
)

// QueryValue returns the value of the `t` parameter for top listings.
func (w TimeWindow) QueryValue() string {
	switch w {
	case TimeWindowHour:
		return "hour"
	case TimeWindowDay:
		return "day"
	case TimeWindowMonth:
		return "month"
	case TimeWindowYear:
		return "year"
	case TimeWindowAll:
		return "all"
	case TimeWindowWeek:
		fallthrough
	default:
		return "week"
	}
}
