package domain

import "fmt"

// Category names one of the integer-coded fields of the source tables.
type Category int

const (
	Season Category = iota + 1
	Weekday
	Weather
)

func (c Category) String() string {
	switch c {
	case Season:
		return "season"
	case Weekday:
		return "weekday"
	case Weather:
		return "weathersit"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// firstCode is the code of the first label: weekdays count from 0, the
// other categories from 1.
func (c Category) firstCode() int {
	if c == Weekday {
		return 0
	}
	return 1
}

var (
	seasonLabels  = []string{"Spring", "Summer", "Fall", "Winter"}
	weekdayLabels = []string{"Sun", "Mon", "Tue", "Wed", "Thur", "Fri", "Sat"}
)

// categoryLabels is the single code-to-label table, keyed by granularity.
// Labels are listed in code order, which is also the chart axis order.
var categoryLabels = map[Granularity]map[Category][]string{
	Daily: {
		Season:  seasonLabels,
		Weekday: weekdayLabels,
		Weather: {"Clear", "Cloudy", "Light Rain", "Heavy Rain"},
	},
	Hourly: {
		Season:  seasonLabels,
		Weekday: weekdayLabels,
		Weather: {"Clear", "Cloudy", "Light Snow", "Heavy Snow"},
	},
}

// Label maps a category code to its label for the given granularity.
func Label(g Granularity, c Category, code int) (string, error) {
	labels := categoryLabels[g][c]
	i := code - c.firstCode()
	if i < 0 || i >= len(labels) {
		return "", &UnknownCategoryError{Granularity: g, Category: c, Code: code}
	}
	return labels[i], nil
}

// Labels returns the labels of a category in code order. The returned slice
// is a copy.
func Labels(g Granularity, c Category) []string {
	labels := categoryLabels[g][c]
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}
