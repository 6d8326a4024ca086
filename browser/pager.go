package browser

// windowSize is the maximum number of page buttons shown at once.
const windowSize = 5

// PageWindow returns the page numbers to show as buttons, centered on current
// where the bounds allow. It is empty when there are no pages.
func PageWindow(current, total int) []int {
	start := max(1, current-windowSize/2)
	end := min(total, start+windowSize-1)
	start = max(1, end-windowSize+1)

	if end < start {
		return []int{}
	}
	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}
