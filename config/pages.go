package config

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var whitespace = regexp.MustCompile(`\s`)

// ParsePageSpecifier parses a page specification string and returns the
// sorted, de-duplicated 1-based page numbers.
// Supports formats: "1", "1,3", "1-5", "1,3-5,7"
func ParsePageSpecifier(pages string) ([]int, error) {
	pages = whitespace.ReplaceAllString(pages, "")
	if pages == "" {
		return nil, fmt.Errorf("empty page specification")
	}

	var pageList []int
	for _, part := range strings.Split(pages, ",") {
		if part == "" {
			return nil, fmt.Errorf("empty entry in page specification %q", pages)
		}
		if strings.Contains(part, "-") {
			rangeParts := strings.Split(part, "-")
			if len(rangeParts) != 2 {
				return nil, fmt.Errorf("invalid range: %s", part)
			}
			start, err := strconv.Atoi(rangeParts[0])
			if err != nil {
				return nil, fmt.Errorf("invalid start page: %s", rangeParts[0])
			}
			end, err := strconv.Atoi(rangeParts[1])
			if err != nil {
				return nil, fmt.Errorf("invalid end page: %s", rangeParts[1])
			}
			if start < 1 {
				return nil, fmt.Errorf("page numbers must be positive, got %d", start)
			}
			if start > end {
				return nil, fmt.Errorf("invalid range: start > end (%d > %d)", start, end)
			}
			for i := start; i <= end; i++ {
				pageList = append(pageList, i)
			}
			continue
		}

		pageNum, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid page number: %s", part)
		}
		if pageNum < 1 {
			return nil, fmt.Errorf("page numbers must be positive, got %d", pageNum)
		}
		pageList = append(pageList, pageNum)
	}

	sort.Ints(pageList)
	deduped := make([]int, 0, len(pageList))
	for i, page := range pageList {
		if i == 0 || page != pageList[i-1] {
			deduped = append(deduped, page)
		}
	}
	return deduped, nil
}
