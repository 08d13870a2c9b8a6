package utils

import "strings"

// SplitList splits a comma separated list, trimming blanks and dropping empty entries.
func SplitList(s string) []string {
	list := make([]string, 0)
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			list = append(list, v)
		}
	}
	return list
}
