package common

import (
	"sort"
)

func GetStringwithDefault(value, defaul string) string {
	if value == "" {
		return defaul
	}
	return value
}

func GetIntegerwithDefault(value, defaul int) int {
	if value == 0 {
		return defaul
	}
	return value
}

// ArrayDistinct returns the distinct non-empty values of arr, sorted.
func ArrayDistinct(arr []string) []string {
	set := make(map[string]struct{}, len(arr))
	for _, v := range arr {
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
