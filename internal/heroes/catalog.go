// Package heroes holds the static Captain's Mode hero catalog.
//
// Hero ids mirror the Dota 2 numeric ids, which contain known gaps
// (24 was never assigned, the 11x range is sparse). Validity is
// membership in this list, never a range check.
package heroes

// Catalog is the fixed allow-list of draftable hero ids, in catalog order.
var Catalog = []int{
	1, 2, 3, 4, 5, 6, 7, 8, 9, 10,
	11, 12, 13, 14, 15, 16, 17, 18, 19, 20,
	21, 22, 23, 25, 26, 27, 28, 29, 30,
	31, 32, 33, 34, 35, 36, 37, 38, 39, 40,
	41, 42, 43, 44, 45, 46, 47, 48, 49, 50,
	51, 52, 53, 54, 55, 56, 57, 58, 59, 60,
	61, 62, 63, 64, 65, 66, 67, 68, 69, 70,
	71, 72, 73, 74, 75, 76, 77, 78, 79, 80,
	81, 82, 83, 84, 85, 86, 87, 88, 89, 90,
	91, 92, 93, 94, 95, 96, 97, 98, 99, 100,
	101, 102, 103, 104, 105, 106, 107, 108, 109, 110,
	111, 112, 113, 114, 119, 120, 121, 123, 126, 128,
	129, 131, 135, 136, 137, 138,
}

var valid = func() map[int]bool {
	m := make(map[int]bool, len(Catalog))
	for _, id := range Catalog {
		m[id] = true
	}
	return m
}()

// Valid reports whether id is a draftable hero id.
func Valid(id int) bool {
	return valid[id]
}

// Available returns the catalog minus the given used ids, preserving
// catalog order.
func Available(used []int) []int {
	taken := make(map[int]bool, len(used))
	for _, id := range used {
		taken[id] = true
	}
	out := make([]int, 0, len(Catalog)-len(used))
	for _, id := range Catalog {
		if !taken[id] {
			out = append(out, id)
		}
	}
	return out
}
