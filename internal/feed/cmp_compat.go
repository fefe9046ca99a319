package feed

// cmpOr returns the first of its arguments that is not equal to the zero
// value, or zero if all are. Same behavior as cmp.Or (Go 1.22+).
func cmpOr(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
