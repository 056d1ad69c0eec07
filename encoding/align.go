package encoding

import "golang.org/x/exp/constraints"

const RecordAlign = 8

func Align[I constraints.Integer](a, b I) I {
	return (a + b - 1) &^ (b - 1)
}
