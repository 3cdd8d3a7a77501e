package diagnose

import "strconv"

func cellStr(addr uint16) string {
	return strconv.Itoa(int(addr))
}

func rateStr(rate uint64) string {
	return strconv.FormatUint(rate, 10)
}

func cellsStr(cells []uint16) string {
	s := "["
	for i, c := range cells {
		if i > 0 {
			s += ","
		}
		s += cellStr(c)
	}
	return s + "]"
}
