package matcher

import "strings"

var complement [256]byte

func init() {
	complement['A'] = 'T'
	complement['T'] = 'A'
	complement['C'] = 'G'
	complement['G'] = 'C'
	complement['N'] = 'N'
	complement['+'] = '+'
}

// Complement returns the nucleotide complement of seq. The second return
// value is false when seq holds a character outside A, C, G, T, N and '+'.
func Complement(seq string) (string, bool) {
	out := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		c := complement[seq[i]]
		if c == 0 {
			return "", false
		}
		out[i] = c
	}
	return string(out), true
}

// Reverse returns seq back to front
func Reverse(seq string) string {
	out := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		out[len(seq)-1-i] = seq[i]
	}
	return string(out)
}

// ReverseComplement combines Reverse and Complement
func ReverseComplement(seq string) (string, bool) {
	c, ok := Complement(seq)
	if !ok {
		return "", false
	}
	return Reverse(c), true
}

func normalize(index string) string {
	return strings.ToUpper(strings.TrimSpace(index))
}
