package emit

import (
	"encoding/json"
	"strings"
)

// mapping links a generated position to a source position. All fields are 0-based.
type mapping struct {
	genLine int
	genCol  int
	srcLine int
	srcCol  int
}

type sourceMapV3 struct {
	Version        int      `json:"version"`
	File           string   `json:"file"`
	SourceRoot     string   `json:"sourceRoot"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

func renderSourceMap(file, source string, sourceContent *string, mappings []mapping) (string, error) {
	m := sourceMapV3{
		Version:  3,
		File:     file,
		Sources:  []string{source},
		Names:    []string{},
		Mappings: encodeMappings(mappings),
	}
	if sourceContent != nil {
		m.SourcesContent = []string{*sourceContent}
	}
	out, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// encodeMappings renders mappings, sorted by generated position, as base64 VLQ
// segments for a single source.
func encodeMappings(mappings []mapping) string {
	var b strings.Builder
	line := 0
	prevGenCol, prevSrcLine, prevSrcCol := 0, 0, 0
	first := true

	for _, m := range mappings {
		for line < m.genLine {
			b.WriteByte(';')
			line++
			prevGenCol = 0
			first = true
		}
		if !first {
			b.WriteByte(',')
		}
		first = false

		writeVLQ(&b, m.genCol-prevGenCol)
		writeVLQ(&b, 0)
		writeVLQ(&b, m.srcLine-prevSrcLine)
		writeVLQ(&b, m.srcCol-prevSrcCol)

		prevGenCol = m.genCol
		prevSrcLine = m.srcLine
		prevSrcCol = m.srcCol
	}
	return b.String()
}

const base64Digits = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

func writeVLQ(b *strings.Builder, value int) {
	v := value << 1
	if value < 0 {
		v = (-value << 1) | 1
	}
	for {
		digit := v & 0x1f
		v >>= 5
		if v > 0 {
			digit |= 0x20
		}
		b.WriteByte(base64Digits[digit])
		if v == 0 {
			return
		}
	}
}

// decodeVLQ reads one value from s, returning the value and the bytes consumed.
func decodeVLQ(s string) (int, int) {
	result, shift := 0, 0
	for i := 0; i < len(s); i++ {
		digit := strings.IndexByte(base64Digits, s[i])
		if digit < 0 {
			return 0, 0
		}
		result |= (digit & 0x1f) << shift
		shift += 5
		if digit&0x20 == 0 {
			if result&1 == 1 {
				return -(result >> 1), i + 1
			}
			return result >> 1, i + 1
		}
	}
	return 0, 0
}
