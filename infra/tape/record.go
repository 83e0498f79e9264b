package tape

import (
	"errors"
	"fmt"
	"hash/crc32"
	"strconv"
	"strings"
)

// Record is one applied simulation event on the tape. Data is an opaque
// payload that must not contain '|' or newlines.
type Record struct {
	Kind uint8
	Step uint64
	Data []byte
}

var errCorrupt = errors.New("tape: corrupt record")

// line layout: kind|step|data|crc, crc covering everything before it.
func encodeLine(r Record) []byte {
	body := fmt.Sprintf("%d|%d|%s", r.Kind, r.Step, r.Data)
	return []byte(fmt.Sprintf("%s|%08x\n", body, crc32.ChecksumIEEE([]byte(body))))
}

func decodeLine(line string) (Record, error) {
	i := strings.LastIndexByte(line, '|')
	if i < 0 {
		return Record{}, errCorrupt
	}
	body, sumHex := line[:i], line[i+1:]

	sum, err := strconv.ParseUint(sumHex, 16, 32)
	if err != nil || crc32.ChecksumIEEE([]byte(body)) != uint32(sum) {
		return Record{}, errCorrupt
	}

	parts := strings.SplitN(body, "|", 3)
	if len(parts) != 3 {
		return Record{}, errCorrupt
	}
	kind, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return Record{}, errCorrupt
	}
	step, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return Record{}, errCorrupt
	}
	return Record{Kind: uint8(kind), Step: step, Data: []byte(parts[2])}, nil
}
