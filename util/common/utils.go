package common

import (
	"fmt"

	"github.com/inhies/go-bytesize"
)

// GetSize renders a byte count the way transfer status lines show it.
func GetSize(sizeVal int64) string {
	size := bytesize.New(float64(sizeVal))
	return size.String()
}

// TransferStatus formats "[sent of total]" for progress lines.
func TransferStatus(sent, total int64) string {
	return fmt.Sprintf("[%s of %s]", GetSize(sent), GetSize(total))
}
